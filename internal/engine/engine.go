// Package engine wires evidence retrieval and model assessment into the
// single- and batch-assessment pipelines.
package engine

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tumorboard/tumorboard/internal/domain"
	"github.com/tumorboard/tumorboard/pkg/external"
)

// AssessmentService is the model-facing contract the engine consumes.
type AssessmentService interface {
	AssessVariant(ctx context.Context, input domain.VariantInput, evidence *domain.Evidence) (*domain.ActionabilityAssessment, error)
}

// Recorder persists completed assessments. Recording failures are logged
// and never fail the assessment itself.
type Recorder interface {
	Record(ctx context.Context, assessment *domain.ActionabilityAssessment) error
}

// Engine runs the full assessment pipeline: fetch evidence, generate the
// assessment, optionally record it.
type Engine struct {
	evidence      external.EvidenceFetcher
	assessor      AssessmentService
	recorder      Recorder
	maxConcurrent int
	logger        *logrus.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder attaches an assessment history recorder.
func WithRecorder(recorder Recorder) Option {
	return func(e *Engine) {
		e.recorder = recorder
	}
}

// WithMaxConcurrent bounds batch parallelism. Values below 1 fall back to
// the default of 5.
func WithMaxConcurrent(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxConcurrent = n
		}
	}
}

// New creates an assessment engine.
func New(evidence external.EvidenceFetcher, assessor AssessmentService, logger *logrus.Logger, opts ...Option) *Engine {
	engine := &Engine{
		evidence:      evidence,
		assessor:      assessor,
		maxConcurrent: 5,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// AssessVariant runs the pipeline for one variant.
func (e *Engine) AssessVariant(ctx context.Context, input domain.VariantInput) (*domain.ActionabilityAssessment, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	log := e.logger.WithFields(logrus.Fields{
		"gene":    input.Gene,
		"variant": input.Variant,
	})
	log.Info("Starting variant assessment")

	evidence, err := e.evidence.FetchEvidence(ctx, input.Gene, input.Variant)
	if err != nil {
		return nil, fmt.Errorf("evidence retrieval for %s: %w", input.Label(), err)
	}
	if !evidence.HasEvidence() {
		log.Warn("No database evidence found, assessing anyway")
	}

	assessment, err := e.assessor.AssessVariant(ctx, input, evidence)
	if err != nil {
		return nil, fmt.Errorf("assessment for %s: %w", input.Label(), err)
	}

	if e.recorder != nil {
		if err := e.recorder.Record(ctx, assessment); err != nil {
			log.WithError(err).Warn("Failed to record assessment history")
		}
	}

	return assessment, nil
}

// BatchFailure pairs a failed input with its error.
type BatchFailure struct {
	Input domain.VariantInput
	Err   error
}

// BatchOutcome is the result of a batch run: the successful assessments in
// input order, plus the failures that were isolated along the way.
type BatchOutcome struct {
	Assessments []*domain.ActionabilityAssessment
	Failed      []BatchFailure
}

// itemResult carries one slot of the batch so results can be reassembled in
// input order regardless of completion order.
type itemResult struct {
	assessment *domain.ActionabilityAssessment
	err        error
}

// BatchAssess runs the pipeline over many variants with bounded
// concurrency. One variant's failure never aborts the batch; the returned
// assessments preserve input order.
func (e *Engine) BatchAssess(ctx context.Context, inputs []domain.VariantInput) (*BatchOutcome, error) {
	if len(inputs) == 0 {
		return &BatchOutcome{}, nil
	}

	e.logger.WithFields(logrus.Fields{
		"variants":       len(inputs),
		"max_concurrent": e.maxConcurrent,
	}).Info("Starting batch assessment")

	results := make([]itemResult, len(inputs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.maxConcurrent)

	for i, input := range inputs {
		i, input := i, input
		group.Go(func() error {
			assessment, err := e.AssessVariant(groupCtx, input)
			results[i] = itemResult{assessment: assessment, err: err}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	outcome := &BatchOutcome{}
	for i, result := range results {
		if result.err != nil {
			e.logger.WithFields(logrus.Fields{
				"gene":    inputs[i].Gene,
				"variant": inputs[i].Variant,
			}).WithError(result.err).Error("Variant assessment failed")
			outcome.Failed = append(outcome.Failed, BatchFailure{Input: inputs[i], Err: result.err})
			continue
		}
		outcome.Assessments = append(outcome.Assessments, result.assessment)
	}

	e.logger.WithFields(logrus.Fields{
		"succeeded": len(outcome.Assessments),
		"failed":    len(outcome.Failed),
	}).Info("Batch assessment complete")

	return outcome, nil
}

// TierDistribution counts assessments per tier, keyed by display form.
func (o *BatchOutcome) TierDistribution() map[string]int {
	distribution := make(map[string]int)
	for _, assessment := range o.Assessments {
		distribution[assessment.Tier.String()]++
	}
	return distribution
}
