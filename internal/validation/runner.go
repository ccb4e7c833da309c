package validation

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tumorboard/tumorboard/internal/domain"
)

// VariantAssessor is the engine-facing contract the runner consumes.
type VariantAssessor interface {
	AssessVariant(ctx context.Context, input domain.VariantInput) (*domain.ActionabilityAssessment, error)
}

// Runner executes a benchmark dataset against the assessment pipeline.
type Runner struct {
	assessor      VariantAssessor
	maxConcurrent int
	logger        *logrus.Logger
}

// NewRunner creates a benchmark runner. maxConcurrent below 1 falls back to
// a default of 3: benchmark runs are rate-limit heavy on both external
// services.
func NewRunner(assessor VariantAssessor, maxConcurrent int, logger *logrus.Logger) *Runner {
	if maxConcurrent < 1 {
		maxConcurrent = 3
	}
	return &Runner{
		assessor:      assessor,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// Run assesses every gold-standard entry with bounded concurrency and folds
// the scored results into metrics. Entries whose assessment fails outright
// are logged and excluded from scoring; metrics cover only completed
// assessments, and the fold happens strictly after all tasks finish.
func (r *Runner) Run(ctx context.Context, entries []domain.GoldStandardEntry) (*domain.ValidationMetrics, error) {
	r.logger.WithFields(logrus.Fields{
		"cases":          len(entries),
		"max_concurrent": r.maxConcurrent,
	}).Info("Starting validation run")

	results := make([]*domain.ValidationResult, len(entries))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.maxConcurrent)

	for i, entry := range entries {
		i, entry := i, entry
		group.Go(func() error {
			input := domain.VariantInput{
				Gene:      entry.Gene,
				Variant:   entry.Variant,
				TumorType: entry.TumorType,
			}
			assessment, err := r.assessor.AssessVariant(groupCtx, input)
			if err != nil {
				r.logger.WithFields(logrus.Fields{
					"gene":    entry.Gene,
					"variant": entry.Variant,
				}).WithError(err).Error("Validation case failed to assess")
				return nil
			}
			results[i] = &domain.ValidationResult{
				Gene:            entry.Gene,
				Variant:         entry.Variant,
				TumorType:       entry.TumorType,
				ExpectedTier:    entry.ExpectedTier,
				PredictedTier:   assessment.Tier,
				IsCorrect:       assessment.Tier == entry.ExpectedTier,
				ConfidenceScore: assessment.ConfidenceScore,
				Assessment:      assessment,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	completed := make([]*domain.ValidationResult, 0, len(results))
	for _, result := range results {
		if result != nil {
			completed = append(completed, result)
		}
	}

	metrics := domain.ComputeMetrics(completed)

	r.logger.WithFields(logrus.Fields{
		"attempted": len(entries),
		"completed": len(completed),
		"accuracy":  metrics.Accuracy,
	}).Info("Validation run complete")

	return metrics, nil
}
