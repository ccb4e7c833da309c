package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumorboard/tumorboard/internal/domain"
)

type stubFetcher struct {
	err error
}

func (s *stubFetcher) FetchEvidence(ctx context.Context, gene, variant string) (*domain.Evidence, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Evidence{
		VariantID: gene + ":" + variant,
		Gene:      gene,
		Variant:   variant,
	}, nil
}

// stubAssessor returns a canned assessment per variant, or an error for
// variants listed in failOn.
type stubAssessor struct {
	mu     sync.Mutex
	failOn map[string]error
	calls  int
}

func (s *stubAssessor) AssessVariant(ctx context.Context, input domain.VariantInput, evidence *domain.Evidence) (*domain.ActionabilityAssessment, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if err, ok := s.failOn[input.Label()]; ok {
		return nil, err
	}
	return &domain.ActionabilityAssessment{
		Gene:            input.Gene,
		Variant:         input.Variant,
		TumorType:       input.TumorType,
		Tier:            domain.TierII,
		ConfidenceScore: 0.8,
		Summary:         "stub",
		Rationale:       "stub",
	}, nil
}

type stubRecorder struct {
	mu       sync.Mutex
	recorded []string
	err      error
}

func (s *stubRecorder) Record(ctx context.Context, assessment *domain.ActionabilityAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded = append(s.recorded, assessment.Gene+" "+assessment.Variant)
	return s.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestEngine_AssessVariant(t *testing.T) {
	engine := New(&stubFetcher{}, &stubAssessor{}, quietLogger())

	assessment, err := engine.AssessVariant(context.Background(), domain.VariantInput{Gene: "BRAF", Variant: "V600E"})

	require.NoError(t, err)
	assert.Equal(t, "BRAF", assessment.Gene)
	assert.Equal(t, domain.TierII, assessment.Tier)
}

func TestEngine_AssessVariant_InvalidInput(t *testing.T) {
	engine := New(&stubFetcher{}, &stubAssessor{}, quietLogger())

	_, err := engine.AssessVariant(context.Background(), domain.VariantInput{Variant: "V600E"})
	assert.ErrorIs(t, err, domain.ErrEmptyGene)
}

func TestEngine_AssessVariant_EvidenceErrorPropagates(t *testing.T) {
	wantErr := errors.New("annotation service down")
	engine := New(&stubFetcher{err: wantErr}, &stubAssessor{}, quietLogger())

	_, err := engine.AssessVariant(context.Background(), domain.VariantInput{Gene: "BRAF", Variant: "V600E"})
	assert.ErrorIs(t, err, wantErr)
}

func TestEngine_AssessVariant_RecorderFailureIsNonFatal(t *testing.T) {
	recorder := &stubRecorder{err: errors.New("disk full")}
	engine := New(&stubFetcher{}, &stubAssessor{}, quietLogger(), WithRecorder(recorder))

	_, err := engine.AssessVariant(context.Background(), domain.VariantInput{Gene: "BRAF", Variant: "V600E"})

	require.NoError(t, err)
	assert.Equal(t, []string{"BRAF V600E"}, recorder.recorded)
}

func TestEngine_BatchAssess_OrderPreservedWithFailureIsolation(t *testing.T) {
	inputs := []domain.VariantInput{
		{Gene: "BRAF", Variant: "V600E"},
		{Gene: "EGFR", Variant: "L858R"},
		{Gene: "KRAS", Variant: "G12C"},
		{Gene: "TP53", Variant: "R175H"},
		{Gene: "ALK", Variant: "F1174L"},
	}
	assessor := &stubAssessor{
		failOn: map[string]error{"KRAS G12C": errors.New("model unavailable")},
	}
	engine := New(&stubFetcher{}, assessor, quietLogger(), WithMaxConcurrent(2))

	outcome, err := engine.BatchAssess(context.Background(), inputs)

	require.NoError(t, err)
	require.Len(t, outcome.Assessments, 4)
	got := make([]string, 0, len(outcome.Assessments))
	for _, a := range outcome.Assessments {
		got = append(got, a.Gene+" "+a.Variant)
	}
	assert.Equal(t, []string{"BRAF V600E", "EGFR L858R", "TP53 R175H", "ALK F1174L"}, got)

	require.Len(t, outcome.Failed, 1)
	assert.Equal(t, "KRAS", outcome.Failed[0].Input.Gene)
	assert.Equal(t, 5, assessor.calls, "every input must be attempted")
}

func TestEngine_BatchAssess_Empty(t *testing.T) {
	engine := New(&stubFetcher{}, &stubAssessor{}, quietLogger())

	outcome, err := engine.BatchAssess(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, outcome.Assessments)
	assert.Empty(t, outcome.Failed)
}

func TestBatchOutcome_TierDistribution(t *testing.T) {
	outcome := &BatchOutcome{
		Assessments: []*domain.ActionabilityAssessment{
			{Tier: domain.TierI},
			{Tier: domain.TierI},
			{Tier: domain.TierIII},
		},
	}

	assert.Equal(t, map[string]int{"Tier I": 2, "Tier III": 1}, outcome.TierDistribution())
}
