package domain

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultFor(expected, predicted ActionabilityTier, confidence float64) *ValidationResult {
	return &ValidationResult{
		Gene:            "BRAF",
		Variant:         "V600E",
		TumorType:       "Melanoma",
		ExpectedTier:    expected,
		PredictedTier:   predicted,
		IsCorrect:       expected == predicted,
		ConfidenceScore: confidence,
		Assessment: &ActionabilityAssessment{
			Gene:            "BRAF",
			Variant:         "V600E",
			TumorType:       "Melanoma",
			Tier:            predicted,
			ConfidenceScore: confidence,
			Summary:         "Assessment summary",
			Rationale:       "Assessment rationale",
		},
	}
}

func TestGoldStandardEntry_Validate(t *testing.T) {
	entry := &GoldStandardEntry{
		Gene:         "BRAF",
		Variant:      "V600E",
		TumorType:    "Melanoma",
		ExpectedTier: TierI,
	}
	require.NoError(t, entry.Validate())

	bad := &GoldStandardEntry{Gene: "BRAF", Variant: "V600E", ExpectedTier: "Tier 1"}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidTier)

	missing := &GoldStandardEntry{Variant: "V600E", ExpectedTier: TierI}
	assert.ErrorIs(t, missing.Validate(), ErrEmptyGene)
}

func TestComputeMetrics_AllCorrect(t *testing.T) {
	results := []*ValidationResult{
		resultFor(TierI, TierI, 0.9),
		resultFor(TierII, TierII, 0.8),
		resultFor(TierIII, TierIII, 0.7),
	}

	metrics := ComputeMetrics(results)

	assert.Equal(t, 3, metrics.TotalCases)
	assert.Equal(t, 3, metrics.CorrectPredictions)
	assert.Equal(t, 1.0, metrics.Accuracy)
	assert.InDelta(t, 0.8, metrics.AverageConfidence, 1e-9)
	assert.Empty(t, metrics.FailureAnalysis)

	for _, tm := range metrics.TierMetrics {
		assert.Zero(t, tm.FalsePositives)
		assert.Zero(t, tm.FalseNegatives)
	}
}

func TestComputeMetrics_PartiallyIncorrect(t *testing.T) {
	// 5 cases, 2 incorrect.
	results := []*ValidationResult{
		resultFor(TierI, TierI, 0.9),
		resultFor(TierI, TierII, 0.6),
		resultFor(TierII, TierII, 0.8),
		resultFor(TierIII, TierI, 0.5),
		resultFor(TierIV, TierIV, 0.7),
	}

	metrics := ComputeMetrics(results)

	assert.Equal(t, 5, metrics.TotalCases)
	assert.Equal(t, 3, metrics.CorrectPredictions)
	assert.InDelta(t, 0.6, metrics.Accuracy, 1e-9)
	assert.Len(t, metrics.FailureAnalysis, 2)

	// A single misprediction updates two different tiers' counters.
	tierI := metrics.TierMetrics[string(TierI)]
	require.NotNil(t, tierI)
	assert.Equal(t, 1, tierI.TruePositives)
	assert.Equal(t, 1, tierI.FalseNegatives) // expected Tier I, predicted Tier II
	assert.Equal(t, 1, tierI.FalsePositives) // predicted Tier I for a Tier III case

	tierIII := metrics.TierMetrics[string(TierIII)]
	require.NotNil(t, tierIII)
	assert.Equal(t, 1, tierIII.FalseNegatives)
	assert.Equal(t, 0, tierIII.FalsePositives)
}

func TestComputeMetrics_Empty(t *testing.T) {
	metrics := ComputeMetrics(nil)
	assert.Zero(t, metrics.TotalCases)
	assert.Zero(t, metrics.Accuracy)
	assert.Zero(t, metrics.AverageConfidence)
	assert.Empty(t, metrics.FailureAnalysis)
}

func TestComputeMetrics_FailureRecord(t *testing.T) {
	long := resultFor(TierI, TierIII, 0.42)
	long.Assessment.Summary = strings.Repeat("x", 250)

	unknown := resultFor(TierII, TierUnknown, 0.3)

	metrics := ComputeMetrics([]*ValidationResult{long, unknown})

	require.Len(t, metrics.FailureAnalysis, 2)

	first := metrics.FailureAnalysis[0]
	assert.Equal(t, "BRAF V600E", first.Variant)
	assert.Equal(t, "Tier I", first.Expected)
	assert.Equal(t, "Tier III", first.Predicted)
	assert.Equal(t, "2", first.TierDistance)
	assert.Equal(t, "42.00%", first.Confidence)
	assert.Len(t, first.Summary, 203)
	assert.True(t, strings.HasSuffix(first.Summary, "..."))

	second := metrics.FailureAnalysis[1]
	assert.Equal(t, "999", second.TierDistance)
}

func TestComputeMetrics_FailureSummaryTruncatesOnCharacters(t *testing.T) {
	result := resultFor(TierI, TierIII, 0.42)
	// Multi-byte characters spanning the truncation boundary must survive.
	result.Assessment.Summary = strings.Repeat("µ", 250)

	metrics := ComputeMetrics([]*ValidationResult{result})

	require.Len(t, metrics.FailureAnalysis, 1)
	summary := metrics.FailureAnalysis[0].Summary
	assert.True(t, utf8.ValidString(summary))
	assert.Equal(t, failureSummaryLimit+3, utf8.RuneCountInString(summary))
	assert.True(t, strings.HasSuffix(summary, "..."))
	assert.Equal(t, strings.Repeat("µ", failureSummaryLimit)+"...", summary)
}

func TestTierMetrics_Calculate(t *testing.T) {
	metrics := &TierMetrics{
		Tier:           TierI,
		TruePositives:  8,
		FalsePositives: 2,
		FalseNegatives: 1,
	}
	metrics.Calculate()

	assert.InDelta(t, 0.8, metrics.Precision, 1e-9)
	assert.InDelta(t, 8.0/9.0, metrics.Recall, 1e-9)
	expectedF1 := 2 * metrics.Precision * metrics.Recall / (metrics.Precision + metrics.Recall)
	assert.InDelta(t, expectedF1, metrics.F1Score, 1e-9)

	empty := &TierMetrics{Tier: TierII}
	empty.Calculate()
	assert.Zero(t, empty.Precision)
	assert.Zero(t, empty.Recall)
	assert.Zero(t, empty.F1Score)
}

func TestValidationMetrics_Report(t *testing.T) {
	results := []*ValidationResult{
		resultFor(TierI, TierI, 0.9),
		resultFor(TierII, TierIII, 0.5),
	}
	metrics := ComputeMetrics(results)
	report := metrics.Report()

	assert.Contains(t, report, "VALIDATION REPORT")
	assert.Contains(t, report, "Total Cases: 2")
	assert.Contains(t, report, "FAILURE ANALYSIS (1 errors)")

	// Ordered tiers appear in canonical order.
	idxI := strings.Index(report, "\nTier I:")
	idxII := strings.Index(report, "\nTier II:")
	assert.Greater(t, idxII, idxI)
}
