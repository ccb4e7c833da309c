package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// GoldStandardEntry is one curated benchmark case: a variant with the tier a
// correct assessment is expected to assign. Entries are loaded once and
// read-only for the run's lifetime.
type GoldStandardEntry struct {
	Gene         string            `json:"gene"`
	Variant      string            `json:"variant"`
	TumorType    string            `json:"tumor_type"`
	ExpectedTier ActionabilityTier `json:"expected_tier"`
	Notes        string            `json:"notes,omitempty"`
	References   []string          `json:"references,omitempty"`
}

// Validate rejects entries with missing identity fields or an unrecognized
// expected tier. A bad benchmark label is a fatal load error, not something
// to degrade around.
func (g *GoldStandardEntry) Validate() error {
	if strings.TrimSpace(g.Gene) == "" {
		return fmt.Errorf("gold standard entry: %w", ErrEmptyGene)
	}
	if strings.TrimSpace(g.Variant) == "" {
		return fmt.Errorf("gold standard entry: %w", ErrEmptyVariant)
	}
	if !g.ExpectedTier.IsValid() {
		return fmt.Errorf("gold standard entry %s %s: %w: %q", g.Gene, g.Variant, ErrInvalidTier, g.ExpectedTier)
	}
	return nil
}

// ValidationResult scores one assessment against its gold-standard entry.
type ValidationResult struct {
	Gene            string                   `json:"gene"`
	Variant         string                   `json:"variant"`
	TumorType       string                   `json:"tumor_type"`
	ExpectedTier    ActionabilityTier        `json:"expected_tier"`
	PredictedTier   ActionabilityTier        `json:"predicted_tier"`
	IsCorrect       bool                     `json:"is_correct"`
	ConfidenceScore float64                  `json:"confidence_score"`
	Assessment      *ActionabilityAssessment `json:"assessment"`
}

// TierDistance returns the ordinal gap between predicted and expected tiers.
func (r *ValidationResult) TierDistance() TierDistance {
	return Distance(r.ExpectedTier, r.PredictedTier)
}

// TierMetrics holds the per-tier confusion counts and the scores derived
// from them.
type TierMetrics struct {
	Tier           ActionabilityTier `json:"tier"`
	TruePositives  int               `json:"true_positives"`
	FalsePositives int               `json:"false_positives"`
	FalseNegatives int               `json:"false_negatives"`
	Precision      float64           `json:"precision"`
	Recall         float64           `json:"recall"`
	F1Score        float64           `json:"f1_score"`
}

// Calculate derives precision, recall and F1 from the confusion counts.
// Each is 0 when its denominator is 0.
func (m *TierMetrics) Calculate() {
	if m.TruePositives+m.FalsePositives > 0 {
		m.Precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	} else {
		m.Precision = 0
	}
	if m.TruePositives+m.FalseNegatives > 0 {
		m.Recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	} else {
		m.Recall = 0
	}
	if m.Precision+m.Recall > 0 {
		m.F1Score = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	} else {
		m.F1Score = 0
	}
}

// FailureRecord is a compact description of one incorrect prediction,
// appended to the failure analysis in processing order.
type FailureRecord struct {
	Variant      string `json:"variant"`
	TumorType    string `json:"tumor_type"`
	Expected     string `json:"expected"`
	Predicted    string `json:"predicted"`
	TierDistance string `json:"tier_distance"`
	Confidence   string `json:"confidence"`
	Summary      string `json:"summary"`
}

// ValidationMetrics aggregates a whole benchmark run.
type ValidationMetrics struct {
	TotalCases         int                     `json:"total_cases"`
	CorrectPredictions int                     `json:"correct_predictions"`
	Accuracy           float64                 `json:"accuracy"`
	AverageConfidence  float64                 `json:"average_confidence"`
	TierMetrics        map[string]*TierMetrics `json:"tier_metrics"`
	FailureAnalysis    []FailureRecord         `json:"failure_analysis"`
}

// failureSummaryLimit bounds the assessment summary carried into a failure
// record.
const failureSummaryLimit = 200

// ComputeMetrics folds validation results into metrics. The fold is pure:
// it never mutates the results and builds the accumulator in one pass, so
// it can run only after all concurrent assessment tasks have completed.
//
// Confusion counting: a correct prediction credits its tier's true
// positives; an incorrect one debits the expected tier (false negative) and
// the predicted tier (false positive) — two different tiers, never the same
// tier twice.
func ComputeMetrics(results []*ValidationResult) *ValidationMetrics {
	metrics := &ValidationMetrics{
		TierMetrics:     make(map[string]*TierMetrics),
		FailureAnalysis: []FailureRecord{},
	}

	tierFor := func(t ActionabilityTier) *TierMetrics {
		tm, ok := metrics.TierMetrics[string(t)]
		if !ok {
			tm = &TierMetrics{Tier: t}
			metrics.TierMetrics[string(t)] = tm
		}
		return tm
	}

	var totalConfidence float64
	for _, r := range results {
		metrics.TotalCases++
		totalConfidence += r.ConfidenceScore

		expected := tierFor(r.ExpectedTier)
		predicted := tierFor(r.PredictedTier)

		if r.IsCorrect {
			metrics.CorrectPredictions++
			expected.TruePositives++
			continue
		}

		expected.FalseNegatives++
		predicted.FalsePositives++

		summary := ""
		if r.Assessment != nil {
			summary = r.Assessment.Summary
		}
		// Truncation counts characters, not bytes.
		if runes := []rune(summary); len(runes) > failureSummaryLimit {
			summary = string(runes[:failureSummaryLimit]) + "..."
		}
		metrics.FailureAnalysis = append(metrics.FailureAnalysis, FailureRecord{
			Variant:      fmt.Sprintf("%s %s", r.Gene, r.Variant),
			TumorType:    r.TumorType,
			Expected:     string(r.ExpectedTier),
			Predicted:    string(r.PredictedTier),
			TierDistance: strconv.Itoa(r.TierDistance().Value()),
			Confidence:   fmt.Sprintf("%.2f%%", r.ConfidenceScore*100),
			Summary:      summary,
		})
	}

	if metrics.TotalCases > 0 {
		metrics.Accuracy = float64(metrics.CorrectPredictions) / float64(metrics.TotalCases)
		metrics.AverageConfidence = totalConfidence / float64(metrics.TotalCases)
	}

	for _, tm := range metrics.TierMetrics {
		tm.Calculate()
	}

	return metrics
}

// Report renders the metrics as the formatted validation report. Tiers are
// always reported in order Tier I..IV; Unknown appears in the metrics map
// when it occurred but is omitted from the canonical per-tier display.
func (m *ValidationMetrics) Report() string {
	rule := strings.Repeat("=", 80)
	thin := strings.Repeat("-", 80)

	lines := []string{
		rule,
		"VALIDATION REPORT",
		rule,
		fmt.Sprintf("\nTotal Cases: %d", m.TotalCases),
		fmt.Sprintf("Correct Predictions: %d", m.CorrectPredictions),
		fmt.Sprintf("Overall Accuracy: %.2f%%", m.Accuracy*100),
		fmt.Sprintf("Average Confidence: %.2f%%", m.AverageConfidence*100),
		"\n" + thin,
		"PER-TIER METRICS",
		thin,
	}

	for _, tier := range OrderedTiers {
		tm, ok := m.TierMetrics[string(tier)]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("\n%s:", tier))
		lines = append(lines, fmt.Sprintf("  Precision: %.2f%%", tm.Precision*100))
		lines = append(lines, fmt.Sprintf("  Recall: %.2f%%", tm.Recall*100))
		lines = append(lines, fmt.Sprintf("  F1 Score: %.2f%%", tm.F1Score*100))
		lines = append(lines, fmt.Sprintf("  TP: %d, FP: %d, FN: %d",
			tm.TruePositives, tm.FalsePositives, tm.FalseNegatives))
	}

	if len(m.FailureAnalysis) > 0 {
		lines = append(lines, "\n"+thin)
		lines = append(lines, fmt.Sprintf("FAILURE ANALYSIS (%d errors)", len(m.FailureAnalysis)))
		lines = append(lines, thin)

		shown := m.FailureAnalysis
		if len(shown) > 10 {
			shown = shown[:10]
		}
		for i, failure := range shown {
			lines = append(lines, fmt.Sprintf("\n%d. %s in %s", i+1, failure.Variant, failure.TumorType))
			lines = append(lines, fmt.Sprintf("   Expected: %s | Predicted: %s | Distance: %s",
				failure.Expected, failure.Predicted, failure.TierDistance))
			lines = append(lines, fmt.Sprintf("   Confidence: %s", failure.Confidence))
			lines = append(lines, fmt.Sprintf("   Summary: %s", failure.Summary))
		}
		if len(m.FailureAnalysis) > 10 {
			lines = append(lines, fmt.Sprintf("\n... and %d more errors", len(m.FailureAnalysis)-10))
		}
	}

	lines = append(lines, "\n"+rule)
	return strings.Join(lines, "\n")
}
