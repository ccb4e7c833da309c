package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAssessment() *ActionabilityAssessment {
	return &ActionabilityAssessment{
		Gene:            "BRAF",
		Variant:         "V600E",
		TumorType:       "Melanoma",
		Tier:            TierI,
		ConfidenceScore: 0.95,
		Summary:         "Test summary",
		Rationale:       "Test rationale",
	}
}

func TestAssessment_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ActionabilityAssessment)
		wantErr error
	}{
		{"valid", func(a *ActionabilityAssessment) {}, nil},
		{"confidence above range", func(a *ActionabilityAssessment) { a.ConfidenceScore = 1.5 }, ErrInvalidConfidence},
		{"confidence below range", func(a *ActionabilityAssessment) { a.ConfidenceScore = -0.1 }, ErrInvalidConfidence},
		{"boundary zero", func(a *ActionabilityAssessment) { a.ConfidenceScore = 0.0 }, nil},
		{"boundary one", func(a *ActionabilityAssessment) { a.ConfidenceScore = 1.0 }, nil},
		{"bad tier", func(a *ActionabilityAssessment) { a.Tier = "Tier V" }, ErrInvalidTier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAssessment()
			tt.mutate(a)
			err := a.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAssessment_NormalizeConfidence(t *testing.T) {
	a := validAssessment()
	a.ConfidenceScore = 0.87654
	a.NormalizeConfidence()
	assert.Equal(t, 0.877, a.ConfidenceScore)
}

func TestAssessment_Report(t *testing.T) {
	a := validAssessment()
	a.RecommendedTherapies = []RecommendedTherapy{
		{DrugName: "Vemurafenib", EvidenceLevel: "FDA-approved"},
	}
	a.References = []string{"PMID:21639808"}

	report := a.Report()
	assert.Contains(t, report, "BRAF V600E")
	assert.Contains(t, report, "Tier I")
	assert.Contains(t, report, "Vemurafenib")
	assert.Contains(t, report, "PMID:21639808")
}

func TestVariantInput_ToHGVS(t *testing.T) {
	v := VariantInput{Gene: "BRAF", Variant: "V600E", TumorType: "Melanoma"}
	assert.Equal(t, "BRAF:V600E", v.ToHGVS())
	assert.Equal(t, "BRAF V600E", v.Label())
}

func TestVariantInput_Validate(t *testing.T) {
	valid := VariantInput{Gene: "EGFR", Variant: "L858R", TumorType: "Lung Adenocarcinoma"}
	require.NoError(t, valid.Validate())

	assert.ErrorIs(t, VariantInput{Variant: "L858R"}.Validate(), ErrEmptyGene)
	assert.ErrorIs(t, VariantInput{Gene: "EGFR"}.Validate(), ErrEmptyVariant)
	assert.ErrorIs(t, VariantInput{Gene: "  ", Variant: "L858R"}.Validate(), ErrEmptyGene)
}
