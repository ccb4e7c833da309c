package domain

import (
	"fmt"
	"math"
	"strings"
)

// RecommendedTherapy is a therapeutic option supported by the assessed
// variant in the given tumor type.
type RecommendedTherapy struct {
	DrugName        string `json:"drug_name"`
	EvidenceLevel   string `json:"evidence_level,omitempty"`
	ApprovalStatus  string `json:"approval_status,omitempty"`
	ClinicalContext string `json:"clinical_context,omitempty"`
}

// ActionabilityAssessment is the terminal artifact of one assessment: the
// model's tier call plus supporting detail, validated into a strict schema.
// Immutable after construction.
type ActionabilityAssessment struct {
	Gene                    string               `json:"gene"`
	Variant                 string               `json:"variant"`
	TumorType               string               `json:"tumor_type"`
	Tier                    ActionabilityTier    `json:"tier"`
	ConfidenceScore         float64              `json:"confidence_score"`
	Summary                 string               `json:"summary"`
	RecommendedTherapies    []RecommendedTherapy `json:"recommended_therapies"`
	Rationale               string               `json:"rationale"`
	EvidenceStrength        string               `json:"evidence_strength,omitempty"`
	ClinicalTrialsAvailable bool                 `json:"clinical_trials_available"`
	References              []string             `json:"references"`
}

// Validate enforces the assessment invariants: a recognized tier and a
// confidence score inside [0,1]. Out-of-range confidence fails construction
// rather than being clamped.
func (a *ActionabilityAssessment) Validate() error {
	if !a.Tier.IsValid() {
		return fmt.Errorf("assessment validation: %w: %q", ErrInvalidTier, a.Tier)
	}
	if a.ConfidenceScore < 0.0 || a.ConfidenceScore > 1.0 {
		return fmt.Errorf("assessment validation: %w: %g", ErrInvalidConfidence, a.ConfidenceScore)
	}
	return nil
}

// NormalizeConfidence rounds the confidence score to 3 decimals.
func (a *ActionabilityAssessment) NormalizeConfidence() {
	a.ConfidenceScore = math.Round(a.ConfidenceScore*1000) / 1000
}

// Report renders the assessment as the formatted clinical report shown on
// the terminal after a single assessment.
func (a *ActionabilityAssessment) Report() string {
	rule := strings.Repeat("=", 80)
	thin := strings.Repeat("-", 80)

	strength := a.EvidenceStrength
	if strength == "" {
		strength = "Not specified"
	}

	lines := []string{
		rule,
		"VARIANT ACTIONABILITY ASSESSMENT REPORT",
		rule,
		fmt.Sprintf("\nVariant: %s %s", a.Gene, a.Variant),
		fmt.Sprintf("Tumor Type: %s", a.TumorType),
		fmt.Sprintf("\nTier: %s", a.Tier),
		fmt.Sprintf("Confidence: %.1f%%", a.ConfidenceScore*100),
		fmt.Sprintf("Evidence Strength: %s", strength),
		"\n" + thin,
		"SUMMARY\n" + thin,
		a.Summary,
		"\n" + thin,
		"RATIONALE\n" + thin,
		a.Rationale,
	}

	if len(a.RecommendedTherapies) > 0 {
		lines = append(lines, "\n"+thin)
		lines = append(lines, fmt.Sprintf("RECOMMENDED THERAPIES (%d)", len(a.RecommendedTherapies)))
		lines = append(lines, thin)
		for i, therapy := range a.RecommendedTherapies {
			lines = append(lines, fmt.Sprintf("\n%d. %s", i+1, therapy.DrugName))
			if therapy.EvidenceLevel != "" {
				lines = append(lines, fmt.Sprintf("   Evidence Level: %s", therapy.EvidenceLevel))
			}
			if therapy.ApprovalStatus != "" {
				lines = append(lines, fmt.Sprintf("   Approval Status: %s", therapy.ApprovalStatus))
			}
			if therapy.ClinicalContext != "" {
				lines = append(lines, fmt.Sprintf("   Clinical Context: %s", therapy.ClinicalContext))
			}
		}
	}

	if a.ClinicalTrialsAvailable {
		lines = append(lines, "\n"+thin)
		lines = append(lines, "Clinical trials may be available for this variant.")
	}

	if len(a.References) > 0 {
		lines = append(lines, "\n"+thin)
		lines = append(lines, fmt.Sprintf("KEY REFERENCES (%d)", len(a.References)))
		lines = append(lines, thin)
		for i, ref := range a.References {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, ref))
		}
	}

	lines = append(lines, "\n"+rule)
	return strings.Join(lines, "\n")
}
