package domain

import (
	"fmt"
	"strings"
)

// CIViCEvidence is a single CIViC evidence item attached to a variant hit.
type CIViCEvidence struct {
	EvidenceType         string   `json:"evidence_type,omitempty"`
	EvidenceLevel        string   `json:"evidence_level,omitempty"`
	ClinicalSignificance string   `json:"clinical_significance,omitempty"`
	Disease              string   `json:"disease,omitempty"`
	Drugs                []string `json:"drugs,omitempty"`
	Description          string   `json:"description,omitempty"`
}

// ClinVarEvidence is a ClinVar significance record for a variant hit.
type ClinVarEvidence struct {
	ClinicalSignificance string   `json:"clinical_significance,omitempty"`
	ReviewStatus         string   `json:"review_status,omitempty"`
	Conditions           []string `json:"conditions,omitempty"`
	VariationID          string   `json:"variation_id,omitempty"`
}

// CosmicEvidence is a COSMIC somatic mutation record for a variant hit.
type CosmicEvidence struct {
	CosmicID     string `json:"cosmic_id,omitempty"`
	TumorSite    string `json:"tumor_site,omitempty"`
	Histology    string `json:"histology,omitempty"`
	MutationNT   string `json:"mutation_nt,omitempty"`
	MutationAA   string `json:"mutation_aa,omitempty"`
	MutationFreq string `json:"mutation_frequency,omitempty"`
}

// Evidence aggregates per-source evidence records for one gene+variant pair.
// It is produced once per assessment, owned by that assessment, and never
// mutated after construction.
type Evidence struct {
	VariantID string            `json:"variant_id"`
	Gene      string            `json:"gene"`
	Variant   string            `json:"variant"`
	CIViC     []CIViCEvidence   `json:"civic"`
	ClinVar   []ClinVarEvidence `json:"clinvar"`
	Cosmic    []CosmicEvidence  `json:"cosmic"`
}

// HasEvidence reports whether any source returned at least one record.
// No evidence is a valid state, not an error: the assessment proceeds and
// the model is told the databases came up empty.
func (e *Evidence) HasEvidence() bool {
	return len(e.CIViC) > 0 || len(e.ClinVar) > 0 || len(e.Cosmic) > 0
}

// Summary renders the bundle as the evidence text embedded in the model
// prompt. Identical bundles always yield identical text.
func (e *Evidence) Summary() string {
	if !e.HasEvidence() {
		return fmt.Sprintf("No evidence found for %s %s in CIViC, ClinVar, or COSMIC.", e.Gene, e.Variant)
	}

	var b strings.Builder

	if len(e.CIViC) > 0 {
		fmt.Fprintf(&b, "CIViC Evidence (%d items):\n", len(e.CIViC))
		for i, item := range e.CIViC {
			fmt.Fprintf(&b, "%d. ", i+1)
			if item.EvidenceType != "" {
				fmt.Fprintf(&b, "[%s", item.EvidenceType)
				if item.EvidenceLevel != "" {
					fmt.Fprintf(&b, ", Level %s", item.EvidenceLevel)
				}
				b.WriteString("] ")
			}
			if item.ClinicalSignificance != "" {
				fmt.Fprintf(&b, "%s. ", item.ClinicalSignificance)
			}
			if item.Disease != "" {
				fmt.Fprintf(&b, "Disease: %s. ", item.Disease)
			}
			if len(item.Drugs) > 0 {
				fmt.Fprintf(&b, "Drugs: %s. ", strings.Join(item.Drugs, ", "))
			}
			if item.Description != "" {
				b.WriteString(item.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(e.ClinVar) > 0 {
		fmt.Fprintf(&b, "ClinVar Records (%d):\n", len(e.ClinVar))
		for i, rec := range e.ClinVar {
			fmt.Fprintf(&b, "%d. Significance: %s", i+1, rec.ClinicalSignificance)
			if rec.ReviewStatus != "" {
				fmt.Fprintf(&b, " (review status: %s)", rec.ReviewStatus)
			}
			if len(rec.Conditions) > 0 {
				fmt.Fprintf(&b, ". Conditions: %s", strings.Join(rec.Conditions, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(e.Cosmic) > 0 {
		fmt.Fprintf(&b, "COSMIC Records (%d):\n", len(e.Cosmic))
		for i, rec := range e.Cosmic {
			fmt.Fprintf(&b, "%d.", i+1)
			if rec.CosmicID != "" {
				fmt.Fprintf(&b, " %s:", rec.CosmicID)
			}
			if rec.MutationAA != "" {
				fmt.Fprintf(&b, " %s", rec.MutationAA)
			}
			if rec.TumorSite != "" {
				fmt.Fprintf(&b, " observed in %s", rec.TumorSite)
			}
			if rec.Histology != "" {
				fmt.Fprintf(&b, " (%s)", rec.Histology)
			}
			if rec.MutationFreq != "" {
				fmt.Fprintf(&b, ", frequency %s", rec.MutationFreq)
			}
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
