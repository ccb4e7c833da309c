package domain

import (
	"fmt"
	"strings"
)

// VariantInput identifies a single variant to assess: gene symbol, variant
// notation and the tumor type providing clinical context. It is an immutable
// request value.
type VariantInput struct {
	Gene      string `json:"gene"`
	Variant   string `json:"variant"`
	TumorType string `json:"tumor_type"`
}

// Validate ensures the input carries the fields the pipeline requires.
func (v VariantInput) Validate() error {
	if strings.TrimSpace(v.Gene) == "" {
		return fmt.Errorf("variant input validation: %w", ErrEmptyGene)
	}
	if strings.TrimSpace(v.Variant) == "" {
		return fmt.Errorf("variant input validation: %w", ErrEmptyVariant)
	}
	return nil
}

// ToHGVS derives the "GENE:variant" composite identifier used as the
// cross-source join key for evidence queries.
func (v VariantInput) ToHGVS() string {
	return fmt.Sprintf("%s:%s", v.Gene, v.Variant)
}

// Label returns the human-readable "GENE variant" form used in reports.
func (v VariantInput) Label() string {
	return fmt.Sprintf("%s %s", v.Gene, v.Variant)
}
