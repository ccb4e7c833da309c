// Package domain contains core business entities for LLM-assisted clinical
// actionability assessment of somatic variants following the AMP/ASCO/CAP
// tier system.
//
// Reference: Li et al. (2017) Standards and Guidelines for the Interpretation
// and Reporting of Sequence Variants in Cancer. J Mol Diagn. 19(1):4-23.
package domain

import "fmt"

// ActionabilityTier represents the AMP/ASCO/CAP clinical actionability tier
// for a somatic variant. Tiers I-IV form an ordinal scale from strongest
// clinical significance (Tier I) to benign (Tier IV); Unknown sits outside
// the ordering.
type ActionabilityTier string

const (
	TierI       ActionabilityTier = "Tier I"
	TierII      ActionabilityTier = "Tier II"
	TierIII     ActionabilityTier = "Tier III"
	TierIV      ActionabilityTier = "Tier IV"
	TierUnknown ActionabilityTier = "Unknown"
)

// OrderedTiers lists the four ordered tiers in canonical reporting order.
// Unknown is deliberately excluded: it has no position on the scale.
var OrderedTiers = []ActionabilityTier{TierI, TierII, TierIII, TierIV}

// tierPositions maps each ordered tier to its ordinal position.
var tierPositions = map[ActionabilityTier]int{
	TierI:   0,
	TierII:  1,
	TierIII: 2,
	TierIV:  3,
}

// ParseTier converts a tier string into an ActionabilityTier.
// Unrecognized strings are reported via the boolean so callers can decide
// between degrading to Unknown and failing hard.
func ParseTier(s string) (ActionabilityTier, bool) {
	switch ActionabilityTier(s) {
	case TierI, TierII, TierIII, TierIV, TierUnknown:
		return ActionabilityTier(s), true
	default:
		return TierUnknown, false
	}
}

// IsValid reports whether the tier is one of the defined AMP/ASCO/CAP values.
func (t ActionabilityTier) IsValid() bool {
	_, ok := ParseTier(string(t))
	return ok
}

// IsOrdered reports whether the tier participates in the ordinal scale.
func (t ActionabilityTier) IsOrdered() bool {
	_, ok := tierPositions[t]
	return ok
}

// String returns the tier's display form.
func (t ActionabilityTier) String() string {
	return string(t)
}

// ClinicalSignificance returns a human-readable description of the tier for
// clinical reporting.
func (t ActionabilityTier) ClinicalSignificance() string {
	switch t {
	case TierI:
		return "Variant of strong clinical significance"
	case TierII:
		return "Variant of potential clinical significance"
	case TierIII:
		return "Variant of unknown clinical significance"
	case TierIV:
		return "Benign or likely benign variant"
	default:
		return "Tier could not be determined"
	}
}

// UnknownTierSentinel is the legacy wire value reported for a tier distance
// involving an Unknown tier. It is never a valid ordinal distance and must
// never feed an average.
const UnknownTierSentinel = 999

// TierDistance is the outcome of comparing a predicted tier against an
// expected tier. Comparable is false when either side is Unknown; Steps is
// meaningful only when Comparable is true.
type TierDistance struct {
	Comparable bool
	Steps      int
}

// Distance computes the ordinal gap between two tiers.
func Distance(expected, predicted ActionabilityTier) TierDistance {
	ei, eok := tierPositions[expected]
	pi, pok := tierPositions[predicted]
	if !eok || !pok {
		return TierDistance{Comparable: false}
	}
	steps := ei - pi
	if steps < 0 {
		steps = -steps
	}
	return TierDistance{Comparable: true, Steps: steps}
}

// Value renders the distance as the legacy integer form: the ordinal step
// count when comparable, UnknownTierSentinel otherwise.
func (d TierDistance) Value() int {
	if !d.Comparable {
		return UnknownTierSentinel
	}
	return d.Steps
}

// MarshalJSON keeps the wire format of the original sentinel-based encoding.
func (d TierDistance) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%d", d.Value())), nil
}
