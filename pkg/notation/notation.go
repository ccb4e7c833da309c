// Package notation normalizes protein-level variant notation so that
// equivalent spellings query the annotation databases the same way.
package notation

import (
	"regexp"
	"strings"
)

// Kind classifies the notation level of a variant string.
type Kind string

const (
	KindProtein Kind = "protein"
	KindCoding  Kind = "coding"
	KindGenomic Kind = "genomic"
	KindUnknown Kind = "unknown"
)

// Three-letter to one-letter amino acid codes.
var aminoAcidCodes = map[string]string{
	"Ala": "A", "Arg": "R", "Asn": "N", "Asp": "D", "Cys": "C",
	"Gln": "Q", "Glu": "E", "Gly": "G", "His": "H", "Ile": "I",
	"Leu": "L", "Lys": "K", "Met": "M", "Phe": "F", "Pro": "P",
	"Ser": "S", "Thr": "T", "Trp": "W", "Tyr": "Y", "Val": "V",
	"Ter": "*",
}

var (
	oneLetterPattern   = regexp.MustCompile(`^([A-Z])(\d+)([A-Z*])$`)
	threeLetterPattern = regexp.MustCompile(`^([A-Z][a-z]{2})(\d+)([A-Z][a-z]{2}|\*)$`)
)

// Classify reports the notation level of a variant string.
func Classify(variant string) Kind {
	v := strings.TrimSpace(variant)
	switch {
	case strings.HasPrefix(v, "g."), strings.Contains(v, ":g."):
		return KindGenomic
	case strings.HasPrefix(v, "c."), strings.Contains(v, ":c."):
		return KindCoding
	case strings.HasPrefix(v, "p."), oneLetterPattern.MatchString(v), threeLetterPattern.MatchString(v):
		return KindProtein
	default:
		return KindUnknown
	}
}

// NormalizeProtein rewrites protein-level notation into the bare one-letter
// form used for evidence queries: "p.Val600Glu" and "p.V600E" both become
// "V600E". Strings that are not protein substitutions pass through
// unchanged apart from whitespace trimming.
func NormalizeProtein(variant string) string {
	v := strings.TrimSpace(variant)

	stripped := strings.TrimPrefix(v, "p.")
	stripped = strings.TrimPrefix(stripped, "(")
	stripped = strings.TrimSuffix(stripped, ")")

	if oneLetterPattern.MatchString(stripped) {
		return stripped
	}

	if m := threeLetterPattern.FindStringSubmatch(stripped); m != nil {
		ref, refOK := shortCode(m[1])
		alt, altOK := shortCode(m[3])
		if refOK && altOK {
			return ref + m[2] + alt
		}
	}

	return v
}

func shortCode(code string) (string, bool) {
	if code == "*" {
		return "*", true
	}
	short, ok := aminoAcidCodes[code]
	return short, ok
}
