package llm

import (
	"fmt"
	"strings"

	"github.com/tumorboard/tumorboard/internal/domain"
)

// systemPrompt fixes the model's role and the exact JSON schema it must
// return. The tier definitions follow the AMP/ASCO/CAP joint guidelines.
const systemPrompt = `You are a molecular tumor board assistant. Given a somatic variant and
curated database evidence, assess its clinical actionability using the
AMP/ASCO/CAP tier system:

- Tier I: Variants of strong clinical significance (FDA-approved therapies
  or professional guidelines for this tumor type).
- Tier II: Variants of potential clinical significance (FDA-approved
  therapies for other tumor types, or well-powered clinical trials).
- Tier III: Variants of unknown clinical significance.
- Tier IV: Benign or likely benign variants.

Respond with a single JSON object and nothing else, using exactly these
fields:
{
  "tier": "Tier I" | "Tier II" | "Tier III" | "Tier IV" | "Unknown",
  "confidence_score": <number between 0.0 and 1.0>,
  "summary": "<concise clinical summary>",
  "rationale": "<reasoning behind the tier assignment>",
  "evidence_strength": "<strong | moderate | weak | none>",
  "recommended_therapies": [
    {
      "drug_name": "<name>",
      "evidence_level": "<level>",
      "approval_status": "<status>",
      "clinical_context": "<context>"
    }
  ],
  "clinical_trials_available": <true | false>,
  "references": ["<identifier or citation>"]
}

Base the assessment only on the evidence provided. If the evidence is
empty or inconclusive, say so in the rationale and lower the confidence
accordingly.`

// BuildAssessmentPrompt assembles the chat messages for one assessment.
// The same inputs always produce the same messages.
func BuildAssessmentPrompt(input domain.VariantInput, evidence *domain.Evidence) ([]Message, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Assess the clinical actionability of the following variant.\n\n")
	fmt.Fprintf(&b, "Gene: %s\n", input.Gene)
	fmt.Fprintf(&b, "Variant: %s\n", input.Variant)
	if input.TumorType != "" {
		fmt.Fprintf(&b, "Tumor type: %s\n", input.TumorType)
	} else {
		b.WriteString("Tumor type: not specified\n")
	}
	b.WriteString("\nDatabase evidence:\n")
	b.WriteString(evidence.Summary())

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: b.String()},
	}, nil
}
