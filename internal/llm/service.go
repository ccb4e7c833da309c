package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tumorboard/tumorboard/internal/domain"
)

// Default values substituted for optional fields the model omitted.
const (
	defaultConfidence = 0.5
	defaultSummary    = "No summary provided"
	defaultRationale  = "No rationale provided"
)

// Service orchestrates one assessment: prompt construction, the retried
// completion call, JSON extraction, and schema coercion. Every unrecoverable
// failure surfaces as a *ServiceError.
type Service struct {
	client CompletionClient
	retry  RetryPolicy
	logger *logrus.Logger
}

// NewService creates an assessment service. Zero-valued retry settings fall
// back to the default schedule.
func NewService(client CompletionClient, config domain.LLMConfig, logger *logrus.Logger) *Service {
	retry := DefaultRetryPolicy()
	if config.MaxAttempts > 0 {
		retry.MaxAttempts = config.MaxAttempts
	}
	if config.InitialBackoff > 0 {
		retry.InitialBackoff = config.InitialBackoff
	}
	if config.MaxBackoff > 0 {
		retry.MaxBackoff = config.MaxBackoff
	}

	return &Service{
		client: client,
		retry:  retry,
		logger: logger,
	}
}

// AssessVariant generates a validated actionability assessment for one
// variant given its evidence bundle. Only the completion call is retried;
// parse and coercion failures are deterministic and terminal.
func (s *Service) AssessVariant(ctx context.Context, input domain.VariantInput, evidence *domain.Evidence) (*domain.ActionabilityAssessment, error) {
	messages, err := BuildAssessmentPrompt(input, evidence)
	if err != nil {
		return nil, &ServiceError{Op: "build prompt", Err: err}
	}

	log := s.logger.WithFields(logrus.Fields{
		"gene":    input.Gene,
		"variant": input.Variant,
	})

	attempt := 0
	content, err := s.retry.Do(ctx, func(ctx context.Context) (string, error) {
		attempt++
		if attempt > 1 {
			log.WithField("attempt", attempt).Warn("Retrying completion call")
		}
		return s.client.Complete(ctx, messages)
	})
	if err != nil {
		return nil, &ServiceError{Op: "completion call", Err: err}
	}

	fields, err := extractJSON(content)
	if err != nil {
		return nil, &ServiceError{Op: "parse response", Err: err}
	}

	assessment, err := s.coerceAssessment(fields, input)
	if err != nil {
		return nil, &ServiceError{Op: "coerce assessment", Err: err}
	}

	if err := assessment.Validate(); err != nil {
		return nil, &ServiceError{Op: "validate assessment", Err: err}
	}
	assessment.NormalizeConfidence()

	log.WithFields(logrus.Fields{
		"tier":       assessment.Tier,
		"confidence": assessment.ConfidenceScore,
	}).Info("Assessment generated")

	return assessment, nil
}

// extractJSON parses the model reply into a field map, tolerating markdown
// code fences around the JSON object. Anything that does not parse is a
// malformed response.
func extractJSON(content string) (map[string]json.RawMessage, error) {
	text := strings.TrimSpace(content)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// The opening fence may carry a language tag, with or without a
		// newline after it.
		text = strings.TrimPrefix(text, "json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return fields, nil
}

// coerceAssessment maps the parsed field map into the strict domain schema.
// The tier is mandatory: a missing field fails the assessment, while an
// unrecognized tier string degrades to Unknown with a warning. All other
// fields fall back to defaults when absent.
func (s *Service) coerceAssessment(fields map[string]json.RawMessage, input domain.VariantInput) (*domain.ActionabilityAssessment, error) {
	rawTier, ok := fields["tier"]
	if !ok {
		return nil, fmt.Errorf("%w: response has no tier field", domain.ErrMissingTier)
	}
	var tierStr string
	if err := json.Unmarshal(rawTier, &tierStr); err != nil {
		return nil, fmt.Errorf("%w: tier is not a string: %v", ErrMalformedResponse, err)
	}
	tier, recognized := domain.ParseTier(tierStr)
	if !recognized {
		s.logger.WithFields(logrus.Fields{
			"gene":     input.Gene,
			"variant":  input.Variant,
			"raw_tier": tierStr,
		}).Warn("Unrecognized tier in model response, degrading to Unknown")
	}

	assessment := &domain.ActionabilityAssessment{
		Gene:                 input.Gene,
		Variant:              input.Variant,
		TumorType:            input.TumorType,
		Tier:                 tier,
		ConfidenceScore:      defaultConfidence,
		Summary:              defaultSummary,
		Rationale:            defaultRationale,
		RecommendedTherapies: []domain.RecommendedTherapy{},
		References:           []string{},
	}

	if raw, ok := fields["confidence_score"]; ok {
		if err := json.Unmarshal(raw, &assessment.ConfidenceScore); err != nil {
			return nil, fmt.Errorf("%w: confidence_score is not a number: %v", ErrMalformedResponse, err)
		}
	}
	if err := coerceString(fields, "summary", &assessment.Summary); err != nil {
		return nil, err
	}
	if err := coerceString(fields, "rationale", &assessment.Rationale); err != nil {
		return nil, err
	}
	if err := coerceString(fields, "evidence_strength", &assessment.EvidenceStrength); err != nil {
		return nil, err
	}
	if raw, ok := fields["clinical_trials_available"]; ok {
		if err := json.Unmarshal(raw, &assessment.ClinicalTrialsAvailable); err != nil {
			return nil, fmt.Errorf("%w: clinical_trials_available is not a boolean: %v", ErrMalformedResponse, err)
		}
	}
	if raw, ok := fields["recommended_therapies"]; ok && !isJSONNull(raw) {
		therapies, err := coerceTherapies(raw)
		if err != nil {
			return nil, err
		}
		assessment.RecommendedTherapies = therapies
	}
	if raw, ok := fields["references"]; ok && !isJSONNull(raw) {
		var refs []string
		if err := json.Unmarshal(raw, &refs); err != nil {
			return nil, fmt.Errorf("%w: references is not a list of strings: %v", ErrMalformedResponse, err)
		}
		assessment.References = refs
	}

	return assessment, nil
}

func coerceString(fields map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := fields[key]
	if !ok || isJSONNull(raw) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s is not a string: %v", ErrMalformedResponse, key, err)
	}
	return nil
}

func coerceTherapies(raw json.RawMessage) ([]domain.RecommendedTherapy, error) {
	var therapies []domain.RecommendedTherapy
	if err := json.Unmarshal(raw, &therapies); err != nil {
		return nil, fmt.Errorf("%w: recommended_therapies is not a therapy list: %v", ErrMalformedResponse, err)
	}
	for i, therapy := range therapies {
		if strings.TrimSpace(therapy.DrugName) == "" {
			return nil, fmt.Errorf("%w: therapy %d has no drug_name", ErrMalformedResponse, i)
		}
	}
	if therapies == nil {
		therapies = []domain.RecommendedTherapy{}
	}
	return therapies, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
