package domain

import "errors"

// Validation errors for assessment inputs and records.
var (
	ErrEmptyGene         = errors.New("gene symbol is required")
	ErrEmptyVariant      = errors.New("variant notation is required")
	ErrMissingTier       = errors.New("missing required field: tier")
	ErrInvalidTier       = errors.New("invalid actionability tier")
	ErrInvalidConfidence = errors.New("confidence score must be between 0 and 1")
)
