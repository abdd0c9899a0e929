package model

import "errors"

// Errors returned by the takeoff engine. Callers compare with errors.Is;
// the engine wraps them with the offending input.
var (
	ErrInvalidScale        = errors.New("invalid scale")
	ErrInsufficientPoints  = errors.New("insufficient points")
	ErrUnknownKind         = errors.New("unknown measurement kind")
	ErrPointOutOfBounds    = errors.New("point outside normalized plan bounds")
	ErrCatalogItemNotFound = errors.New("catalog item not found")
	ErrNoMeasurements      = errors.New("no measurements")
	ErrEstimateName        = errors.New("estimate name is required")
	ErrNoPlan              = errors.New("no active plan")
	ErrMeasurementNotFound = errors.New("measurement not found")
	ErrInvalidMode         = errors.New("invalid drawing mode for this action")

	// AI merge pipeline
	ErrAIRequest         = errors.New("ai request failed")
	ErrNoCategories      = errors.New("no categories selected")
	ErrInvalidTransition = errors.New("invalid pipeline transition")
	ErrDiscarded         = errors.New("ai result discarded")
)
