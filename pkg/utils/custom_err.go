package utils

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrDatabaseError       = errors.New("database error")
	ErrItineraryNotFound   = errors.New("itinerary not found")
	ErrCacheUnavailable    = errors.New("verification cache unavailable")
	ErrProviderTimeout     = errors.New("places provider timeout")
	ErrProviderError       = errors.New("places provider error")
	ErrProviderAuthError   = errors.New("places provider rejected the API key")
	ErrAIOutputUnparseable = errors.New("AI response is not parseable")
	ErrGenerationFailed    = errors.New("itinerary generation failed after all attempts")
)
