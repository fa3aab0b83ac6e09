package weather

import "errors"

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound means the provider does not know the requested location.
	ErrNotFound = errors.New("location not found")
	// ErrUnauthorized means the provider rejected the API key.
	ErrUnauthorized = errors.New("invalid or missing api key")
	// ErrRateLimited means the request was throttled, either upstream or locally.
	ErrRateLimited = errors.New("rate limited")
	// ErrNetwork means no response was received from the provider.
	ErrNetwork = errors.New("network failure")
	// ErrUpstream covers any other provider failure.
	ErrUpstream = errors.New("upstream failure")
)

// ValidationError describes bad input. Message is safe to return to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}
