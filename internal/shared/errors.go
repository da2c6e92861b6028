package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Provider errors
	ErrProviderUnavailable = fmt.Errorf("provider unavailable")
	ErrMalformedResponse   = fmt.Errorf("malformed provider response")
	ErrRetriesExhausted    = fmt.Errorf("retries exhausted")

	// Persistence errors
	ErrNotFound         = fmt.Errorf("record not found")
	ErrConstraintFailed = fmt.Errorf("constraint violation")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrJobNotFound     = fmt.Errorf("job not found")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
