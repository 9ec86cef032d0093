package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents connection or timeout failures during a fetch
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRender represents rendering-context failures
	ErrorTypeRender ErrorType = "render"
	// ErrorTypeNoPrice represents pages where no selector rule matched
	ErrorTypeNoPrice ErrorType = "no_price"
	// ErrorTypeParse represents matched text that is not a well-formed price
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeRateLimit represents a host in backoff after rate limiting
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypePersistence represents persistence-store failures
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// CheckError represents an error raised while checking a product
type CheckError struct {
	Type     ErrorType
	Platform string
	Message  string
	Err      error
	Time     time.Time
}

// Error implements the error interface
func (e *CheckError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Platform, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Platform, e.Message)
}

// Unwrap returns the underlying error
func (e *CheckError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the error must abort the whole batch run.
// Only persistence-store unavailability qualifies; everything else stays a
// per-product outcome.
func (e *CheckError) IsFatal() bool {
	return e.Type == ErrorTypePersistence
}

// New creates a new CheckError
func New(errType ErrorType, platform, message string, err error) *CheckError {
	return &CheckError{
		Type:     errType,
		Platform: platform,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(platform, message string, err error) *CheckError {
	return New(ErrorTypeNetwork, platform, message, err)
}

// NewRender creates a new render error
func NewRender(platform, message string, err error) *CheckError {
	return New(ErrorTypeRender, platform, message, err)
}

// NewNoPrice creates a new no-price-found error
func NewNoPrice(platform, message string) *CheckError {
	return New(ErrorTypeNoPrice, platform, message, nil)
}

// NewParse creates a new parse error
func NewParse(platform, message string) *CheckError {
	return New(ErrorTypeParse, platform, message, nil)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(platform string, duration time.Duration) *CheckError {
	message := fmt.Sprintf("host backed off for %v", duration)
	return New(ErrorTypeRateLimit, platform, message, nil)
}

// NewPersistence creates a new persistence error
func NewPersistence(message string, err error) *CheckError {
	return New(ErrorTypePersistence, "", message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CheckError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the ErrorType of err, or the empty string if err does not
// carry a CheckError.
func TypeOf(err error) ErrorType {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ""
}

// IsFatal reports whether err carries a batch-fatal CheckError.
func IsFatal(err error) bool {
	var ce *CheckError
	return errors.As(err, &ce) && ce.IsFatal()
}
