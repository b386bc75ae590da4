package registrar

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorCategory classifies registrar failures so callers can decide whether
// to retry, surface or give up without parsing provider messages.
type ErrorCategory string

const (
	ErrorTimeout        ErrorCategory = "timeout"
	ErrorAuthentication ErrorCategory = "authentication"
	ErrorOutage         ErrorCategory = "provider_outage"
	ErrorBadData        ErrorCategory = "bad_data"
	ErrorNotFound       ErrorCategory = "not_found"
	ErrorRateLimited    ErrorCategory = "rate_limited"
	ErrorBusiness       ErrorCategory = "business"
	ErrorInternal       ErrorCategory = "internal"
)

// ProviderError is the normalised form of every failure coming back from a
// registrar.
type ProviderError struct {
	Category   ErrorCategory
	Registrar  string
	Operation  string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString("registrar ")
	b.WriteString(e.Registrar)
	if e.Operation != "" {
		b.WriteString(" ")
		b.WriteString(e.Operation)
	}
	fmt.Fprintf(&b, " [%s]: %s", e.Category, e.Message)
	if e.Underlying != nil {
		b.WriteString(": ")
		b.WriteString(e.Underlying.Error())
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError builds a ProviderError. Retryability follows the category.
func NewProviderError(category ErrorCategory, registrarName, operation, message string, underlying error) *ProviderError {
	return &ProviderError{
		Category:   category,
		Registrar:  registrarName,
		Operation:  operation,
		Message:    message,
		Underlying: underlying,
		Retryable:  category.retryable(),
	}
}

func (c ErrorCategory) retryable() bool {
	switch c {
	case ErrorTimeout, ErrorOutage, ErrorRateLimited:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err is a ProviderError worth retrying.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// CategoryOf returns the category of err. Validation failures are bad_data,
// context deadlines are timeouts and anything unrecognised is internal.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ErrorBadData
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrorTimeout
	}
	return ErrorInternal
}

// Normalize wraps any error into a ProviderError, leaving validation errors
// and existing provider errors untouched.
func Normalize(registrarName, operation string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	category := CategoryOf(err)
	return NewProviderError(category, registrarName, operation, string(category), err)
}

// FieldError is one failed validation rule.
type FieldError struct {
	Field   string
	Message string
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

// ValidationError is returned before any provider call is made.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return "invalid registrar request: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
