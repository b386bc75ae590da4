package registrar

import (
	"errors"
	"time"
)

// Result is the normalised outcome of every registrar operation.
type Result[T any] struct {
	Success   bool      `json:"success"`
	Data      T         `json:"data"`
	Message   string    `json:"message,omitempty"`
	Errors    []string  `json:"errors,omitempty"`
	Registrar string    `json:"registrar"`
	Timestamp time.Time `json:"timestamp"`
}

// OK builds a successful result.
func OK[T any](registrarName string, data T, message string) *Result[T] {
	return &Result[T]{
		Success:   true,
		Data:      data,
		Message:   message,
		Registrar: registrarName,
		Timestamp: time.Now().UTC(),
	}
}

// Fail builds a failed result from err and returns both, so implementations
// can write `return registrar.Fail[T](name, err)`.
func Fail[T any](registrarName string, err error) (*Result[T], error) {
	if err == nil {
		err = errors.New("registrar operation failed")
	}
	return &Result[T]{
		Success:   false,
		Message:   err.Error(),
		Errors:    errorDetails(err),
		Registrar: registrarName,
		Timestamp: time.Now().UTC(),
	}, err
}

func errorDetails(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		out := make([]string, 0, len(ve.Fields))
		for _, f := range ve.Fields {
			out = append(out, f.String())
		}
		return out
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return []string{string(pe.Category) + ": " + pe.Message}
	}
	return []string{err.Error()}
}
