package order

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidStatus        = errors.New("invalid order status")
	ErrInvalidEta           = errors.New("invalid eta minutes")
	ErrOrderAlreadyTerminal = errors.New("order is already in a terminal state")
	ErrInvalidTransition    = errors.New("invalid order status transition")
	// ErrStatusConflict means the order changed status between load and
	// update, typically from another process.
	ErrStatusConflict = errors.New("order status changed concurrently")
	ErrValidation     = errors.New("validation failed")
)

// ValidationError lists invalid input fields with a message per field.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
