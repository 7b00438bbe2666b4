package factory

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is the root of every rejection from this package.
var ErrInvalidInput = errors.New("invalid deal input")

// ValidationError is a single field-level problem.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// ValidationErrors collects every problem found in one record.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return "invalid deal input: " + strings.Join(msgs, "; ")
}

func (e ValidationErrors) Unwrap() error {
	return ErrInvalidInput
}
