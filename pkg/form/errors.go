package form

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidForm is returned when a submission is attempted while a field
// holds text that failed validation.
var ErrInvalidForm = errors.New("form has invalid fields")

// ErrUnknownField is returned for text edits of a field the form does not declare.
var ErrUnknownField = errors.New("unknown form field")

// StructuredFieldError reports text that could not be parsed into a
// structured (JSON object) field.
type StructuredFieldError struct {
	Field string
	Err   error
}

func (e *StructuredFieldError) Error() string {
	msg := fmt.Sprintf("invalid structured data for field `%s`", e.Field)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StructuredFieldError) Unwrap() error { return e.Err }

// InvalidValueError reports text that could not be converted to a scalar field's kind.
type InvalidValueError struct {
	Field string
	Text  string
	Err   error
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %q for field `%s`", e.Text, e.Field)
}

func (e *InvalidValueError) Unwrap() error { return e.Err }

// MissingFieldError lists required fields that are empty.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return "missing required field(s): " + strings.Join(e.Fields, ", ")
}
