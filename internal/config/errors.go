package config

import "fmt"

// ErrorKind categorizes configuration failures.
type ErrorKind string

const (
	ErrMissingRequiredField ErrorKind = "missing_required_field"
	ErrInvalidMapping       ErrorKind = "invalid_mapping"
)

// Error is a fatal configuration problem detected before processing starts.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Kind, e.Detail)
}
