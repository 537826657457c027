package transport

import "fmt"

// ErrorKind categorizes transport failures.
type ErrorKind string

const (
	ErrTimeout        ErrorKind = "timeout"
	ErrHTTPStatus     ErrorKind = "http_status"
	ErrNoConnectivity ErrorKind = "no_connectivity"
	ErrExhausted      ErrorKind = "exhausted"
	ErrCancelled      ErrorKind = "cancelled"
)

// Error is a terminal transport failure. Transient problems are retried
// inside the transport and never surface; an Error means the call is over.
type Error struct {
	Kind     ErrorKind
	Provider string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == ErrHTTPStatus:
		return fmt.Sprintf("transport: %s returned HTTP %d", e.Provider, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("transport: %s: %s: %v", e.Provider, e.Kind, e.Err)
	default:
		return fmt.Sprintf("transport: %s: %s", e.Provider, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
