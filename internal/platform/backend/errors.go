package backend

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse marks a 2xx response whose body could not be decoded.
var ErrMalformedResponse = errors.New("malformed backend response")

// NetworkError is a transport failure: no HTTP response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is a non-2xx response or a 2xx response flagged unsuccessful.
type ServerError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("backend %s: status %d: %s", e.Op, e.Status, e.Message)
}

// ServerMessage returns the server-provided message carried by err, if any.
func ServerMessage(err error) string {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Message
	}
	return ""
}
