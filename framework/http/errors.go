package http

import (
	"fmt"

	"github.com/go-errors/errors"
)

// InvalidArgumentError reports malformed input: a bad header name or value,
// an unsupported stream source, an invalid status code or URI component.
type InvalidArgumentError struct {
	Op      string
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return "http: " + e.Op + ": " + e.Message
}

// RuntimeError reports a failed I/O operation or a capability violation on
// a stream or uploaded file. Err carries the underlying cause, if any.
type RuntimeError struct {
	Op      string
	Message string
	Err     error
}

func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return "http: " + e.Op + ": " + e.Message + ": " + e.Err.Error()
	}
	return "http: " + e.Op + ": " + e.Message
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func invalidArgument(op, format string, args ...any) error {
	return &InvalidArgumentError{Op: op, Message: fmt.Sprintf(format, args...)}
}

func runtimeError(op, message string, cause error) error {
	var err error
	if cause != nil {
		err = errors.Wrap(cause, 1)
	}
	return &RuntimeError{Op: op, Message: message, Err: err}
}
