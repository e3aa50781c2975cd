package container

import (
	"strings"

	"github.com/go-errors/errors"
)

var (
	// ErrInvalidConcrete is returned by Bind and Singleton for a nil Factory
	// or an empty TypeName.
	ErrInvalidConcrete = errors.New("concrete must be a non-nil Factory or a non-empty TypeName")

	// ErrCircularDependency is wrapped by the BindingResolutionError raised
	// when an abstract is requested again while it is still being built.
	ErrCircularDependency = errors.New("circular dependency")
)

// BindingResolutionError reports that a target could not be introspected,
// instantiated, or had a dependency that could not be satisfied.
type BindingResolutionError struct {
	Abstract string
	Message  string
	Err      error
}

func (e *BindingResolutionError) Error() string {
	if e.Err != nil {
		return "container: " + e.Message + ": " + e.Err.Error()
	}
	return "container: " + e.Message
}

func (e *BindingResolutionError) Unwrap() error { return e.Err }

// EntryNotFoundError is returned by Get when nothing is registered for the
// identifier and building it by its literal name failed too.
type EntryNotFoundError struct {
	ID  string
	Err error
}

func (e *EntryNotFoundError) Error() string {
	return "container: no entry was found for [" + e.ID + "]"
}

func (e *EntryNotFoundError) Unwrap() error { return e.Err }

func circularError(stack []string, abstract string) error {
	chain := append(append([]string{}, stack...), abstract)
	return &BindingResolutionError{
		Abstract: abstract,
		Message:  "Cannot build [" + strings.Join(chain, " -> ") + "]",
		Err:      ErrCircularDependency,
	}
}
