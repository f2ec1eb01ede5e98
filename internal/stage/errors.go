package stage

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	ErrInvalidGraph = errors.New("invalid stage graph")
	ErrCycleFound   = errors.New("cycle detected")
	ErrStagePanic   = errors.New("stage panicked")
)

// GraphError describes a graph validation failure.
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(path []Name) error {
	names := make([]string, len(path))
	for i, n := range path {
		names[i] = string(n)
	}
	return &GraphError{Kind: ErrCycleFound, Msg: strings.Join(names, " -> ")}
}

// StageError is the failure of one stage.
type StageError struct {
	Stage Name
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// AggregateError summarizes every failed stage of a run, in completion
// order. Error reports the first.
type AggregateError struct {
	Errors []*StageError
}

func (e *AggregateError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "build failed"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%v (and %d more failed stages)", e.Errors[0], len(e.Errors)-1)
	}
}

// First returns the first failure by completion order.
func (e *AggregateError) First() *StageError {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[0]
}

func (e *AggregateError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, se := range e.Errors {
		out[i] = se
	}
	return out
}
