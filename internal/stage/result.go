package stage

import (
	"fmt"
	"slices"
	"time"
)

// Result is the outcome of one Run.
type Result struct {
	graph     *Graph
	states    map[Name]State
	durations map[Name]time.Duration
	started   []Name
	finished  []Name
	errors    []*StageError
	canceled  error
}

func newResult(g *Graph) *Result {
	return &Result{
		graph:     g,
		states:    make(map[Name]State, len(g.stages)),
		durations: make(map[Name]time.Duration, len(g.stages)),
	}
}

// State returns the final state of a stage.
func (r *Result) State(name Name) State { return r.states[name] }

// Duration returns how long a stage ran; zero if it never started.
func (r *Result) Duration(name Name) time.Duration { return r.durations[name] }

// Started lists stages in the order they were started.
func (r *Result) Started() []Name { return slices.Clone(r.started) }

// Finished lists stages in completion order, failed ones included.
func (r *Result) Finished() []Name { return slices.Clone(r.finished) }

// Failures returns stage errors in completion order.
func (r *Result) Failures() []*StageError { return slices.Clone(r.errors) }

// Skipped lists the stages that never ran.
func (r *Result) Skipped() []Name {
	var out []Name
	for name, s := range r.states {
		if s == Skipped {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// BlockedBy lists the failed stages that name transitively depends on, in
// failure order. It is empty unless name was skipped.
func (r *Result) BlockedBy(name Name) []Name {
	if r.states[name] != Skipped || r.graph == nil {
		return nil
	}
	var out []Name
	for _, e := range r.errors {
		if r.graph.DependsOn(name, e.Stage) {
			out = append(out, e.Stage)
		}
	}
	return out
}

// Err returns nil when every stage completed. Otherwise it returns an
// *AggregateError of the failures, or the context error if the run was
// canceled before anything failed.
func (r *Result) Err() error {
	if len(r.errors) > 0 {
		return &AggregateError{Errors: slices.Clone(r.errors)}
	}
	if r.canceled != nil {
		return fmt.Errorf("build canceled: %w", r.canceled)
	}
	return nil
}
