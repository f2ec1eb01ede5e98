package stage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// State is the runtime state of one stage in a run.
type State string

const (
	Pending   State = "pending"
	Running   State = "running"
	Completed State = "completed"
	Failed    State = "failed"
	Skipped   State = "skipped"
)

// IsTerminal reports whether s is a final state.
func (s State) IsTerminal() bool {
	return s == Completed || s == Failed || s == Skipped
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger      *slog.Logger
	concurrency int
}

// WithLogger logs stage start and completion at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithConcurrency caps the number of stages running at once.
// Zero or negative means no cap.
func WithConcurrency(n int) Option {
	return func(c *runConfig) { c.concurrency = n }
}

type completion struct {
	index    int
	err      error
	duration time.Duration
}

// Run executes g. Stages whose prerequisites have all completed run
// concurrently; a failed stage skips its transitive dependents and leaves
// every other stage alone. Once ctx is done no further stage is started.
// Run returns after every started stage has returned.
func Run(ctx context.Context, g *Graph, opts ...Option) *Result {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	cfg.logger.Debug("stage plan", "order", g.TopologicalOrder())

	n := len(g.stages)
	states := make([]State, n)
	for i := range states {
		states[i] = Pending
	}
	res := newResult(g)

	doneCh := make(chan completion, n)
	inFlight := 0

	for {
		if ctx.Err() == nil {
			for _, i := range g.ready(states) {
				if cfg.concurrency > 0 && inFlight >= cfg.concurrency {
					break
				}
				states[i] = Running
				inFlight++
				res.started = append(res.started, g.stages[i].Name)
				go runOne(ctx, g.stages[i], i, cfg.logger, doneCh)
			}
		}

		if inFlight == 0 {
			break
		}

		c := <-doneCh
		inFlight--
		name := g.stages[c.index].Name
		res.durations[name] = c.duration
		res.finished = append(res.finished, name)
		if c.err == nil {
			states[c.index] = Completed
			continue
		}
		states[c.index] = Failed
		res.errors = append(res.errors, &StageError{Stage: name, Err: c.err})
		g.skipDependents(states, c.index)
	}

	if err := ctx.Err(); err != nil {
		for i, s := range states {
			if s == Pending {
				states[i] = Skipped
				res.canceled = err
			}
		}
	}

	for i, s := range states {
		res.states[g.stages[i].Name] = s
	}
	return res
}

func runOne(ctx context.Context, s Stage, index int, logger *slog.Logger, doneCh chan<- completion) {
	start := time.Now()
	logger.Debug("stage started", "stage", s.Name)

	err := safeCall(ctx, s.Run)

	d := time.Since(start)
	if err != nil {
		logger.Debug("stage failed", "stage", s.Name, "duration", d, "error", err)
	} else {
		logger.Debug("stage finished", "stage", s.Name, "duration", d)
	}
	doneCh <- completion{index: index, err: err, duration: d}
}

func safeCall(ctx context.Context, fn Func) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStagePanic, r)
		}
	}()
	return fn(ctx)
}

// ready returns pending stages whose prerequisites have all completed, in
// declaration order.
func (g *Graph) ready(states []State) []int {
	var out []int
	for i, s := range states {
		if s != Pending {
			continue
		}
		ok := true
		for _, d := range g.deps[i] {
			if states[d] != Completed {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// skipDependents marks every pending transitive dependent of failed as
// skipped. A dependent cannot be running: it needs failed to complete.
func (g *Graph) skipDependents(states []State, failed int) {
	stack := append([]int(nil), g.revDeps[failed]...)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if states[i] != Pending {
			continue
		}
		states[i] = Skipped
		stack = append(stack, g.revDeps[i]...)
	}
}
