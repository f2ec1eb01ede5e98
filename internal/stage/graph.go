package stage

import (
	"context"
	"slices"
)

// Name identifies a stage.
type Name string

// Func is the work of one stage.
type Func func(ctx context.Context) error

// Stage is a named unit of work with prerequisites.
type Stage struct {
	Name Name
	Deps []Name
	Run  Func
}

// Graph is an immutable, validated stage graph. It is safe for concurrent
// reads and may be run any number of times.
type Graph struct {
	stages  []Stage
	index   map[Name]int
	deps    [][]int // prerequisites by index, ascending
	revDeps [][]int // dependents by index, ascending
}

// NewGraph validates stages and builds a Graph. It rejects empty or
// duplicate names, nil funcs, unknown or repeated prerequisites, self
// dependencies and cycles.
func NewGraph(stages ...Stage) (*Graph, error) {
	if len(stages) == 0 {
		return nil, invalidf("no stages")
	}

	index := make(map[Name]int, len(stages))
	for i, s := range stages {
		if s.Name == "" {
			return nil, invalidf("stage name is required")
		}
		if s.Run == nil {
			return nil, invalidf("stage %q has no func", s.Name)
		}
		if _, dup := index[s.Name]; dup {
			return nil, invalidf("duplicate stage name: %q", s.Name)
		}
		index[s.Name] = i
	}

	g := &Graph{
		stages:  slices.Clone(stages),
		index:   index,
		deps:    make([][]int, len(stages)),
		revDeps: make([][]int, len(stages)),
	}
	for i, s := range stages {
		seen := make(map[Name]bool, len(s.Deps))
		for _, d := range s.Deps {
			j, ok := index[d]
			if !ok {
				return nil, invalidf("stage %q depends on unknown stage %q", s.Name, d)
			}
			if d == s.Name {
				return nil, invalidf("stage %q depends on itself", s.Name)
			}
			if seen[d] {
				return nil, invalidf("stage %q lists %q twice", s.Name, d)
			}
			seen[d] = true
			g.deps[i] = append(g.deps[i], j)
			g.revDeps[j] = append(g.revDeps[j], i)
		}
		g.stages[i].Deps = slices.Clone(s.Deps)
	}
	for i := range g.deps {
		slices.Sort(g.deps[i])
		slices.Sort(g.revDeps[i])
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, cycleError(cycle)
	}
	return g, nil
}

// Names returns stage names in declaration order.
func (g *Graph) Names() []Name {
	out := make([]Name, len(g.stages))
	for i, s := range g.stages {
		out[i] = s.Name
	}
	return out
}

// Deps returns the direct prerequisites of name.
func (g *Graph) Deps(name Name) []Name {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return slices.Clone(g.stages[i].Deps)
}

// DependsOn reports whether stage a transitively depends on stage b.
func (g *Graph) DependsOn(a, b Name) bool {
	ai, ok := g.index[a]
	if !ok {
		return false
	}
	bi, ok := g.index[b]
	if !ok {
		return false
	}
	visited := make([]bool, len(g.stages))
	stack := slices.Clone(g.deps[ai])
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == bi {
			return true
		}
		if visited[n] {
			continue
		}
		visited[n] = true
		stack = append(stack, g.deps[n]...)
	}
	return false
}

// TopologicalOrder returns stage names such that every stage follows its
// prerequisites. Ties keep declaration order.
func (g *Graph) TopologicalOrder() []Name {
	indeg := make([]int, len(g.stages))
	for i := range g.stages {
		indeg[i] = len(g.deps[i])
	}

	out := make([]Name, 0, len(g.stages))
	done := make([]bool, len(g.stages))
	for len(out) < len(g.stages) {
		for i := range g.stages {
			if done[i] || indeg[i] != 0 {
				continue
			}
			done[i] = true
			out = append(out, g.stages[i].Name)
			for _, d := range g.revDeps[i] {
				indeg[d]--
			}
			break
		}
	}
	return out
}

// findCycle runs a DFS in declaration order and returns one cycle as a
// path that starts and ends at the same stage, or nil.
func (g *Graph) findCycle() []Name {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(g.stages))
	parent := make([]int, len(g.stages))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.revDeps[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back edge u -> v: walk parents from u back to v.
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := range g.stages {
		if color[i] == white && dfs(i) {
			break
		}
	}
	if cycle == nil {
		return nil
	}

	slices.Reverse(cycle)
	out := make([]Name, len(cycle))
	for i, idx := range cycle {
		out[i] = g.stages[idx].Name
	}
	return out
}
