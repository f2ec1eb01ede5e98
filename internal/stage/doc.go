// Package stage runs a small dependency graph of build stages.
//
// A Graph is an immutable, validated set of named stages and their
// prerequisites. Run executes it with maximum parallelism: a stage starts
// as soon as every prerequisite has completed. When a stage fails, all of
// its transitive dependents are skipped, while unrelated stages still run
// to completion. The Result records every stage's final state and exposes
// the failures, first by completion order, as an *AggregateError.
package stage
