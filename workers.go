package bakery

import "runtime"

// MaxWorkers bounds per-stage parallelism.
const MaxWorkers = 64

// ResolveWorkers determines how many pages or files a stage processes at
// once. Priority: explicit value > GOMAXPROCS (adjusted by automaxprocs
// for containers).
func ResolveWorkers(workers int) int {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return min(max(workers, 1), MaxWorkers)
}
