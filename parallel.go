package gbt

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum amount of work (feature count or
// example count, depending on caller) below which parallelFor just
// runs serially — fork-join overhead isn't worth it for small inputs.
const parallelThreshold = 1024

// parallelFor calls fn(i) for every i in [0, n), fanning out across
// runtime.GOMAXPROCS goroutines when n is large enough to be worth it.
// This generalizes the worker-goroutine-plus-WaitGroup shape the
// teacher repeats for per-feature work (build.go's sortFeatures /
// optimalFeature) into one shared helper used by histogram building,
// batch prediction, the boosting loop's prediction updates, and the
// linear learners' mini-batches.
func parallelFor(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if n < parallelThreshold {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= n {
			break
		}
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}
