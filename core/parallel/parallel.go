package parallel

import (
	"runtime"
	"sync"
)

// Parallelize divides items into contiguous ranges, one per worker, and calls
// fn(start, end) for each range concurrently. It returns the number of
// workers that ran. Ranges are disjoint, so fn may write to per-index
// storage without locking.
func Parallelize(items int, fn func(start, end int)) int {
	return ParallelizeN(items, runtime.NumCPU(), fn)
}

// ParallelizeN is Parallelize with an explicit upper bound on workers.
func ParallelizeN(items, workers int, fn func(start, end int)) int {
	if items <= 0 {
		return 0
	}
	if workers < 1 {
		workers = 1
	}
	if workers > items {
		workers = items
	}
	if workers == 1 {
		fn(0, items)
		return 1
	}

	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	started := 0
	for i := 0; i < workers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		started++
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
	return started
}

// ParallelizeWithThreshold runs fn sequentially when items does not exceed
// threshold and in parallel otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) int {
	if items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return 1
	}
	return Parallelize(items, fn)
}

// For calls fn(i) for every i in [0, n), in parallel once n exceeds threshold.
// Iterations must not share mutable state.
func For(n, threshold int, fn func(i int)) int {
	return ParallelizeWithThreshold(n, threshold, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// Interleaved calls fn(i) for every i in [0, n), assigning indices to
// workers round-robin. Triangular loops (row i touching columns j ≥ i) get
// an even share of work per worker this way.
func Interleaved(n, threshold int, fn func(i int)) int {
	if n <= threshold {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return 1
	}
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := offset; i < n; i += workers {
				fn(i)
			}
		}(w)
	}
	wg.Wait()
	return workers
}
