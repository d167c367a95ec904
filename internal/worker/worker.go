// Package worker provides the bounded-concurrency primitive shared by
// the enrichment and translation stages.
package worker

import "sync"

// Run executes fn(i) for every index in [0, n) across size workers.
// Indices are pulled from a shared channel cursor, so each task runs on
// exactly one worker and writes only its own item's fields. Run blocks
// until all tasks finish; a slow task stalls only the worker holding it.
func Run(size, n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if size < 1 {
		size = 1
	}
	if size > n {
		size = n
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < size; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				fn(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		indices <- i
	}
	close(indices)
	wg.Wait()
}
