package runner

import "sync"

type Job[T any] func() T

// RunPool executes jobs with at most maxWorkers concurrently. Results are
// returned in job order, whatever order the jobs finish in.
func RunPool[T any](maxWorkers int, jobs []Job[T]) []T {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	var wg sync.WaitGroup
	results := make([]T, len(jobs))
	sem := make(chan struct{}, maxWorkers)

	for i, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, j Job[T]) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = j()
		}(i, job)
	}
	wg.Wait()
	return results
}
