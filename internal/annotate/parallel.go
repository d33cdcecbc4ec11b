package annotate

import (
	"runtime"
	"sync"

	"github.com/inodb/genelookup/internal/positions"
)

// WorkItem holds a parsed query ready for annotation.
type WorkItem struct {
	Seq   int
	Query *positions.Query
}

// ParallelAnnotate annotates work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (a *Annotator) ParallelAnnotate(items <-chan WorkItem, workers int) <-chan Result {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan Result, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				r := a.Annotate(item.Query)
				r.Seq = item.Seq
				results <- r
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order,
// holding early arrivals until their turn. After fn fails it stops calling
// fn but keeps receiving until results is closed, so workers never block.
func OrderedCollect(results <-chan Result, fn func(Result) error) error {
	var (
		held = make(map[int]Result)
		next int
		err  error
	)
	for r := range results {
		if err != nil {
			continue
		}
		held[r.Seq] = r
		for err == nil {
			ready, ok := held[next]
			if !ok {
				break
			}
			delete(held, next)
			next++
			err = fn(ready)
		}
	}
	return err
}
