package calibration

import (
	"golang.org/x/sync/errgroup"
)

// forEachRow runs fn for rows 0..n-1, at most limit at a time. limit <= 1 runs inline
// and stops at the first error.
func forEachRow(n, limit int, fn func(i int) error) error {
	if limit <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}
