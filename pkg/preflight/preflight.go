// Package preflight runs environment checks ahead of a scan run. Checks
// are independent, so they run concurrently; results come back in the
// order the checks were given.
package preflight

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Check is one named environment probe.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Result pairs a check name with its verdict.
type Result struct {
	Name string
	Err  error
}

// Run executes all checks concurrently and returns one Result per check,
// in input order. A failing check never hides the others.
func Run(ctx context.Context, checks []Check) []Result {
	results := make([]Result, len(checks))

	g, ctx := errgroup.WithContext(ctx)
	for i, check := range checks {
		i, check := i, check
		g.Go(func() error {
			results[i] = Result{Name: check.Name, Err: check.Probe(ctx)}
			return nil
		})
	}
	// The goroutines always return nil; Wait is only a join point.
	_ = g.Wait()

	return results
}

// Passed reports whether every check succeeded.
func Passed(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return false
		}
	}
	return true
}
