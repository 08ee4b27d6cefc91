package indicators

import (
	"context"
	"sync"

	"github.com/datalabmx/inegimcp/internal/geo"
)

// Comparison is one entry of a cross-scope comparison: either a series
// or the captured failure for that scope. A failed scope never fails
// the batch; some state/indicator combinations legitimately lack data.
type Comparison struct {
	Scope  geo.Scope
	Series *TimeSeries
	Err    error
}

// Compare fetches one series per scope (latest value unless historical)
// and returns the results in the input order, regardless of which
// upstream call finishes first. Fetches run concurrently; each result
// lands at its input index.
func (f *Fetcher) Compare(ctx context.Context, ref IndicatorRef, scopes []geo.Scope, historical bool) []Comparison {
	results := make([]Comparison, len(scopes))

	var wg sync.WaitGroup
	for i, scope := range scopes {
		wg.Add(1)
		go func(i int, scope geo.Scope) {
			defer wg.Done()
			series, err := f.Fetch(ctx, ref, scope, historical)
			results[i] = Comparison{Scope: scope, Series: series, Err: err}
		}(i, scope)
	}
	wg.Wait()

	return results
}
