package extract

import (
	"context"
	"time"
)

// Prober is the read-only element probe the resolver runs against.
// driver.Page satisfies it.
type Prober interface {
	Has(ctx context.Context, selector string, timeout time.Duration) (bool, error)
}

// Resolve tries each candidate in order and returns the first that matches
// a live element. The budget is shared fairly: each candidate gets
// remaining/len(remaining candidates), so N absent candidates never consume
// N times the intended wait. A fully exhausted budget is a normal
// "not found" outcome, not an error; only context cancellation is an error.
func Resolve(ctx context.Context, p Prober, candidates Candidates, budget time.Duration) (Locator, bool, error) {
	deadline := time.Now().Add(budget)

	for i, loc := range candidates {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		share := remaining / time.Duration(len(candidates)-i)

		found, err := p.Has(ctx, string(loc), share)
		if err != nil {
			if ctx.Err() != nil {
				return "", false, ctx.Err()
			}
			// Probe failures on one candidate are absorbed; the next
			// candidate may still match.
			continue
		}
		if found {
			return loc, true, nil
		}
	}
	return "", false, nil
}
