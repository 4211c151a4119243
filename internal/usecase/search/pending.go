package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// Pending is a search result that may still be computing.
type Pending struct {
	done chan struct{}
	res  *result.Results
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func resolvedPending(res *result.Results, err error) *Pending {
	p := newPending()
	p.resolve(res, err)
	return p
}

func (p *Pending) resolve(res *result.Results, err error) {
	p.res, p.err = res, err
	close(p.done)
}

// Done is closed once the result is available.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Resolved reports whether Wait would return without blocking.
func (p *Pending) Resolved() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the search finishes or ctx is done. Abandoning the wait
// does not stop the search.
func (p *Pending) Wait(ctx context.Context) (*result.Results, error) {
	select {
	case <-p.done:
		return p.res, p.err
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for search: %w", ctx.Err())
	}
}
