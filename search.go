package ftsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/ftsearch/internal/domain/search/request"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
	"github.com/kailas-cloud/ftsearch/internal/tokenizer"
	searchuc "github.com/kailas-cloud/ftsearch/internal/usecase/search"
)

// Hit is one returned document.
type Hit struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Document Document `json:"document"`
}

// FacetValue is one facet bucket.
type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facet aggregates one property. Count is the number of distinct values.
type Facet struct {
	Count  int          `json:"count"`
	Values []FacetValue `json:"values"`
}

// Group is one group-by bucket.
type Group struct {
	Values []any `json:"values"`
	Result []Hit `json:"result"`
}

// Elapsed is the query duration.
type Elapsed struct {
	Raw       time.Duration `json:"raw"`
	Formatted string        `json:"formatted"`
}

// Results is the search envelope. Count is the number of matches before
// pagination.
type Results struct {
	Elapsed Elapsed          `json:"elapsed"`
	Hits    []Hit            `json:"hits"`
	Count   int              `json:"count"`
	Facets  map[string]Facet `json:"facets,omitempty"`
	Groups  []Group          `json:"groups,omitempty"`
}

// BeforeSearchHook runs before every search. An error aborts the search
// with ErrHookFailed.
type BeforeSearchHook func(ctx context.Context, params SearchParams, language string) error

// AfterSearchHook runs after every search. It may modify res in place.
type AfterSearchHook func(ctx context.Context, params SearchParams, language string, res *Results) error

type hookStateKey struct{}

// hookState carries the caller's params to hooks and the public results
// they modified back to the caller.
type hookState struct {
	params SearchParams
	out    *Results
}

func stateFrom(ctx context.Context) *hookState {
	st, _ := ctx.Value(hookStateKey{}).(*hookState)
	if st == nil {
		return &hookState{}
	}
	return st
}

// OnBeforeSearch registers a hook run before every search.
func (e *Engine) OnBeforeSearch(fn BeforeSearchHook) {
	e.searchSvc.OnBeforeSearch(func(ctx context.Context, _ *request.Request, language string) error {
		return fn(ctx, stateFrom(ctx).params, language)
	})
}

// OnAfterSearch registers a hook run after every search.
func (e *Engine) OnAfterSearch(fn AfterSearchHook) {
	e.searchSvc.OnAfterSearch(func(
		ctx context.Context, _ *request.Request, language string, res *result.Results,
	) error {
		st := stateFrom(ctx)
		if st.out == nil {
			st.out = toResults(res)
		}
		return fn(ctx, st.params, language, st.out)
	})
}

// Search runs params and any hooks on the calling goroutine.
func (e *Engine) Search(ctx context.Context, params SearchParams) (*Results, error) {
	req, lang, err := e.prepare(params)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	st := &hookState{params: params}
	res, err := e.searchSvc.Search(context.WithValue(ctx, hookStateKey{}, st), &req, lang)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return st.results(res), nil
}

// Pending is a search that may still be running.
type Pending struct {
	inner *searchuc.Pending
	st    *hookState
	err   error
}

// Resolved reports whether Wait would return without blocking.
func (p *Pending) Resolved() bool { return p.inner == nil || p.inner.Resolved() }

// Wait blocks until the search finishes or ctx is done. Abandoning the
// wait does not stop the search.
func (p *Pending) Wait(ctx context.Context) (*Results, error) {
	if p.err != nil {
		return nil, p.err
	}
	res, err := p.inner.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return p.st.results(res), nil
}

// SearchAsync returns an already resolved Pending when no hooks are
// registered; otherwise hooks and the search run on a worker pool.
func (e *Engine) SearchAsync(ctx context.Context, params SearchParams) *Pending {
	req, lang, err := e.prepare(params)
	if err != nil {
		return &Pending{err: fmt.Errorf("search: %w", err)}
	}
	st := &hookState{params: params}
	return &Pending{inner: e.searchSvc.SearchAsync(context.WithValue(ctx, hookStateKey{}, st), &req, lang), st: st}
}

func (e *Engine) prepare(params SearchParams) (request.Request, string, error) {
	lang, err := e.tokenizer.Resolve(params.Language)
	if err != nil {
		return request.Request{}, "", err
	}
	req, err := params.toRequest()
	if err != nil {
		return request.Request{}, "", err
	}
	return req, lang, nil
}

func (st *hookState) results(res *result.Results) *Results {
	if st.out != nil {
		return st.out
	}
	return toResults(res)
}

func toResults(res *result.Results) *Results {
	out := &Results{
		Elapsed: Elapsed{Raw: res.Elapsed.Raw, Formatted: res.Elapsed.Formatted},
		Hits:    toHits(res.Hits),
		Count:   res.Count,
	}
	if res.Facets != nil {
		out.Facets = make(map[string]Facet, len(res.Facets))
		for name, f := range res.Facets {
			values := make([]FacetValue, len(f.Values))
			for i, v := range f.Values {
				values[i] = FacetValue{Value: v.Value, Count: v.Count}
			}
			out.Facets[name] = Facet{Count: f.Count, Values: values}
		}
	}
	if res.Groups != nil {
		out.Groups = make([]Group, len(res.Groups))
		for i, g := range res.Groups {
			values := make([]any, len(g.Values))
			for j, v := range g.Values {
				values[j] = v.Any()
			}
			out.Groups[i] = Group{Values: values, Result: toHits(g.Result)}
		}
	}
	return out
}

func toHits(hits []result.Hit) []Hit {
	out := make([]Hit, len(hits))
	for i, h := range hits {
		out[i] = toHit(h)
	}
	return out
}

func toHit(h result.Hit) Hit {
	return Hit{ID: string(h.ID), Score: h.Score, Document: fromInternalDocument(h.Document)}
}

// SupportedLanguages lists the accepted language names.
func SupportedLanguages() []string { return tokenizer.SupportedLanguages() }
