// Package search executes structured queries: property resolution,
// candidate resolution, exact-match filtering, sorting, pinning,
// pagination, facets and groups.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/ftsearch/internal/domain/search/request"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
	"github.com/kailas-cloud/ftsearch/internal/logger"
	"github.com/kailas-cloud/ftsearch/internal/metrics"
)

// DefaultPoolSize is the number of workers running hooked async searches.
const DefaultPoolSize = 64

var tracer = otel.Tracer("ftsearch/search")

// Deps are the collaborators a Service runs against.
type Deps struct {
	Index     Index
	Documents DocumentStore
	Sorter    Sorter
	IDs       IDMapper
	Pinning   Pinning
	Facets    Facets
	Groups    Groups
}

func (d Deps) validate() error {
	switch {
	case d.Index == nil:
		return errors.New("search: index is required")
	case d.Documents == nil:
		return errors.New("search: document store is required")
	case d.Sorter == nil:
		return errors.New("search: sorter is required")
	case d.IDs == nil:
		return errors.New("search: id mapper is required")
	case d.Pinning == nil:
		return errors.New("search: pinning engine is required")
	case d.Facets == nil:
		return errors.New("search: facet engine is required")
	case d.Groups == nil:
		return errors.New("search: group engine is required")
	}
	return nil
}

// Option configures a Service.
type Option func(*Service)

// WithPoolSize sets the worker count of the async pool.
func WithPoolSize(n int) Option {
	return func(s *Service) { s.poolSize = n }
}

// WithElapsedFormatter replaces the elapsed time formatter.
func WithElapsedFormatter(fn func(time.Duration) string) Option {
	return func(s *Service) { s.format = fn }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service is safe for concurrent use.
type Service struct {
	index  Index
	docs   DocumentStore
	sorter Sorter
	ids    IDMapper
	pins   Pinning
	facets Facets
	groups Groups

	props    *propertyCache
	hooks    hooks
	pool     *ants.Pool
	poolSize int
	format   func(time.Duration) string
	now      func() time.Time
}

// New creates a search service. Close releases its worker pool.
func New(deps Deps, opts ...Option) (*Service, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	s := &Service{
		index:    deps.Index,
		docs:     deps.Documents,
		sorter:   deps.Sorter,
		ids:      deps.IDs,
		pins:     deps.Pinning,
		facets:   deps.Facets,
		groups:   deps.Groups,
		props:    newPropertyCache(deps.Index),
		poolSize: DefaultPoolSize,
		format:   FormatElapsed,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	pool, err := ants.NewPool(s.poolSize)
	if err != nil {
		return nil, fmt.Errorf("create search pool: %w", err)
	}
	s.pool = pool
	return s, nil
}

// Close releases the async worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// InvalidateProperties drops the cached searchable property set.
// Wire it to schema changes of the index.
func (s *Service) InvalidateProperties() {
	s.props.Invalidate()
}

// Search runs req and its hooks on the calling goroutine.
func (s *Service) Search(ctx context.Context, req *request.Request, language string) (*result.Results, error) {
	start := s.now()
	res, err := s.run(ctx, req, language, start)
	metrics.ObserveSearch("sync", s.now().Sub(start), err)
	return res, err
}

// SearchAsync returns an already resolved Pending when no hooks are
// registered. Otherwise hooks and search run on the worker pool.
func (s *Service) SearchAsync(ctx context.Context, req *request.Request, language string) *Pending {
	start := s.now()
	if !s.hooks.any() {
		res, err := s.run(ctx, req, language, start)
		metrics.ObserveSearch("sync", s.now().Sub(start), err)
		return resolvedPending(res, err)
	}

	p := newPending()
	err := s.pool.Submit(func() {
		res, err := s.run(ctx, req, language, start)
		metrics.ObserveSearch("async", s.now().Sub(start), err)
		p.resolve(res, err)
	})
	if err != nil {
		return resolvedPending(nil, fmt.Errorf("submit search: %w", err))
	}
	return p
}

func (s *Service) run(
	ctx context.Context, req *request.Request, language string, start time.Time,
) (*result.Results, error) {
	before, after := s.hooks.snapshot()
	for _, h := range before {
		if err := h(ctx, req, language); err != nil {
			return nil, hookFailed(ctx, "before", err)
		}
	}

	res, err := s.execute(ctx, req, language, start)
	if err != nil {
		return nil, err
	}

	for _, h := range after {
		if err := h(ctx, req, language, res); err != nil {
			return nil, hookFailed(ctx, "after", err)
		}
	}
	return res, nil
}

func (s *Service) execute(
	ctx context.Context, req *request.Request, language string, start time.Time,
) (*result.Results, error) {
	ctx, span := tracer.Start(ctx, "search.execute", trace.WithAttributes(
		attribute.Int("search.term_length", len(req.Term())),
		attribute.Bool("search.exact", req.Exact()),
		attribute.Int("search.limit", req.Limit()),
		attribute.Int("search.offset", req.Offset()),
		attribute.Bool("search.preflight", req.Preflight()),
	))
	defer span.End()

	res, err := s.pipeline(ctx, req, language)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search_failed")
		return nil, err
	}

	elapsed := s.now().Sub(start)
	res.Elapsed = result.Elapsed{Raw: elapsed, Formatted: s.format(elapsed)}
	span.SetAttributes(attribute.Int("search.count", res.Count), attribute.Int("search.hits", len(res.Hits)))

	logger.FromContext(ctx).Debug("Search completed",
		zap.Int("count", res.Count),
		zap.Int("hits", len(res.Hits)),
		zap.Duration("elapsed", elapsed),
	)
	return res, nil
}

func (s *Service) pipeline(ctx context.Context, req *request.Request, language string) (*result.Results, error) {
	properties, err := s.props.resolve(ctx, req.Properties())
	if err != nil {
		return nil, err
	}
	vectors, err := s.index.VectorProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("vector properties: %w", err)
	}

	candidates, err := s.stage(ctx, "search.candidates", func(ctx context.Context) ([]result.TokenScore, error) {
		return s.resolveCandidates(ctx, req, properties, language)
	})
	if err != nil {
		return nil, err
	}
	candidates, err = s.stage(ctx, "search.sort", func(ctx context.Context) ([]result.TokenScore, error) {
		return s.sortCandidates(ctx, req.SortBy(), candidates)
	})
	if err != nil {
		return nil, err
	}
	candidates, err = s.stage(ctx, "search.pin", func(ctx context.Context) ([]result.TokenScore, error) {
		out, err := s.pins.Apply(ctx, candidates, req.Term())
		if err != nil {
			return nil, fmt.Errorf("apply pin rules: %w", err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	metrics.SearchCandidates.Observe(float64(len(candidates)))

	res := &result.Results{Count: len(candidates), Hits: []result.Hit{}}
	if !req.Preflight() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search canceled: %w", err)
		}
		if req.DistinctOn() != "" {
			res.Hits, err = s.fetchDistinct(ctx, candidates, req.Offset(), req.Limit(), req.DistinctOn())
		} else {
			res.Hits, err = s.fetchPage(ctx, candidates, req.Offset(), req.Limit())
		}
		if err != nil {
			return nil, err
		}
	}

	if err := s.aggregate(ctx, req, candidates, res); err != nil {
		return nil, err
	}
	if !req.IncludeVectors() {
		redactVectors(res, vectors)
	}
	return res, nil
}

// redactVectors strips vector properties from page hits and group hits.
func redactVectors(res *result.Results, vectors []string) {
	if len(vectors) == 0 {
		return
	}
	for i := range res.Hits {
		res.Hits[i].Document = res.Hits[i].Document.Without(vectors...)
	}
	for gi := range res.Groups {
		hits := res.Groups[gi].Result
		for i := range hits {
			hits[i].Document = hits[i].Document.Without(vectors...)
		}
	}
}

// aggregate computes facets and groups over the full candidate sequence.
func (s *Service) aggregate(
	ctx context.Context, req *request.Request, candidates []result.TokenScore, res *result.Results,
) error {
	if !req.HasFacets() && req.GroupBy() == nil {
		return nil
	}
	ctx, span := tracer.Start(ctx, "search.aggregate", trace.WithAttributes(
		attribute.Bool("search.facets", req.HasFacets()),
		attribute.Bool("search.group_by", req.GroupBy() != nil),
	))
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	if req.HasFacets() {
		g.Go(func() error {
			facets, err := s.facets.Compute(gctx, candidates, req.Facets())
			if err != nil {
				return fmt.Errorf("compute facets: %w", err)
			}
			res.Facets = facets
			return nil
		})
	}
	if by := req.GroupBy(); by != nil {
		g.Go(func() error {
			groups, err := s.groups.Compute(gctx, candidates, *by)
			if err != nil {
				return fmt.Errorf("compute groups: %w", err)
			}
			res.Groups = groups
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate_failed")
		return err
	}
	return nil
}

// stage runs fn in a child span after checking for cancellation.
func (s *Service) stage(
	ctx context.Context, name string, fn func(context.Context) ([]result.TokenScore, error),
) ([]result.TokenScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search canceled: %w", err)
	}
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	out, err := fn(ctx)
	if err != nil {
		span.RecordError(err, trace.WithAttributes(attribute.String("search.stage", name)))
		span.SetStatus(codes.Error, name+"_failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("search.candidates", len(out)))
	return out, nil
}

// FormatElapsed renders d with the largest unit below it: ns, μs, ms or s.
func FormatElapsed(d time.Duration) string {
	n := d.Nanoseconds()
	switch {
	case n < int64(time.Microsecond):
		return fmt.Sprintf("%dns", n)
	case n < int64(time.Millisecond):
		return fmt.Sprintf("%dμs", n/int64(time.Microsecond))
	case n < int64(time.Second):
		return fmt.Sprintf("%dms", n/int64(time.Millisecond))
	default:
		return fmt.Sprintf("%ds", n/int64(time.Second))
	}
}
