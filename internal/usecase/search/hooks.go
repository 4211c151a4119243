package search

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/request"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
	"github.com/kailas-cloud/ftsearch/internal/logger"
	"github.com/kailas-cloud/ftsearch/internal/metrics"
)

// BeforeHook runs before a search is executed.
type BeforeHook func(ctx context.Context, req *request.Request, language string) error

// AfterHook runs after a search with its results, which it may modify in place.
type AfterHook func(ctx context.Context, req *request.Request, language string, res *result.Results) error

type hooks struct {
	mu     sync.RWMutex
	before []BeforeHook
	after  []AfterHook
}

func (h *hooks) snapshot() ([]BeforeHook, []AfterHook) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.before, h.after
}

func (h *hooks) any() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.before) > 0 || len(h.after) > 0
}

// OnBeforeSearch registers a hook run before every search.
func (s *Service) OnBeforeSearch(fn BeforeHook) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.before = append(s.hooks.before[:len(s.hooks.before):len(s.hooks.before)], fn)
}

// OnAfterSearch registers a hook run after every search.
func (s *Service) OnAfterSearch(fn AfterHook) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.after = append(s.hooks.after[:len(s.hooks.after):len(s.hooks.after)], fn)
}

// HasHooks reports whether any hook is registered.
func (s *Service) HasHooks() bool { return s.hooks.any() }

func hookFailed(ctx context.Context, kind string, err error) error {
	metrics.HookErrorsTotal.WithLabelValues(kind).Inc()
	logger.FromContext(ctx).Warn("Search hook failed", zap.String("kind", kind), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", domain.ErrHookFailed, kind, err)
}
