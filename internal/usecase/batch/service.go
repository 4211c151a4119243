package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	dombatch "github.com/kailas-cloud/ftsearch/internal/domain/batch"
	domdoc "github.com/kailas-cloud/ftsearch/internal/domain/document"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
	"github.com/kailas-cloud/ftsearch/internal/logger"
)

// DefaultMaxBatchSize is the maximum number of items per batch unless
// configured otherwise.
const DefaultMaxBatchSize = 1000

// Service runs bulk document operations with per-item error reporting.
// A failing item does not stop the batch; a cancelled context does.
type Service struct {
	ins          DocumentInserter
	rm           DocumentRemover
	maxBatchSize int
}

// New creates a batch service.
func New(ins DocumentInserter, rm DocumentRemover) *Service {
	return &Service{ins: ins, rm: rm, maxBatchSize: DefaultMaxBatchSize}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// Insert converts and inserts every raw document.
func (s *Service) Insert(ctx context.Context, items []map[string]any) []dombatch.Result {
	results := make([]dombatch.Result, len(items))
	if err := s.checkSize(len(items)); err != nil {
		for i, item := range items {
			results[i] = dombatch.Failed(i, rawID(item), err)
		}
		return results
	}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			skipRest(results, i, err, func(j int) string { return rawID(items[j]) })
			break
		}
		doc, err := domdoc.FromMap(item)
		if err != nil {
			results[i] = dombatch.Failed(i, rawID(item), fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err))
			continue
		}
		ext, err := s.ins.Insert(ctx, doc)
		if err != nil {
			results[i] = dombatch.Failed(i, rawID(item), fmt.Errorf("insert: %w", err))
			continue
		}
		results[i] = dombatch.OK(i, string(ext))
	}

	s.logSummary(ctx, "insert", results)
	return results
}

// Remove deletes documents by external id.
func (s *Service) Remove(ctx context.Context, ids []string) []dombatch.Result {
	results := make([]dombatch.Result, len(ids))
	if err := s.checkSize(len(ids)); err != nil {
		for i, id := range ids {
			results[i] = dombatch.Failed(i, id, err)
		}
		return results
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			skipRest(results, i, err, func(j int) string { return ids[j] })
			break
		}
		if err := s.rm.Remove(ctx, result.ExternalID(id)); err != nil {
			results[i] = dombatch.Failed(i, id, fmt.Errorf("remove: %w", err))
			continue
		}
		results[i] = dombatch.OK(i, id)
	}

	s.logSummary(ctx, "remove", results)
	return results
}

func (s *Service) checkSize(n int) error {
	if n > s.maxBatchSize {
		return fmt.Errorf("batch of %d items exceeds %d: %w", n, s.maxBatchSize, domain.ErrInvalidParams)
	}
	return nil
}

func (s *Service) logSummary(ctx context.Context, op string, results []dombatch.Result) {
	sum := dombatch.Summarize(results)
	logger.FromContext(ctx).Debug("Batch processed",
		zap.String("op", op),
		zap.Int("ok", sum.OK),
		zap.Int("failed", sum.Failed),
		zap.Int("skipped", sum.Skipped),
	)
}

func skipRest(results []dombatch.Result, from int, err error, id func(int) string) {
	for j := from; j < len(results); j++ {
		results[j] = dombatch.Skipped(j, id(j), err)
	}
}

// rawID reports the "id" of an unconverted document when it is a string.
func rawID(item map[string]any) string {
	id, _ := item[domdoc.IDField].(string)
	return id
}
