package search

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ftsearch/internal/domain/search/query"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/relevance"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/request"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
	"github.com/kailas-cloud/ftsearch/internal/logger"
)

// resolveCandidates produces the unordered candidate set of req over the
// already resolved properties.
func (s *Service) resolveCandidates(
	ctx context.Context, req *request.Request, properties []string, language string,
) ([]result.TokenScore, error) {
	log := logger.FromContext(ctx)

	// nil means no filtering, distinct from an empty match.
	var filterSet *roaring.Bitmap
	if where := req.Where(); where != nil {
		bm, err := s.index.SearchByWhereClause(ctx, *where, language)
		if err != nil {
			return nil, fmt.Errorf("where clause: %w", err)
		}
		filterSet = bm
	}

	if req.Term() != "" || req.HasExplicitProperties() {
		count, err := s.index.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count documents: %w", err)
		}
		out, err := s.index.Search(ctx, query.TermQuery{
			Term:       req.Term(),
			Language:   language,
			Properties: properties,
			Exact:      req.Exact(),
			Tolerance:  req.Tolerance(),
			Boost:      req.Boost(),
			Relevance:  relevance.Resolve(req.Relevance()),
			DocsCount:  count,
			Filter:     filterSet,
			Threshold:  req.Threshold(),
		})
		if err != nil {
			return nil, fmt.Errorf("term search: %w", err)
		}
		log.Debug("term search", zap.Int("candidates", len(out)))

		if req.Exact() && req.Term() != "" {
			out, err = filterExact(ctx, s.docs, out, req.Term(), properties, req.PreserveSpaces())
			if err != nil {
				return nil, err
			}
			log.Debug("exact filter", zap.Int("candidates", len(out)))
		}
		return out, nil
	}

	if filterSet != nil {
		geo, ok, err := s.index.SearchByGeoWhereClause(ctx, *req.Where())
		if err != nil {
			return nil, fmt.Errorf("geo where clause: %w", err)
		}
		if ok {
			log.Debug("geo search", zap.Int("candidates", len(geo)))
			return geo, nil
		}
		out := make([]result.TokenScore, 0, filterSet.GetCardinality())
		it := filterSet.Iterator()
		for it.HasNext() {
			out = append(out, result.TokenScore{ID: result.InternalID(it.Next())})
		}
		return out, nil
	}

	ids, err := s.docs.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	// stored documents skipped on restore have no external id
	out := make([]result.TokenScore, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.ids.External(id); ok {
			out = append(out, result.TokenScore{ID: id})
		}
	}
	return out, nil
}
