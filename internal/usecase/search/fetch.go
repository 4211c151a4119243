package search

import (
	"context"
	"encoding/json"
	"fmt"

	domdoc "github.com/kailas-cloud/ftsearch/internal/domain/document"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

const distinctBatchSize = 64

// fetchPage returns the hits of candidates[offset:offset+limit] that are
// still present in the store.
func (s *Service) fetchPage(
	ctx context.Context, candidates []result.TokenScore, offset, limit int,
) ([]result.Hit, error) {
	hits := []result.Hit{}
	if offset >= len(candidates) || limit == 0 {
		return hits, nil
	}
	page := candidates[offset:min(offset+limit, len(candidates))]
	docs, err := s.docs.GetMultiple(ctx, result.IDs(page))
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	for i, c := range page {
		if hit, ok := s.hit(c, docs, i); ok {
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

// fetchDistinct walks candidates in order keeping the first document of
// each distinct value of key. Documents without key are skipped, the first
// offset distinct documents are dropped, and at most limit are returned.
func (s *Service) fetchDistinct(
	ctx context.Context, candidates []result.TokenScore, offset, limit int, key string,
) ([]result.Hit, error) {
	hits := []result.Hit{}
	if limit == 0 {
		return hits, nil
	}
	seen := make(map[string]struct{})
	count := 0

	for start := 0; start < len(candidates); start += distinctBatchSize {
		batch := candidates[start:min(start+distinctBatchSize, len(candidates))]
		docs, err := s.docs.GetMultiple(ctx, result.IDs(batch))
		if err != nil {
			return nil, fmt.Errorf("fetch distinct page: %w", err)
		}
		for i, c := range batch {
			if i >= len(docs) || docs[i] == nil {
				continue
			}
			v, ok := docs[i].Get(key)
			if !ok {
				continue
			}
			k := distinctKey(v)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			count++
			if count <= offset {
				continue
			}
			if hit, ok := s.hit(c, docs, i); ok {
				hits = append(hits, hit)
			}
			if len(hits) >= limit {
				return hits, nil
			}
		}
	}
	return hits, nil
}

func (s *Service) hit(c result.TokenScore, docs []*domdoc.Document, i int) (result.Hit, bool) {
	if i >= len(docs) || docs[i] == nil {
		return result.Hit{}, false
	}
	ext, ok := s.ids.External(c.ID)
	if !ok {
		return result.Hit{}, false
	}
	return result.Hit{ID: ext, Score: c.Score, Document: *docs[i]}, true
}

// distinctKey keeps "1" and 1 apart.
func distinctKey(v domdoc.Value) string {
	if k, ok := v.Key(); ok {
		return v.Kind().String() + ":" + k
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v.Kind().String()
	}
	return string(raw)
}
