package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/ftsearch/internal/domain/search/request"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// sortCandidates orders candidates by the caller's comparator, by a
// sortable property, or by score descending with ascending id on ties.
func (s *Service) sortCandidates(
	ctx context.Context, by *request.SortBy, candidates []result.TokenScore,
) ([]result.TokenScore, error) {
	switch {
	case by != nil && by.Comparator != nil:
		return s.sortByComparator(ctx, by.Comparator, candidates)
	case by != nil:
		return s.sortByProperty(ctx, *by, candidates)
	}

	out := append([]result.TokenScore(nil), candidates...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// sortByComparator fetches every candidate document; misses are dropped.
func (s *Service) sortByComparator(
	ctx context.Context, cmp request.Comparator, candidates []result.TokenScore,
) ([]result.TokenScore, error) {
	docs, err := s.docs.GetMultiple(ctx, result.IDs(candidates))
	if err != nil {
		return nil, fmt.Errorf("fetch documents for sort: %w", err)
	}

	type entry struct {
		ts  result.TokenScore
		hit result.Hit
	}
	entries := make([]entry, 0, len(candidates))
	for i, c := range candidates {
		if i >= len(docs) || docs[i] == nil {
			continue
		}
		ext, _ := s.ids.External(c.ID)
		entries = append(entries, entry{ts: c, hit: result.Hit{ID: ext, Score: c.Score, Document: *docs[i]}})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return cmp(entries[i].hit, entries[j].hit) < 0
	})

	out := make([]result.TokenScore, len(entries))
	for i, e := range entries {
		out[i] = e.ts
	}
	return out, nil
}

// sortByProperty crosses into the sorter's external id space and back.
func (s *Service) sortByProperty(
	ctx context.Context, by request.SortBy, candidates []result.TokenScore,
) ([]result.TokenScore, error) {
	ext := make([]result.ExternalScore, 0, len(candidates))
	for _, c := range candidates {
		id, ok := s.ids.External(c.ID)
		if !ok {
			continue
		}
		ext = append(ext, result.ExternalScore{ID: id, Score: c.Score})
	}
	sorted, err := s.sorter.SortBy(ctx, ext, by)
	if err != nil {
		return nil, fmt.Errorf("sort by %q: %w", by.Property, err)
	}
	return s.ids.ToInternal(sorted), nil
}
