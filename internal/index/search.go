package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/query"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

type hit struct {
	id      result.InternalID
	score   float64
	matched []bool
}

func (h *hit) matchedAll() bool {
	for _, m := range h.matched {
		if !m {
			return false
		}
	}
	return true
}

// Search scores every document matching the query tokens with BM25+ and
// applies the threshold. Output order is unspecified.
func (idx *Index) Search(ctx context.Context, q query.TermQuery) ([]result.TokenScore, error) {
	tokens, err := idx.tokenizer.Tokenize(q.Term, q.Language, true)
	if err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, p := range q.Properties {
		if _, ok := idx.text[p]; !ok {
			return nil, domain.NewUnknownProperty(p, idx.searchableLocked())
		}
	}
	if len(tokens) == 0 {
		return idx.allWithText(q), nil
	}

	n := q.DocsCount
	if n <= 0 {
		n = int(idx.live.GetCardinality())
	}
	hits := make(map[result.InternalID]*hit)

	for pos, tok := range tokens {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		for _, prop := range q.Properties {
			ti := idx.text[prop]
			avg := ti.avgLength()
			boost := q.BoostFor(prop)
			for _, word := range lookup(ti, tok, q.Exact, q.Tolerance) {
				docs := ti.postings[word]
				idf := inverseDocFrequency(n, len(docs))
				for id, tf := range docs {
					if !q.Allows(uint32(id)) {
						continue
					}
					h, ok := hits[id]
					if !ok {
						h = &hit{id: id, matched: make([]bool, len(tokens))}
						hits[id] = h
					}
					h.score += bm25(float64(tf), float64(ti.lengths[id]), avg, idf, q) * boost
					h.matched[pos] = true
				}
			}
		}
	}

	return applyThreshold(hits, q.Threshold), nil
}

// allWithText returns every allowed document holding text in one of the
// properties, with score 0.
func (idx *Index) allWithText(q query.TermQuery) []result.TokenScore {
	seen := make(map[result.InternalID]struct{})
	var out []result.TokenScore
	for _, prop := range q.Properties {
		for id := range idx.text[prop].lengths {
			if _, ok := seen[id]; ok || !q.Allows(uint32(id)) {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, result.TokenScore{ID: id})
		}
	}
	return out
}

func (idx *Index) searchableLocked() []string {
	var out []string
	for _, f := range idx.schema.Fields() {
		if f.FieldType().IsString() {
			out = append(out, f.Name())
		}
	}
	return out
}

// lookup expands a query token into dictionary words: equality when exact,
// prefix otherwise, plus words within the edit-distance tolerance.
func lookup(ti *textIndex, tok string, exact bool, tolerance int) []string {
	var out []string
	seen := make(map[string]struct{})
	if exact {
		if _, ok := ti.postings[tok]; ok {
			out = append(out, tok)
			seen[tok] = struct{}{}
		}
	} else {
		for i := sort.SearchStrings(ti.dict, tok); i < len(ti.dict) && strings.HasPrefix(ti.dict[i], tok); i++ {
			out = append(out, ti.dict[i])
			seen[ti.dict[i]] = struct{}{}
		}
	}
	if tolerance > 0 {
		for _, word := range ti.dict {
			if _, ok := seen[word]; ok {
				continue
			}
			if withinDistance(tok, word, tolerance) {
				out = append(out, word)
			}
		}
	}
	return out
}

func inverseDocFrequency(n, df int) float64 {
	return math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))
}

// bm25 is the BM25+ term weight.
func bm25(tf, length, avg, idf float64, q query.TermQuery) float64 {
	k, b, d := q.Relevance.K, q.Relevance.B, q.Relevance.D
	norm := 1.0
	if avg > 0 {
		norm = 1 - b + b*length/avg
	}
	return idf * (d + tf*(k+1)) / (tf + k*norm)
}

// applyThreshold keeps full matches and a share of partial matches:
// 1 keeps all, 0 keeps full matches only.
func applyThreshold(hits map[result.InternalID]*hit, threshold float64) []result.TokenScore {
	var full, partial []*hit
	for _, h := range hits {
		if h.matchedAll() {
			full = append(full, h)
		} else {
			partial = append(partial, h)
		}
	}

	keep := len(partial)
	if threshold < 1 {
		keep = int(math.Ceil(float64(len(partial)) * threshold))
		sort.Slice(partial, func(i, j int) bool {
			if partial[i].score != partial[j].score {
				return partial[i].score > partial[j].score
			}
			return partial[i].id < partial[j].id
		})
	}

	out := make([]result.TokenScore, 0, len(full)+keep)
	for _, h := range full {
		out = append(out, result.TokenScore{ID: h.id, Score: h.score})
	}
	for _, h := range partial[:keep] {
		out = append(out, result.TokenScore{ID: h.id, Score: h.score})
	}
	return out
}
