package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

var asciiWord = regexp.MustCompile(`^\w+$`)

// exactMatcher checks stored property text for literal containment of a term.
// Matching is case-sensitive and word boundaries follow ASCII word characters.
type exactMatcher struct {
	raw      string
	trimmed  string
	padded   bool
	preserve bool
	patterns []*regexp.Regexp
}

func newExactMatcher(term string, preserveSpaces bool) exactMatcher {
	trimmed := strings.TrimSpace(term)
	m := exactMatcher{
		raw:      term,
		trimmed:  trimmed,
		padded:   trimmed != term,
		preserve: preserveSpaces,
	}
	for _, tok := range strings.Fields(trimmed) {
		quoted := regexp.QuoteMeta(tok)
		if asciiWord.MatchString(tok) {
			quoted = `\b` + quoted + `\b`
		}
		m.patterns = append(m.patterns, regexp.MustCompile(quoted))
	}
	return m
}

// passThrough reports whether every candidate is kept without looking at
// stored documents.
func (m exactMatcher) passThrough() bool {
	if m.trimmed == "" {
		return !(m.preserve && m.padded)
	}
	return len(m.patterns) == 0
}

func (m exactMatcher) matches(text string) bool {
	if m.preserve && m.padded && !strings.Contains(text, m.raw) {
		return false
	}
	for _, p := range m.patterns {
		if !p.MatchString(text) {
			return false
		}
	}
	return true
}

// filterExact keeps candidates whose stored text in any of properties
// contains term. Candidates missing from the store are dropped.
func filterExact(
	ctx context.Context, store DocumentStore, candidates []result.TokenScore,
	term string, properties []string, preserveSpaces bool,
) ([]result.TokenScore, error) {
	m := newExactMatcher(term, preserveSpaces)
	if m.passThrough() {
		return candidates, nil
	}

	docs, err := store.GetMultiple(ctx, result.IDs(candidates))
	if err != nil {
		return nil, fmt.Errorf("fetch documents for exact match: %w", err)
	}

	out := make([]result.TokenScore, 0, len(candidates))
	for i, c := range candidates {
		if i >= len(docs) || docs[i] == nil {
			continue
		}
		for _, p := range properties {
			v, ok := docs[i].Get(p)
			if !ok {
				continue
			}
			if s, ok := v.AsString(); ok && m.matches(s) {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}
