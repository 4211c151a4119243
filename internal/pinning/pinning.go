// Package pinning promotes documents to fixed positions when the query
// term satisfies a rule.
package pinning

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// Anchoring selects how a pattern is matched against the term.
type Anchoring string

// Anchorings.
const (
	Is         Anchoring = "is"
	StartsWith Anchoring = "starts_with"
	Contains   Anchoring = "contains"
)

// Condition matches the trimmed, lower-cased term.
type Condition struct {
	Anchoring Anchoring `json:"anchoring" yaml:"anchoring"`
	Pattern   string    `json:"pattern" yaml:"pattern"`
}

func (c Condition) matches(term string) bool {
	pattern := strings.ToLower(strings.TrimSpace(c.Pattern))
	switch c.Anchoring {
	case Is:
		return term == pattern
	case StartsWith:
		return strings.HasPrefix(term, pattern)
	case Contains:
		return strings.Contains(term, pattern)
	}
	return false
}

// Promotion places a document at a zero-based position.
type Promotion struct {
	DocID    result.ExternalID `json:"doc_id" yaml:"doc_id"`
	Position int               `json:"position" yaml:"position"`
}

// Rule fires when every condition matches.
type Rule struct {
	ID         string      `json:"id" yaml:"id"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
	Promote    []Promotion `json:"promote" yaml:"promote"`
}

// Validate checks the rule shape.
func (r Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: pin rule id is required", domain.ErrInvalidParams)
	}
	if len(r.Conditions) == 0 {
		return fmt.Errorf("%w: pin rule %q needs at least one condition", domain.ErrInvalidParams, r.ID)
	}
	for _, c := range r.Conditions {
		if c.Anchoring != Is && c.Anchoring != StartsWith && c.Anchoring != Contains {
			return fmt.Errorf("%w: pin rule %q: invalid anchoring %q", domain.ErrInvalidParams, r.ID, c.Anchoring)
		}
		if strings.TrimSpace(c.Pattern) == "" {
			return fmt.Errorf("%w: pin rule %q: empty pattern", domain.ErrInvalidParams, r.ID)
		}
	}
	if len(r.Promote) == 0 {
		return fmt.Errorf("%w: pin rule %q promotes nothing", domain.ErrInvalidParams, r.ID)
	}
	for _, p := range r.Promote {
		if p.DocID == "" || p.Position < 0 {
			return fmt.Errorf("%w: pin rule %q: invalid promotion", domain.ErrInvalidParams, r.ID)
		}
	}
	return nil
}

// Resolver maps external keys to internal ids.
type Resolver interface {
	Internal(ext result.ExternalID) (result.InternalID, bool)
}

// Engine stores rules in insertion order.
type Engine struct {
	mu       sync.RWMutex
	resolver Resolver
	rules    map[string]Rule
	order    []string
}

// New creates an empty Engine.
func New(resolver Resolver) *Engine {
	return &Engine{resolver: resolver, rules: make(map[string]Rule)}
}

// Add stores a new rule.
func (e *Engine) Add(r Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rules[r.ID]; ok {
		return fmt.Errorf("pin rule %q: %w", r.ID, domain.ErrAlreadyExists)
	}
	e.rules[r.ID] = r
	e.order = append(e.order, r.ID)
	return nil
}

// Put stores r, replacing any rule with the same id in place.
func (e *Engine) Put(r Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rules[r.ID]; !ok {
		e.order = append(e.order, r.ID)
	}
	e.rules[r.ID] = r
	return nil
}

// Remove deletes a rule.
func (e *Engine) Remove(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rules[id]; !ok {
		return fmt.Errorf("pin rule %q: %w", id, domain.ErrDocumentNotFound)
	}
	delete(e.rules, id)
	for i, o := range e.order {
		if o == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

// Rule returns the rule with the given id.
func (e *Engine) Rule(id string) (Rule, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.rules[id]
	return r, ok
}

// Rules returns every rule in insertion order.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Rule, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.rules[id])
	}
	return out
}

// Apply moves promoted documents to their positions in ascending position
// order, clamped to the end of the sequence. Promoted documents absent from
// candidates are inserted with score 0; unknown ids are skipped.
func (e *Engine) Apply(_ context.Context, candidates []result.TokenScore, term string) ([]result.TokenScore, error) {
	promotions := e.matching(strings.ToLower(strings.TrimSpace(term)))
	if len(promotions) == 0 {
		return candidates, nil
	}

	out := append([]result.TokenScore(nil), candidates...)
	for _, p := range promotions {
		id, ok := e.resolver.Internal(p.DocID)
		if !ok {
			continue
		}
		pinned := result.TokenScore{ID: id}
		for i, c := range out {
			if c.ID == id {
				pinned = c
				out = append(out[:i], out[i+1:]...)
				break
			}
		}
		pos := min(p.Position, len(out))
		out = append(out, result.TokenScore{})
		copy(out[pos+1:], out[pos:])
		out[pos] = pinned
	}
	return out, nil
}

// matching collects promotions of every firing rule, first rule winning
// per document, sorted by position.
func (e *Engine) matching(term string) []Promotion {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []Promotion
	seen := make(map[result.ExternalID]struct{})
	for _, id := range e.order {
		r := e.rules[id]
		fires := true
		for _, c := range r.Conditions {
			if !c.matches(term) {
				fires = false
				break
			}
		}
		if !fires {
			continue
		}
		for _, p := range r.Promote {
			if _, ok := seen[p.DocID]; ok {
				continue
			}
			seen[p.DocID] = struct{}{}
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
