// Package sorter orders candidates by a sortable property. It works in
// the external identifier space.
package sorter

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	"github.com/kailas-cloud/ftsearch/internal/domain/collection"
	"github.com/kailas-cloud/ftsearch/internal/domain/collection/field"
	"github.com/kailas-cloud/ftsearch/internal/domain/document"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/request"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// Sorter keeps the sortable values of every document.
type Sorter struct {
	mu     sync.RWMutex
	tag    language.Tag
	types  map[string]field.Type
	values map[string]map[result.ExternalID]document.Value
}

// New creates a Sorter over the scalar string, number and boolean
// properties of schema. Strings are collated for tag.
func New(schema collection.Collection, tag language.Tag) *Sorter {
	s := &Sorter{
		tag:    tag,
		types:  make(map[string]field.Type),
		values: make(map[string]map[result.ExternalID]document.Value),
	}
	for _, f := range schema.Fields() {
		if f.FieldType().IsSortable() {
			s.types[f.Name()] = f.FieldType()
			s.values[f.Name()] = make(map[result.ExternalID]document.Value)
		}
	}
	return s
}

// Insert records the sortable values of doc.
func (s *Sorter) Insert(id result.ExternalID, doc document.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.types {
		if v, ok := doc.Get(name); ok && !v.IsNull() {
			s.values[name][id] = v
		}
	}
}

// Remove forgets id.
func (s *Sorter) Remove(id result.ExternalID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, vals := range s.values {
		delete(vals, id)
	}
}

// SortBy orders candidates by the property in by. Documents lacking the
// property go last in either order; ties are broken by id.
func (s *Sorter) SortBy(
	_ context.Context, candidates []result.ExternalScore, by request.SortBy,
) ([]result.ExternalScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.types[by.Property]
	if !ok {
		return nil, fmt.Errorf("%w: cannot sort by %q", domain.ErrInvalidParams, by.Property)
	}
	vals := s.values[by.Property]
	desc := by.Order == request.Desc
	col := collate.New(s.tag)

	out := append([]result.ExternalScore(nil), candidates...)
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := vals[out[i].ID]
		b, bok := vals[out[j].ID]
		if aok != bok {
			return aok
		}
		if aok {
			if c := compare(col, t, a, b); c != 0 {
				if desc {
					return c > 0
				}
				return c < 0
			}
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func compare(col *collate.Collator, t field.Type, a, b document.Value) int {
	switch t {
	case field.Number:
		x, _ := a.AsNumber()
		y, _ := b.AsNumber()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case field.Boolean:
		x, _ := a.AsBool()
		y, _ := b.AsBool()
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	default:
		x, _ := a.AsString()
		y, _ := b.AsString()
		return col.CompareString(x, y)
	}
}
