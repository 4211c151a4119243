// Package groups buckets scored candidates by property values.
package groups

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	"github.com/kailas-cloud/ftsearch/internal/domain/collection"
	"github.com/kailas-cloud/ftsearch/internal/domain/collection/field"
	"github.com/kailas-cloud/ftsearch/internal/domain/document"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/request"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// SchemaSource provides the current schema.
type SchemaSource interface {
	Schema() collection.Collection
}

// DocumentStore fetches documents by internal id, nil for misses.
type DocumentStore interface {
	GetMultiple(ctx context.Context, ids []result.InternalID) ([]*document.Document, error)
}

// Engine computes groups.
type Engine struct {
	schema SchemaSource
	store  DocumentStore
}

// New creates a group Engine.
func New(schema SchemaSource, store DocumentStore) *Engine {
	return &Engine{schema: schema, store: store}
}

// Compute groups candidates, in their order, by the combined values of
// the requested scalar properties. Documents lacking any of them are
// skipped. Groups appear in first-appearance order.
func (e *Engine) Compute(
	ctx context.Context, candidates []result.TokenScore, by request.GroupBy,
) ([]result.Group, error) {
	schema := e.schema.Schema()
	for _, p := range by.Properties {
		f, ok := schema.FieldByName(p)
		if !ok {
			return nil, domain.NewUnknownProperty(p, schema.Properties())
		}
		switch f.FieldType() {
		case field.String, field.Number, field.Boolean, field.Enum:
		default:
			return nil, fmt.Errorf("%w: cannot group by %q of type %s", domain.ErrInvalidParams, p, f.FieldType())
		}
	}

	docs, err := e.store.GetMultiple(ctx, result.IDs(candidates))
	if err != nil {
		return nil, fmt.Errorf("fetch group documents: %w", err)
	}

	var out []result.Group
	index := make(map[string]int)
	for i, doc := range docs {
		if doc == nil {
			continue
		}
		values, key, ok := groupKey(doc, by.Properties)
		if !ok {
			continue
		}
		pos, seen := index[key]
		if !seen {
			pos = len(out)
			index[key] = pos
			out = append(out, result.Group{Values: values})
		}
		if by.MaxResult > 0 && len(out[pos].Result) >= by.MaxResult {
			continue
		}
		id, _ := doc.ID()
		out[pos].Result = append(out[pos].Result, result.Hit{
			ID:       result.ExternalID(id),
			Score:    candidates[i].Score,
			Document: *doc,
		})
	}
	return out, nil
}

func groupKey(doc *document.Document, props []string) ([]document.Value, string, bool) {
	values := make([]document.Value, 0, len(props))
	parts := make([]string, 0, len(props))
	for _, p := range props {
		v, ok := doc.Get(p)
		if !ok {
			return nil, "", false
		}
		k, ok := v.Key()
		if !ok {
			return nil, "", false
		}
		values = append(values, v)
		parts = append(parts, v.Kind().String()+":"+k)
	}
	return values, strings.Join(parts, "\x00"), true
}
