// Package facets aggregates property values over a candidate set.
package facets

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	"github.com/kailas-cloud/ftsearch/internal/domain/collection"
	"github.com/kailas-cloud/ftsearch/internal/domain/collection/field"
	"github.com/kailas-cloud/ftsearch/internal/domain/document"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/request"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// DefaultLimit is the number of buckets returned for string and enum facets.
const DefaultLimit = 10

// SchemaSource provides the current schema.
type SchemaSource interface {
	Schema() collection.Collection
}

// DocumentStore fetches documents by internal id, nil for misses.
type DocumentStore interface {
	GetMultiple(ctx context.Context, ids []result.InternalID) ([]*document.Document, error)
}

// Engine computes facets.
type Engine struct {
	schema SchemaSource
	store  DocumentStore
}

// New creates a facet Engine.
func New(schema SchemaSource, store DocumentStore) *Engine {
	return &Engine{schema: schema, store: store}
}

// Compute aggregates every requested property over candidates.
func (e *Engine) Compute(
	ctx context.Context, candidates []result.TokenScore, specs map[string]request.FacetSpec,
) (map[string]result.Facet, error) {
	schema := e.schema.Schema()
	types := make(map[string]field.Type, len(specs))
	for name, spec := range specs {
		f, ok := schema.FieldByName(name)
		if !ok {
			return nil, domain.NewUnknownProperty(name, schema.Properties())
		}
		t := f.FieldType()
		if t == field.Vector || t == field.GeoPoint {
			return nil, fmt.Errorf("%w: cannot facet on %q of type %s", domain.ErrInvalidParams, name, t)
		}
		if t.Scalar() == field.Number && len(spec.Ranges) == 0 {
			return nil, fmt.Errorf("%w: number facet %q requires ranges", domain.ErrInvalidParams, name)
		}
		types[name] = t
	}

	docs, err := e.store.GetMultiple(ctx, result.IDs(candidates))
	if err != nil {
		return nil, fmt.Errorf("fetch facet documents: %w", err)
	}

	out := make(map[string]result.Facet, len(specs))
	for name, spec := range specs {
		switch types[name].Scalar() {
		case field.Number:
			out[name] = numberFacet(docs, name, spec.Ranges)
		case field.Boolean:
			out[name] = booleanFacet(docs, name)
		default:
			out[name] = valueFacet(docs, name, spec)
		}
	}
	return out, nil
}

// keys returns the distinct scalar keys of a property, elements of arrays included.
func keys(doc *document.Document, name string) []document.Value {
	if doc == nil {
		return nil
	}
	v, ok := doc.Get(name)
	if !ok {
		return nil
	}
	if v.Kind() == document.KindArray {
		return v.Elems()
	}
	return []document.Value{v}
}

func distinct(vals []document.Value) map[string]document.Value {
	out := make(map[string]document.Value, len(vals))
	for _, v := range vals {
		if k, ok := v.Key(); ok {
			out[k] = v
		}
	}
	return out
}

func valueFacet(docs []*document.Document, name string, spec request.FacetSpec) result.Facet {
	counts := make(map[string]int)
	for _, d := range docs {
		for k := range distinct(keys(d, name)) {
			counts[k]++
		}
	}
	values := make([]result.FacetValue, 0, len(counts))
	for k, c := range counts {
		values = append(values, result.FacetValue{Value: k, Count: c})
	}
	asc := spec.Sort == request.Asc
	sort.Slice(values, func(i, j int) bool {
		if values[i].Count != values[j].Count {
			if asc {
				return values[i].Count < values[j].Count
			}
			return values[i].Count > values[j].Count
		}
		return values[i].Value < values[j].Value
	})

	limit := spec.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	start := min(spec.Offset, len(values))
	end := min(start+limit, len(values))
	return result.Facet{Count: len(counts), Values: values[start:end]}
}

func numberFacet(docs []*document.Document, name string, ranges []request.NumberRange) result.Facet {
	values := make([]result.FacetValue, len(ranges))
	for i, r := range ranges {
		values[i].Value = strconv.FormatFloat(r.From, 'f', -1, 64) + "-" + strconv.FormatFloat(r.To, 'f', -1, 64)
	}
	for _, d := range docs {
		vals := keys(d, name)
		for i, r := range ranges {
			for _, v := range vals {
				if n, ok := v.AsNumber(); ok && n >= r.From && n <= r.To {
					values[i].Count++
					break
				}
			}
		}
	}
	return result.Facet{Count: len(values), Values: values}
}

func booleanFacet(docs []*document.Document, name string) result.Facet {
	values := []result.FacetValue{{Value: "true"}, {Value: "false"}}
	for _, d := range docs {
		for k := range distinct(keys(d, name)) {
			switch k {
			case "true":
				values[0].Count++
			case "false":
				values[1].Count++
			}
		}
	}
	return result.Facet{Count: len(values), Values: values}
}
