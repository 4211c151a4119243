package search

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kailas-cloud/ftsearch/internal/domain/collection/field"
	domdoc "github.com/kailas-cloud/ftsearch/internal/domain/document"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/query"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/request"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// Index is the inverted index the search runs against.
type Index interface {
	SearchablePropertiesWithTypes(ctx context.Context) (map[string]field.Type, error)
	SearchableProperties(ctx context.Context) ([]string, error)
	VectorProperties(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	SearchByWhereClause(ctx context.Context, expr filter.Expression, language string) (*roaring.Bitmap, error)
	// SearchByGeoWhereClause returns ok=false when expr is not a pure geo query.
	SearchByGeoWhereClause(ctx context.Context, expr filter.Expression) ([]result.TokenScore, bool, error)
	Search(ctx context.Context, q query.TermQuery) ([]result.TokenScore, error)
}

// DocumentStore reads stored documents by internal id.
type DocumentStore interface {
	// GetMultiple returns documents in ids order, nil for misses.
	GetMultiple(ctx context.Context, ids []result.InternalID) ([]*domdoc.Document, error)
	// IDs lists every stored internal id.
	IDs(ctx context.Context) ([]result.InternalID, error)
}

// Sorter orders candidates by a sortable property in the external id space.
type Sorter interface {
	SortBy(ctx context.Context, candidates []result.ExternalScore, by request.SortBy) ([]result.ExternalScore, error)
}

// IDMapper translates between internal and external document ids.
type IDMapper interface {
	External(id result.InternalID) (result.ExternalID, bool)
	ToInternal(in []result.ExternalScore) []result.TokenScore
}

// Pinning reorders candidates according to pin rules matching term.
type Pinning interface {
	Apply(ctx context.Context, candidates []result.TokenScore, term string) ([]result.TokenScore, error)
}

// Facets aggregates property values over candidates.
type Facets interface {
	Compute(
		ctx context.Context, candidates []result.TokenScore, specs map[string]request.FacetSpec,
	) (map[string]result.Facet, error)
}

// Groups buckets candidates by property values.
type Groups interface {
	Compute(ctx context.Context, candidates []result.TokenScore, by request.GroupBy) ([]result.Group, error)
}
