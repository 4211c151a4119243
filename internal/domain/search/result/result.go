// Package result holds search identifiers, scored candidates and the
// result envelope.
package result

import (
	"time"

	"github.com/kailas-cloud/ftsearch/internal/domain/document"
)

// InternalID is the dense engine-assigned document identifier.
type InternalID uint32

// ExternalID is the caller-supplied document key.
type ExternalID string

// TokenScore is a scored candidate in the internal identifier space.
type TokenScore struct {
	ID    InternalID
	Score float64
}

// ExternalScore is a scored candidate in the external identifier space,
// as produced by the sorter.
type ExternalScore struct {
	ID    ExternalID
	Score float64
}

// IDs returns the identifiers of ts in order.
func IDs(ts []TokenScore) []InternalID {
	out := make([]InternalID, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

// Hit is a single returned document.
type Hit struct {
	ID       ExternalID        `json:"id"`
	Score    float64           `json:"score"`
	Document document.Document `json:"document"`
}

// FacetValue is one bucket of a facet.
type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facet is the aggregation of one property over the candidate set.
// Count is the number of distinct values observed.
type Facet struct {
	Count  int          `json:"count"`
	Values []FacetValue `json:"values"`
}

// Group is one bucket of a group-by.
type Group struct {
	Values []document.Value `json:"values"`
	Result []Hit            `json:"result"`
}

// Elapsed is the query duration in raw and human form.
type Elapsed struct {
	Raw       time.Duration `json:"raw"`
	Formatted string        `json:"formatted"`
}

// Results is the search result envelope. Count is the number of candidates
// before pagination.
type Results struct {
	Elapsed Elapsed          `json:"elapsed"`
	Hits    []Hit            `json:"hits"`
	Count   int              `json:"count"`
	Facets  map[string]Facet `json:"facets,omitempty"`
	Groups  []Group          `json:"groups,omitempty"`
}
