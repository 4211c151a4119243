// Package query describes the scored term lookup handed to the index.
package query

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kailas-cloud/ftsearch/internal/domain/search/relevance"
)

// TermQuery is a fully resolved scored search over the inverted index.
type TermQuery struct {
	Term       string
	Language   string
	Properties []string
	Exact      bool
	Tolerance  int
	Boost      map[string]float64
	Relevance  relevance.Resolved
	// DocsCount is the live document count used for IDF normalization.
	DocsCount int
	// Filter restricts scoring to its members. Nil means no filtering,
	// an empty bitmap means nothing passes.
	Filter    *roaring.Bitmap
	Threshold float64
}

// BoostFor returns the boost configured for property, 1 when unset.
func (q TermQuery) BoostFor(property string) float64 {
	if b, ok := q.Boost[property]; ok {
		return b
	}
	return 1
}

// Allows reports whether id passes the filter set.
func (q TermQuery) Allows(id uint32) bool {
	return q.Filter == nil || q.Filter.Contains(id)
}
