// Package ftsearch is an embeddable full-text search engine over JSON-like
// documents.
//
// An Engine is built from a schema of typed properties. Documents are
// inserted by id, scored with BM25+ on their string properties and
// filtered with a structured where-clause. Results can be sorted, pinned,
// deduplicated, faceted and grouped.
//
//	e, err := ftsearch.New([]ftsearch.Field{
//		{Name: "title", Type: ftsearch.String},
//		{Name: "year", Type: ftsearch.Number},
//	})
//	...
//	res, err := e.Search(ctx, ftsearch.SearchParams{Term: "matrix"})
package ftsearch
