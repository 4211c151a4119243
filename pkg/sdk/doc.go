// Package sdk is a Go client for the ftsearch HTTP API.
//
// It speaks the same types as the embedded engine in the root ftsearch
// package, so code can switch between an in-process engine and a remote
// server without changing its queries:
//
//	c, _ := sdk.New("http://localhost:8080", sdk.WithAPIKey(os.Getenv("FTSEARCH_API_KEY")))
//	ids, _ := c.Insert(ctx, ftsearch.Document{"id": "1", "title": "The Matrix"})
//	res, _ := c.Search(ctx, ftsearch.SearchParams{Term: "matrix"})
//
// Server errors carry the engine's sentinel errors, so errors.Is works:
//
//	if _, err := c.Get(ctx, "42"); errors.Is(err, ftsearch.ErrDocumentNotFound) {
//	    ...
//	}
package sdk
