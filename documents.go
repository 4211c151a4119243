package ftsearch

import (
	"context"
	"fmt"

	dombatch "github.com/kailas-cloud/ftsearch/internal/domain/batch"
	domdoc "github.com/kailas-cloud/ftsearch/internal/domain/document"
	"github.com/kailas-cloud/ftsearch/internal/domain/document/patch"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// Document is a JSON-like object. The "id" property holds its key.
type Document map[string]any

// Insert stores and indexes doc and returns its id. A document without
// an "id" gets a generated UUID.
func (e *Engine) Insert(ctx context.Context, doc Document) (string, error) {
	d, err := toInternalDocument(doc)
	if err != nil {
		return "", fmt.Errorf("insert: %w", err)
	}
	id, err := e.docSvc.Insert(ctx, d)
	if err != nil {
		return "", fmt.Errorf("insert: %w", err)
	}
	return string(id), nil
}

// InsertMultiple inserts docs in order and stops at the first failure.
// The ids inserted before the failure are returned with the error.
func (e *Engine) InsertMultiple(ctx context.Context, docs []Document) ([]string, error) {
	internal := make([]domdoc.Document, len(docs))
	for i, doc := range docs {
		d, err := toInternalDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("insert document %d: %w", i, err)
		}
		internal[i] = d
	}
	ids, err := e.docSvc.InsertMultiple(ctx, internal)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	if err != nil {
		return out, fmt.Errorf("insert: %w", err)
	}
	return out, nil
}

// BatchResult is the outcome of one item of InsertBatch or RemoveBatch.
// Status is "ok", "error" or "skipped" (the batch was cancelled first).
// Err matches the package sentinels with errors.Is.
type BatchResult struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	Err    error  `json:"-"`
}

// InsertBatch inserts every document independently and reports one result
// per document, in order. A failing document does not stop the batch.
func (e *Engine) InsertBatch(ctx context.Context, docs []Document) []BatchResult {
	items := make([]map[string]any, len(docs))
	for i, d := range docs {
		items[i] = d
	}
	return fromBatchResults(e.batchSvc.Insert(ctx, items))
}

// RemoveBatch removes every id independently and reports one result per id.
func (e *Engine) RemoveBatch(ctx context.Context, ids []string) []BatchResult {
	return fromBatchResults(e.batchSvc.Remove(ctx, ids))
}

func fromBatchResults(results []dombatch.Result) []BatchResult {
	out := make([]BatchResult, len(results))
	for i, r := range results {
		out[i] = BatchResult{ID: r.ID(), Status: string(r.Status()), Err: r.Err()}
	}
	return out
}

// Get returns the stored document with the given id.
func (e *Engine) Get(ctx context.Context, id string) (Document, error) {
	d, err := e.docSvc.Get(ctx, result.ExternalID(id))
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	return fromInternalDocument(d), nil
}

// Update merges set into the document with the given id. A nil value
// removes the property. The "id" property cannot be changed.
func (e *Engine) Update(ctx context.Context, id string, set Document) (Document, error) {
	p, err := patch.FromMap(set)
	if err != nil {
		return nil, fmt.Errorf("update: %w: %w", ErrInvalidSchema, err)
	}
	d, err := e.docSvc.Update(ctx, result.ExternalID(id), p)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	return fromInternalDocument(d), nil
}

// Remove deletes the document with the given id.
func (e *Engine) Remove(ctx context.Context, id string) error {
	if err := e.docSvc.Remove(ctx, result.ExternalID(id)); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

func toInternalDocument(doc Document) (domdoc.Document, error) {
	d, err := domdoc.FromMap(doc)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return d, nil
}

func fromInternalDocument(d domdoc.Document) Document {
	out := make(Document, len(d.Fields()))
	for k, v := range d.Fields() {
		out[k] = v.Any()
	}
	return out
}
