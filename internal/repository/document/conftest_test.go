package document

import (
	"context"
	"testing"

	domdoc "github.com/kailas-cloud/ftsearch/internal/domain/document"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn    func(ctx context.Context, key string) ([]byte, error)
	mgetFn   func(ctx context.Context, keys []string) ([][]byte, error)
	setFn    func(ctx context.Context, key string, value []byte) error
	delFn    func(ctx context.Context, key string) error
	existsFn func(ctx context.Context, key string) (bool, error)
	scanFn   func(ctx context.Context, prefix string) ([]string, error)
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if m.mgetFn != nil {
		return m.mgetFn(ctx, keys)
	}
	return make([][]byte, len(keys)), nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) Scan(ctx context.Context, prefix string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, prefix)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, "fts:")
	return repo, ms
}

func testDocument(t *testing.T) domdoc.Document {
	t.Helper()
	doc, err := domdoc.FromMap(map[string]any{
		"id":    "doc-1",
		"title": "hello world",
		"year":  2001.0,
		"meta":  map[string]any{"lang": "go"},
	})
	if err != nil {
		t.Fatalf("build document: %v", err)
	}
	return doc
}
