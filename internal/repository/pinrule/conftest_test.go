package pinrule

import (
	"context"
	"testing"

	"github.com/kailas-cloud/ftsearch/internal/db"
	"github.com/kailas-cloud/ftsearch/internal/pinning"
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
	return nil, db.ErrKeyNotFound
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
	return New(ms, "fts:"), ms
}

func testRule(id string) pinning.Rule {
	return pinning.Rule{
		ID:         id,
		Conditions: []pinning.Condition{{Anchoring: pinning.Is, Pattern: "matrix"}},
		Promote:    []pinning.Promotion{{DocID: "42", Position: 0}},
	}
}
