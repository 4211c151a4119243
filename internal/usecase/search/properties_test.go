package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	"github.com/kailas-cloud/ftsearch/internal/domain/collection/field"
)

func newTestIndex() *mockIndex {
	return &mockIndex{
		types: map[string]field.Type{
			"title": field.String,
			"tags":  field.StringArray,
			"year":  field.Number,
		},
		props: []string{"title", "year", "tags"},
	}
}

func TestPropertyCache_AllWhenUnset(t *testing.T) {
	c := newPropertyCache(newTestIndex())

	got, err := c.resolve(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(got, ",") != "title,tags" {
		t.Fatalf("expected string properties in index order, got %v", got)
	}
}

func TestPropertyCache_ExplicitSubset(t *testing.T) {
	c := newPropertyCache(newTestIndex())

	got, err := c.resolve(context.Background(), []string{"tags", "title", "tags"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(got, ",") != "title,tags" {
		t.Fatalf("expected title,tags, got %v", got)
	}
}

func TestPropertyCache_NonStringRejected(t *testing.T) {
	c := newPropertyCache(newTestIndex())

	_, err := c.resolve(context.Background(), []string{"year"})
	var upe *domain.UnknownPropertyError
	if !errors.As(err, &upe) {
		t.Fatalf("expected UnknownPropertyError, got %v", err)
	}
	if upe.Property != "year" || strings.Join(upe.Valid, ",") != "title,tags" {
		t.Fatalf("unexpected error contents: %+v", upe)
	}
}

func TestPropertyCache_ComputedOnceUnderConcurrency(t *testing.T) {
	idx := newTestIndex()
	c := newPropertyCache(idx)

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.searchable(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if _, err := c.searchable(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Concurrent misses may each start a lookup before the first stores,
	// but every later call is a hit.
	calls := idx.typeCalls.Load()
	if calls < 1 || calls > 32 {
		t.Fatalf("unexpected index calls: %d", calls)
	}
	if _, err := c.searchable(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.typeCalls.Load() != calls {
		t.Fatal("expected cached value to be reused")
	}
}

func TestPropertyCache_Invalidate(t *testing.T) {
	idx := newTestIndex()
	c := newPropertyCache(idx)

	if _, err := c.searchable(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	idx.types["body"] = field.String
	idx.props = append(idx.props, "body")
	c.Invalidate()

	got, err := c.searchable(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(got, ",") != "title,tags,body" {
		t.Fatalf("expected refreshed properties, got %v", got)
	}
	if idx.typeCalls.Load() != 2 {
		t.Fatalf("expected 2 index lookups, got %d", idx.typeCalls.Load())
	}
}
