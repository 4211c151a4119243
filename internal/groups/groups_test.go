package groups

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	"github.com/kailas-cloud/ftsearch/internal/domain/collection"
	"github.com/kailas-cloud/ftsearch/internal/domain/collection/field"
	"github.com/kailas-cloud/ftsearch/internal/domain/document"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/request"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// --- Mocks ---

type mockSchema struct{ c collection.Collection }

func (m mockSchema) Schema() collection.Collection { return m.c }

type mockStore struct {
	docs map[result.InternalID]document.Document
}

func (m *mockStore) GetMultiple(_ context.Context, ids []result.InternalID) ([]*document.Document, error) {
	out := make([]*document.Document, len(ids))
	for i, id := range ids {
		if d, ok := m.docs[id]; ok {
			out[i] = &d
		}
	}
	return out, nil
}

func setup(t *testing.T) (*Engine, []result.TokenScore) {
	t.Helper()
	genre, _ := field.New("genre", field.Enum)
	year, _ := field.New("year", field.Number)
	tags, _ := field.New("tags", field.StringArray)
	schema, err := collection.New("movies", []field.Field{genre, year, tags})
	if err != nil {
		t.Fatalf("collection: %v", err)
	}
	store := &mockStore{docs: map[result.InternalID]document.Document{}}
	for id, m := range map[result.InternalID]map[string]any{
		1: {"id": "a", "genre": "drama", "year": 1999},
		2: {"id": "b", "genre": "comedy", "year": 1999},
		3: {"id": "c", "genre": "drama", "year": 2020},
		4: {"id": "d", "genre": "drama", "year": 1999},
		5: {"id": "e", "year": 1999},
	} {
		d, _ := document.FromMap(m)
		store.docs[id] = d
	}
	cands := []result.TokenScore{{ID: 4, Score: 4}, {ID: 1, Score: 3}, {ID: 2, Score: 2}, {ID: 3, Score: 1}, {ID: 5}, {ID: 42}}
	return New(mockSchema{schema}, store), cands
}

func TestCompute_SingleProperty(t *testing.T) {
	e, cands := setup(t)
	got, err := e.Compute(context.Background(), cands, request.GroupBy{Properties: []string{"genre"}})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("groups = %+v", got)
	}
	if s, _ := got[0].Values[0].AsString(); s != "drama" {
		t.Errorf("first group = %q, want drama (first appearance)", s)
	}
	if len(got[0].Result) != 3 || got[0].Result[0].ID != "d" || got[0].Result[0].Score != 4 {
		t.Errorf("drama hits = %+v", got[0].Result)
	}
}

func TestCompute_CombinedAndMaxResult(t *testing.T) {
	e, cands := setup(t)
	got, err := e.Compute(context.Background(), cands, request.GroupBy{Properties: []string{"genre", "year"}, MaxResult: 1})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("groups = %d, want 3", len(got))
	}
	for _, g := range got {
		if len(g.Result) != 1 || len(g.Values) != 2 {
			t.Errorf("group = %+v", g)
		}
	}
}

func TestCompute_Errors(t *testing.T) {
	e, cands := setup(t)
	_, err := e.Compute(context.Background(), cands, request.GroupBy{Properties: []string{"missing"}})
	if !errors.Is(err, domain.ErrUnknownProperty) {
		t.Errorf("err = %v", err)
	}
	_, err = e.Compute(context.Background(), cands, request.GroupBy{Properties: []string{"tags"}})
	if !errors.Is(err, domain.ErrInvalidParams) {
		t.Errorf("err = %v", err)
	}
}
