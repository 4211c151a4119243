package facets

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
	err  error
}

func (m *mockStore) GetMultiple(_ context.Context, ids []result.InternalID) ([]*document.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
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
	var fields []field.Field
	for _, spec := range [][2]string{
		{"genre", "enum"}, {"tags", "string[]"}, {"year", "number"}, {"available", "boolean"}, {"location", "geopoint"},
	} {
		f, err := field.Parse(spec[0], spec[1])
		if err != nil {
			t.Fatalf("field: %v", err)
		}
		fields = append(fields, f)
	}
	schema, err := collection.New("movies", fields)
	if err != nil {
		t.Fatalf("collection: %v", err)
	}
	store := &mockStore{docs: map[result.InternalID]document.Document{}}
	for id, m := range map[result.InternalID]map[string]any{
		1: {"genre": "drama", "tags": []any{"a", "b", "a"}, "year": 1999, "available": true},
		2: {"genre": "comedy", "tags": []any{"b"}, "year": 2005, "available": false},
		3: {"genre": "drama", "year": 2020, "available": true},
		4: {"genre": "horror"},
	} {
		d, _ := document.FromMap(m)
		store.docs[id] = d
	}
	candidates := []result.TokenScore{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 99}}
	return New(mockSchema{schema}, store), candidates
}

func TestCompute_Values(t *testing.T) {
	e, cands := setup(t)
	got, err := e.Compute(context.Background(), cands, map[string]request.FacetSpec{
		"genre": {},
		"tags":  {},
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	genre := got["genre"]
	if genre.Count != 3 {
		t.Errorf("genre count = %d", genre.Count)
	}
	want := []result.FacetValue{{Value: "drama", Count: 2}, {Value: "comedy", Count: 1}, {Value: "horror", Count: 1}}
	if len(genre.Values) != len(want) {
		t.Fatalf("genre values = %+v", genre.Values)
	}
	for i := range want {
		if genre.Values[i] != want[i] {
			t.Errorf("genre[%d] = %+v, want %+v", i, genre.Values[i], want[i])
		}
	}

	tags := got["tags"]
	if tags.Count != 2 || tags.Values[0] != (result.FacetValue{Value: "b", Count: 2}) {
		t.Errorf("tags = %+v", tags)
	}
}

func TestCompute_LimitOffsetSort(t *testing.T) {
	e, cands := setup(t)
	got, err := e.Compute(context.Background(), cands, map[string]request.FacetSpec{
		"genre": {Limit: 1, Offset: 1, Sort: request.Asc},
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	g := got["genre"]
	if g.Count != 3 || len(g.Values) != 1 || g.Values[0].Value != "horror" {
		t.Errorf("genre = %+v", g)
	}
}

func TestCompute_NumberAndBoolean(t *testing.T) {
	e, cands := setup(t)
	got, err := e.Compute(context.Background(), cands, map[string]request.FacetSpec{
		"year":      {Ranges: []request.NumberRange{{From: 1990, To: 1999}, {From: 2000, To: 2100}}},
		"available": {},
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	year := got["year"].Values
	if year[0] != (result.FacetValue{Value: "1990-1999", Count: 1}) || year[1].Count != 2 {
		t.Errorf("year = %+v", year)
	}
	avail := got["available"].Values
	if avail[0].Count != 2 || avail[1].Count != 1 {
		t.Errorf("available = %+v", avail)
	}
}

func TestCompute_Errors(t *testing.T) {
	e, cands := setup(t)
	ctx := context.Background()

	_, err := e.Compute(ctx, cands, map[string]request.FacetSpec{"missing": {}})
	if !errors.Is(err, domain.ErrUnknownProperty) {
		t.Errorf("unknown property err = %v", err)
	}
	_, err = e.Compute(ctx, cands, map[string]request.FacetSpec{"year": {}})
	if !errors.Is(err, domain.ErrInvalidParams) {
		t.Errorf("number without ranges err = %v", err)
	}
	_, err = e.Compute(ctx, cands, map[string]request.FacetSpec{"location": {}})
	if !errors.Is(err, domain.ErrInvalidParams) {
		t.Errorf("geopoint err = %v", err)
	}

	e.store.(*mockStore).err = errors.New("boom")
	if _, err = e.Compute(ctx, cands, map[string]request.FacetSpec{"genre": {}}); err == nil {
		t.Error("expected store error")
	}
}
