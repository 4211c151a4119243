package patch

import (
	"strings"
	"testing"

	domdoc "github.com/kailas-cloud/ftsearch/internal/domain/document"
)

func baseDoc() domdoc.Document {
	return domdoc.New(map[string]domdoc.Value{
		"id":    domdoc.String("doc-1"),
		"title": domdoc.String("old title"),
		"year":  domdoc.Number(1999),
	})
}

func TestNew_Empty(t *testing.T) {
	_, err := New(nil)
	if err == nil {
		t.Fatal("expected error for empty patch")
	}
	if !strings.Contains(err.Error(), "at least one") {
		t.Errorf("error = %q, want 'at least one'", err.Error())
	}
}

func TestNew_IDImmutable(t *testing.T) {
	_, err := New(map[string]domdoc.Value{"id": domdoc.String("other")})
	if err == nil {
		t.Fatal("expected error when patching id")
	}
}

func TestNew_EmptyFieldName(t *testing.T) {
	if _, err := New(map[string]domdoc.Value{"": domdoc.String("x")}); err == nil {
		t.Fatal("expected error for empty field name")
	}
}

func TestNew_CopiesInput(t *testing.T) {
	set := map[string]domdoc.Value{"title": domdoc.String("new")}
	p, err := New(set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	set["year"] = domdoc.Number(1)
	if len(p.Fields()) != 1 {
		t.Fatalf("patch must not alias caller map, got %v", p.Fields())
	}
}

func TestApply_SetAndRemove(t *testing.T) {
	p, err := FromMap(map[string]any{"title": "new title", "year": nil, "tags": []any{"a", "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Removes("year") || p.Removes("title") {
		t.Fatalf("unexpected Removes results")
	}

	doc := baseDoc()
	got := p.Apply(doc)

	if s, _ := mustGet(t, got, "title").AsString(); s != "new title" {
		t.Errorf("title = %q, want 'new title'", s)
	}
	if _, ok := got.Get("year"); ok {
		t.Error("year should be removed")
	}
	if len(mustGet(t, got, "tags").Elems()) != 2 {
		t.Error("tags should be added")
	}
	if id, _ := got.ID(); id != "doc-1" {
		t.Errorf("id = %q, want doc-1", id)
	}
	if s, _ := mustGet(t, doc, "title").AsString(); s != "old title" {
		t.Error("original document must not change")
	}
}

func TestFromMap_InvalidValue(t *testing.T) {
	if _, err := FromMap(map[string]any{"x": struct{}{}}); err == nil {
		t.Fatal("expected error for unsupported value")
	}
}

func mustGet(t *testing.T, d domdoc.Document, path string) domdoc.Value {
	t.Helper()
	v, ok := d.Get(path)
	if !ok {
		t.Fatalf("missing %s", path)
	}
	return v
}
