package document

import (
	"encoding/json"
	"math"
	"testing"
)

func mustDoc(t *testing.T, m map[string]any) Document {
	t.Helper()
	d, err := FromMap(m)
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	return d
}

func TestGet_NestedPath(t *testing.T) {
	d := mustDoc(t, map[string]any{
		"id": "doc-1",
		"meta": map[string]any{
			"author": map[string]any{"name": "Ada"},
			"null":   nil,
			"scalar": "x",
		},
	})

	v, ok := d.Get("meta.author.name")
	if !ok {
		t.Fatal("expected meta.author.name to resolve")
	}
	if s, _ := v.AsString(); s != "Ada" {
		t.Errorf("meta.author.name = %q", s)
	}

	if v, ok := d.Get("meta.null"); !ok || !v.IsNull() {
		t.Errorf("meta.null should resolve to null, got %v %v", v, ok)
	}

	for _, path := range []string{"", "missing", "meta.missing", "meta.null.child", "meta.scalar.child"} {
		if _, ok := d.Get(path); ok {
			t.Errorf("Get(%q) should be absent", path)
		}
	}
}

func TestID(t *testing.T) {
	d := mustDoc(t, map[string]any{"id": "doc-1"})
	if id, ok := d.ID(); !ok || id != "doc-1" {
		t.Errorf("ID() = %q, %v", id, ok)
	}

	d = mustDoc(t, map[string]any{"id": 42})
	if _, ok := d.ID(); ok {
		t.Error("numeric id should not be reported as external key")
	}
}

func TestWithout_DoesNotMutateOriginal(t *testing.T) {
	d := mustDoc(t, map[string]any{
		"title":     "a",
		"embedding": []any{0.1, 0.2},
		"meta":      map[string]any{"vec": []any{1.0}, "keep": "k"},
	})

	stripped := d.Without("embedding", "meta.vec", "absent.path")

	if _, ok := stripped.Get("embedding"); ok {
		t.Error("embedding should be removed")
	}
	if _, ok := stripped.Get("meta.vec"); ok {
		t.Error("meta.vec should be removed")
	}
	if _, ok := stripped.Get("meta.keep"); !ok {
		t.Error("meta.keep should survive")
	}
	if _, ok := d.Get("embedding"); !ok {
		t.Error("original lost embedding")
	}
	if _, ok := d.Get("meta.vec"); !ok {
		t.Error("original lost meta.vec")
	}
}

func TestWith(t *testing.T) {
	d := mustDoc(t, map[string]any{"title": "a"})
	d2 := d.With("id", String("x"))
	if _, ok := d.Get("id"); ok {
		t.Error("With mutated the original")
	}
	if id, _ := d2.ID(); id != "x" {
		t.Errorf("ID() = %q", id)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	in := `{"id":"a","n":1.5,"b":true,"tags":["x","y"],"nested":{"z":null}}`
	var d Document
	if err := json.Unmarshal([]byte(in), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again Document
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatalf("unmarshal again: %v", err)
	}
	if !d.Equal(again) {
		t.Errorf("round trip mismatch: %s", out)
	}
	if got := d.Keys(); len(got) != 5 || got[0] != "b" {
		t.Errorf("Keys() = %v", got)
	}
}

func TestFromAny_Errors(t *testing.T) {
	if _, err := FromAny(math.NaN()); err == nil {
		t.Error("expected error for NaN")
	}
	if _, err := FromAny(struct{}{}); err == nil {
		t.Error("expected error for struct")
	}
}

func TestValue_Key(t *testing.T) {
	tests := []struct {
		v    Value
		want string
		ok   bool
	}{
		{String("a"), "a", true},
		{Number(2), "2", true},
		{Number(2.5), "2.5", true},
		{Bool(true), "true", true},
		{Null(), "", false},
		{Array(String("a")), "", false},
	}
	for _, tt := range tests {
		got, ok := tt.v.Key()
		if got != tt.want || ok != tt.ok {
			t.Errorf("Key(%v) = %q, %v; want %q, %v", tt.v.Kind(), got, ok, tt.want, tt.ok)
		}
	}
}
