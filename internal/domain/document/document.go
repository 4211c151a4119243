package document

import (
	"encoding/json"
	"fmt"
	"strings"
)

// IDField is the property holding the externally supplied document key.
const IDField = "id"

// MaxIDLength is the maximum external id length.
const MaxIDLength = 512

// Document is a stored document: an object of named Values (immutable value object).
type Document struct {
	fields map[string]Value
}

// New creates a Document from already-converted fields.
func New(fields map[string]Value) Document {
	return Document{fields: fields}
}

// FromMap converts decoded JSON into a Document.
func FromMap(m map[string]any) (Document, error) {
	v, err := FromAny(m)
	if err != nil {
		return Document{}, fmt.Errorf("document: %w", err)
	}
	return Document{fields: v.Fields()}, nil
}

// ID returns the external document key, when present and a string.
func (d Document) ID() (string, bool) {
	v, ok := d.fields[IDField]
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Fields returns the top-level properties.
func (d Document) Fields() map[string]Value { return d.fields }

// Keys returns the top-level property names in lexical order.
func (d Document) Keys() []string { return sortedKeys(d.fields) }

// IsZero reports whether the document holds no properties.
func (d Document) IsZero() bool { return len(d.fields) == 0 }

// Get resolves a dot-separated path. The result is absent when any segment is
// missing or an intermediate value is not an object (null included).
func (d Document) Get(path string) (Value, bool) {
	if path == "" || d.fields == nil {
		return Value{}, false
	}
	cur := d.fields
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		v, ok := cur[seg]
		if !ok {
			return Value{}, false
		}
		if i == len(segments)-1 {
			return v, true
		}
		if v.kind != KindObject {
			return Value{}, false
		}
		cur = v.obj
	}
	return Value{}, false
}

// With returns a copy with the top-level property set.
func (d Document) With(name string, v Value) Document {
	out := make(map[string]Value, len(d.fields)+1)
	for k, e := range d.fields {
		out[k] = e
	}
	out[name] = v
	return Document{fields: out}
}

// Without returns a copy with the given paths removed. Objects along a removed
// path are copied, everything else is shared with d.
func (d Document) Without(paths ...string) Document {
	out := d.fields
	copied := false
	for _, p := range paths {
		if _, ok := d.Get(p); !ok {
			continue
		}
		if !copied {
			out = cloneShallow(out)
			copied = true
		}
		out = removePath(out, strings.Split(p, "."))
	}
	return Document{fields: out}
}

func removePath(m map[string]Value, segs []string) map[string]Value {
	if len(segs) == 1 {
		delete(m, segs[0])
		return m
	}
	child, ok := m[segs[0]]
	if !ok || child.kind != KindObject {
		return m
	}
	m[segs[0]] = Object(removePath(cloneShallow(child.obj), segs[1:]))
	return m
}

func cloneShallow(m map[string]Value) map[string]Value {
	c := make(map[string]Value, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Equal reports deep equality.
func (d Document) Equal(o Document) bool {
	return Object(d.fields).Equal(Object(o.fields))
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	if d.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(Object(d.fields).Any())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	parsed, err := FromMap(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
