package patch

import (
	"fmt"

	domdoc "github.com/kailas-cloud/ftsearch/internal/domain/document"
)

// MaxFields is the maximum number of properties one patch may touch.
const MaxFields = 1024

// Patch is a partial document update over top-level properties.
// A Null value in the set removes that property.
type Patch struct {
	set map[string]domdoc.Value
}

// New validates and creates a Patch. At least one property must be provided
// and the document id cannot be changed.
func New(set map[string]domdoc.Value) (Patch, error) {
	if len(set) == 0 {
		return Patch{}, fmt.Errorf("at least one field must be provided")
	}
	if len(set) > MaxFields {
		return Patch{}, fmt.Errorf("too many fields (max %d)", MaxFields)
	}
	if _, ok := set[domdoc.IDField]; ok {
		return Patch{}, fmt.Errorf("field %q cannot be patched", domdoc.IDField)
	}
	cp := make(map[string]domdoc.Value, len(set))
	for k, v := range set {
		if k == "" {
			return Patch{}, fmt.Errorf("field name must not be empty")
		}
		cp[k] = v
	}
	return Patch{set: cp}, nil
}

// FromMap builds a Patch from decoded JSON.
func FromMap(m map[string]any) (Patch, error) {
	set := make(map[string]domdoc.Value, len(m))
	for k, raw := range m {
		v, err := domdoc.FromAny(raw)
		if err != nil {
			return Patch{}, fmt.Errorf("field %s: %w", k, err)
		}
		set[k] = v
	}
	return New(set)
}

// Fields returns the patched properties (Null = delete).
func (p Patch) Fields() map[string]domdoc.Value { return p.set }

// Removes reports whether the patch deletes name.
func (p Patch) Removes(name string) bool {
	v, ok := p.set[name]
	return ok && v.IsNull()
}

// Apply returns doc with the patch merged in. doc is not modified.
func (p Patch) Apply(doc domdoc.Document) domdoc.Document {
	out := doc
	var removed []string
	for k, v := range p.set {
		if v.IsNull() {
			removed = append(removed, k)
			continue
		}
		out = out.With(k, v)
	}
	if len(removed) > 0 {
		out = out.Without(removed...)
	}
	return out
}
