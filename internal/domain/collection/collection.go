package collection

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kailas-cloud/ftsearch/internal/domain/collection/field"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxFields is the maximum number of properties in a schema.
const MaxFields = 256

// Collection is the schema aggregate of a search instance (immutable value object).
type Collection struct {
	name      string
	fields    []field.Field
	createdAt int64
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("collection name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("collection name must be alphanumeric with underscores and hyphens")
	}
	return nil
}

func validateFields(fields []field.Field) error {
	if len(fields) > MaxFields {
		return fmt.Errorf("too many fields (max %d)", MaxFields)
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name()] {
			return fmt.Errorf("duplicate field name: %s", f.Name())
		}
		seen[f.Name()] = true
	}
	// a path cannot be both a leaf and a parent object
	for _, f := range fields {
		for other := range seen {
			if strings.HasPrefix(other, f.Name()+".") {
				return fmt.Errorf("field %q conflicts with nested field %q", f.Name(), other)
			}
		}
	}
	return nil
}

// New validates and creates a Collection.
// Name: ^[a-zA-Z0-9_-]+$, 1-64 chars. Fields: unique, non-overlapping paths.
func New(name string, fields []field.Field) (Collection, error) {
	if err := validateName(name); err != nil {
		return Collection{}, err
	}
	if err := validateFields(fields); err != nil {
		return Collection{}, err
	}

	return Collection{
		name:      name,
		fields:    append([]field.Field(nil), fields...),
		createdAt: time.Now().UnixMilli(),
	}, nil
}

// Reconstruct creates a Collection without validation (storage hydration).
func Reconstruct(name string, fields []field.Field, createdAt int64) Collection {
	return Collection{name: name, fields: fields, createdAt: createdAt}
}

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// Fields returns the property definitions in declaration order.
func (c Collection) Fields() []field.Field { return c.fields }

// CreatedAt returns the creation timestamp (unix millis).
func (c Collection) CreatedAt() int64 { return c.createdAt }

// FieldByName looks up a field by its path.
func (c Collection) FieldByName(name string) (field.Field, bool) {
	for _, f := range c.fields {
		if f.Name() == name {
			return f, true
		}
	}
	return field.Field{}, false
}

// PropertiesWithTypes maps every property path to its type tag.
func (c Collection) PropertiesWithTypes() map[string]field.Type {
	out := make(map[string]field.Type, len(c.fields))
	for _, f := range c.fields {
		out[f.Name()] = f.FieldType()
	}
	return out
}

// Properties returns every property path in declaration order.
func (c Collection) Properties() []string {
	out := make([]string, len(c.fields))
	for i, f := range c.fields {
		out[i] = f.Name()
	}
	return out
}

// VectorProperties returns the paths of vector-typed properties.
func (c Collection) VectorProperties() []string {
	var out []string
	for _, f := range c.fields {
		if f.FieldType() == field.Vector {
			out = append(out, f.Name())
		}
	}
	return out
}
