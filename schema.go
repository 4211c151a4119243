package ftsearch

import (
	"fmt"

	domcol "github.com/kailas-cloud/ftsearch/internal/domain/collection"
	"github.com/kailas-cloud/ftsearch/internal/domain/collection/field"
)

const schemaName = "ftsearch"

// FieldType is the type tag of a schema property.
type FieldType string

// Property types.
const (
	String       FieldType = "string"
	Number       FieldType = "number"
	Boolean      FieldType = "boolean"
	Enum         FieldType = "enum"
	GeoPoint     FieldType = "geopoint"
	StringArray  FieldType = "string[]"
	NumberArray  FieldType = "number[]"
	BooleanArray FieldType = "boolean[]"
	EnumArray    FieldType = "enum[]"
)

// Vector returns the type tag of a float vector of the given dimension.
// Vector properties are stored but never searched by term.
func Vector(dims int) FieldType {
	return FieldType(fmt.Sprintf("vector[%d]", dims))
}

// Field declares one schema property. Name may be a dot-separated path
// into nested objects.
type Field struct {
	Name string    `json:"name" yaml:"name"`
	Type FieldType `json:"type" yaml:"type"`
}

func buildSchema(fields []Field) (domcol.Collection, error) {
	parsed := make([]field.Field, 0, len(fields))
	for _, f := range fields {
		pf, err := field.Parse(f.Name, string(f.Type))
		if err != nil {
			return domcol.Collection{}, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
		}
		parsed = append(parsed, pf)
	}
	schema, err := domcol.New(schemaName, parsed)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return schema, nil
}

func fromSchema(schema domcol.Collection) []Field {
	out := make([]Field, 0, len(schema.Fields()))
	for _, f := range schema.Fields() {
		out = append(out, Field{Name: f.Name(), Type: FieldType(f.Tag())})
	}
	return out
}
