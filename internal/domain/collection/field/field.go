package field

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Type is the schema type tag of a property.
type Type string

// Field type constants.
const (
	String       Type = "string"
	Number       Type = "number"
	Boolean      Type = "boolean"
	Enum         Type = "enum"
	GeoPoint     Type = "geopoint"
	StringArray  Type = "string[]"
	NumberArray  Type = "number[]"
	BooleanArray Type = "boolean[]"
	EnumArray    Type = "enum[]"
	// Vector is a fixed-size float vector; the dimension lives on the Field.
	Vector Type = "vector"
)

var (
	nameRegex   = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)*$`)
	vectorRegex = regexp.MustCompile(`^vector\[(\d+)\]$`)
)

// reserved names clash with the hit envelope.
var reservedFieldNames = map[string]bool{
	"id": true, "score": true,
}

// IsValid reports whether t is a known type tag.
func (t Type) IsValid() bool {
	switch t {
	case String, Number, Boolean, Enum, GeoPoint,
		StringArray, NumberArray, BooleanArray, EnumArray, Vector:
		return true
	}
	return false
}

// IsString reports whether the property participates in term search.
func (t Type) IsString() bool { return t == String || t == StringArray }

// IsArray reports whether the property holds a list of scalars.
func (t Type) IsArray() bool {
	return t == StringArray || t == NumberArray || t == BooleanArray || t == EnumArray
}

// Scalar returns the element type of an array type, or t itself.
func (t Type) Scalar() Type {
	if t.IsArray() {
		return Type(strings.TrimSuffix(string(t), "[]"))
	}
	return t
}

// IsSortable reports whether the sorter can order by this type.
func (t Type) IsSortable() bool { return t == String || t == Number || t == Boolean }

// Field is an immutable value object describing a schema property.
type Field struct {
	name      string
	fieldType Type
	dims      int
}

// New validates and creates a Field. Names may be dot-separated nested paths.
func New(name string, ft Type) (Field, error) {
	if name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if len(name) > 256 {
		return Field{}, fmt.Errorf("field name %q too long (max 256)", name)
	}
	if reservedFieldNames[name] {
		return Field{}, fmt.Errorf("field name %q is reserved", name)
	}
	if !nameRegex.MatchString(name) {
		return Field{}, fmt.Errorf("field name %q must be a dot-separated identifier path", name)
	}
	if ft == Vector {
		return Field{}, fmt.Errorf("vector field %q requires a dimension, use NewVector", name)
	}
	if !ft.IsValid() {
		return Field{}, fmt.Errorf("invalid field type %q for %q", ft, name)
	}
	return Field{name: name, fieldType: ft}, nil
}

// NewVector creates a vector field of the given dimension.
func NewVector(name string, dims int) (Field, error) {
	if dims <= 0 {
		return Field{}, fmt.Errorf("vector field %q must have a positive dimension", name)
	}
	f, err := New(name, String)
	if err != nil {
		return Field{}, err
	}
	return Field{name: f.name, fieldType: Vector, dims: dims}, nil
}

// Parse creates a Field from a textual type tag such as "string", "enum[]" or "vector[384]".
func Parse(name, tag string) (Field, error) {
	tag = strings.TrimSpace(tag)
	if m := vectorRegex.FindStringSubmatch(tag); m != nil {
		dims, err := strconv.Atoi(m[1])
		if err != nil {
			return Field{}, fmt.Errorf("vector dimension for %q: %w", name, err)
		}
		return NewVector(name, dims)
	}
	return New(name, Type(tag))
}

// Reconstruct creates a Field without validation (storage hydration).
func Reconstruct(name string, ft Type, dims int) Field {
	return Field{name: name, fieldType: ft, dims: dims}
}

// Name returns the property path.
func (f Field) Name() string { return f.name }

// FieldType returns the property type tag.
func (f Field) FieldType() Type { return f.fieldType }

// Dims returns the vector dimension (0 for non-vector fields).
func (f Field) Dims() int { return f.dims }

// Tag renders the type as written in schemas.
func (f Field) Tag() string {
	if f.fieldType == Vector {
		return fmt.Sprintf("vector[%d]", f.dims)
	}
	return string(f.fieldType)
}
