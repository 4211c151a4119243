package filter

import (
	"fmt"

	"github.com/kailas-cloud/ftsearch/internal/domain/geo"
)

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 32

// MaxInValues is the maximum number of values in an "in" condition.
const MaxInValues = 256

// Expression is a structured where-clause with must/should/must_not boolean semantics.
type Expression struct {
	must    []Condition
	should  []Condition
	mustNot []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must, should, mustNot []Condition) (Expression, error) {
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(should) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many should conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(mustNot) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must_not conditions (max %d)", MaxConditionsPerGroup)
	}
	return Expression{must: must, should: should, mustNot: mustNot}, nil
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// Should returns the should conditions.
func (e Expression) Should() []Condition { return e.should }

// MustNot returns the must-not conditions.
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.should) == 0 && len(e.mustNot) == 0
}

// PureGeo returns the radius condition when the expression is exactly one
// must geo-radius condition and nothing else.
func (e Expression) PureGeo() (Condition, bool) {
	if len(e.must) != 1 || len(e.should) != 0 || len(e.mustNot) != 0 {
		return Condition{}, false
	}
	if !e.must[0].IsGeo() {
		return Condition{}, false
	}
	return e.must[0], true
}

// Conditions returns every condition across all groups.
func (e Expression) Conditions() []Condition {
	out := make([]Condition, 0, len(e.must)+len(e.should)+len(e.mustNot))
	out = append(out, e.must...)
	out = append(out, e.should...)
	return append(out, e.mustNot...)
}

// Condition is a single filter clause: a match, an "in" list, a numeric range or a geo radius.
type Condition struct {
	key       string
	match     string
	in        []string
	rangeExpr *Range
	radius    *Radius
}

// NewMatch creates a match condition (token containment for strings, equality for enums/booleans).
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// NewIn creates a membership condition.
func NewIn(key string, values []string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("in values are required for key %q", key)
	}
	if len(values) > MaxInValues {
		return Condition{}, fmt.Errorf("too many in values for key %q (max %d)", key, MaxInValues)
	}
	return Condition{key: key, in: append([]string(nil), values...)}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// NewGeoRadius creates a geo radius condition.
func NewGeoRadius(key string, r Radius) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, radius: &r}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the match value.
func (c Condition) Match() string { return c.match }

// In returns the membership values.
func (c Condition) In() []string { return c.in }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// Radius returns the geo radius expression.
func (c Condition) Radius() *Radius { return c.radius }

// IsMatch reports whether this is a match condition.
func (c Condition) IsMatch() bool { return c.match != "" }

// IsIn reports whether this is a membership condition.
func (c Condition) IsIn() bool { return len(c.in) > 0 }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

// IsGeo reports whether this is a geo radius condition.
func (c Condition) IsGeo() bool { return c.radius != nil }

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

// Contains reports whether v satisfies every boundary.
func (r Range) Contains(v float64) bool {
	if r.gt != nil && !(v > *r.gt) {
		return false
	}
	if r.gte != nil && !(v >= *r.gte) {
		return false
	}
	if r.lt != nil && !(v < *r.lt) {
		return false
	}
	if r.lte != nil && !(v <= *r.lte) {
		return false
	}
	return true
}

// Radius selects points within (or outside) a distance of a center.
type Radius struct {
	center geo.Point
	meters float64
	inside bool
}

// NewRadius validates and creates a Radius. value is expressed in unit.
func NewRadius(center geo.Point, value float64, unit geo.Unit, inside bool) (Radius, error) {
	if !geo.ValidateCoordinates(center.Lat, center.Lon) {
		return Radius{}, fmt.Errorf("invalid coordinates (%v, %v)", center.Lat, center.Lon)
	}
	if value <= 0 {
		return Radius{}, fmt.Errorf("radius must be positive")
	}
	meters, err := geo.ToMeters(value, unit)
	if err != nil {
		return Radius{}, err
	}
	return Radius{center: center, meters: meters, inside: inside}, nil
}

// Center returns the radius center.
func (r Radius) Center() geo.Point { return r.center }

// Meters returns the radius in meters.
func (r Radius) Meters() float64 { return r.meters }

// Inside reports whether the radius selects points inside (true) or outside (false).
func (r Radius) Inside() bool { return r.inside }
