package index

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	"github.com/kailas-cloud/ftsearch/internal/domain/collection/field"
	"github.com/kailas-cloud/ftsearch/internal/domain/geo"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// SearchByWhereClause returns the live documents satisfying expr:
// every must condition, at least one should condition when any are given,
// and no must_not condition.
func (idx *Index) SearchByWhereClause(
	_ context.Context, expr filter.Expression, lang string,
) (*roaring.Bitmap, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := idx.live.Clone()
	for _, c := range expr.Must() {
		bm, err := idx.condition(c, lang)
		if err != nil {
			return nil, err
		}
		out.And(bm)
	}
	if len(expr.Should()) > 0 {
		either := roaring.New()
		for _, c := range expr.Should() {
			bm, err := idx.condition(c, lang)
			if err != nil {
				return nil, err
			}
			either.Or(bm)
		}
		out.And(either)
	}
	for _, c := range expr.MustNot() {
		bm, err := idx.condition(c, lang)
		if err != nil {
			return nil, err
		}
		out.AndNot(bm)
	}
	return out, nil
}

// SearchByGeoWhereClause scores a pure geo-radius expression by distance.
// ok is false when expr is not a single must geo-radius condition.
func (idx *Index) SearchByGeoWhereClause(
	_ context.Context, expr filter.Expression,
) ([]result.TokenScore, bool, error) {
	c, ok := expr.PureGeo()
	if !ok {
		return nil, false, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	points, ok := idx.points[c.Key()]
	if !ok {
		return nil, false, fmt.Errorf("%w: %q is not a geopoint property", domain.ErrUnknownFilterField, c.Key())
	}
	r := c.Radius()
	out := make([]result.TokenScore, 0)
	for id, p := range points {
		d := geo.Distance(r.Center(), p)
		switch {
		case r.Inside() && d <= r.Meters():
			out = append(out, result.TokenScore{ID: id, Score: 1 - d/r.Meters()})
		case !r.Inside() && d > r.Meters():
			out = append(out, result.TokenScore{ID: id, Score: 1 - r.Meters()/d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out, true, nil
}

func (idx *Index) condition(c filter.Condition, lang string) (*roaring.Bitmap, error) {
	f, ok := idx.schema.FieldByName(c.Key())
	if !ok || f.FieldType() == field.Vector {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFilterField, c.Key())
	}
	scalar := f.FieldType().Scalar()

	switch {
	case c.IsGeo():
		if scalar != field.GeoPoint {
			return nil, mismatch(c.Key(), "geo_radius", f.FieldType())
		}
		return idx.radius(c.Key(), *c.Radius()), nil
	case c.IsRange():
		if scalar != field.Number {
			return nil, mismatch(c.Key(), "range", f.FieldType())
		}
		r := *c.Range()
		return idx.numeric(c.Key(), r.Contains), nil
	case c.IsIn():
		return idx.membership(c.Key(), scalar, c.In())
	case c.IsMatch():
		if scalar == field.String {
			return idx.tokenMatch(c.Key(), c.Match(), lang)
		}
		return idx.membership(c.Key(), scalar, []string{c.Match()})
	}
	return nil, fmt.Errorf("%w: empty condition on %q", domain.ErrInvalidParams, c.Key())
}

// membership unions the value postings of every listed value.
func (idx *Index) membership(key string, scalar field.Type, values []string) (*roaring.Bitmap, error) {
	switch scalar {
	case field.Number:
		want := make(map[float64]struct{}, len(values))
		for _, v := range values {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q expects numbers, got %q", domain.ErrInvalidParams, key, v)
			}
			want[n] = struct{}{}
		}
		return idx.numeric(key, func(n float64) bool {
			_, ok := want[n]
			return ok
		}), nil
	case field.String, field.Enum, field.Boolean:
		out := roaring.New()
		for _, v := range values {
			if scalar == field.Boolean && v != "true" && v != "false" {
				return nil, fmt.Errorf("%w: %q expects true or false, got %q", domain.ErrInvalidParams, key, v)
			}
			if bm, ok := idx.values[key][v]; ok {
				out.Or(bm)
			}
		}
		return out, nil
	}
	return nil, mismatch(key, "match", scalar)
}

// tokenMatch selects documents whose property holds every token of value.
func (idx *Index) tokenMatch(key, value, lang string) (*roaring.Bitmap, error) {
	tokens, err := idx.tokenizer.Tokenize(value, lang, true)
	if err != nil {
		return nil, err
	}
	ti := idx.text[key]
	out := roaring.New()
	for i, tok := range tokens {
		bm := roaring.New()
		for id := range ti.postings[tok] {
			bm.Add(uint32(id))
		}
		if i == 0 {
			out = bm
			continue
		}
		out.And(bm)
	}
	return out, nil
}

// numeric selects documents with at least one value satisfying pred.
func (idx *Index) numeric(key string, pred func(float64) bool) *roaring.Bitmap {
	out := roaring.New()
	for id, nums := range idx.numbers[key] {
		for _, n := range nums {
			if pred(n) {
				out.Add(uint32(id))
				break
			}
		}
	}
	return out
}

func (idx *Index) radius(key string, r filter.Radius) *roaring.Bitmap {
	out := roaring.New()
	for id, p := range idx.points[key] {
		if (geo.Distance(r.Center(), p) <= r.Meters()) == r.Inside() {
			out.Add(uint32(id))
		}
	}
	return out
}

func mismatch(key, op string, t field.Type) error {
	return fmt.Errorf("%w: %s is not applicable to %q of type %s", domain.ErrInvalidParams, op, key, t)
}
