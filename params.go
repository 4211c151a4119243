package ftsearch

import (
	"fmt"

	"github.com/kailas-cloud/ftsearch/internal/domain/geo"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/relevance"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/request"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// SearchParams describes one query. Pointer fields distinguish unset
// from zero.
type SearchParams struct {
	Term string `json:"term,omitempty"`
	// Properties restricts term matching. Empty or ["*"] means every
	// string property.
	Properties     []string             `json:"properties,omitempty"`
	Where          *Where               `json:"where,omitempty"`
	Exact          bool                 `json:"exact,omitempty"`
	PreserveSpaces bool                 `json:"preserveSpaces,omitempty"`
	Tolerance      int                  `json:"tolerance,omitempty"`
	Boost          map[string]float64   `json:"boost,omitempty"`
	Relevance      *Relevance           `json:"relevance,omitempty"`
	Threshold      *float64             `json:"threshold,omitempty"`
	Limit          *int                 `json:"limit,omitempty"`
	Offset         *int                 `json:"offset,omitempty"`
	DistinctOn     string               `json:"distinctOn,omitempty"`
	SortBy         *SortBy              `json:"sortBy,omitempty"`
	Facets         map[string]FacetSpec `json:"facets,omitempty"`
	GroupBy        *GroupBy             `json:"groupBy,omitempty"`
	IncludeVectors bool                 `json:"includeVectors,omitempty"`
	Preflight      bool                 `json:"preflight,omitempty"`
	// Language overrides the engine default for this query.
	Language string `json:"language,omitempty"`
}

// Relevance holds BM25+ parameters. Unset fields take the defaults
// k=1.2, b=0.75, d=0.5.
type Relevance struct {
	K *float64 `json:"k,omitempty"`
	B *float64 `json:"b,omitempty"`
	D *float64 `json:"d,omitempty"`
}

// SortBy orders results by a sortable property or by a comparator.
type SortBy struct {
	Property string `json:"property,omitempty"`
	Order    string `json:"order,omitempty"` // asc (default) or desc
	// Comparator returns a negative number when a sorts before b.
	Comparator func(a, b Hit) int `json:"-"`
}

// NumberRange is an inclusive facet bucket.
type NumberRange struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// FacetSpec configures one facet.
type FacetSpec struct {
	Limit  int           `json:"limit,omitempty"`
	Offset int           `json:"offset,omitempty"`
	Sort   string        `json:"sort,omitempty"`
	Ranges []NumberRange `json:"ranges,omitempty"`
}

// GroupBy buckets results by property values.
type GroupBy struct {
	Properties []string `json:"properties"`
	MaxResult  int      `json:"maxResult,omitempty"`
}

// Where is a boolean where-clause.
type Where struct {
	Must    []Condition `json:"must,omitempty"`
	Should  []Condition `json:"should,omitempty"`
	MustNot []Condition `json:"must_not,omitempty"`
}

// Condition is one where-clause predicate. Exactly one of Match, In,
// Range and GeoRadius is set.
type Condition struct {
	Key       string     `json:"key"`
	Match     string     `json:"match,omitempty"`
	In        []string   `json:"in,omitempty"`
	Range     *Range     `json:"range,omitempty"`
	GeoRadius *GeoRadius `json:"geo_radius,omitempty"`
}

// Range bounds a number property.
type Range struct {
	GT  *float64 `json:"gt,omitempty"`
	GTE *float64 `json:"gte,omitempty"`
	LT  *float64 `json:"lt,omitempty"`
	LTE *float64 `json:"lte,omitempty"`
}

// GeoRadius selects geopoints within or outside a distance of a center.
type GeoRadius struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"` // cm, m (default), km, ft, yd, mi
	// Inside defaults to true.
	Inside *bool `json:"inside,omitempty"`
}

func (p SearchParams) toRequest() (request.Request, error) {
	spec := request.Spec{
		Term:           p.Term,
		Properties:     p.Properties,
		Exact:          p.Exact,
		PreserveSpaces: p.PreserveSpaces,
		Tolerance:      p.Tolerance,
		Boost:          p.Boost,
		Threshold:      p.Threshold,
		Limit:          p.Limit,
		Offset:         p.Offset,
		DistinctOn:     p.DistinctOn,
		IncludeVectors: p.IncludeVectors,
		Preflight:      p.Preflight,
	}
	if p.Where != nil {
		expr, err := p.Where.toExpression()
		if err != nil {
			return request.Request{}, fmt.Errorf("%w: where: %w", ErrInvalidParams, err)
		}
		spec.Where = &expr
	}
	if p.Relevance != nil {
		spec.Relevance = &relevance.Params{K: p.Relevance.K, B: p.Relevance.B, D: p.Relevance.D}
	}
	if p.SortBy != nil {
		spec.SortBy = p.SortBy.toInternal()
	}
	if len(p.Facets) > 0 {
		spec.Facets = make(map[string]request.FacetSpec, len(p.Facets))
		for name, f := range p.Facets {
			ranges := make([]request.NumberRange, len(f.Ranges))
			for i, r := range f.Ranges {
				ranges[i] = request.NumberRange{From: r.From, To: r.To}
			}
			spec.Facets[name] = request.FacetSpec{
				Limit: f.Limit, Offset: f.Offset, Sort: request.Order(f.Sort), Ranges: ranges,
			}
		}
	}
	if p.GroupBy != nil {
		spec.GroupBy = &request.GroupBy{Properties: p.GroupBy.Properties, MaxResult: p.GroupBy.MaxResult}
	}
	return request.New(spec)
}

func (s *SortBy) toInternal() *request.SortBy {
	out := &request.SortBy{Property: s.Property, Order: request.Order(s.Order)}
	if s.Comparator != nil {
		cmp := s.Comparator
		out.Comparator = func(a, b result.Hit) int { return cmp(toHit(a), toHit(b)) }
	}
	return out
}

func (w *Where) toExpression() (filter.Expression, error) {
	must, err := toConditions(w.Must)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("must: %w", err)
	}
	should, err := toConditions(w.Should)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("should: %w", err)
	}
	mustNot, err := toConditions(w.MustNot)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("must_not: %w", err)
	}
	return filter.NewExpression(must, should, mustNot)
}

func toConditions(conds []Condition) ([]filter.Condition, error) {
	if len(conds) == 0 {
		return nil, nil
	}
	out := make([]filter.Condition, len(conds))
	for i, c := range conds {
		cond, err := c.toInternal()
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", c.Key, err)
		}
		out[i] = cond
	}
	return out, nil
}

func (c Condition) toInternal() (filter.Condition, error) {
	set := 0
	for _, ok := range []bool{c.Match != "", len(c.In) > 0, c.Range != nil, c.GeoRadius != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return filter.Condition{}, fmt.Errorf("exactly one of match, in, range, geo_radius is required")
	}

	switch {
	case c.Range != nil:
		r, err := filter.NewRangeFilter(c.Range.GT, c.Range.GTE, c.Range.LT, c.Range.LTE)
		if err != nil {
			return filter.Condition{}, err
		}
		return filter.NewRange(c.Key, r)
	case c.GeoRadius != nil:
		g := c.GeoRadius
		inside := g.Inside == nil || *g.Inside
		r, err := filter.NewRadius(geo.Point{Lat: g.Lat, Lon: g.Lon}, g.Value, geo.Unit(g.Unit), inside)
		if err != nil {
			return filter.Condition{}, err
		}
		return filter.NewGeoRadius(c.Key, r)
	case len(c.In) > 0:
		return filter.NewIn(c.Key, c.In)
	default:
		return filter.NewMatch(c.Key, c.Match)
	}
}
