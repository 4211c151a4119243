package request

import (
	"fmt"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/relevance"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// Search parameter limits.
const (
	// MaxTermLength is the maximum allowed search term length.
	MaxTermLength    = 4096
	DefaultLimit     = 10
	DefaultThreshold = 1.0
	// AllProperties selects every searchable property.
	AllProperties = "*"
)

// Order is a sort direction.
type Order string

// Sort directions.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// IsValid reports whether o is a known direction.
func (o Order) IsValid() bool { return o == Asc || o == Desc }

// Comparator orders two fetched hits: negative when a sorts before b.
type Comparator func(a, b result.Hit) int

// SortBy orders candidates by a sortable property or by a comparator.
type SortBy struct {
	Property   string
	Order      Order
	Comparator Comparator
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
	Sort   Order         `json:"sort,omitempty"`
	Ranges []NumberRange `json:"ranges,omitempty"`
}

// GroupBy configures grouping. MaxResult 0 keeps every hit.
type GroupBy struct {
	Properties []string `json:"properties"`
	MaxResult  int      `json:"maxResult,omitempty"`
}

// Spec carries raw caller parameters. Pointer fields distinguish
// unset from zero.
type Spec struct {
	Term           string
	Properties     []string
	Where          *filter.Expression
	Exact          bool
	PreserveSpaces bool
	Tolerance      int
	Boost          map[string]float64
	Relevance      *relevance.Params
	Threshold      *float64
	Limit          *int
	Offset         *int
	DistinctOn     string
	SortBy         *SortBy
	Facets         map[string]FacetSpec
	GroupBy        *GroupBy
	IncludeVectors bool
	Preflight      bool
}

// Request is a validated, immutable search query.
type Request struct {
	term           string
	properties     []string
	where          *filter.Expression
	exact          bool
	preserveSpaces bool
	tolerance      int
	boost          map[string]float64
	relevance      *relevance.Params
	threshold      float64
	limit          int
	offset         int
	distinctOn     string
	sortBy         *SortBy
	facets         map[string]FacetSpec
	groupBy        *GroupBy
	includeVectors bool
	preflight      bool
}

// New validates s and applies defaults: limit=10, offset=0, threshold=1.
// An empty where-clause is treated as no where-clause.
func New(s Spec) (Request, error) {
	if len(s.Term) > MaxTermLength {
		return Request{}, invalid("term too long (max %d chars)", MaxTermLength)
	}
	if s.Tolerance < 0 {
		return Request{}, invalid("tolerance must be non-negative")
	}

	limit := DefaultLimit
	if s.Limit != nil {
		if *s.Limit < 0 {
			return Request{}, invalid("limit must be non-negative")
		}
		limit = *s.Limit
	}
	offset := 0
	if s.Offset != nil {
		if *s.Offset < 0 {
			return Request{}, invalid("offset must be non-negative")
		}
		offset = *s.Offset
	}
	threshold := DefaultThreshold
	if s.Threshold != nil {
		if *s.Threshold < 0 || *s.Threshold > 1 {
			return Request{}, invalid("threshold must be between 0 and 1")
		}
		threshold = *s.Threshold
	}

	for p, b := range s.Boost {
		if b <= 0 {
			return Request{}, invalid("boost for %q must be positive", p)
		}
	}
	if err := validateSort(s.SortBy); err != nil {
		return Request{}, err
	}
	for name, f := range s.Facets {
		if f.Limit < 0 || f.Offset < 0 {
			return Request{}, invalid("facet %q: limit and offset must be non-negative", name)
		}
		if f.Sort != "" && !f.Sort.IsValid() {
			return Request{}, invalid("facet %q: invalid sort %q", name, f.Sort)
		}
	}
	if s.GroupBy != nil {
		if len(s.GroupBy.Properties) == 0 {
			return Request{}, invalid("groupBy requires at least one property")
		}
		if s.GroupBy.MaxResult < 0 {
			return Request{}, invalid("groupBy maxResult must be non-negative")
		}
	}

	properties := s.Properties
	if len(properties) == 1 && properties[0] == AllProperties {
		properties = nil
	}
	where := s.Where
	if where != nil && where.IsEmpty() {
		where = nil
	}

	return Request{
		term:           s.Term,
		properties:     append([]string(nil), properties...),
		where:          where,
		exact:          s.Exact,
		preserveSpaces: s.PreserveSpaces,
		tolerance:      s.Tolerance,
		boost:          s.Boost,
		relevance:      s.Relevance,
		threshold:      threshold,
		limit:          limit,
		offset:         offset,
		distinctOn:     s.DistinctOn,
		sortBy:         s.SortBy,
		facets:         s.Facets,
		groupBy:        s.GroupBy,
		includeVectors: s.IncludeVectors,
		preflight:      s.Preflight,
	}, nil
}

func validateSort(s *SortBy) error {
	if s == nil {
		return nil
	}
	if s.Comparator != nil {
		if s.Property != "" {
			return invalid("sortBy takes either a property or a comparator")
		}
		return nil
	}
	if s.Property == "" {
		return invalid("sortBy property is required")
	}
	if s.Order != "" && !s.Order.IsValid() {
		return invalid("invalid sort order %q", s.Order)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidParams, fmt.Sprintf(format, args...))
}

// Term returns the raw search term, whitespace included.
func (r *Request) Term() string { return r.term }

// Properties returns the explicit property list, nil meaning all.
func (r *Request) Properties() []string { return r.properties }

// HasExplicitProperties reports whether the caller restricted properties.
func (r *Request) HasExplicitProperties() bool { return len(r.properties) > 0 }

// Where returns the where-clause, nil when absent.
func (r *Request) Where() *filter.Expression { return r.where }

// Exact reports whether exact-match post-filtering is requested.
func (r *Request) Exact() bool { return r.exact }

// PreserveSpaces reports whether surrounding whitespace of the term is significant.
func (r *Request) PreserveSpaces() bool { return r.preserveSpaces }

func (r *Request) Tolerance() int { return r.tolerance }

func (r *Request) Boost() map[string]float64 { return r.boost }

// Relevance returns the caller's partial BM25+ parameters (nil when unset).
func (r *Request) Relevance() *relevance.Params { return r.relevance }

func (r *Request) Threshold() float64 { return r.threshold }

func (r *Request) Limit() int { return r.limit }

func (r *Request) Offset() int { return r.offset }

func (r *Request) DistinctOn() string { return r.distinctOn }

func (r *Request) SortBy() *SortBy { return r.sortBy }

func (r *Request) Facets() map[string]FacetSpec { return r.facets }

// HasFacets reports whether at least one facet is requested.
func (r *Request) HasFacets() bool { return len(r.facets) > 0 }

func (r *Request) GroupBy() *GroupBy { return r.groupBy }

func (r *Request) IncludeVectors() bool { return r.includeVectors }

// Preflight reports whether only the count is wanted.
func (r *Request) Preflight() bool { return r.preflight }
