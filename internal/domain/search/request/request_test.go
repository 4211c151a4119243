package request

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

func intPtr(i int) *int { return &i }
func floatPtr(f float64) *float64 { return &f }
func byScore(a, b result.Hit) int { return 0 }

func TestNew_Defaults(t *testing.T) {
	r, err := New(Spec{Term: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Term() != "hello" {
		t.Errorf("Term() = %q", r.Term())
	}
	if r.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), DefaultLimit)
	}
	if r.Offset() != 0 {
		t.Errorf("Offset() = %d", r.Offset())
	}
	if r.Threshold() != 1 {
		t.Errorf("Threshold() = %v, want 1", r.Threshold())
	}
	if r.HasExplicitProperties() || r.Where() != nil || r.HasFacets() || r.Preflight() || r.IncludeVectors() {
		t.Error("unexpected non-default flags")
	}
}

func TestNew_ExplicitZeroes(t *testing.T) {
	r, err := New(Spec{Limit: intPtr(0), Offset: intPtr(0), Threshold: floatPtr(0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != 0 || r.Threshold() != 0 {
		t.Errorf("Limit() = %d, Threshold() = %v", r.Limit(), r.Threshold())
	}
}

func TestNew_StarMeansAll(t *testing.T) {
	r, err := New(Spec{Properties: []string{"*"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.HasExplicitProperties() {
		t.Errorf("Properties() = %v, want all", r.Properties())
	}

	props := []string{"title"}
	r, _ = New(Spec{Properties: props})
	props[0] = "mutated"
	if r.Properties()[0] != "title" {
		t.Error("request shares caller slice")
	}
}

func TestNew_EmptyWhereIsNoWhere(t *testing.T) {
	e, _ := filter.NewExpression(nil, nil, nil)
	r, err := New(Spec{Where: &e})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Where() != nil {
		t.Error("empty where-clause should be dropped")
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"negative limit", Spec{Limit: intPtr(-1)}},
		{"negative offset", Spec{Offset: intPtr(-1)}},
		{"negative tolerance", Spec{Tolerance: -1}},
		{"threshold above 1", Spec{Threshold: floatPtr(1.5)}},
		{"threshold below 0", Spec{Threshold: floatPtr(-0.1)}},
		{"zero boost", Spec{Boost: map[string]float64{"title": 0}}},
		{"sort without property", Spec{SortBy: &SortBy{Order: Asc}}},
		{"sort bad order", Spec{SortBy: &SortBy{Property: "year", Order: "up"}}},
		{"sort both", Spec{SortBy: &SortBy{Property: "year", Comparator: byScore}}},
		{"facet bad sort", Spec{Facets: map[string]FacetSpec{"genre": {Sort: "x"}}}},
		{"facet negative limit", Spec{Facets: map[string]FacetSpec{"genre": {Limit: -1}}}},
		{"group without properties", Spec{GroupBy: &GroupBy{}}},
		{"term too long", Spec{Term: string(make([]byte, MaxTermLength+1))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.spec)
			if !errors.Is(err, domain.ErrInvalidParams) {
				t.Errorf("err = %v, want ErrInvalidParams", err)
			}
		})
	}
}

func TestNew_Comparator(t *testing.T) {
	r, err := New(Spec{SortBy: &SortBy{Comparator: byScore}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.SortBy() == nil || r.SortBy().Comparator == nil {
		t.Error("comparator lost")
	}
}
