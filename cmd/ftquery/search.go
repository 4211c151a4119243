package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kailas-cloud/ftsearch"
)

// sortValue parses "property[:asc|desc]".
type sortValue struct {
	by *ftsearch.SortBy
}

var _ pflag.Value = (*sortValue)(nil)

func (s *sortValue) String() string {
	if s.by == nil {
		return ""
	}
	return s.by.Property + ":" + s.by.Order
}

func (s *sortValue) Set(v string) error {
	prop, order, _ := strings.Cut(v, ":")
	if prop == "" {
		return fmt.Errorf("property is required")
	}
	switch order {
	case "", "asc", "desc":
	default:
		return fmt.Errorf("order must be asc or desc, got %q", order)
	}
	if order == "" {
		order = "asc"
	}
	s.by = &ftsearch.SortBy{Property: prop, Order: order}
	return nil
}

func (s *sortValue) Type() string { return "property[:order]" }

type searchOptions struct {
	paramsPath     string
	properties     []string
	where          string
	exact          bool
	tolerance      int
	threshold      float64
	limit          int
	offset         int
	distinctOn     string
	facets         []string
	groupBy        []string
	maxPerGroup    int
	preflight      bool
	includeVectors bool
	sort           sortValue
}

func addSearchFlags(fs *pflag.FlagSet, o *searchOptions) {
	fs.StringVar(&o.paramsPath, "params", "", "JSON file with search params; flags override it")
	fs.StringSliceVarP(&o.properties, "properties", "p", nil, "Properties to match the term against")
	fs.StringVarP(&o.where, "where", "w", "", `Where clause as JSON, e.g. '{"must":[{"key":"genre","match":"scifi"}]}'`)
	fs.BoolVar(&o.exact, "exact", false, "Keep only hits whose text contains the term verbatim")
	fs.IntVarP(&o.tolerance, "tolerance", "t", 0, "Typo tolerance (edit distance)")
	fs.Float64Var(&o.threshold, "threshold", 1, "Fraction of multi-word matches to keep (0-1)")
	fs.IntVarP(&o.limit, "limit", "l", 10, "Number of hits to return")
	fs.IntVarP(&o.offset, "offset", "o", 0, "Number of hits to skip")
	fs.StringVar(&o.distinctOn, "distinct", "", "Return at most one hit per value of this property")
	fs.StringSliceVar(&o.facets, "facet", nil, "Compute a facet over this property (repeatable)")
	fs.StringSliceVar(&o.groupBy, "group-by", nil, "Group hits by these properties")
	fs.IntVar(&o.maxPerGroup, "max-per-group", 0, "Maximum hits per group")
	fs.BoolVar(&o.preflight, "preflight", false, "Only count matches")
	fs.BoolVar(&o.includeVectors, "include-vectors", false, "Return vector properties")
	fs.Var(&o.sort, "sort", "Sort by property, e.g. year:desc")
}

func newSearchCmd(g *globalOptions) *cobra.Command {
	o := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Run one search and print the results as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := o.params(cmd.Flags(), args)
			if err != nil {
				return err
			}

			engine, err := openEngine(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer engine.Close()

			res, err := engine.Search(cmd.Context(), params)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	addSearchFlags(cmd.Flags(), o)
	return cmd
}

// params merges the --params file with the flags that were set explicitly.
func (o *searchOptions) params(fs *pflag.FlagSet, args []string) (ftsearch.SearchParams, error) {
	var p ftsearch.SearchParams
	if o.paramsPath != "" {
		data, err := os.ReadFile(filepath.Clean(o.paramsPath))
		if err != nil {
			return p, fmt.Errorf("read params: %w", err)
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return p, fmt.Errorf("parse params: %w", err)
		}
	}
	if len(args) > 0 {
		p.Term = args[0]
	}

	if fs.Changed("where") {
		var w ftsearch.Where
		if err := json.Unmarshal([]byte(o.where), &w); err != nil {
			return p, fmt.Errorf("parse --where: %w", err)
		}
		p.Where = &w
	}
	if fs.Changed("properties") {
		p.Properties = o.properties
	}
	if fs.Changed("exact") {
		p.Exact = o.exact
	}
	if fs.Changed("tolerance") {
		p.Tolerance = o.tolerance
	}
	if fs.Changed("threshold") {
		p.Threshold = &o.threshold
	}
	if fs.Changed("limit") || p.Limit == nil {
		p.Limit = &o.limit
	}
	if fs.Changed("offset") {
		p.Offset = &o.offset
	}
	if fs.Changed("distinct") {
		p.DistinctOn = o.distinctOn
	}
	if len(o.facets) > 0 {
		if p.Facets == nil {
			p.Facets = make(map[string]ftsearch.FacetSpec, len(o.facets))
		}
		for _, f := range o.facets {
			p.Facets[f] = ftsearch.FacetSpec{}
		}
	}
	if len(o.groupBy) > 0 {
		p.GroupBy = &ftsearch.GroupBy{Properties: o.groupBy, MaxResult: o.maxPerGroup}
	}
	if fs.Changed("preflight") {
		p.Preflight = o.preflight
	}
	if fs.Changed("include-vectors") {
		p.IncludeVectors = o.includeVectors
	}
	if o.sort.by != nil {
		p.SortBy = o.sort.by
	}
	return p, nil
}
