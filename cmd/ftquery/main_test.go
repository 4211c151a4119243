package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/kailas-cloud/ftsearch"
)

const testSchema = `fields:
  - name: title
    type: string
  - name: genre
    type: enum
  - name: year
    type: number
`

const testData = `{"id":"1","title":"The Matrix","genre":"scifi","year":1999}
{"id":"2","title":"The Matrix Reloaded","genre":"scifi","year":2003}
{"id":"3","title":"Toy Story","genre":"animation","year":1995}
{"id":"4","title":"Finding Nemo","genre":"animation","year":2003}
`

const testPins = `rules:
  - id: nemo
    conditions:
      - anchoring: contains
        pattern: toy
    promote:
      - doc_id: "4"
        position: 0
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func fixtureArgs(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	return []string{
		"--schema", writeFile(t, dir, "schema.yaml", testSchema),
		"--data", writeFile(t, dir, "movies.jsonl", testData),
	}
}

func decodeResults(t *testing.T, out string) ftsearch.Results {
	t.Helper()
	var res ftsearch.Results
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	return res
}

func ids(res ftsearch.Results) string {
	out := make([]string, len(res.Hits))
	for i, h := range res.Hits {
		out[i] = h.ID
	}
	return strings.Join(out, ",")
}

func TestSearchCommand_Term(t *testing.T) {
	args := append([]string{"search", "matrix"}, fixtureArgs(t)...)
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("search: %v\n%s", err, out)
	}
	res := decodeResults(t, out)
	if res.Count != 2 || ids(res) != "1,2" {
		t.Errorf("unexpected results: count=%d ids=%s", res.Count, ids(res))
	}
}

func TestSearchCommand_WhereAndSort(t *testing.T) {
	args := append([]string{
		"search",
		"--where", `{"must":[{"key":"genre","match":"animation"}]}`,
		"--sort", "year:desc",
	}, fixtureArgs(t)...)
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("search: %v\n%s", err, out)
	}
	if got := ids(decodeResults(t, out)); got != "4,3" {
		t.Errorf("ids = %s, want 4,3", got)
	}
}

func TestSearchCommand_Pins(t *testing.T) {
	dir := t.TempDir()
	args := append([]string{"search", "toy", "--pins", writeFile(t, dir, "pins.yaml", testPins)}, fixtureArgs(t)...)
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("search: %v\n%s", err, out)
	}
	if got := ids(decodeResults(t, out)); got != "4,3" {
		t.Errorf("ids = %s, want 4,3", got)
	}
}

func TestSearchCommand_Errors(t *testing.T) {
	if _, err := runCLI(t, "search", "x"); err == nil {
		t.Error("expected error without --schema")
	}

	args := append([]string{"search", "--where", "{bad"}, fixtureArgs(t)...)
	if _, err := runCLI(t, args...); err == nil {
		t.Error("expected error for malformed --where")
	}

	args = append([]string{"search", "x", "--properties", "plot"}, fixtureArgs(t)...)
	if _, err := runCLI(t, args...); err == nil {
		t.Error("expected error for unknown property")
	}
}

func TestLanguagesCommand(t *testing.T) {
	out, err := runCLI(t, "languages")
	if err != nil {
		t.Fatalf("languages: %v", err)
	}
	if !strings.Contains(out, "english") {
		t.Errorf("english missing from %q", out)
	}
}

func TestSortValue(t *testing.T) {
	var s sortValue
	if err := s.Set("year"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if s.by.Property != "year" || s.by.Order != "asc" {
		t.Errorf("unexpected sort %+v", s.by)
	}
	if err := s.Set("year:sideways"); err == nil {
		t.Error("expected error for bad order")
	}
	if err := s.Set(":desc"); err == nil {
		t.Error("expected error for missing property")
	}
}

func TestSearchOptions_ParamsFileOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "params.json", `{"term":"nemo","limit":3,"offset":1,"exact":true}`)

	o := &searchOptions{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addSearchFlags(fs, o)
	if err := fs.Parse([]string{"--params", path, "--offset", "0"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	p, err := o.params(fs, nil)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if p.Term != "nemo" || !p.Exact {
		t.Errorf("file values lost: %+v", p)
	}
	if p.Limit == nil || *p.Limit != 3 {
		t.Errorf("limit from file should be kept, got %v", p.Limit)
	}
	if p.Offset == nil || *p.Offset != 0 {
		t.Errorf("offset flag should override file, got %v", p.Offset)
	}
}
