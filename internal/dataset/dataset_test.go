package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(batches *[][]map[string]any) BatchFunc {
	return func(_ context.Context, docs []map[string]any) error {
		*batches = append(*batches, docs)
		return nil
	}
}

func TestReadJSONLines(t *testing.T) {
	input := `{"id":"1","title":"The Matrix","year":1999}

{"id":"2","title":"Toy Story","year":1995}
{"id":"3","title":"Up"}
`
	var batches [][]map[string]any
	n, err := ReadJSONLines(context.Background(), strings.NewReader(input), 2, collect(&batches))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 1)
	assert.Equal(t, json.Number("1999"), batches[0][0]["year"])
	assert.Equal(t, "Up", batches[1][0]["title"])
}

func TestReadJSONLines_BadLine(t *testing.T) {
	input := "{\"id\":\"1\"}\n[1,2]\n"
	_, err := ReadJSONLines(context.Background(), strings.NewReader(input), 10, func(context.Context, []map[string]any) error {
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadJSONLines_StopsOnCallbackError(t *testing.T) {
	input := "{\"id\":\"1\"}\n{\"id\":\"2\"}\n{\"id\":\"3\"}\n"
	boom := errors.New("boom")
	calls := 0
	n, err := ReadJSONLines(context.Background(), strings.NewReader(input), 1, func(context.Context, []map[string]any) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
}

func TestReadJSONLines_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadJSONLines(ctx, strings.NewReader("{\"id\":\"1\"}\n"), 10, func(context.Context, []map[string]any) error {
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoad_JSONLinesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"id\":\"1\"}\n{\"id\":\"2\"}\n"), 0o600))

	var batches [][]map[string]any
	n, err := Load(context.Background(), path, 0, collect(&batches))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, batches, 1)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.jsonl"), 0, nil)
	require.Error(t, err)
}

type movieRow struct {
	ID     string   `parquet:"id"`
	Title  string   `parquet:"title"`
	Year   int64    `parquet:"year"`
	Rating float64  `parquet:"rating"`
	Kids   bool     `parquet:"kids"`
	Tags   []string `parquet:"tags"`
}

func TestLoad_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.parquet")
	rows := []movieRow{
		{ID: "1", Title: "The Matrix", Year: 1999, Rating: 8.7, Tags: []string{"cyberpunk", "action"}},
		{ID: "2", Title: "Toy Story", Year: 1995, Rating: 8.3, Kids: true},
	}
	require.NoError(t, parquet.WriteFile(path, rows))

	var batches [][]map[string]any
	n, err := Load(context.Background(), path, 10, collect(&batches))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, batches, 1)

	first := batches[0][0]
	assert.Equal(t, "1", first["id"])
	assert.Equal(t, "The Matrix", first["title"])
	assert.InDelta(t, 1999.0, first["year"], 0)
	assert.InDelta(t, 8.7, first["rating"], 1e-9)
	assert.Equal(t, false, first["kids"])
	assert.Equal(t, []any{"cyberpunk", "action"}, first["tags"])

	second := batches[0][1]
	assert.Equal(t, true, second["kids"])
	assert.NotContains(t, second, "tags")
}

func TestSetPath(t *testing.T) {
	doc := map[string]any{}
	setPath(doc, []string{"location", "lat"}, 1.5)
	setPath(doc, []string{"location", "lon"}, 2.5)
	setPath(doc, []string{"name"}, "x")

	assert.Equal(t, map[string]any{
		"location": map[string]any{"lat": 1.5, "lon": 2.5},
		"name":     "x",
	}, doc)
}
