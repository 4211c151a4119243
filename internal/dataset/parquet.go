package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// listSegments are the wrapper groups of the parquet LIST logical type.
var listSegments = map[string]struct{}{"list": {}, "element": {}, "item": {}, "array": {}}

type parquetColumn struct {
	path     []string
	repeated bool
}

// loadParquet maps each leaf column onto a document property. Nested
// groups become nested objects and repeated columns become arrays.
func loadParquet(ctx context.Context, path string, batchSize int, fn BatchFunc) (int, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat dataset: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return 0, fmt.Errorf("open parquet: %w", err)
	}

	cols := resolveColumns(pf.Schema())
	b := newBatcher(batchSize, fn)
	buf := make([]parquet.Row, 1000)
	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				if err := b.add(ctx, rowToDocument(buf[i], cols)); err != nil {
					return b.total, err
				}
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return b.total, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return b.total, b.flush(ctx)
}

func resolveColumns(schema *parquet.Schema) []parquetColumn {
	paths := schema.Columns()
	out := make([]parquetColumn, len(paths))
	for i, p := range paths {
		col := parquetColumn{}
		if leaf, ok := schema.Lookup(p...); ok {
			col.repeated = leaf.MaxRepetitionLevel > 0
		}
		for _, seg := range p {
			if _, skip := listSegments[seg]; skip && col.repeated && len(col.path) > 0 {
				continue
			}
			col.path = append(col.path, seg)
		}
		out[i] = col
	}
	return out
}

func rowToDocument(row parquet.Row, cols []parquetColumn) map[string]any {
	doc := make(map[string]any)
	arrays := make(map[int][]any)
	for _, v := range row {
		c := v.Column()
		if c < 0 || c >= len(cols) || v.IsNull() {
			continue
		}
		val := valueOf(v)
		if cols[c].repeated {
			arrays[c] = append(arrays[c], val)
			continue
		}
		setPath(doc, cols[c].path, val)
	}
	for c, vals := range arrays {
		setPath(doc, cols[c].path, vals)
	}
	return doc
}

func valueOf(v parquet.Value) any {
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return float64(v.Int32())
	case parquet.Int64:
		return float64(v.Int64())
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	default:
		return v.String()
	}
}

func setPath(doc map[string]any, path []string, val any) {
	m := doc
	for _, seg := range path[:len(path)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[seg] = next
		}
		m = next
	}
	m[path[len(path)-1]] = val
}
