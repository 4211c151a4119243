// Package dataset streams documents from JSON-lines and parquet files.
package dataset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultBatchSize is the number of documents handed to a BatchFunc at once.
const DefaultBatchSize = 500

// maxLineSize bounds a single JSON-lines record.
const maxLineSize = 16 << 20

// BatchFunc receives consecutive documents. Returning an error stops the load.
type BatchFunc func(ctx context.Context, docs []map[string]any) error

// Load reads the file at path and passes its documents to fn in batches.
// Files ending in .parquet are read as parquet, everything else as JSON lines.
// It returns the number of documents passed to fn.
func Load(ctx context.Context, path string, batchSize int, fn BatchFunc) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return loadParquet(ctx, path, batchSize, fn)
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadJSONLines(ctx, f, batchSize, fn)
}

// ReadJSONLines decodes one JSON object per line. Blank lines are skipped.
// Numbers are kept as json.Number.
func ReadJSONLines(ctx context.Context, r io.Reader, batchSize int, fn BatchFunc) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	b := newBatcher(batchSize, fn)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var doc map[string]any
		if err := dec.Decode(&doc); err != nil {
			return b.total, fmt.Errorf("line %d: %w", line, err)
		}
		if doc == nil {
			return b.total, fmt.Errorf("line %d: expected an object", line)
		}
		if err := b.add(ctx, doc); err != nil {
			return b.total, err
		}
	}
	if err := sc.Err(); err != nil {
		return b.total, fmt.Errorf("read dataset: %w", err)
	}
	return b.total, b.flush(ctx)
}

type batcher struct {
	size  int
	fn    BatchFunc
	buf   []map[string]any
	total int
}

func newBatcher(size int, fn BatchFunc) *batcher {
	return &batcher{size: size, fn: fn, buf: make([]map[string]any, 0, size)}
}

func (b *batcher) add(ctx context.Context, doc map[string]any) error {
	b.buf = append(b.buf, doc)
	if len(b.buf) < b.size {
		return nil
	}
	return b.flush(ctx)
}

func (b *batcher) flush(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("load canceled: %w", err)
	}
	if err := b.fn(ctx, b.buf); err != nil {
		return err
	}
	b.total += len(b.buf)
	b.buf = make([]map[string]any, 0, b.size)
	return nil
}
