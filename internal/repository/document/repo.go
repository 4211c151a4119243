package document

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/ftsearch/internal/db"
	"github.com/kailas-cloud/ftsearch/internal/domain"
	domdoc "github.com/kailas-cloud/ftsearch/internal/domain/document"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// store is the consumer interface for documents (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, prefix string) ([]string, error)
}

// Repo is the document store of the search engine, keyed by InternalID.
type Repo struct {
	store  store
	prefix string
}

// New creates a document repository. Keys are "<prefix>doc:<internalID>".
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Put stores doc under id, replacing any previous value.
func (r *Repo) Put(ctx context.Context, id result.InternalID, doc domdoc.Document) error {
	data, err := encodeRecord(id, doc)
	if err != nil {
		return err
	}
	key := r.key(id)
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get returns the document stored under id, or nil when absent.
func (r *Repo) Get(ctx context.Context, id result.InternalID) (*domdoc.Document, error) {
	key := r.key(id)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &rec.Document, nil
}

// GetMultiple returns documents in ids order with nil for misses.
func (r *Repo) GetMultiple(ctx context.Context, ids []result.InternalID) ([]*domdoc.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	raws, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget %d keys: %w", len(keys), err)
	}

	out := make([]*domdoc.Document, len(ids))
	for i, raw := range raws {
		if raw == nil || i >= len(out) {
			continue
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out[i] = &rec.Document
	}
	return out, nil
}

// GetAll returns every stored document keyed by InternalID.
func (r *Repo) GetAll(ctx context.Context) (map[result.InternalID]domdoc.Document, error) {
	ids, err := r.IDs(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := r.GetMultiple(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[result.InternalID]domdoc.Document, len(ids))
	for i, d := range docs {
		if d != nil {
			out[ids[i]] = *d
		}
	}
	return out, nil
}

// IDs lists stored InternalIDs in ascending order.
func (r *Repo) IDs(ctx context.Context) ([]result.InternalID, error) {
	prefix := r.prefix + "doc:"
	keys, err := r.store.Scan(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", prefix, err)
	}
	ids := make([]result.InternalID, 0, len(keys))
	for _, k := range keys {
		n, err := strconv.ParseUint(strings.TrimPrefix(k, prefix), 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, result.InternalID(n))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Delete removes the document stored under id.
func (r *Repo) Delete(ctx context.Context, id result.InternalID) error {
	key := r.key(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrDocumentNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func (r *Repo) key(id result.InternalID) string {
	return r.prefix + "doc:" + strconv.FormatUint(uint64(id), 10)
}
