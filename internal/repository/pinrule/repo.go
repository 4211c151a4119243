package pinrule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/ftsearch/internal/db"
	"github.com/kailas-cloud/ftsearch/internal/domain"
	"github.com/kailas-cloud/ftsearch/internal/pinning"
)

// store is the consumer interface for pin rules (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, prefix string) ([]string, error)
}

// Repo persists pin rules so they survive restarts of durable backends.
type Repo struct {
	store  store
	prefix string
	now    func() time.Time
}

// New creates a pin rule repository. Keys are "<prefix>pin:<id>".
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix, now: time.Now}
}

// Save stores r. A rule that already exists keeps its original position
// in List.
func (r *Repo) Save(ctx context.Context, rule pinning.Rule) error {
	key := r.key(rule.ID)

	createdAt := r.now().UnixNano()
	raw, err := r.store.Get(ctx, key)
	switch {
	case err == nil:
		prev, decErr := decodeRecord(raw)
		if decErr != nil {
			return fmt.Errorf("decode %s: %w", key, decErr)
		}
		createdAt = prev.CreatedAt
	case errors.Is(err, db.ErrKeyNotFound):
	default:
		return fmt.Errorf("get %s: %w", key, err)
	}

	data, err := encodeRecord(rule, createdAt)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// List returns every stored rule ordered by creation time.
func (r *Repo) List(ctx context.Context) ([]pinning.Rule, error) {
	prefix := r.prefix + "pin:"
	keys, err := r.store.Scan(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return []pinning.Rule{}, nil
	}

	raws, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget pin rules: %w", err)
	}

	recs := make([]record, 0, len(raws))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("parse pin rule %s: %w", strings.TrimPrefix(keys[i], prefix), err)
		}
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].CreatedAt != recs[j].CreatedAt {
			return recs[i].CreatedAt < recs[j].CreatedAt
		}
		return recs[i].Rule.ID < recs[j].Rule.ID
	})

	out := make([]pinning.Rule, len(recs))
	for i, rec := range recs {
		out[i] = rec.Rule
	}
	return out, nil
}

// Delete removes the rule with the given id.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.key(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return fmt.Errorf("pin rule %q: %w", id, domain.ErrDocumentNotFound)
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func (r *Repo) key(id string) string {
	return r.prefix + "pin:" + id
}
