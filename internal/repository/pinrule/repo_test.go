package pinrule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/ftsearch/internal/db"
	dbMemory "github.com/kailas-cloud/ftsearch/internal/db/memory"
	"github.com/kailas-cloud/ftsearch/internal/domain"
)

// --- Save ---

func TestSave_NewRule(t *testing.T) {
	repo, ms := newTestRepo(t)
	repo.now = func() time.Time { return time.Unix(0, 100) }

	var gotKey string
	var gotValue []byte
	ms.setFn = func(_ context.Context, key string, value []byte) error {
		gotKey, gotValue = key, value
		return nil
	}

	if err := repo.Save(context.Background(), testRule("matrix")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "fts:pin:matrix" {
		t.Fatalf("expected key fts:pin:matrix, got %s", gotKey)
	}
	rec, err := decodeRecord(gotValue)
	if err != nil {
		t.Fatalf("stored value does not decode: %v", err)
	}
	if rec.CreatedAt != 100 || rec.Rule.ID != "matrix" || rec.Rule.Promote[0].DocID != "42" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestSave_KeepsCreatedAt(t *testing.T) {
	repo, ms := newTestRepo(t)
	repo.now = func() time.Time { return time.Unix(0, 999) }

	prev, err := encodeRecord(testRule("matrix"), 7)
	if err != nil {
		t.Fatal(err)
	}
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return prev, nil }

	var saved []byte
	ms.setFn = func(_ context.Context, _ string, value []byte) error {
		saved = value
		return nil
	}

	if err := repo.Save(context.Background(), testRule("matrix")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, err := decodeRecord(saved)
	if err != nil {
		t.Fatal(err)
	}
	if rec.CreatedAt != 7 {
		t.Fatalf("expected created_at 7 to be kept, got %d", rec.CreatedAt)
	}
}

func TestSave_GetError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("connection lost")}
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		t.Error("SET must not be called after a failed GET")
		return nil
	}

	if err := repo.Save(context.Background(), testRule("matrix")); err == nil {
		t.Fatal("expected error on GET failure")
	}
}

func TestSave_SetError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.setFn = func(_ context.Context, _ string, _ []byte) error { return errors.New("OOM") }

	if err := repo.Save(context.Background(), testRule("matrix")); err == nil {
		t.Fatal("expected error on SET failure")
	}
}

// --- List ---

func TestList_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)

	rules, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules == nil || len(rules) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", rules)
	}
}

func TestList_SortedByCreation(t *testing.T) {
	repo, ms := newTestRepo(t)

	late, _ := encodeRecord(testRule("late"), 20)
	early, _ := encodeRecord(testRule("early"), 10)
	ms.scanFn = func(_ context.Context, prefix string) ([]string, error) {
		if prefix != "fts:pin:" {
			t.Errorf("unexpected prefix: %s", prefix)
		}
		return []string{"fts:pin:late", "fts:pin:gone", "fts:pin:early"}, nil
	}
	ms.mgetFn = func(_ context.Context, keys []string) ([][]byte, error) {
		return [][]byte{late, nil, early}, nil
	}

	rules, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 2 || rules[0].ID != "early" || rules[1].ID != "late" {
		t.Fatalf("unexpected order: %+v", rules)
	}
}

func TestList_CorruptRecord(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) { return []string{"fts:pin:x"}, nil }
	ms.mgetFn = func(_ context.Context, _ []string) ([][]byte, error) { return [][]byte{[]byte("{")}, nil }

	if _, err := repo.List(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestList_ScanError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) { return nil, errors.New("timeout") }

	if _, err := repo.List(context.Background()); err == nil {
		t.Fatal("expected error on SCAN failure")
	}
}

// --- Delete ---

func TestDelete_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	var deleted string
	ms.delFn = func(_ context.Context, key string) error {
		deleted = key
		return nil
	}

	if err := repo.Delete(context.Background(), "matrix"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "fts:pin:matrix" {
		t.Fatalf("expected fts:pin:matrix deleted, got %q", deleted)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	err := repo.Delete(context.Background(), "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

// --- Memory backend ---

func TestRepo_MemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := New(dbMemory.NewStore(), "fts:")
	tick := int64(0)
	repo.now = func() time.Time {
		tick++
		return time.Unix(0, tick)
	}

	for _, id := range []string{"b", "a", "c"} {
		if err := repo.Save(ctx, testRule(id)); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	if err := repo.Save(ctx, testRule("b")); err != nil {
		t.Fatalf("re-Save b: %v", err)
	}
	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete a: %v", err)
	}

	rules, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rules) != 2 || rules[0].ID != "b" || rules[1].ID != "c" {
		t.Fatalf("unexpected rules: %+v", rules)
	}
}
