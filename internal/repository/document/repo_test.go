package document

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/ftsearch/internal/db"
	"github.com/kailas-cloud/ftsearch/internal/domain"
	domdoc "github.com/kailas-cloud/ftsearch/internal/domain/document"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// --- Put ---

func TestPut_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()
	doc := testDocument(t)

	var gotKey string
	var gotValue []byte
	ms.setFn = func(_ context.Context, key string, value []byte) error {
		gotKey, gotValue = key, value
		return nil
	}

	if err := repo.Put(ctx, 7, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "fts:doc:7" {
		t.Fatalf("expected key fts:doc:7, got %s", gotKey)
	}
	rec, err := decodeRecord(gotValue)
	if err != nil {
		t.Fatalf("stored value does not decode: %v", err)
	}
	if rec.InternalID != 7 || !rec.Document.Equal(doc) {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestPut_SetError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		return &db.Error{Op: db.OpSet, Err: errors.New("OOM")}
	}

	err := repo.Put(context.Background(), 1, testDocument(t))
	if err == nil {
		t.Fatal("expected error on SET failure")
	}
}

// --- Get ---

func TestGet_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.getFn = func(_ context.Context, key string) ([]byte, error) {
		if key != "fts:doc:3" {
			t.Errorf("unexpected key: %s", key)
		}
		return []byte(`{"iid":3,"doc":{"id":"doc-1","title":"hello world","meta":{"lang":"go"}}}`), nil
	}

	doc, err := repo.Get(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc == nil {
		t.Fatal("expected document, got nil")
	}
	if id, _ := doc.ID(); id != "doc-1" {
		t.Fatalf("expected id doc-1, got %s", id)
	}
	lang, ok := doc.Get("meta.lang")
	if s, _ := lang.AsString(); !ok || s != "go" {
		t.Fatalf("expected meta.lang=go, got %v", lang)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, db.ErrKeyNotFound
	}

	doc, err := repo.Get(context.Background(), 99)
	if err != nil {
		t.Fatalf("expected no error on miss, got %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil document, got %v", doc)
	}
}

func TestGet_BackendError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}

	if _, err := repo.Get(context.Background(), 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestGet_Corrupt(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte("{not json"), nil
	}

	if _, err := repo.Get(context.Background(), 1); err == nil {
		t.Fatal("expected decode error")
	}
}

// --- GetMultiple ---

func TestGetMultiple_PreservesOrderAndMisses(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.mgetFn = func(_ context.Context, keys []string) ([][]byte, error) {
		want := []string{"fts:doc:2", "fts:doc:5", "fts:doc:1"}
		for i, k := range want {
			if keys[i] != k {
				t.Errorf("key %d: expected %s, got %s", i, k, keys[i])
			}
		}
		return [][]byte{
			[]byte(`{"iid":2,"doc":{"id":"b"}}`),
			nil,
			[]byte(`{"iid":1,"doc":{"id":"a"}}`),
		}, nil
	}

	docs, err := repo.GetMultiple(context.Background(), []result.InternalID{2, 5, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(docs))
	}
	if docs[1] != nil {
		t.Fatalf("expected nil for missing doc, got %v", docs[1])
	}
	if id, _ := docs[0].ID(); id != "b" {
		t.Fatalf("expected b first, got %s", id)
	}
	if id, _ := docs[2].ID(); id != "a" {
		t.Fatalf("expected a last, got %s", id)
	}
}

func TestGetMultiple_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.mgetFn = func(_ context.Context, _ []string) ([][]byte, error) {
		t.Fatal("MGET must not be called for no ids")
		return nil, nil
	}

	docs, err := repo.GetMultiple(context.Background(), nil)
	if err != nil || docs != nil {
		t.Fatalf("expected nil, nil; got %v, %v", docs, err)
	}
}

// --- GetAll / IDs ---

func TestGetAll_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.scanFn = func(_ context.Context, prefix string) ([]string, error) {
		if prefix != "fts:doc:" {
			t.Errorf("unexpected prefix: %s", prefix)
		}
		return []string{"fts:doc:10", "fts:doc:2", "fts:doc:garbage"}, nil
	}
	ms.mgetFn = func(_ context.Context, keys []string) ([][]byte, error) {
		if len(keys) != 2 || keys[0] != "fts:doc:2" || keys[1] != "fts:doc:10" {
			t.Errorf("unexpected keys: %v", keys)
		}
		return [][]byte{
			[]byte(`{"iid":2,"doc":{"id":"two"}}`),
			[]byte(`{"iid":10,"doc":{"id":"ten"}}`),
		}, nil
	}

	all, err := repo.GetAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(all))
	}
	if id, _ := all[10].ID(); id != "ten" {
		t.Fatalf("expected ten under 10, got %s", id)
	}
}

func TestGetAll_ScanError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return nil, errors.New("timeout")
	}

	if _, err := repo.GetAll(context.Background()); err == nil {
		t.Fatal("expected error")
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

	if err := repo.Delete(context.Background(), 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "fts:doc:4" {
		t.Fatalf("expected fts:doc:4 deleted, got %s", deleted)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return false, nil }

	err := repo.Delete(context.Background(), 4)
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestDelete_ExistsError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) {
		return false, errors.New("broken pipe")
	}

	if err := repo.Delete(context.Background(), 4); err == nil {
		t.Fatal("expected error")
	}
}

func TestRecord_RoundTripKeepsNested(t *testing.T) {
	doc := domdoc.New(map[string]domdoc.Value{
		"id":  domdoc.String("x"),
		"geo": domdoc.Object(map[string]domdoc.Value{"lat": domdoc.Number(1), "lon": domdoc.Number(2)}),
	})
	raw, err := encodeRecord(9, doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.InternalID != 9 || !rec.Document.Equal(doc) {
		t.Fatalf("round trip mismatch: %+v", rec)
	}
}
