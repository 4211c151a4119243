package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockIndexCounter struct {
	n   int
	err error
}

func (m *mockIndexCounter) Count(_ context.Context) (int, error) { return m.n, m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockIndexCounter{n: 42})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["storage"] != CheckOK {
		t.Errorf("expected storage %q, got %q", CheckOK, r.Checks["storage"])
	}
	if r.Checks["index"] != CheckOK {
		t.Errorf("expected index %q, got %q", CheckOK, r.Checks["index"])
	}
	if r.Documents != 42 {
		t.Errorf("expected 42 documents, got %d", r.Documents)
	}
}

func TestCheck_StorageError(t *testing.T) {
	svc := New(&mockDBPinger{err: errors.New("conn refused")}, &mockIndexCounter{})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks["storage"] != CheckError {
		t.Errorf("expected storage %q, got %q", CheckError, r.Checks["storage"])
	}
	if r.Checks["index"] != CheckOK {
		t.Errorf("expected index %q, got %q", CheckOK, r.Checks["index"])
	}
}

func TestCheck_IndexError(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockIndexCounter{err: errors.New("closed")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["index"] != CheckError {
		t.Errorf("expected index %q, got %q", CheckError, r.Checks["index"])
	}
}

func TestCheck_BothFailing(t *testing.T) {
	svc := New(&mockDBPinger{err: errors.New("down")}, &mockIndexCounter{err: errors.New("closed")})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_NilIndex(t *testing.T) {
	svc := New(&mockDBPinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["index"]; ok {
		t.Error("index check should be absent when no index is configured")
	}
}
