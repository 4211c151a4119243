package ids

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

func TestMapper_AssignAndLookup(t *testing.T) {
	m := NewMapper()
	a, err := m.Assign("a")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	b, _ := m.Assign("b")
	if a != 1 || b != 2 {
		t.Errorf("ids = %d, %d; want 1, 2", a, b)
	}
	if ext, ok := m.External(b); !ok || ext != "b" {
		t.Errorf("External(2) = %q, %v", ext, ok)
	}
	if id, ok := m.Internal("a"); !ok || id != 1 {
		t.Errorf("Internal(a) = %d, %v", id, ok)
	}
	if _, err := m.Assign("a"); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("duplicate Assign err = %v", err)
	}
}

func TestMapper_Release(t *testing.T) {
	m := NewMapper()
	_, _ = m.Assign("a")
	id, err := m.Release("a")
	if err != nil || id != 1 {
		t.Fatalf("Release = %d, %v", id, err)
	}
	if _, ok := m.External(1); ok {
		t.Error("released id still resolves")
	}
	if _, err := m.Release("a"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("second Release err = %v", err)
	}
	next, _ := m.Assign("c")
	if next != 2 {
		t.Errorf("ids must not be reused, got %d", next)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d", m.Len())
	}
}

func TestMapper_ToInternal(t *testing.T) {
	m := NewMapper()
	_, _ = m.Assign("a")
	_, _ = m.Assign("b")

	got := m.ToInternal([]result.ExternalScore{{ID: "b", Score: 2}, {ID: "zzz", Score: 9}, {ID: "a", Score: 1}})
	want := []result.TokenScore{{ID: 2, Score: 2}, {ID: 1, Score: 1}}
	if len(got) != len(want) {
		t.Fatalf("ToInternal() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMapper_AssignAt(t *testing.T) {
	m := NewMapper()
	if err := m.AssignAt("a", 5); err != nil {
		t.Fatalf("AssignAt: %v", err)
	}
	if ext, ok := m.External(5); !ok || ext != "a" {
		t.Errorf("External(5) = %q, %v", ext, ok)
	}
	if err := m.AssignAt("a", 6); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists for a taken key, got %v", err)
	}
	if err := m.AssignAt("b", 5); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists for a taken id, got %v", err)
	}
	if id, _ := m.Assign("c"); id != 6 {
		t.Errorf("Assign after AssignAt = %d, want 6", id)
	}
}

func TestMapper_Reserve(t *testing.T) {
	m := NewMapper()
	m.Reserve(9)
	m.Reserve(3)
	if got := m.Next(); got != 10 {
		t.Errorf("Next = %d, want 10", got)
	}
	if _, ok := m.External(9); ok {
		t.Error("reserved id must not map to a key")
	}
}
