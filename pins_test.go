package ftsearch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/ftsearch/internal/db"
	dbMemory "github.com/kailas-cloud/ftsearch/internal/db/memory"
	"github.com/kailas-cloud/ftsearch/internal/logger"
	"github.com/kailas-cloud/ftsearch/internal/pinning"
	pinrulerepo "github.com/kailas-cloud/ftsearch/internal/repository/pinrule"
)

var errWriteFailed = errors.New("write failed")

// readOnlyStore rejects every write.
type readOnlyStore struct {
	db.Store
}

func (readOnlyStore) Set(context.Context, string, []byte) error { return errWriteFailed }

func failPinWrites(e *Engine) {
	e.pinRepo = pinrulerepo.New(readOnlyStore{Store: dbMemory.NewStore()}, "test:")
}

func TestPutPinRule_SaveFailureKeepsPrevious(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	prev := PinRule{
		ID:         "toy",
		Conditions: []PinCondition{{Anchoring: AnchoringIs, Pattern: "toy"}},
		Promote:    []Promotion{{DocID: "4", Position: 0}},
	}
	if err := e.PutPinRule(ctx, prev); err != nil {
		t.Fatalf("PutPinRule: %v", err)
	}

	failPinWrites(e)
	next := prev
	next.Promote = []Promotion{{DocID: "1", Position: 0}}
	if err := e.PutPinRule(ctx, next); !errors.Is(err, errWriteFailed) {
		t.Fatalf("expected write failure, got %v", err)
	}
	rules := e.PinRules()
	if len(rules) != 1 || rules[0].Promote[0].DocID != "4" {
		t.Errorf("expected previous rule kept, got %+v", rules)
	}

	if err := e.PutPinRule(ctx, PinRule{ID: "new", Conditions: prev.Conditions, Promote: prev.Promote}); !errors.Is(err, errWriteFailed) {
		t.Fatalf("expected write failure, got %v", err)
	}
	if err := e.AddPinRule(ctx, PinRule{ID: "added", Conditions: prev.Conditions, Promote: prev.Promote}); !errors.Is(err, errWriteFailed) {
		t.Fatalf("expected write failure, got %v", err)
	}
	if got := len(e.PinRules()); got != 1 {
		t.Errorf("expected unsaved rules dropped, got %d rules", got)
	}
}

func TestUndoPinRule_LogsFailure(t *testing.T) {
	e := newTestEngine(t)
	core, logs := observer.New(zap.ErrorLevel)
	ctx := logger.ContextWithLogger(context.Background(), zap.New(core))

	e.undoPinRule(ctx, "missing", pinning.Rule{}, false)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one error log, got %d", len(entries))
	}
	if !strings.Contains(entries[0].Message, "Rollback of pin rule failed") {
		t.Errorf("unexpected message %q", entries[0].Message)
	}
	if got := entries[0].ContextMap()["rule_id"]; got != "missing" {
		t.Errorf("rule_id = %v, want missing", got)
	}
}
