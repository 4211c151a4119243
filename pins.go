package ftsearch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
	"github.com/kailas-cloud/ftsearch/internal/logger"
	"github.com/kailas-cloud/ftsearch/internal/pinning"
)

// Pin rule anchorings.
const (
	AnchoringIs         = string(pinning.Is)
	AnchoringStartsWith = string(pinning.StartsWith)
	AnchoringContains   = string(pinning.Contains)
)

// PinCondition matches the trimmed, lower-cased search term.
type PinCondition struct {
	Anchoring string `json:"anchoring" yaml:"anchoring"`
	Pattern   string `json:"pattern" yaml:"pattern"`
}

// Promotion places a document at a zero-based result position.
type Promotion struct {
	DocID    string `json:"doc_id" yaml:"doc_id"`
	Position int    `json:"position" yaml:"position"`
}

// PinRule promotes documents when every condition matches the term.
type PinRule struct {
	ID         string         `json:"id" yaml:"id"`
	Conditions []PinCondition `json:"conditions" yaml:"conditions"`
	Promote    []Promotion    `json:"promote" yaml:"promote"`
}

func (r PinRule) toInternal() pinning.Rule {
	out := pinning.Rule{
		ID:         r.ID,
		Conditions: make([]pinning.Condition, len(r.Conditions)),
		Promote:    make([]pinning.Promotion, len(r.Promote)),
	}
	for i, c := range r.Conditions {
		out.Conditions[i] = pinning.Condition{Anchoring: pinning.Anchoring(c.Anchoring), Pattern: c.Pattern}
	}
	for i, p := range r.Promote {
		out.Promote[i] = pinning.Promotion{DocID: result.ExternalID(p.DocID), Position: p.Position}
	}
	return out
}

func fromPinRule(r pinning.Rule) PinRule {
	out := PinRule{
		ID:         r.ID,
		Conditions: make([]PinCondition, len(r.Conditions)),
		Promote:    make([]Promotion, len(r.Promote)),
	}
	for i, c := range r.Conditions {
		out.Conditions[i] = PinCondition{Anchoring: string(c.Anchoring), Pattern: c.Pattern}
	}
	for i, p := range r.Promote {
		out.Promote[i] = Promotion{DocID: string(p.DocID), Position: p.Position}
	}
	return out
}

// AddPinRule registers a new rule and persists it. A rule with the same id
// fails with ErrAlreadyExists.
func (e *Engine) AddPinRule(ctx context.Context, r PinRule) error {
	rule := r.toInternal()
	if err := e.pins.Add(rule); err != nil {
		return err
	}
	if err := e.pinRepo.Save(ctx, rule); err != nil {
		e.undoPinRule(ctx, rule.ID, pinning.Rule{}, false)
		return fmt.Errorf("save pin rule: %w", err)
	}
	return nil
}

// PutPinRule registers r, replacing any rule with the same id.
func (e *Engine) PutPinRule(ctx context.Context, r PinRule) error {
	rule := r.toInternal()
	prev, existed := e.pins.Rule(rule.ID)
	if err := e.pins.Put(rule); err != nil {
		return err
	}
	if err := e.pinRepo.Save(ctx, rule); err != nil {
		e.undoPinRule(ctx, rule.ID, prev, existed)
		return fmt.Errorf("save pin rule: %w", err)
	}
	return nil
}

// undoPinRule puts back prev, or drops id when no rule existed before.
func (e *Engine) undoPinRule(ctx context.Context, id string, prev pinning.Rule, existed bool) {
	var err error
	if existed {
		err = e.pins.Put(prev)
	} else {
		err = e.pins.Remove(id)
	}
	if err != nil {
		logger.FromContextOr(ctx, e.logger).Error("Rollback of pin rule failed",
			zap.String("rule_id", id), zap.Bool("replaced", existed), zap.Error(err))
	}
}

// RemovePinRule deletes a rule. An unknown id fails with ErrDocumentNotFound.
func (e *Engine) RemovePinRule(ctx context.Context, id string) error {
	if err := e.pins.Remove(id); err != nil {
		return err
	}
	if err := e.pinRepo.Delete(ctx, id); err != nil && !errors.Is(err, ErrDocumentNotFound) {
		return fmt.Errorf("delete pin rule: %w", err)
	}
	return nil
}

// PinRules returns every rule in insertion order.
func (e *Engine) PinRules() []PinRule {
	rules := e.pins.Rules()
	out := make([]PinRule, len(rules))
	for i, r := range rules {
		out[i] = fromPinRule(r)
	}
	return out
}

// loadPinRules restores rules persisted by an earlier process.
func (e *Engine) loadPinRules(ctx context.Context) error {
	rules, err := e.pinRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("load pin rules: %w", err)
	}
	for _, r := range rules {
		if err := e.pins.Put(r); err != nil {
			return fmt.Errorf("restore pin rule %q: %w", r.ID, err)
		}
	}
	return nil
}
