// Package ids translates between external document keys and dense
// internal identifiers.
package ids

import (
	"fmt"
	"sync"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// Mapper assigns internal ids starting at 1. Released ids are not reused.
type Mapper struct {
	mu       sync.RWMutex
	next     result.InternalID
	internal map[result.ExternalID]result.InternalID
	external map[result.InternalID]result.ExternalID
}

// NewMapper creates an empty Mapper.
func NewMapper() *Mapper {
	return &Mapper{
		next:     1,
		internal: make(map[result.ExternalID]result.InternalID),
		external: make(map[result.InternalID]result.ExternalID),
	}
}

// Assign registers ext and returns its new internal id.
func (m *Mapper) Assign(ext result.ExternalID) (result.InternalID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.internal[ext]; ok {
		return 0, fmt.Errorf("document %q: %w", ext, domain.ErrAlreadyExists)
	}
	id := m.next
	m.next++
	m.internal[ext] = id
	m.external[id] = ext
	return id, nil
}

// AssignAt registers ext under an id handed out by an earlier process.
// Later Assign calls continue past id.
func (m *Mapper) AssignAt(ext result.ExternalID, id result.InternalID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.internal[ext]; ok {
		return fmt.Errorf("document %q: %w", ext, domain.ErrAlreadyExists)
	}
	if other, ok := m.external[id]; ok {
		return fmt.Errorf("internal id %d held by %q: %w", id, other, domain.ErrAlreadyExists)
	}
	m.internal[ext] = id
	m.external[id] = ext
	m.reserveLocked(id)
	return nil
}

// Reserve keeps id from being handed out by Assign.
func (m *Mapper) Reserve(id result.InternalID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reserveLocked(id)
}

func (m *Mapper) reserveLocked(id result.InternalID) {
	if id >= m.next {
		m.next = id + 1
	}
}

// Next returns the id the next Assign will hand out.
func (m *Mapper) Next() result.InternalID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.next
}

// Internal looks up the internal id of ext.
func (m *Mapper) Internal(ext result.ExternalID) (result.InternalID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.internal[ext]
	return id, ok
}

// External looks up the external key of id.
func (m *Mapper) External(id result.InternalID) (result.ExternalID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ext, ok := m.external[id]
	return ext, ok
}

// ToInternal translates sorter output back into the internal id space.
// Unknown keys are dropped.
func (m *Mapper) ToInternal(in []result.ExternalScore) []result.TokenScore {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]result.TokenScore, 0, len(in))
	for _, e := range in {
		if id, ok := m.internal[e.ID]; ok {
			out = append(out, result.TokenScore{ID: id, Score: e.Score})
		}
	}
	return out
}

// Release forgets ext and returns the id it held.
func (m *Mapper) Release(ext result.ExternalID) (result.InternalID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.internal[ext]
	if !ok {
		return 0, fmt.Errorf("document %q: %w", ext, domain.ErrDocumentNotFound)
	}
	delete(m.internal, ext)
	delete(m.external, id)
	return id, nil
}

// Len returns the number of live mappings.
func (m *Mapper) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.internal)
}
