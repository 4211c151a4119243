package document

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	domdoc "github.com/kailas-cloud/ftsearch/internal/domain/document"
	"github.com/kailas-cloud/ftsearch/internal/domain/document/patch"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
	"github.com/kailas-cloud/ftsearch/internal/logger"
)

// Service handles document ingestion: id assignment, storage, indexing
// and sortable values.
type Service struct {
	repo   Repository
	index  Index
	sorter Sorter
	ids    IDMapper

	// mu serializes mutations so a document is never half indexed.
	mu sync.Mutex
}

// New creates a document service.
func New(repo Repository, index Index, sorter Sorter, ids IDMapper) *Service {
	return &Service{repo: repo, index: index, sorter: sorter, ids: ids}
}

// Insert stores and indexes doc. A document without an "id" property gets
// a generated one, written back into the stored document.
func (s *Service) Insert(ctx context.Context, doc domdoc.Document) (result.ExternalID, error) {
	doc, ext, err := withID(doc)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return ext, s.insertLocked(ctx, ext, doc)
}

// InsertMultiple inserts docs in order and stops at the first failure,
// returning the ids inserted so far.
func (s *Service) InsertMultiple(ctx context.Context, docs []domdoc.Document) ([]result.ExternalID, error) {
	out := make([]result.ExternalID, 0, len(docs))
	for i, doc := range docs {
		ext, err := s.Insert(ctx, doc)
		if err != nil {
			return out, fmt.Errorf("document %d: %w", i, err)
		}
		out = append(out, ext)
	}
	return out, nil
}

func (s *Service) insertLocked(ctx context.Context, ext result.ExternalID, doc domdoc.Document) error {
	id, err := s.ids.Assign(ext)
	if err != nil {
		return err
	}
	if err := s.index.Insert(ctx, id, doc); err != nil {
		s.release(ctx, ext)
		return fmt.Errorf("index document %q: %w", ext, err)
	}
	if err := s.repo.Put(ctx, id, doc); err != nil {
		if rmErr := s.index.Remove(ctx, id); rmErr != nil {
			logger.FromContext(ctx).Error("Rollback of index insert failed",
				zap.String("id", string(ext)), zap.Error(rmErr))
		}
		s.release(ctx, ext)
		return fmt.Errorf("store document %q: %w", ext, err)
	}
	s.sorter.Insert(ext, doc)
	return nil
}

// Get returns the stored document with external id ext.
func (s *Service) Get(ctx context.Context, ext result.ExternalID) (domdoc.Document, error) {
	id, ok := s.ids.Internal(ext)
	if !ok {
		return domdoc.Document{}, fmt.Errorf("document %q: %w", ext, domain.ErrDocumentNotFound)
	}
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return domdoc.Document{}, fmt.Errorf("document %q: %w", ext, domain.ErrDocumentNotFound)
	}
	return *doc, nil
}

// Update applies p to the document with id ext by removing and re-inserting
// it. The document gets a new internal id.
func (s *Service) Update(ctx context.Context, ext result.ExternalID, p patch.Patch) (domdoc.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Get(ctx, ext)
	if err != nil {
		return domdoc.Document{}, err
	}
	updated := p.Apply(current)
	if err := s.removeLocked(ctx, ext); err != nil {
		return domdoc.Document{}, err
	}
	if err := s.insertLocked(ctx, ext, updated); err != nil {
		if restoreErr := s.insertLocked(ctx, ext, current); restoreErr != nil {
			logger.FromContext(ctx).Error("Restore after failed update failed",
				zap.String("id", string(ext)), zap.Error(restoreErr))
		}
		return domdoc.Document{}, fmt.Errorf("update document: %w", err)
	}
	return updated, nil
}

// Remove deletes the document with external id ext.
func (s *Service) Remove(ctx context.Context, ext result.ExternalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx, ext)
}

func (s *Service) removeLocked(ctx context.Context, ext result.ExternalID) error {
	id, err := s.ids.Release(ext)
	if err != nil {
		return err
	}
	s.sorter.Remove(ext)
	if err := s.index.Remove(ctx, id); err != nil && !errors.Is(err, domain.ErrDocumentNotFound) {
		return fmt.Errorf("unindex document %q: %w", ext, err)
	}
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrDocumentNotFound) {
		return fmt.Errorf("delete document %q: %w", ext, err)
	}
	return nil
}

// Restore indexes documents left in storage by an earlier process under
// their stored internal ids, in ascending id order. Storage is not
// rewritten: a document that has no id or no longer indexes stays stored,
// is skipped with a warning and its id is never handed out again.
func (s *Service) Restore(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.repo.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("read stored documents: %w", err)
	}
	if len(stored) == 0 {
		return 0, nil
	}

	ids := make([]result.InternalID, 0, len(stored))
	for id := range stored {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	log := logger.FromContext(ctx)
	n := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		s.ids.Reserve(id)
		if err := s.restoreLocked(ctx, id, stored[id]); err != nil {
			log.Warn("Stored document skipped", zap.Uint32("internal_id", uint32(id)), zap.Error(err))
			continue
		}
		n++
	}
	return n, nil
}

func (s *Service) restoreLocked(ctx context.Context, id result.InternalID, doc domdoc.Document) error {
	raw, ok := doc.ID()
	if !ok {
		return fmt.Errorf("%w: missing %q", domain.ErrInvalidSchema, domdoc.IDField)
	}
	ext := result.ExternalID(raw)
	if err := s.ids.AssignAt(ext, id); err != nil {
		return err
	}
	if err := s.index.Insert(ctx, id, doc); err != nil {
		s.release(ctx, ext)
		return fmt.Errorf("index document %q: %w", ext, err)
	}
	s.sorter.Insert(ext, doc)
	return nil
}

func (s *Service) release(ctx context.Context, ext result.ExternalID) {
	if _, err := s.ids.Release(ext); err != nil {
		logger.FromContext(ctx).Warn("Release of document id failed",
			zap.String("id", string(ext)), zap.Error(err))
	}
}

// withID returns doc with a valid external id, generating one when absent.
func withID(doc domdoc.Document) (domdoc.Document, result.ExternalID, error) {
	v, ok := doc.Fields()[domdoc.IDField]
	if !ok || v.IsNull() {
		ext := uuid.NewString()
		return doc.With(domdoc.IDField, domdoc.String(ext)), result.ExternalID(ext), nil
	}
	ext, ok := v.AsString()
	if !ok {
		return domdoc.Document{}, "", fmt.Errorf("%w: %q must be a string, got %s",
			domain.ErrInvalidSchema, domdoc.IDField, v.Kind())
	}
	if ext == "" || len(ext) > domdoc.MaxIDLength {
		return domdoc.Document{}, "", fmt.Errorf("%w: %q must be 1-%d characters",
			domain.ErrInvalidSchema, domdoc.IDField, domdoc.MaxIDLength)
	}
	return doc, result.ExternalID(ext), nil
}
