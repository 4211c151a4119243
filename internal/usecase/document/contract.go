package document

import (
	"context"

	domdoc "github.com/kailas-cloud/ftsearch/internal/domain/document"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// Repository defines the storage contract for documents.
type Repository interface {
	Put(ctx context.Context, id result.InternalID, doc domdoc.Document) error
	Get(ctx context.Context, id result.InternalID) (*domdoc.Document, error)
	Delete(ctx context.Context, id result.InternalID) error
	GetAll(ctx context.Context) (map[result.InternalID]domdoc.Document, error)
}

// Index is the inverted index documents are added to.
type Index interface {
	Insert(ctx context.Context, id result.InternalID, doc domdoc.Document) error
	Remove(ctx context.Context, id result.InternalID) error
}

// Sorter keeps the sortable values of documents.
type Sorter interface {
	Insert(id result.ExternalID, doc domdoc.Document)
	Remove(id result.ExternalID)
}

// IDMapper assigns and releases internal ids.
type IDMapper interface {
	Assign(ext result.ExternalID) (result.InternalID, error)
	AssignAt(ext result.ExternalID, id result.InternalID) error
	Reserve(id result.InternalID)
	Internal(ext result.ExternalID) (result.InternalID, bool)
	Release(ext result.ExternalID) (result.InternalID, error)
}
