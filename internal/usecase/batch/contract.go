package batch

import (
	"context"

	domdoc "github.com/kailas-cloud/ftsearch/internal/domain/document"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// DocumentInserter stores and indexes one document.
type DocumentInserter interface {
	Insert(ctx context.Context, doc domdoc.Document) (result.ExternalID, error)
}

// DocumentRemover deletes one document.
type DocumentRemover interface {
	Remove(ctx context.Context, ext result.ExternalID) error
}
