package document

import (
	"encoding/json"
	"fmt"

	domdoc "github.com/kailas-cloud/ftsearch/internal/domain/document"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
)

// record is the stored JSON envelope of one document.
type record struct {
	InternalID result.InternalID `json:"iid"`
	Document   domdoc.Document   `json:"doc"`
}

func encodeRecord(id result.InternalID, doc domdoc.Document) ([]byte, error) {
	data, err := json.Marshal(record{InternalID: id, Document: doc})
	if err != nil {
		return nil, fmt.Errorf("marshal document %d: %w", id, err)
	}
	return data, nil
}

func decodeRecord(raw []byte) (record, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return record{}, fmt.Errorf("unmarshal document: %w", err)
	}
	return rec, nil
}
