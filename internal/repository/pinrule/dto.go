package pinrule

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/ftsearch/internal/pinning"
)

// record is the stored JSON envelope of one rule.
type record struct {
	CreatedAt int64        `json:"created_at"`
	Rule      pinning.Rule `json:"rule"`
}

func encodeRecord(rule pinning.Rule, createdAt int64) ([]byte, error) {
	data, err := json.Marshal(record{CreatedAt: createdAt, Rule: rule})
	if err != nil {
		return nil, fmt.Errorf("marshal pin rule %q: %w", rule.ID, err)
	}
	return data, nil
}

func decodeRecord(raw []byte) (record, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return record{}, fmt.Errorf("unmarshal pin rule: %w", err)
	}
	return rec, nil
}
