package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/relive/internal/ir"
)

// marshal converts v to canonical JSON TEXT for storage.
func marshal(what string, v any) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", what, err)
	}
	return string(data), nil
}

// unmarshal parses stored JSON TEXT into v.
func unmarshal(what, data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return nil
}

// storableStatistics returns a copy of stats without nil slices, which
// canonical JSON rejects.
func storableStatistics(stats *ir.Statistics) *ir.Statistics {
	out := stats.Clone()
	if out.Unique != nil && out.Unique.Talents == nil {
		out.Unique.Talents = []int{}
	}
	return out
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
