package pool

import (
	"encoding/json"
	"fmt"
)

const (
	// Capacity is the fixed number of slots in a pool.
	Capacity = 10
	// RefillBatch is how many slots a partial refill replaces, and how many
	// serves trigger one.
	RefillBatch = 8
)

// ImageRef points at one cached image. Refs are replaced wholesale on
// refill, never patched.
type ImageRef struct {
	ObjectKey    string `json:"object_key"`
	Photographer string `json:"photographer"`
	PhotoID      string `json:"photo_id"`
	ContentType  string `json:"content_type"`
}

// Empty reports whether the slot holds no image.
func (r ImageRef) Empty() bool { return r.ObjectKey == "" }

// PoolRecord is the per-cache-key metadata record. LastAccessed is unix
// milliseconds; zero marks a legacy record written before timestamps were
// tracked.
type PoolRecord struct {
	CacheKey     string     `json:"cache_key"`
	TotalImages  int        `json:"total_images"`
	NextIndex    int        `json:"next_index"`
	ServedCount  int        `json:"served_count"`
	LastAccessed int64      `json:"last_accessed,omitempty"`
	Slots        []ImageRef `json:"images"`
}

// DecodeRecord parses a stored record and upgrades older shapes to the
// current one: the slot slice is padded to Capacity (short records predate
// fixed-size pools) and the rotation index is normalized into range. A zero
// LastAccessed is preserved so the sweep can apply its grace period.
func DecodeRecord(data []byte) (*PoolRecord, error) {
	var rec PoolRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode pool record: %w", err)
	}

	if len(rec.Slots) < Capacity {
		padded := make([]ImageRef, Capacity)
		copy(padded, rec.Slots)
		rec.Slots = padded
	} else if len(rec.Slots) > Capacity {
		rec.Slots = rec.Slots[:Capacity]
	}
	if rec.NextIndex < 0 || rec.NextIndex >= Capacity {
		rec.NextIndex = 0
	}
	return &rec, nil
}

// Encode serializes the record for the metadata store.
func (r *PoolRecord) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode pool record: %w", err)
	}
	return data, nil
}
