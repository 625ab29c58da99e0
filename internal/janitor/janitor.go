// Package janitor evicts pools nobody has requested within the retention
// window, deleting both the metadata record and every blob it references.
// It runs on a schedule, independent of the serving path, and is safe to
// run concurrently with live traffic.
package janitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/connorshinn/unsplash-Backgrounds/internal/pool"
	"github.com/connorshinn/unsplash-Backgrounds/internal/store"
)

// DefaultRetention is how long a pool may sit untouched before eviction.
const DefaultRetention = 14 * 24 * time.Hour

const scanBatch = 100

// Sweeper scans the metadata key space and evicts expired pools. Per-key
// failures are logged and skipped; a sweep never aborts half way because one
// record is broken.
type Sweeper struct {
	meta      store.MetadataStore
	objects   store.ObjectStore
	retention time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

func New(meta store.MetadataStore, objects store.ObjectStore, retention time.Duration, logger zerolog.Logger) *Sweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Sweeper{
		meta:      meta,
		objects:   objects,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Run performs one full sweep. The outcome is log-only; the returned error
// covers scan failures, not per-key ones.
func (s *Sweeper) Run(ctx context.Context) error {
	var checked, deleted, blobsDeleted int

	s.logger.Info().Dur("retention", s.retention).Msg("cache sweep started")

	var cursor uint64
	for {
		keys, next, err := s.meta.Scan(ctx, cursor, scanBatch)
		if err != nil {
			s.logger.Error().Err(err).Msg("metadata scan failed, aborting sweep")
			return err
		}

		for _, key := range keys {
			checked++
			removed, blobs := s.sweepKey(ctx, key)
			if removed {
				deleted++
				blobsDeleted += blobs
			}
		}

		if next == 0 {
			break
		}
		cursor = next
	}

	s.logger.Info().
		Int("checked", checked).
		Int("deleted", deleted).
		Int("blobs_deleted", blobsDeleted).
		Msg("cache sweep completed")
	return nil
}

// sweepKey processes one record: stamp legacy records, evict expired ones.
// Returns whether the record was deleted and how many blobs went with it.
func (s *Sweeper) sweepKey(ctx context.Context, key string) (bool, int) {
	data, err := s.meta.Get(ctx, key)
	if err != nil {
		s.logger.Error().Err(err).Str("cache_key", key).Msg("sweep: record read failed")
		return false, 0
	}
	rec, err := pool.DecodeRecord(data)
	if err != nil {
		s.logger.Error().Err(err).Str("cache_key", key).Msg("sweep: record decode failed")
		return false, 0
	}

	now := s.now()

	// Records from before timestamps were tracked get stamped and a full
	// retention window of grace rather than deleted.
	if rec.LastAccessed == 0 {
		rec.LastAccessed = now.UnixMilli()
		encoded, err := rec.Encode()
		if err == nil {
			err = s.meta.Put(ctx, key, encoded)
		}
		if err != nil {
			s.logger.Error().Err(err).Str("cache_key", key).Msg("sweep: legacy stamp failed")
		} else {
			s.logger.Info().Str("cache_key", key).Msg("sweep: stamped legacy record")
		}
		return false, 0
	}

	age := now.Sub(time.UnixMilli(rec.LastAccessed))
	if age <= s.retention {
		return false, 0
	}

	blobs := 0
	for _, slot := range rec.Slots {
		if slot.Empty() {
			continue
		}
		if err := s.objects.Delete(ctx, slot.ObjectKey); err != nil {
			s.logger.Error().Err(err).Str("object_key", slot.ObjectKey).Msg("sweep: blob delete failed")
			continue
		}
		blobs++
	}

	if err := s.meta.Delete(ctx, key); err != nil {
		s.logger.Error().Err(err).Str("cache_key", key).Msg("sweep: record delete failed")
		return false, blobs
	}

	s.logger.Info().
		Str("cache_key", key).
		Int("idle_days", int(age.Hours()/24)).
		Int("blobs_deleted", blobs).
		Msg("sweep: evicted pool")
	return true, blobs
}
