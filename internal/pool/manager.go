// Package pool implements the rotating pre-fetch cache: per-key pools of
// cached images, rotation on every serve, background partial refills, and
// full repopulation when the object store and the metadata record disagree.
//
// Records are written last-writer-wins. Two concurrent serves for the same
// key may both read the same rotation index and serve the same slot; that
// costs a duplicate image, never a corrupt record, and the store offers no
// conditional-write primitive to do better with.
package pool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/connorshinn/unsplash-Backgrounds/internal/cachekey"
	"github.com/connorshinn/unsplash-Backgrounds/internal/jobs"
	"github.com/connorshinn/unsplash-Backgrounds/internal/store"
	"github.com/connorshinn/unsplash-Backgrounds/internal/unsplash"
)

// ErrNoCandidates means the upstream returned zero photos for the filters.
var ErrNoCandidates = errors.New("pool: no images available")

// Upstream is the slice of the Unsplash client the pool needs.
type Upstream interface {
	Random(ctx context.Context, p cachekey.Params, count int) ([]unsplash.Photo, error)
	FetchImage(ctx context.Context, imageURL string) (data []byte, contentType string, err error)
	TrackDownload(ctx context.Context, downloadLocation string) error
}

// Enqueuer schedules background tasks that outlive the request.
type Enqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload any) error
}

// ServedImage is the outcome of a serve: cached bytes on a hit, a redirect
// target on a miss. Size is -1 when unknown (miss path).
type ServedImage struct {
	CacheHit     bool
	Body         []byte
	ContentType  string
	RedirectURL  string
	Photographer string
	PhotoID      string
	Size         int64
}

// Manager owns the pool lifecycle. It is the sole writer of pool records;
// the janitor is the sole deleter.
type Manager struct {
	meta     store.MetadataStore
	objects  store.ObjectStore
	upstream Upstream
	queue    Enqueuer
	logger   zerolog.Logger
	now      func() time.Time
}

func NewManager(meta store.MetadataStore, objects store.ObjectStore, upstream Upstream, queue Enqueuer, logger zerolog.Logger) *Manager {
	return &Manager{
		meta:     meta,
		objects:  objects,
		upstream: upstream,
		queue:    queue,
		logger:   logger,
		now:      time.Now,
	}
}

// Serve returns the next pooled image for key, or falls back to a cold
// populate when there is no usable pool. Only cold-path upstream errors
// surface to the caller; everything on the hit path degrades silently.
func (m *Manager) Serve(ctx context.Context, key string, p cachekey.Params) (*ServedImage, error) {
	data, err := m.meta.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.logger.Error().Err(err).Str("cache_key", key).Msg("metadata read failed, treating as miss")
		}
		return m.ColdPopulate(ctx, key, p)
	}

	rec, err := DecodeRecord(data)
	if err != nil {
		m.logger.Error().Err(err).Str("cache_key", key).Msg("corrupt pool record, repopulating")
		return m.ColdPopulate(ctx, key, p)
	}

	ref := rec.Slots[rec.NextIndex]
	if ref.Empty() {
		m.logger.Warn().Str("cache_key", key).Int("slot", rec.NextIndex).Msg("empty slot due, repopulating")
		return m.ColdPopulate(ctx, key, p)
	}

	obj, err := m.objects.Get(ctx, ref.ObjectKey)
	if err != nil {
		// Store/metadata skew. A full repopulation is the self-healing path;
		// the stale rotation state is discarded.
		m.logger.Warn().Err(err).Str("object_key", ref.ObjectKey).Msg("cached blob missing, repopulating")
		return m.ColdPopulate(ctx, key, p)
	}

	rec.NextIndex = (rec.NextIndex + 1) % Capacity
	rec.ServedCount++
	rec.LastAccessed = m.now().UnixMilli()
	if err := m.putRecord(ctx, rec); err != nil {
		m.logger.Error().Err(err).Str("cache_key", key).Msg("rotation update failed")
	}

	if rec.ServedCount%RefillBatch == 0 {
		if err := m.queue.Enqueue(ctx, jobs.TaskRefillPool, jobs.RefillPoolPayload{CacheKey: key}); err != nil {
			m.logger.Error().Err(err).Str("cache_key", key).Msg("refill enqueue failed")
		}
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = ref.ContentType
	}

	return &ServedImage{
		CacheHit:     true,
		Body:         obj.Data,
		ContentType:  contentType,
		Photographer: ref.Photographer,
		PhotoID:      ref.PhotoID,
		Size:         obj.Size,
	}, nil
}

// ColdPopulate handles a miss: one upstream round trip for Capacity+1
// candidates, the first of which becomes the caller's redirect target. The
// rest ride a populate task so the expensive fetch/store work happens after
// the response.
func (m *Manager) ColdPopulate(ctx context.Context, key string, p cachekey.Params) (*ServedImage, error) {
	photos, err := m.upstream.Random(ctx, p, Capacity+1)
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, ErrNoCandidates
	}

	first := photos[0]
	rest := photos[1:]
	if len(rest) > Capacity {
		rest = rest[:Capacity]
	}

	candidates := make([]jobs.Candidate, 0, len(rest))
	for _, ph := range rest {
		candidates = append(candidates, jobs.Candidate{
			PhotoID:          ph.ID,
			RawURL:           ph.URLs.Raw,
			Photographer:     ph.User.Name,
			DownloadLocation: ph.Links.DownloadLocation,
		})
	}
	if len(candidates) > 0 {
		err := m.queue.Enqueue(ctx, jobs.TaskPopulatePool, jobs.PopulatePoolPayload{CacheKey: key, Candidates: candidates})
		if err != nil {
			// The caller still gets an image; the pool just stays cold.
			m.logger.Error().Err(err).Str("cache_key", key).Msg("populate enqueue failed")
		}
	}

	return &ServedImage{
		CacheHit:     false,
		RedirectURL:  unsplash.TransformURL(first.URLs.Raw, p.Width, p.Height),
		Photographer: first.User.Name,
		PhotoID:      first.ID,
		Size:         -1,
	}, nil
}

// Populate runs in the worker: fetch, verify and store each candidate, then
// write a fresh record. Candidates that fail are dropped, not retried; the
// pool tolerates being short.
func (m *Manager) Populate(ctx context.Context, key string, candidates []jobs.Candidate) error {
	p := cachekey.Decode(key)

	slots := make([]ImageRef, Capacity)
	total := 0
	for i := 0; i < Capacity; i++ {
		if i < len(candidates) {
			if ref, ok := m.fetchSlot(ctx, key, i, candidates[i], p); ok {
				slots[i] = ref
				total++
				continue
			}
		}
		// Repopulation reuses slot keys. A blob from the previous generation
		// would sit unreferenced behind this empty slot, invisible to the
		// sweep, so clear it.
		if err := m.objects.Delete(ctx, fmt.Sprintf("%s_%d", key, i)); err != nil {
			m.logger.Warn().Err(err).Str("cache_key", key).Int("slot", i).Msg("stale blob delete failed")
		}
	}

	rec := &PoolRecord{
		CacheKey:     key,
		TotalImages:  total,
		NextIndex:    0,
		ServedCount:  0,
		LastAccessed: m.now().UnixMilli(),
		Slots:        slots,
	}
	if err := m.putRecord(ctx, rec); err != nil {
		return err
	}
	m.logger.Info().Str("cache_key", key).Int("cached", total).Msg("pool populated")
	return nil
}

// Refill replaces the RefillBatch slots about to be served next, wrapping
// past capacity, so rotation only ever lands on fresh slots. The two slots
// behind the rotation point are left alone. Overlapping refills for the same
// key can double upstream work; that race is accepted.
func (m *Manager) Refill(ctx context.Context, key string) error {
	data, err := m.meta.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("refill %s: %w", key, err)
	}
	rec, err := DecodeRecord(data)
	if err != nil {
		return fmt.Errorf("refill %s: %w", key, err)
	}

	p := cachekey.Decode(key)
	photos, err := m.upstream.Random(ctx, p, RefillBatch)
	if err != nil {
		return fmt.Errorf("refill %s: %w", key, err)
	}
	if len(photos) == 0 {
		return fmt.Errorf("refill %s: %w", key, ErrNoCandidates)
	}

	replaced := 0
	for i := 0; i < len(photos) && i < RefillBatch; i++ {
		idx := (rec.NextIndex + i) % Capacity

		if old := rec.Slots[idx]; !old.Empty() {
			if err := m.objects.Delete(ctx, old.ObjectKey); err != nil {
				m.logger.Warn().Err(err).Str("object_key", old.ObjectKey).Msg("stale blob delete failed")
			}
		}

		ph := photos[i]
		ref, ok := m.fetchSlot(ctx, key, idx, jobs.Candidate{
			PhotoID:          ph.ID,
			RawURL:           ph.URLs.Raw,
			Photographer:     ph.User.Name,
			DownloadLocation: ph.Links.DownloadLocation,
		}, p)
		if !ok {
			// Old ref stays; rotation will bring the slot due again next cycle.
			continue
		}
		rec.Slots[idx] = ref
		replaced++
	}

	total := 0
	for _, s := range rec.Slots {
		if !s.Empty() {
			total++
		}
	}
	rec.TotalImages = total
	rec.ServedCount = 0
	if err := m.putRecord(ctx, rec); err != nil {
		return err
	}
	m.logger.Info().Str("cache_key", key).Int("replaced", replaced).Msg("pool refilled")
	return nil
}

// fetchSlot downloads one transformed candidate into the object store and
// returns its ref. Attribution tracking is best-effort.
func (m *Manager) fetchSlot(ctx context.Context, key string, idx int, c jobs.Candidate, p cachekey.Params) (ImageRef, bool) {
	objectKey := fmt.Sprintf("%s_%d", key, idx)

	data, contentType, err := m.upstream.FetchImage(ctx, unsplash.TransformURL(c.RawURL, p.Width, p.Height))
	if err != nil {
		m.logger.Error().Err(err).Str("cache_key", key).Int("slot", idx).Msg("candidate fetch failed, dropping")
		return ImageRef{}, false
	}
	if err := m.objects.Put(ctx, objectKey, data, contentType); err != nil {
		m.logger.Error().Err(err).Str("object_key", objectKey).Msg("blob write failed, dropping candidate")
		return ImageRef{}, false
	}
	if err := m.upstream.TrackDownload(ctx, c.DownloadLocation); err != nil {
		m.logger.Warn().Err(err).Str("photo_id", c.PhotoID).Msg("download tracking failed")
	}

	return ImageRef{
		ObjectKey:    objectKey,
		Photographer: c.Photographer,
		PhotoID:      c.PhotoID,
		ContentType:  contentType,
	}, true
}

func (m *Manager) putRecord(ctx context.Context, rec *PoolRecord) error {
	data, err := rec.Encode()
	if err != nil {
		return err
	}
	return m.meta.Put(ctx, rec.CacheKey, data)
}
