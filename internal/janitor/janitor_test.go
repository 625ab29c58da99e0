package janitor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/connorshinn/unsplash-Backgrounds/internal/pool"
	"github.com/connorshinn/unsplash-Backgrounds/internal/store"
)

type fakeMeta struct {
	m map[string][]byte
}

func (f *fakeMeta) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := f.m[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return data, nil
}

func (f *fakeMeta) Put(_ context.Context, key string, data []byte) error {
	f.m[key] = data
	return nil
}

func (f *fakeMeta) Delete(_ context.Context, key string) error {
	delete(f.m, key)
	return nil
}

func (f *fakeMeta) Scan(_ context.Context, _ uint64, _ int64) ([]string, uint64, error) {
	var keys []string
	for k := range f.m {
		keys = append(keys, k)
	}
	return keys, 0, nil
}

type fakeObjects struct {
	m map[string][]byte
}

func (f *fakeObjects) Get(_ context.Context, key string) (*store.Object, error) {
	data, ok := f.m[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &store.Object{Data: data, Size: int64(len(data))}, nil
}

func (f *fakeObjects) Put(_ context.Context, key string, data []byte, _ string) error {
	f.m[key] = data
	return nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	delete(f.m, key)
	return nil
}

// seedRecord writes a record with n populated slots and matching blobs.
func seedRecord(t *testing.T, meta *fakeMeta, objects *fakeObjects, key string, lastAccessed int64, n int) {
	t.Helper()
	rec := &pool.PoolRecord{
		CacheKey:     key,
		TotalImages:  n,
		LastAccessed: lastAccessed,
		Slots:        make([]pool.ImageRef, pool.Capacity),
	}
	for i := 0; i < n; i++ {
		objectKey := fmt.Sprintf("%s_%d", key, i)
		rec.Slots[i] = pool.ImageRef{ObjectKey: objectKey, PhotoID: fmt.Sprintf("p%d", i)}
		objects.m[objectKey] = []byte("blob")
	}
	data, err := rec.Encode()
	if err != nil {
		t.Fatalf("encode record: %v", err)
	}
	meta.m[key] = data
}

func TestSweepEvictsExpiredPool(t *testing.T) {
	meta := &fakeMeta{m: map[string][]byte{}}
	objects := &fakeObjects{m: map[string][]byte{}}
	s := New(meta, objects, DefaultRetention, zerolog.Nop())

	now := time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	stale := now.Add(-15 * 24 * time.Hour).UnixMilli()
	fresh := now.Add(-2 * 24 * time.Hour).UnixMilli()
	seedRecord(t, meta, objects, "topics=nature", stale, 10)
	seedRecord(t, meta, objects, "default", fresh, 10)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, ok := meta.m["topics=nature"]; ok {
		t.Errorf("expired record should be deleted")
	}
	for i := 0; i < 10; i++ {
		if _, ok := objects.m[fmt.Sprintf("topics=nature_%d", i)]; ok {
			t.Errorf("blob %d of expired pool should be deleted", i)
		}
	}

	if _, ok := meta.m["default"]; !ok {
		t.Errorf("fresh record should survive")
	}
	if _, ok := objects.m["default_0"]; !ok {
		t.Errorf("fresh pool blobs should survive")
	}
}

func TestSweepStampsLegacyRecord(t *testing.T) {
	meta := &fakeMeta{m: map[string][]byte{}}
	objects := &fakeObjects{m: map[string][]byte{}}
	s := New(meta, objects, DefaultRetention, zerolog.Nop())

	now := time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	// Legacy record: no last_accessed at all.
	seedRecord(t, meta, objects, "query=sunset", 0, 3)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, ok := meta.m["query=sunset"]
	if !ok {
		t.Fatal("legacy record should not be deleted")
	}
	rec, err := pool.DecodeRecord(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.LastAccessed != now.UnixMilli() {
		t.Errorf("LastAccessed = %d, want stamped %d", rec.LastAccessed, now.UnixMilli())
	}
	if _, ok := objects.m["query=sunset_0"]; !ok {
		t.Errorf("legacy pool blobs should survive")
	}
}

func TestSweepSkipsBrokenRecord(t *testing.T) {
	meta := &fakeMeta{m: map[string][]byte{"bad": []byte("{nope")}}
	objects := &fakeObjects{m: map[string][]byte{}}
	s := New(meta, objects, DefaultRetention, zerolog.Nop())

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("a broken record must not abort the sweep: %v", err)
	}
	if _, ok := meta.m["bad"]; !ok {
		t.Errorf("broken record left for inspection, not deleted")
	}
}

func TestSweepBoundary(t *testing.T) {
	meta := &fakeMeta{m: map[string][]byte{}}
	objects := &fakeObjects{m: map[string][]byte{}}
	s := New(meta, objects, DefaultRetention, zerolog.Nop())

	now := time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	// Exactly at the window: kept. Idle is measured strictly greater-than.
	seedRecord(t, meta, objects, "default", now.Add(-DefaultRetention).UnixMilli(), 1)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := meta.m["default"]; !ok {
		t.Errorf("record exactly at the retention boundary should survive")
	}
}
