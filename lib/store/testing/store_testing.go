package testing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/store"
)

// StoreFactory creates a fresh, writable store for a single test
type StoreFactory func() store.IStore

// RunStoreTests runs the conformance suite for a writable IStore implementation.
// Implementations that apply writes asynchronously to their reads (none of the
// writable ones do) can not be tested with this suite.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Hash", func(t *testing.T) {
			testHash(t, factory())
		})
		t.Run("HSetEIfUnset", func(t *testing.T) {
			testHSetEIfUnset(t, factory())
		})
		t.Run("Lease", func(t *testing.T) {
			testLease(t, factory())
		})
		t.Run("Geo", func(t *testing.T) {
			testGeo(t, factory())
		})
		t.Run("InvalidInput", func(t *testing.T) {
			testInvalidInput(t, factory())
		})
		t.Run("CanceledContext", func(t *testing.T) {
			testCanceledContext(t, factory())
		})
		t.Run("ConcurrentWrites", func(t *testing.T) {
			testConcurrentWrites(t, factory())
		})
	})
}

func codeOf(err error) store.RetCode {
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return storeErr.Code
	}
	return store.RetCSuccess
}

func testHash(t *testing.T, s store.IStore) {
	ctx := context.Background()

	if _, ok, err := s.HGet(ctx, "drivers:EU", "d1"); err != nil || ok {
		t.Fatalf("HGet on empty store = (%v, %v), want not found", ok, err)
	}
	if all, err := s.HGetAll(ctx, "drivers:EU"); err != nil || len(all) != 0 {
		t.Fatalf("HGetAll on empty store = (%v, %v), want empty", all, err)
	}

	if err := s.HSet(ctx, "drivers:EU", "d1", []byte("one")); err != nil {
		t.Fatalf("HSet failed: %v", err)
	}
	if err := s.HSet(ctx, "drivers:EU", "d2", []byte("two")); err != nil {
		t.Fatalf("HSet failed: %v", err)
	}
	if err := s.HSet(ctx, "drivers:US", "d1", []byte("other region")); err != nil {
		t.Fatalf("HSet failed: %v", err)
	}
	if err := s.HSet(ctx, "drivers:EU", "d1", []byte("updated")); err != nil {
		t.Fatalf("HSet failed: %v", err)
	}

	value, ok, err := s.HGet(ctx, "drivers:EU", "d1")
	if err != nil || !ok || string(value) != "updated" {
		t.Errorf("HGet = (%s, %v, %v), want (updated, true, nil)", value, ok, err)
	}

	all, err := s.HGetAll(ctx, "drivers:EU")
	if err != nil {
		t.Fatalf("HGetAll failed: %v", err)
	}
	if len(all) != 2 || string(all["d1"]) != "updated" || string(all["d2"]) != "two" {
		t.Errorf("HGetAll returned %v", all)
	}

	if err := s.HDel(ctx, "drivers:EU", "d1"); err != nil {
		t.Fatalf("HDel failed: %v", err)
	}
	if _, ok, _ := s.HGet(ctx, "drivers:EU", "d1"); ok {
		t.Error("field still present after HDel")
	}
	if _, ok, _ := s.HGet(ctx, "drivers:US", "d1"); !ok {
		t.Error("HDel removed the field of another collection")
	}
	if err := s.HDel(ctx, "drivers:EU", "missing"); err != nil {
		t.Errorf("HDel of a missing field must not fail: %v", err)
	}
}

func testHSetEIfUnset(t *testing.T, s store.IStore) {
	ctx := context.Background()

	if err := s.HSetEIfUnset(ctx, "locks:US", "d1", []byte("first"), 0); err != nil {
		t.Fatalf("HSetEIfUnset failed: %v", err)
	}
	if err := s.HSetEIfUnset(ctx, "locks:US", "d1", []byte("second"), 0); err != nil {
		t.Fatalf("HSetEIfUnset on existing field must not fail: %v", err)
	}
	if value, _, _ := s.HGet(ctx, "locks:US", "d1"); string(value) != "first" {
		t.Errorf("existing field was overwritten, got %s", value)
	}
}

func testLease(t *testing.T, s store.IStore) {
	ctx := context.Background()

	if err := s.HSetEIfUnset(ctx, "locks:ASIA", "lease", []byte("owner"), 2); err != nil {
		t.Fatalf("HSetEIfUnset failed: %v", err)
	}
	if _, ok, _ := s.HGet(ctx, "locks:ASIA", "lease"); !ok {
		t.Fatal("lease must be readable right after it was taken")
	}

	// two further writes move the logical clock past the lease
	for i := 0; i < 2; i++ {
		if err := s.HSet(ctx, "other", fmt.Sprintf("f%d", i), []byte("x")); err != nil {
			t.Fatalf("HSet failed: %v", err)
		}
	}
	if _, ok, _ := s.HGet(ctx, "locks:ASIA", "lease"); ok {
		t.Error("lease must expire after deleteIn further writes")
	}

	if err := s.HSetEIfUnset(ctx, "locks:ASIA", "lease", []byte("next"), 10); err != nil {
		t.Fatalf("HSetEIfUnset failed: %v", err)
	}
	if value, _, _ := s.HGet(ctx, "locks:ASIA", "lease"); string(value) != "next" {
		t.Errorf("expired lease could not be taken again, got %s", value)
	}
}

func testGeo(t *testing.T, s store.IStore) {
	ctx := context.Background()
	center := db.GeoPoint{Lon: 13.4050, Lat: 52.5200}

	points := map[string]db.GeoPoint{
		"near":    {Lon: 13.4060, Lat: 52.5205},
		"mid":     {Lon: 13.5000, Lat: 52.5200},
		"far":     {Lon: 2.3522, Lat: 48.8566},
		"another": {Lon: 13.4100, Lat: 52.5200},
	}
	for member, point := range points {
		if err := s.GeoAdd(ctx, "drivers:geo:EU", member, point); err != nil {
			t.Fatalf("GeoAdd(%s) failed: %v", member, err)
		}
	}

	result, err := s.GeoRadius(ctx, "drivers:geo:EU", center, 50)
	if err != nil {
		t.Fatalf("GeoRadius failed: %v", err)
	}
	want := []string{"near", "another", "mid"}
	if len(result) != len(want) {
		t.Fatalf("GeoRadius returned %d members, want %d: %v", len(result), len(want), result)
	}
	for i, m := range result {
		if m.Member != want[i] {
			t.Errorf("result[%d] = %s, want %s", i, m.Member, want[i])
		}
		if i > 0 && m.DistKm < result[i-1].DistKm {
			t.Errorf("results are not ordered by distance: %v", result)
		}
	}

	// moving a member replaces its position
	if err := s.GeoAdd(ctx, "drivers:geo:EU", "far", center); err != nil {
		t.Fatalf("GeoAdd failed: %v", err)
	}
	if err := s.GeoRemove(ctx, "drivers:geo:EU", "near"); err != nil {
		t.Fatalf("GeoRemove failed: %v", err)
	}
	result, _ = s.GeoRadius(ctx, "drivers:geo:EU", center, 50)
	if len(result) != 3 || result[0].Member != "far" {
		t.Errorf("unexpected result after move and remove: %v", result)
	}

	if result, _ := s.GeoRadius(ctx, "drivers:geo:US", center, 50); len(result) != 0 {
		t.Errorf("other geo key must be empty, got %v", result)
	}
}

func testInvalidInput(t *testing.T, s store.IStore) {
	ctx := context.Background()

	err := s.GeoAdd(ctx, "drivers:geo:EU", "pole", db.GeoPoint{Lon: 0, Lat: 89.9})
	if codeOf(err) != store.RetCInvalidOperation {
		t.Errorf("GeoAdd outside the indexable area = %v, want RetCInvalidOperation", err)
	}
	_, err = s.GeoRadius(ctx, "drivers:geo:EU", db.GeoPoint{Lon: 200, Lat: 0}, 10)
	if codeOf(err) != store.RetCInvalidOperation {
		t.Errorf("GeoRadius with invalid center = %v, want RetCInvalidOperation", err)
	}
}

func testCanceledContext(t *testing.T, s store.IStore) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.HSet(ctx, "drivers:EU", "d1", []byte("x")); codeOf(err) != store.RetCCanceled {
		t.Errorf("HSet with canceled context = %v, want RetCCanceled", err)
	}
	if _, _, err := s.HGet(ctx, "drivers:EU", "d1"); codeOf(err) != store.RetCCanceled {
		t.Errorf("HGet with canceled context = %v, want RetCCanceled", err)
	}
	if _, ok, _ := s.HGet(context.Background(), "drivers:EU", "d1"); ok {
		t.Error("write with canceled context must not be applied")
	}
}

func testConcurrentWrites(t *testing.T, s store.IStore) {
	ctx := context.Background()
	const writers, perWriter = 8, 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if err := s.HSet(ctx, "rides:US", fmt.Sprintf("%d-%d", w, i), []byte("x")); err != nil {
					t.Errorf("HSet failed: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	all, err := s.HGetAll(ctx, "rides:US")
	if err != nil {
		t.Fatalf("HGetAll failed: %v", err)
	}
	if len(all) != writers*perWriter {
		t.Errorf("HGetAll returned %d fields, want %d", len(all), writers*perWriter)
	}
}
