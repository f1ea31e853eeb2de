package rstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/db/engines/maple"
	"github.com/ValentinKolb/dRide/lib/store"
	storetesting "github.com/ValentinKolb/dRide/lib/store/testing"
)

func newMaple() db.DB {
	return maple.NewMapleDB(nil)
}

func TestMasterConformance(t *testing.T) {
	storetesting.RunStoreTests(t, "rstore-master", func() store.IStore {
		pair := NewReplicatedPair(newMaple, 0)
		t.Cleanup(func() { _ = pair.Close() })
		return pair.Master()
	})
}

func TestReplicaLagsThenConverges(t *testing.T) {
	pair := NewReplicatedPair(newMaple, 200*time.Millisecond)
	defer pair.Close()
	ctx := context.Background()

	if err := pair.Master().HSet(ctx, "drivers:EU", "d1", []byte("AVAILABLE")); err != nil {
		t.Fatalf("HSet failed: %v", err)
	}
	if err := pair.Master().GeoAdd(ctx, "drivers:geo:EU", "d1", db.GeoPoint{Lon: 2.35, Lat: 48.85}); err != nil {
		t.Fatalf("GeoAdd failed: %v", err)
	}

	if _, ok, _ := pair.Master().HGet(ctx, "drivers:EU", "d1"); !ok {
		t.Fatal("master must see its own write immediately")
	}
	if _, ok, _ := pair.Replica().HGet(ctx, "drivers:EU", "d1"); ok {
		t.Error("replica must not see the write before the lag passed")
	}
	if pair.Pending() == 0 {
		t.Error("expected pending replication entries")
	}

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pair.WaitForSync(waitCtx); err != nil {
		t.Fatalf("WaitForSync failed: %v", err)
	}

	value, ok, err := pair.Replica().HGet(ctx, "drivers:EU", "d1")
	if err != nil || !ok || string(value) != "AVAILABLE" {
		t.Errorf("replica HGet after sync = (%s, %v, %v)", value, ok, err)
	}
	members, err := pair.Replica().GeoRadius(ctx, "drivers:geo:EU", db.GeoPoint{Lon: 2.35, Lat: 48.85}, 1)
	if err != nil || len(members) != 1 {
		t.Errorf("replica GeoRadius after sync = (%v, %v)", members, err)
	}
	if pair.Pending() != 0 {
		t.Errorf("Pending() = %d after sync", pair.Pending())
	}
}

func TestReplicaAppliesInOrder(t *testing.T) {
	pair := NewReplicatedPair(newMaple, 0)
	defer pair.Close()
	ctx := context.Background()

	for _, status := range []string{"AVAILABLE", "ON_RIDE", "AVAILABLE", "OFFLINE"} {
		if err := pair.Master().HSet(ctx, "drivers:US", "d1", []byte(status)); err != nil {
			t.Fatalf("HSet failed: %v", err)
		}
	}
	if err := pair.Master().HDel(ctx, "drivers:US", "gone"); err != nil {
		t.Fatalf("HDel failed: %v", err)
	}
	if err := pair.WaitForSync(ctx); err != nil {
		t.Fatalf("WaitForSync failed: %v", err)
	}

	if value, _, _ := pair.Replica().HGet(ctx, "drivers:US", "d1"); string(value) != "OFFLINE" {
		t.Errorf("replica holds %s, want the last write OFFLINE", value)
	}
}

func TestReplicaRejectsWrites(t *testing.T) {
	pair := NewReplicatedPair(newMaple, 0)
	defer pair.Close()
	ctx := context.Background()
	replica := pair.Replica()

	writes := map[string]error{
		"HSet":         replica.HSet(ctx, "c", "f", []byte("x")),
		"HSetEIfUnset": replica.HSetEIfUnset(ctx, "c", "f", []byte("x"), 0),
		"HDel":         replica.HDel(ctx, "c", "f"),
		"GeoAdd":       replica.GeoAdd(ctx, "g", "m", db.GeoPoint{}),
		"GeoRemove":    replica.GeoRemove(ctx, "g", "m"),
	}
	for name, err := range writes {
		var storeErr *store.Error
		if !errors.As(err, &storeErr) || storeErr.Code != store.RetCReadOnly {
			t.Errorf("%s on replica = %v, want RetCReadOnly", name, err)
		}
	}
}

func TestFailedWriteIsNotReplicated(t *testing.T) {
	pair := NewReplicatedPair(newMaple, 0)
	defer pair.Close()
	ctx := context.Background()

	if err := pair.Master().GeoAdd(ctx, "g", "m", db.GeoPoint{Lat: 90}); err == nil {
		t.Fatal("invalid point must be rejected")
	}
	if err := pair.Master().HSet(ctx, "c", "f", []byte("x")); err != nil {
		t.Fatalf("HSet failed: %v", err)
	}
	if err := pair.WaitForSync(ctx); err != nil {
		t.Fatalf("WaitForSync failed: %v", err)
	}
	if _, ok, _ := pair.Replica().HGet(ctx, "c", "f"); !ok {
		t.Error("write after a rejected one must still be replicated")
	}
}

func TestCloseFlushesPendingWrites(t *testing.T) {
	pair := NewReplicatedPair(newMaple, time.Hour)
	ctx := context.Background()

	if err := pair.Master().HSet(ctx, "c", "f", []byte("x")); err != nil {
		t.Fatalf("HSet failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- pair.Close() }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Close failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close must not wait for the replication lag")
	}

	if pair.Pending() != 0 {
		t.Errorf("Pending() = %d after Close", pair.Pending())
	}
	if err := pair.Master().HSet(ctx, "c", "f", []byte("y")); err == nil {
		t.Error("write after Close must fail")
	}
}
