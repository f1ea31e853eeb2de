package maple

import (
	"fmt"
	"testing"
	"time"

	"github.com/ValentinKolb/dRide/lib/db"
)

func TestGCFreesExpiredLeases(t *testing.T) {
	database := NewMapleDB(&DBOptions{NumShards: 2, GCInterval: 5 * time.Millisecond}).(*mapleImpl)
	defer database.Close()

	for i := 0; i < 50; i++ {
		database.HSetEIfUnset("locks:US", fmt.Sprintf("l%d", i), []byte("owner"), 1, 1)
	}
	database.HSet("locks:US", "keep", []byte("x"), 2)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hash := database.shardFor("locks:US").Hash("locks:US", false)
		if hash.Size() == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("gc did not free the expired leases")
}

func TestGCKeepsRewrittenLease(t *testing.T) {
	database := NewMapleDB(&DBOptions{NumShards: 1, GCInterval: 5 * time.Millisecond}).(*mapleImpl)
	defer database.Close()

	database.HSetEIfUnset("locks:EU", "l", []byte("a"), 1, 2)
	// overwritten without lease before it is due
	database.HSet("locks:EU", "l", []byte("b"), 2)
	database.SetWriteIdx(10)

	time.Sleep(50 * time.Millisecond)
	if value, ok := database.HGet("locks:EU", "l"); !ok || string(value) != "b" {
		t.Errorf("gc removed a field that is no longer a lease: (%s, %v)", value, ok)
	}
}

func TestGetInfo(t *testing.T) {
	database := NewMapleDB(&DBOptions{NumShards: 4})
	defer database.Close()

	database.HSet("drivers:US", "d1", []byte("x"), 1)
	database.HSetEIfUnset("locks:US", "d1", []byte("x"), 2, 10)
	_ = database.GeoAdd("drivers:geo:US", "d1", db.GeoPoint{Lon: 1, Lat: 1}, 3)

	info := database.GetInfo()
	if info.DbType != db.ImplMaple {
		t.Errorf("DbType = %s", info.DbType)
	}
	if info.SizeBytes <= 0 {
		t.Errorf("SizeBytes = %d", info.SizeBytes)
	}
	if len(info.SupportedFeatures) != 11 {
		t.Errorf("expected 11 features, got %v", info.SupportedFeatures)
	}
	if !database.SupportsFeature(db.FeatureGeoRadius | db.FeatureHSetEIfUnset) {
		t.Error("SupportsFeature must accept combined flags")
	}
}
