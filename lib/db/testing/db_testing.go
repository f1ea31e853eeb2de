package testing

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dRide/lib/db"
)

// DBFactory is a function that creates a new instance of a DB implementation
type DBFactory func() db.DB

// RunDBTests runs the conformance suite for a DB implementation.
func RunDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("HSet&HGet", func(t *testing.T) {
			testHSetHGet(t, factory())
		})

		t.Run("HGetAll", func(t *testing.T) {
			testHGetAll(t, factory())
		})

		t.Run("HDel", func(t *testing.T) {
			testHDel(t, factory())
		})

		t.Run("StaleWrites", func(t *testing.T) {
			testStaleWrites(t, factory())
		})

		t.Run("HSetEIfUnset", func(t *testing.T) {
			testHSetEIfUnset(t, factory())
		})

		t.Run("LeaseExpiry", func(t *testing.T) {
			testLeaseExpiry(t, factory())
		})

		t.Run("GeoRadiusOrdering", func(t *testing.T) {
			testGeoRadiusOrdering(t, factory())
		})

		t.Run("GeoAddMoveRemove", func(t *testing.T) {
			testGeoAddMoveRemove(t, factory())
		})

		t.Run("GeoInvalidPoints", func(t *testing.T) {
			testGeoInvalidPoints(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("ConcurrentWriters", func(t *testing.T) {
			testConcurrentWriters(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// requireFeature skips the test if the database does not support the feature
func requireFeature(t testing.TB, database db.DB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

func members(result []db.GeoMember) []string {
	names := make([]string, len(result))
	for i, m := range result {
		names[i] = m.Member
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testHSetHGet(t *testing.T, database db.DB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureHSet|db.FeatureHGet)

	database.HSet("drivers:US", "d1", []byte("v1"), 1)
	value, ok := database.HGet("drivers:US", "d1")
	if !ok || !bytes.Equal(value, []byte("v1")) {
		t.Errorf("HGet() = (%s, %v), want (v1, true)", value, ok)
	}

	database.HSet("drivers:US", "d1", []byte("v2"), 2)
	if value, _ = database.HGet("drivers:US", "d1"); !bytes.Equal(value, []byte("v2")) {
		t.Errorf("expected overwritten value v2, got %s", value)
	}

	// same field in another collection is independent
	if _, ok := database.HGet("drivers:EU", "d1"); ok {
		t.Error("field must not leak into another collection")
	}
	if _, ok := database.HGet("drivers:US", "missing"); ok {
		t.Error("missing field must not be found")
	}

	// the returned slice is a copy
	value[0] = 'X'
	if again, _ := database.HGet("drivers:US", "d1"); !bytes.Equal(again, []byte("v2")) {
		t.Errorf("modifying a returned value changed the database: %s", again)
	}

	// empty values are valid values
	database.HSet("drivers:US", "empty", []byte{}, 3)
	if value, ok := database.HGet("drivers:US", "empty"); !ok || len(value) != 0 {
		t.Errorf("expected empty value to be stored, got (%v, %v)", value, ok)
	}
}

func testHGetAll(t *testing.T, database db.DB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureHSet|db.FeatureHGetAll)

	if all := database.HGetAll("unknown"); all == nil || len(all) != 0 {
		t.Errorf("HGetAll of unknown collection = %v, want empty map", all)
	}

	for i := 0; i < 20; i++ {
		database.HSet("rides:EU", fmt.Sprintf("r%d", i), []byte(fmt.Sprintf("ride-%d", i)), uint64(i+1))
	}
	database.HSet("rides:US", "other", []byte("x"), 30)

	all := database.HGetAll("rides:EU")
	if len(all) != 20 {
		t.Fatalf("expected 20 fields, got %d", len(all))
	}
	for i := 0; i < 20; i++ {
		if got := string(all[fmt.Sprintf("r%d", i)]); got != fmt.Sprintf("ride-%d", i) {
			t.Errorf("field r%d = %q", i, got)
		}
	}
}

func testHDel(t *testing.T, database db.DB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureHSet|db.FeatureHDel|db.FeatureHGet|db.FeatureHGetAll)

	database.HSet("passengers:ASIA", "p1", []byte("a"), 1)
	database.HSet("passengers:ASIA", "p2", []byte("b"), 2)
	database.HDel("passengers:ASIA", "p1", 3)

	if _, ok := database.HGet("passengers:ASIA", "p1"); ok {
		t.Error("deleted field must not be found")
	}
	if all := database.HGetAll("passengers:ASIA"); len(all) != 1 {
		t.Errorf("expected one remaining field, got %v", all)
	}

	// deleting unknown fields and collections is a no-op
	database.HDel("passengers:ASIA", "nope", 4)
	database.HDel("nope", "nope", 5)

	// a deleted field can be written again
	database.HSet("passengers:ASIA", "p1", []byte("c"), 6)
	if value, ok := database.HGet("passengers:ASIA", "p1"); !ok || string(value) != "c" {
		t.Errorf("expected re-created field, got (%s, %v)", value, ok)
	}
}

func testStaleWrites(t *testing.T, database db.DB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureHSet|db.FeatureHGet|db.FeatureGeoAdd|db.FeatureGeoRadius)

	database.HSet("c", "f", []byte("new"), 10)
	database.HSet("c", "f", []byte("old"), 5)
	if value, _ := database.HGet("c", "f"); string(value) != "new" {
		t.Errorf("stale write was applied, value = %s", value)
	}

	// equal indexes are applied (replays of the same log entry)
	database.HSet("c", "f", []byte("same"), 10)
	if value, _ := database.HGet("c", "f"); string(value) != "same" {
		t.Errorf("write with equal index was ignored, value = %s", value)
	}

	database.HDel("c", "f", 7)
	if _, ok := database.HGet("c", "f"); !ok {
		t.Error("stale delete removed a newer field")
	}

	_ = database.GeoAdd("g", "m", db.GeoPoint{Lon: 1, Lat: 1}, 20)
	_ = database.GeoAdd("g", "m", db.GeoPoint{Lon: 2, Lat: 2}, 15)
	result := database.GeoRadius("g", db.GeoPoint{Lon: 1, Lat: 1}, 1)
	if len(result) != 1 || result[0].Point.Lon != 1 {
		t.Errorf("stale geo write was applied: %v", result)
	}

	if database.WriteIdx() != 20 {
		t.Errorf("WriteIdx() = %d, want 20", database.WriteIdx())
	}
	database.SetWriteIdx(3)
	if database.WriteIdx() != 20 {
		t.Error("write index must never decrease")
	}
}

func testHSetEIfUnset(t *testing.T, database db.DB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureHSet|db.FeatureHSetEIfUnset|db.FeatureHGet)

	database.HSetEIfUnset("locks:US", "driver-1", []byte("owner-a"), 1, 0)
	database.HSetEIfUnset("locks:US", "driver-1", []byte("owner-b"), 2, 0)

	if value, _ := database.HGet("locks:US", "driver-1"); string(value) != "owner-a" {
		t.Errorf("second HSetEIfUnset must not overwrite, value = %s", value)
	}

	// a plain HSet still overwrites
	database.HSet("locks:US", "driver-1", []byte("owner-c"), 3)
	if value, _ := database.HGet("locks:US", "driver-1"); string(value) != "owner-c" {
		t.Errorf("HSet must overwrite, value = %s", value)
	}

	database.HDel("locks:US", "driver-1", 4)
	database.HSetEIfUnset("locks:US", "driver-1", []byte("owner-d"), 5, 0)
	if value, _ := database.HGet("locks:US", "driver-1"); string(value) != "owner-d" {
		t.Errorf("HSetEIfUnset after delete must write, value = %s", value)
	}
}

func testLeaseExpiry(t *testing.T, database db.DB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureHSetEIfUnset|db.FeatureHGet|db.FeatureHGetAll|db.FeatureGarbageCollect)

	database.HSetEIfUnset("locks:EU", "lease", []byte("owner"), 10, 5)

	database.SetWriteIdx(14)
	if _, ok := database.HGet("locks:EU", "lease"); !ok {
		t.Fatal("lease must be readable before its deletion index")
	}

	database.SetWriteIdx(15)
	if _, ok := database.HGet("locks:EU", "lease"); ok {
		t.Error("lease must be gone once the write index reaches the deletion index")
	}
	if all := database.HGetAll("locks:EU"); len(all) != 0 {
		t.Errorf("HGetAll returned an expired lease: %v", all)
	}

	// an expired lease can be claimed again
	database.HSetEIfUnset("locks:EU", "lease", []byte("next"), 16, 5)
	if value, ok := database.HGet("locks:EU", "lease"); !ok || string(value) != "next" {
		t.Errorf("expired lease was not replaced, got (%s, %v)", value, ok)
	}

	// the gc eventually frees expired leases, reads must stay correct while it runs
	for i := 0; i < 100; i++ {
		database.HSetEIfUnset("locks:EU", fmt.Sprintf("bulk-%d", i), []byte("x"), 20, 1)
	}
	database.SetWriteIdx(30)
	time.Sleep(300 * time.Millisecond)
	if all := database.HGetAll("locks:EU"); len(all) != 0 {
		t.Errorf("expected all leases to be expired, %d left", len(all))
	}
}

func testGeoRadiusOrdering(t *testing.T, database db.DB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureGeoAdd|db.FeatureGeoRadius)

	key := "drivers:geo:US"
	// roughly 11km, 22km, 33km and 111km north of the origin
	points := map[string]db.GeoPoint{
		"far":    {Lon: 0, Lat: 1},
		"near":   {Lon: 0, Lat: 0.1},
		"middle": {Lon: 0, Lat: 0.2},
		"third":  {Lon: 0, Lat: 0.3},
	}
	idx := uint64(1)
	for m, p := range points {
		if err := database.GeoAdd(key, m, p, idx); err != nil {
			t.Fatalf("GeoAdd(%s) error: %v", m, err)
		}
		idx++
	}

	result := database.GeoRadius(key, db.GeoPoint{Lon: 0, Lat: 0}, 50)
	if want := []string{"near", "middle", "third"}; !equalStrings(members(result), want) {
		t.Errorf("GeoRadius() = %v, want %v", members(result), want)
	}
	for i := 1; i < len(result); i++ {
		if result[i].DistKm < result[i-1].DistKm {
			t.Errorf("results not ordered by distance: %v", result)
		}
	}

	// ties are ordered by member name
	_ = database.GeoAdd(key, "b-same", db.GeoPoint{Lon: 10, Lat: 10}, idx)
	_ = database.GeoAdd(key, "a-same", db.GeoPoint{Lon: 10, Lat: 10}, idx+1)
	tie := database.GeoRadius(key, db.GeoPoint{Lon: 10, Lat: 10}, 1)
	if want := []string{"a-same", "b-same"}; !equalStrings(members(tie), want) {
		t.Errorf("tie order = %v, want %v", members(tie), want)
	}

	// a member exactly at the center has distance 0 and radius 0 still finds it
	zero := database.GeoRadius(key, db.GeoPoint{Lon: 0, Lat: 0.1}, 0)
	if len(zero) != 1 || zero[0].Member != "near" || zero[0].DistKm != 0 {
		t.Errorf("radius 0 query = %v", zero)
	}

	if empty := database.GeoRadius("drivers:geo:EU", db.GeoPoint{}, 50); empty == nil || len(empty) != 0 {
		t.Errorf("unknown geo key must return an empty slice, got %v", empty)
	}
}

func testGeoAddMoveRemove(t *testing.T, database db.DB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureGeoAdd|db.FeatureGeoRemove|db.FeatureGeoRadius)

	key := "drivers:geo:EU"
	_ = database.GeoAdd(key, "d1", db.GeoPoint{Lon: 13.40, Lat: 52.52}, 1)
	_ = database.GeoAdd(key, "d1", db.GeoPoint{Lon: 2.35, Lat: 48.85}, 2)

	if r := database.GeoRadius(key, db.GeoPoint{Lon: 13.40, Lat: 52.52}, 10); len(r) != 0 {
		t.Errorf("moved member still found at old position: %v", r)
	}
	if r := database.GeoRadius(key, db.GeoPoint{Lon: 2.35, Lat: 48.85}, 10); len(r) != 1 {
		t.Errorf("moved member not found at new position: %v", r)
	}

	database.GeoRemove(key, "d1", 3)
	if r := database.GeoRadius(key, db.GeoPoint{Lon: 2.35, Lat: 48.85}, 10); len(r) != 0 {
		t.Errorf("removed member still found: %v", r)
	}

	// removing unknown members is a no-op
	database.GeoRemove(key, "unknown", 4)
	database.GeoRemove("unknown", "unknown", 5)
}

func testGeoInvalidPoints(t *testing.T, database db.DB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureGeoAdd)

	invalid := []db.GeoPoint{
		{Lon: 181, Lat: 0},
		{Lon: -181, Lat: 0},
		{Lon: 0, Lat: 86},
		{Lon: 0, Lat: -86},
	}
	for _, p := range invalid {
		if err := database.GeoAdd("g", "m", p, 1); err == nil {
			t.Errorf("GeoAdd(%v) should fail", p)
		}
	}

	valid := []db.GeoPoint{
		{Lon: 180, Lat: 85.05112878},
		{Lon: -180, Lat: -85.05112878},
		{Lon: 0, Lat: 0},
	}
	for _, p := range valid {
		if err := database.GeoAdd("g", "m", p, 2); err != nil {
			t.Errorf("GeoAdd(%v) error: %v", p, err)
		}
	}
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	source := factory()
	defer source.Close()
	requireFeature(t, source, db.FeatureSave|db.FeatureLoad)

	source.HSet("drivers:US", "d1", []byte("driver"), 1)
	source.HSet("rides:US", "r1", []byte("ride"), 2)
	source.HSetEIfUnset("locks:US", "l1", []byte("owner"), 3, 100)
	source.HSet("drivers:US", "gone", []byte("x"), 4)
	source.HDel("drivers:US", "gone", 5)
	_ = source.GeoAdd("drivers:geo:US", "d1", db.GeoPoint{Lon: -122.42, Lat: 37.77}, 6)

	var buf bytes.Buffer
	if err := source.Save(&buf); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	target := factory()
	defer target.Close()
	target.HSet("stale", "stale", []byte("x"), 1)
	if err := target.Load(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if _, ok := target.HGet("stale", "stale"); ok {
		t.Error("Load must replace the existing content")
	}
	if value, _ := target.HGet("drivers:US", "d1"); string(value) != "driver" {
		t.Errorf("drivers:US/d1 = %q", value)
	}
	if value, _ := target.HGet("rides:US", "r1"); string(value) != "ride" {
		t.Errorf("rides:US/r1 = %q", value)
	}
	if value, _ := target.HGet("locks:US", "l1"); string(value) != "owner" {
		t.Errorf("lease lost during save/load: %q", value)
	}
	if _, ok := target.HGet("drivers:US", "gone"); ok {
		t.Error("deleted field was restored")
	}
	if r := target.GeoRadius("drivers:geo:US", db.GeoPoint{Lon: -122.42, Lat: 37.77}, 1); len(r) != 1 || r[0].Member != "d1" {
		t.Errorf("geo member not restored: %v", r)
	}
	if target.WriteIdx() != source.WriteIdx() {
		t.Errorf("WriteIdx() after load = %d, want %d", target.WriteIdx(), source.WriteIdx())
	}

	// the lease keeps its deletion index
	target.SetWriteIdx(103)
	if _, ok := target.HGet("locks:US", "l1"); ok {
		t.Error("restored lease did not expire")
	}

	if err := target.Load(bytes.NewReader([]byte("NOTMAPLE"))); err == nil {
		t.Error("Load of garbage must fail")
	}
}

func testConcurrentWriters(t *testing.T, database db.DB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureHSet|db.FeatureHGetAll|db.FeatureGeoAdd|db.FeatureGeoRadius)

	const writers = 8
	const perWriter = 200

	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				idx := uint64(w*perWriter + i + 1)
				member := fmt.Sprintf("w%d-%d", w, i)
				database.HSet("drivers:ASIA", member, []byte(member), idx)
				_ = database.GeoAdd("drivers:geo:ASIA", member, db.GeoPoint{Lon: 100, Lat: 10}, idx)
			}
		}(w)
	}
	wg.Wait()

	if all := database.HGetAll("drivers:ASIA"); len(all) != writers*perWriter {
		t.Errorf("expected %d fields, got %d", writers*perWriter, len(all))
	}
	if r := database.GeoRadius("drivers:geo:ASIA", db.GeoPoint{Lon: 100, Lat: 10}, 1); len(r) != writers*perWriter {
		t.Errorf("expected %d geo members, got %d", writers*perWriter, len(r))
	}
}
