package dstore

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/db/engines/maple"
	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/ValentinKolb/dRide/lib/store/internal"
	sm "github.com/lni/dragonboat/v4/statemachine"
)

func newStateMachine() *StateMachine {
	factory := CreateStateMachineFactory(func() db.DB { return maple.NewMapleDB(nil) })
	return factory(1, 1).(*StateMachine)
}

func entry(index uint64, cmd internal.Command) sm.Entry {
	return sm.Entry{Index: index, Cmd: cmd.Serialize()}
}

func TestUpdateAndLookup(t *testing.T) {
	fsm := newStateMachine()
	defer fsm.Close()

	entries := []sm.Entry{
		entry(1, internal.Command{Type: internal.CommandTHSet, Collection: "drivers:EU", Field: "d1", Value: []byte("AVAILABLE")}),
		entry(2, internal.Command{Type: internal.CommandTGeoAdd, Collection: "drivers:geo:EU", Field: "d1", Point: db.GeoPoint{Lon: 2.35, Lat: 48.85}}),
		entry(3, internal.Command{Type: internal.CommandTGeoAdd, Collection: "drivers:geo:EU", Field: "bad", Point: db.GeoPoint{Lat: 89}}),
		{Index: 4, Cmd: nil},
		{Index: 5, Cmd: []byte{1, 2}},
		entry(6, internal.Command{Type: internal.CommandType(42)}),
	}

	result, err := fsm.Update(entries)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	want := []store.RetCode{
		store.RetCSuccess,
		store.RetCSuccess,
		store.RetCInvalidOperation,
		store.RetCInvalidOperation,
		store.RetCInternalError,
		store.RetCInvalidOperation,
	}
	for i, code := range want {
		if got := store.RetCode(result[i].Result.Value); got != code {
			t.Errorf("entry %d: result %s, want %s (%s)", i, got, code, result[i].Result.Data)
		}
	}

	res, err := fsm.Lookup(internal.Query{Type: internal.QueryTHGet, Collection: "drivers:EU", Field: "d1"})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if qr := res.(internal.QueryResult); !qr.Ok || string(qr.Value) != "AVAILABLE" {
		t.Errorf("Lookup(HGet) = %+v", qr)
	}

	res, err = fsm.Lookup(internal.Query{Type: internal.QueryTGeoRadius, Collection: "drivers:geo:EU", Center: db.GeoPoint{Lon: 2.35, Lat: 48.85}, RadiusKm: 1})
	if err != nil || len(res.([]db.GeoMember)) != 1 {
		t.Errorf("Lookup(GeoRadius) = %v, %v", res, err)
	}

	if _, err := fsm.Lookup("not a query"); err == nil {
		t.Error("Lookup must reject unknown query types")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	fsm := newStateMachine()
	defer fsm.Close()

	_, err := fsm.Update([]sm.Entry{
		entry(1, internal.Command{Type: internal.CommandTHSet, Collection: "rides:US", Field: "r1", Value: []byte("ONGOING")}),
		entry(2, internal.Command{Type: internal.CommandTGeoAdd, Collection: "drivers:geo:US", Field: "d1", Point: db.GeoPoint{Lon: -73.98, Lat: 40.75}}),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	var buf bytes.Buffer
	if err := fsm.SaveSnapshot(nil, &buf, nil, nil); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	restored := newStateMachine()
	defer restored.Close()
	if err := restored.RecoverFromSnapshot(&buf, nil, nil); err != nil {
		t.Fatalf("RecoverFromSnapshot failed: %v", err)
	}

	res, _ := restored.Lookup(internal.Query{Type: internal.QueryTHGet, Collection: "rides:US", Field: "r1"})
	if qr := res.(internal.QueryResult); !qr.Ok || string(qr.Value) != "ONGOING" {
		t.Errorf("restored HGet = %+v", qr)
	}
	res, _ = restored.Lookup(internal.Query{Type: internal.QueryTGeoRadius, Collection: "drivers:geo:US", Center: db.GeoPoint{Lon: -73.98, Lat: 40.75}, RadiusKm: 1})
	if members := res.([]db.GeoMember); len(members) != 1 || members[0].Member != "d1" {
		t.Errorf("restored GeoRadius = %v", members)
	}
}
