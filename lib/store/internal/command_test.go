package internal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/db/engines/maple"
	"github.com/ValentinKolb/dRide/lib/store"
)

func TestSizeBytes(t *testing.T) {
	tests := []struct {
		name     string
		command  Command
		expected int
	}{
		{
			name:     "HSet with value",
			command:  Command{Type: CommandTHSet, Collection: "drivers:US", Field: "d1", Value: []byte("value")},
			expected: headerSize + 10 + 4 + 2 + 5,
		},
		{
			name:     "GeoRemove without value",
			command:  Command{Type: CommandTGeoRemove, Collection: "drivers:geo:US", Field: "d1"},
			expected: headerSize + 14 + 4 + 2,
		},
		{
			name:     "empty command",
			command:  Command{},
			expected: headerSize + 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if size := tt.command.SizeBytes(); size != tt.expected {
				t.Errorf("SizeBytes() = %v, want %v", size, tt.expected)
			}
		})
	}
}

func TestSerializeDeserialize(t *testing.T) {
	tests := []struct {
		name    string
		command Command
	}{
		{"hset", Command{Type: CommandTHSet, Collection: "rides:EU", Field: "r1", Value: []byte(`{"id":"r1"}`)}},
		{"lease", Command{Type: CommandTHSetEIfUnset, Collection: "locks:ASIA", Field: "d7", DeleteIn: math.MaxUint64, Value: []byte{0, 1, 254, 255}}},
		{"hdel", Command{Type: CommandTHDel, Collection: "passengers:US", Field: "p1"}},
		{"geo add", Command{Type: CommandTGeoAdd, Collection: "drivers:geo:EU", Field: "d1", Point: db.GeoPoint{Lon: -0.1276, Lat: 51.5072}}},
		{"geo remove", Command{Type: CommandTGeoRemove, Collection: "drivers:geo:EU", Field: "d1"}},
		{"unicode", Command{Type: CommandTHSet, Collection: "司机:ASIA", Field: "你好", Value: []byte("x")}},
		{"empty names", Command{Type: CommandTHSet, Value: []byte("only value")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.command.Serialize()
			if len(data) != tt.command.SizeBytes() {
				t.Errorf("SizeBytes() = %d, serialized length = %d", tt.command.SizeBytes(), len(data))
			}

			var got Command
			if err := got.Deserialize(data); err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}
			if got.Type != tt.command.Type || got.Collection != tt.command.Collection || got.Field != tt.command.Field {
				t.Errorf("header mismatch: got %+v, want %+v", got, tt.command)
			}
			if got.DeleteIn != tt.command.DeleteIn || got.Point != tt.command.Point {
				t.Errorf("numbers mismatch: got %+v, want %+v", got, tt.command)
			}
			if len(tt.command.Value) == 0 {
				if len(got.Value) != 0 {
					t.Errorf("Value should be empty, got %v", got.Value)
				}
			} else if !bytes.Equal(got.Value, tt.command.Value) {
				t.Errorf("Value mismatch: got %v, want %v", got.Value, tt.command.Value)
			}
		})
	}
}

func TestDeserializeErrors(t *testing.T) {
	truncatedCollection := make([]byte, headerSize)
	binary.BigEndian.PutUint32(truncatedCollection[25:29], 1000)

	truncatedField := (&Command{Type: CommandTHSet, Collection: "c"}).Serialize()
	binary.BigEndian.PutUint32(truncatedField[headerSize+1:headerSize+5], 50)

	tests := []struct {
		name        string
		data        []byte
		expectedErr string
	}{
		{"empty data", []byte{}, "data too short for command"},
		{"short header", []byte{1, 2, 3}, "data too short for command"},
		{"collection length", truncatedCollection, "data too short for collection of length 1000"},
		{"field length", truncatedField, "data too short for field of length 50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd Command
			err := cmd.Deserialize(tt.data)
			if err == nil {
				t.Fatalf("Expected error but got nil")
			}
			if err.Error() != tt.expectedErr {
				t.Errorf("Expected error %q, got %q", tt.expectedErr, err.Error())
			}
		})
	}
}

func TestBinaryFormat(t *testing.T) {
	cmd := Command{Type: CommandTHSetEIfUnset, Collection: "ab", Field: "c", DeleteIn: 7, Point: db.GeoPoint{Lon: 1.5, Lat: -2.5}, Value: []byte("v")}

	expected := make([]byte, cmd.SizeBytes())
	expected[0] = byte(CommandTHSetEIfUnset)
	binary.BigEndian.PutUint64(expected[1:9], 7)
	binary.BigEndian.PutUint64(expected[9:17], math.Float64bits(1.5))
	binary.BigEndian.PutUint64(expected[17:25], math.Float64bits(-2.5))
	binary.BigEndian.PutUint32(expected[25:29], 2)
	copy(expected[29:31], "ab")
	binary.BigEndian.PutUint32(expected[31:35], 1)
	copy(expected[35:36], "c")
	copy(expected[36:], "v")

	if got := cmd.Serialize(); !bytes.Equal(got, expected) {
		t.Errorf("Binary format does not match:\nGot:      %v\nExpected: %v", got, expected)
	}
}

func TestApplyAndLookup(t *testing.T) {
	database := maple.NewMapleDB(nil)
	defer database.Close()

	if err := Apply(database, &Command{Type: CommandTHSet, Collection: "drivers:US", Field: "d1", Value: []byte("x")}, 1); err != nil {
		t.Fatalf("Apply(HSet) error: %v", err)
	}
	if err := Apply(database, &Command{Type: CommandTGeoAdd, Collection: "drivers:geo:US", Field: "d1", Point: db.GeoPoint{Lon: 1, Lat: 1}}, 2); err != nil {
		t.Fatalf("Apply(GeoAdd) error: %v", err)
	}

	res, err := Lookup(database, Query{Type: QueryTHGet, Collection: "drivers:US", Field: "d1"})
	if err != nil || !res.(QueryResult).Ok || string(res.(QueryResult).Value) != "x" {
		t.Errorf("Lookup(HGet) = %v, %v", res, err)
	}

	res, err = Lookup(database, Query{Type: QueryTGeoRadius, Collection: "drivers:geo:US", Center: db.GeoPoint{Lon: 1, Lat: 1}, RadiusKm: 1})
	if err != nil || len(res.([]db.GeoMember)) != 1 {
		t.Errorf("Lookup(GeoRadius) = %v, %v", res, err)
	}

	err = Apply(database, &Command{Type: CommandTGeoAdd, Collection: "g", Field: "m", Point: db.GeoPoint{Lon: 0, Lat: 89}}, 3)
	var storeErr *store.Error
	if !errors.As(err, &storeErr) || storeErr.Code != store.RetCInvalidOperation {
		t.Errorf("invalid point must be rejected with RetCInvalidOperation, got %v", err)
	}

	if err := Apply(database, &Command{Type: CommandType(99)}, 4); err == nil {
		t.Error("unknown command must be rejected")
	}
	if _, err := Lookup(database, Query{Type: QueryTGeoRadius, Center: db.GeoPoint{}, RadiusKm: -1}); err == nil {
		t.Error("negative radius must be rejected")
	}
}
