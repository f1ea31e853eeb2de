package serializer

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/ValentinKolb/dRide/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// HSet request
		{
			MsgType:    common.MsgTHSet,
			Collection: "drivers:EU",
			Field:      "d1",
			Value:      []byte(`{"id":"d1","status":"AVAILABLE"}`),
		},

		// Lease request
		{
			MsgType:    common.MsgTHSetEIfUnset,
			Collection: "locks:US",
			Field:      "d1",
			Value:      []byte{0, 1, 2, 255},
			DeleteIn:   1000,
		},

		// HGetAll response
		{
			MsgType: common.MsgTHGetAll,
			Fields: map[string][]byte{
				"p1": []byte("one"),
				"p2": []byte("two"),
			},
		},

		// GeoRadius request and response
		{
			MsgType:    common.MsgTGeoRadius,
			Collection: "drivers:geo:ASIA",
			Point:      db.GeoPoint{Lon: 139.6917, Lat: 35.6895},
			RadiusKm:   50,
		},
		{
			MsgType: common.MsgTGeoRadius,
			Members: []db.GeoMember{
				{Member: "d1", DistKm: 0.25, Point: db.GeoPoint{Lon: 139.69, Lat: 35.69}},
				{Member: "d2", DistKm: 12.5, Point: db.GeoPoint{Lon: 139.8, Lat: 35.7}},
			},
		},

		// Error response with store code
		{
			MsgType: common.MsgTHSet,
			Code:    store.RetCReadOnly,
			Err:     "writes must be sent to the master",
		},

		// Message with all fields filled
		{
			MsgType:    common.MsgTGeoAdd,
			Collection: "drivers:geo:US",
			Field:      "d9",
			DeleteIn:   7,
			Value:      []byte("value"),
			Point:      db.GeoPoint{Lon: -73.9857, Lat: 40.7484},
			RadiusKm:   1.5,
			Fields:     map[string][]byte{"f": []byte("v")},
			Members:    []db.GeoMember{{Member: "m", DistKm: 1, Point: db.GeoPoint{Lon: 1, Lat: 2}}},
			Ok:         true,
			Code:       store.RetCInvalidOperation,
			Err:        "error",
			Meta:       []byte(`{"db_type":"maple"}`),
		},
	}
}

// TestSerializerRoundTrip tests that every field survives a round trip
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v", i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for msgType := common.MsgTSuccess; msgType <= common.MsgTDBInfo; msgType++ {
				data, err := serializer.Serialize(common.Message{MsgType: msgType})
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType, err)
					continue
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType, err)
					continue
				}
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: expected %s, got %s", msgType, result.MsgType)
				}
			}
		})
	}
}

// TestBinaryNilAndEmpty checks that the binary format keeps nil and empty collections apart
func TestBinaryNilAndEmpty(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name string
		msg  common.Message
	}{
		{"empty message", common.Message{}},
		{"empty value", common.Message{MsgType: common.MsgTHSet, Field: "f", Value: []byte{}}},
		{"empty meta", common.Message{MsgType: common.MsgTDBInfo, Meta: []byte{}}},
		{"empty fields", common.Message{MsgType: common.MsgTHGetAll, Fields: map[string][]byte{}}},
		{"empty field value", common.Message{MsgType: common.MsgTHGetAll, Fields: map[string][]byte{"f": {}}}},
		{"empty members", common.Message{MsgType: common.MsgTGeoRadius, Members: []db.GeoMember{}}},
		{"ok without value", common.Message{MsgType: common.MsgTHGet, Ok: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}
			if !reflect.DeepEqual(tc.msg, result) {
				t.Errorf("round trip mismatch:\nOriginal: %#v\nResult: %#v", tc.msg, result)
			}
		})
	}
}

// TestMessageReuse checks that deserializing into a used message clears old fields
func TestMessageReuse(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			first, _ := serializer.Serialize(common.Message{MsgType: common.MsgTHGet, Value: []byte("old"), Ok: true, Err: "x"})
			second, _ := serializer.Serialize(common.Message{MsgType: common.MsgTHDel, Field: "f"})

			var msg common.Message
			if err := serializer.Deserialize(first, &msg); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}
			if err := serializer.Deserialize(second, &msg); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}
			if msg.Value != nil || msg.Ok || msg.Err != "" || msg.Field != "f" {
				t.Errorf("stale fields after reuse: %+v", msg)
			}
		})
	}
}

func TestSerializerNames(t *testing.T) {
	for name, factory := range testSerializers {
		if got := factory().Name(); !strings.EqualFold(got, name) {
			t.Errorf("%s serializer is named %q", name, got)
		}
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{"Empty data", []byte{}, true},
		{"Too short header", []byte{1, 0}, true},
		{"Valid header only", []byte{1, 0, 0}, false},
		{"Invalid length for collection", []byte{1, 0, 1, 0, 0, 0, 5, 'a', 'b', 'c'}, true},
		{"Invalid length for value", []byte{1, 0, 8, 0, 0, 0, 10}, true},
		{"Missing point", []byte{1, 0, 16, 0, 0, 0, 0}, true},
		{"Too many members", []byte{1, 0, 128, 0, 0, 0, 3}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}
