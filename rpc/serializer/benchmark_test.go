package serializer

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/ValentinKolb/dRide/rpc/common"
)

// benchmarkMessages returns a set of messages for targeted benchmarking
func benchmarkMessages() map[string]common.Message {
	members := make([]db.GeoMember, 20)
	for i := range members {
		members[i] = db.GeoMember{Member: fmt.Sprintf("driver-%d", i), DistKm: float64(i), Point: db.GeoPoint{Lon: 13.4, Lat: 52.5}}
	}
	fields := make(map[string][]byte, 20)
	for i := 0; i < 20; i++ {
		fields[fmt.Sprintf("ride-%d", i)] = []byte(`{"id":"ride","status":"ONGOING","startTime":1700000000000}`)
	}

	return map[string]common.Message{
		"Empty": {
			MsgType: common.MsgTSuccess,
		},
		"HGet": {
			MsgType:    common.MsgTHGet,
			Collection: "drivers:EU",
			Field:      "0b4f5b8e-7c1a-4c57-9d0e-3b9b0f3c1a2d",
		},
		"HSetSmall": {
			MsgType:    common.MsgTHSet,
			Collection: "drivers:EU",
			Field:      "d1",
			Value:      []byte("v"),
		},
		"HSetLarge": {
			MsgType:    common.MsgTHSet,
			Collection: "drivers:EU",
			Field:      "d1",
			Value:      make([]byte, 1024*16),
		},
		"GeoRadiusRequest": {
			MsgType:    common.MsgTGeoRadius,
			Collection: "drivers:geo:EU",
			Point:      db.GeoPoint{Lon: 13.4, Lat: 52.5},
			RadiusKm:   50,
		},
		"GeoRadiusResponse": {
			MsgType: common.MsgTGeoRadius,
			Members: members,
		},
		"HGetAllResponse": {
			MsgType: common.MsgTHGetAll,
			Fields:  fields,
		},
		"ErrorMessage": {
			MsgType: common.MsgTError,
			Code:    store.RetCInternalError,
			Err:     "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
		},
	}
}

// BenchmarkSerialize benchmarks serialization for all implementations with various message types
func BenchmarkSerialize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					_, err := serializer.Serialize(msg)
					if err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDeserialize benchmarks deserialization for all implementations with various message types
func BenchmarkDeserialize(b *testing.B) {
	messages := benchmarkMessages()
	serializedData := make(map[string]map[string][]byte)

	// Pre-serialize all messages with all serializers
	for name, factory := range testSerializers {
		serializer := factory()
		serializedData[name] = make(map[string][]byte)

		for msgName, msg := range messages {
			data, err := serializer.Serialize(msg)
			if err != nil {
				b.Fatalf("Failed to serialize %s with %s: %v", msgName, name, err)
			}
			serializedData[name][msgName] = data
		}
	}

	// Benchmark deserialization
	for name, factory := range testSerializers {
		for msgName := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				data := serializedData[name][msgName]
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					var msg common.Message
					err := serializer.Deserialize(data, &msg)
					if err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkSize measures and reports the serialized size for each message type
func BenchmarkSize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		serializer := factory()

		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				data, err := serializer.Serialize(msg)
				if err != nil {
					b.Fatalf("Failed to serialize: %v", err)
				}

				// Report the size as a custom metric
				b.ReportMetric(float64(len(data)), "bytes")

				// Minimal loop to satisfy benchmark requirements
				for i := 0; i < b.N; i++ {
					_ = data
				}
			})
		}
	}
}
