package testing

import (
	"bytes"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/dRide/lib/db"
)

// RunDBBenchmarks runs the benchmarks for a DB implementation
func RunDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("HSet", func(b *testing.B) {
			benchmarkHSet(b, factory())
		})

		b.Run("HGet", func(b *testing.B) {
			benchmarkHGet(b, factory())
		})

		b.Run("HGetAll(1k)", func(b *testing.B) {
			benchmarkHGetAll(b, factory())
		})

		b.Run("GeoAdd", func(b *testing.B) {
			benchmarkGeoAdd(b, factory())
		})

		b.Run("GeoRadius(10k)", func(b *testing.B) {
			benchmarkGeoRadius(b, factory())
		})

		b.Run("SaveLoad", func(b *testing.B) {
			benchmarkSaveLoad(b, factory)
		})
	})
}

func benchmarkHSet(b *testing.B, database db.DB) {
	defer database.Close()
	var idx atomic.Uint64
	value := []byte(`{"id":"d","name":"driver","status":"AVAILABLE"}`)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := idx.Add(1)
			database.HSet("drivers:US", fmt.Sprintf("d%d", i%10000), value, i)
		}
	})
}

func benchmarkHGet(b *testing.B, database db.DB) {
	defer database.Close()
	for i := 0; i < 10000; i++ {
		database.HSet("drivers:US", fmt.Sprintf("d%d", i), []byte("value"), uint64(i+1))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			database.HGet("drivers:US", fmt.Sprintf("d%d", r.Intn(10000)))
		}
	})
}

func benchmarkHGetAll(b *testing.B, database db.DB) {
	defer database.Close()
	for i := 0; i < 1000; i++ {
		database.HSet("rides:US", fmt.Sprintf("r%d", i), []byte("value"), uint64(i+1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.HGetAll("rides:US")
	}
}

func benchmarkGeoAdd(b *testing.B, database db.DB) {
	defer database.Close()
	var idx atomic.Uint64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			i := idx.Add(1)
			p := db.GeoPoint{Lon: r.Float64()*2 - 1, Lat: r.Float64()*2 - 1}
			_ = database.GeoAdd("drivers:geo:US", fmt.Sprintf("d%d", i%10000), p, i)
		}
	})
}

func benchmarkGeoRadius(b *testing.B, database db.DB) {
	defer database.Close()
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		p := db.GeoPoint{Lon: r.Float64()*2 - 1, Lat: r.Float64()*2 - 1}
		_ = database.GeoAdd("drivers:geo:US", fmt.Sprintf("d%d", i), p, uint64(i+1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.GeoRadius("drivers:geo:US", db.GeoPoint{}, 50)
	}
}

func benchmarkSaveLoad(b *testing.B, factory DBFactory) {
	source := factory()
	defer source.Close()
	for i := 0; i < 10000; i++ {
		source.HSet("drivers:US", fmt.Sprintf("d%d", i), []byte("value"), uint64(i+1))
		_ = source.GeoAdd("drivers:geo:US", fmt.Sprintf("d%d", i), db.GeoPoint{Lon: 1, Lat: 1}, uint64(i+1))
	}
	var buf bytes.Buffer
	if err := source.Save(&buf); err != nil {
		b.Fatal(err)
	}
	snapshot := buf.Bytes()

	b.Run("Save", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var out bytes.Buffer
			_ = source.Save(&out)
		}
	})

	b.Run("Load", func(b *testing.B) {
		target := factory()
		defer target.Close()
		for i := 0; i < b.N; i++ {
			_ = target.Load(bytes.NewReader(snapshot))
		}
	})
}
