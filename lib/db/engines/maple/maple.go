package maple

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/db/engines/maple/internal"
	"github.com/ValentinKolb/dRide/lib/db/util"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	magicNum          = "MAPLEDB\x00"          // File format identifier
	mapleVersion      = 4                      // Database version
	defaultGCInterval = 100 * time.Millisecond // Default interval between GC runs
)

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

// mapleImpl is an in-memory hash-and-geo database. Collections are spread over
// shards by the seeded hash of their name.
type mapleImpl struct {
	numShards int
	seed      uint64
	shards    []*internal.Shard
	currIndex atomic.Uint64

	gcInterval  time.Duration
	gcIsRunning atomic.Bool
}

// DBOptions configures the mapleImpl behavior during initialization
type DBOptions struct {
	NumShards  int           // Number of shards
	GCInterval time.Duration // Time between GC runs (0 = default)
}

// DefaultOptions returns the default mapleImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumShards:  runtime.NumCPU(),
		GCInterval: defaultGCInterval,
	}
}

// NewMapleDB creates a new MapleDB instance with the specified options (optional)
func NewMapleDB(opts *DBOptions) db.DB {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.NumShards <= 0 {
		opts.NumShards = runtime.NumCPU()
	}
	if opts.GCInterval <= 0 {
		opts.GCInterval = defaultGCInterval
	}

	maple := &mapleImpl{
		numShards:  opts.NumShards,
		seed:       util.GenerateSeed(),
		shards:     newShards(opts.NumShards),
		gcInterval: opts.GCInterval,
	}
	maple.startGC()
	return maple
}

func newShards(n int) []*internal.Shard {
	shards := make([]*internal.Shard, n)
	for i := range shards {
		shards[i] = internal.NewShard()
	}
	return shards
}

func (maple *mapleImpl) shardFor(collection string) *internal.Shard {
	return internal.GetShard(util.HashString(collection, maple.seed), maple.shards)
}

// --------------------------------------------------------------------------
// Hash Write Operations
// --------------------------------------------------------------------------

// HSet inserts or overwrites a field. Stale writes are ignored.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) HSet(collection, field string, value []byte, writeIndex uint64) {
	maple.compute(collection, field, value, writeIndex, 0, func(new, _ internal.Entry, _ bool) internal.Entry {
		return new
	})
}

// HSetEIfUnset inserts a field only if it does not exist (or is logically deleted).
// A deleteIn > 0 turns the field into a lease that is removed once the write
// index reaches writeIndex+deleteIn.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) HSetEIfUnset(collection, field string, value []byte, writeIndex, deleteIn uint64) {
	maple.compute(collection, field, value, writeIndex, deleteIn, func(new, old internal.Entry, loaded bool) internal.Entry {
		if loaded {
			return old
		}
		return new
	})
}

// compute is the shared write path of HSet and HSetEIfUnset.
// fn receives the new entry and the current one (loaded is false if there is
// none or it is logically deleted) and returns the entry to store.
func (maple *mapleImpl) compute(collection, field string, value []byte, writeIndex, deleteIn uint64, fn func(new, old internal.Entry, loaded bool) internal.Entry) {
	maple.SetWriteIdx(writeIndex)

	shard := maple.shardFor(collection)
	hash := shard.Hash(collection, true)

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	var deleteAt uint64
	if deleteIn > 0 {
		deleteAt = writeIndex + deleteIn
	}

	var lease bool
	hash.Compute(field, func(old internal.Entry, exists bool) (internal.Entry, bool) {
		if exists && writeIndex < old.Index {
			// stale write
			return old, false
		}

		loaded := exists && !old.IsDeleted(writeIndex)
		entry := fn(internal.Entry{
			Value:    valueCopy,
			DeleteAt: deleteAt,
			Index:    writeIndex,
		}, old, loaded)

		lease = entry.DeleteAt != 0
		return entry, false
	})

	if lease {
		shard.Events.Push(&internal.Event{
			Type: internal.EventTLease,
			Ref:  internal.FieldRef{Collection: collection, Field: field},
		})
	}
}

// HDel removes a field. The removal is immediate, a pending lease is dropped from the gc.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) HDel(collection, field string, writeIndex uint64) {
	maple.SetWriteIdx(writeIndex)

	shard := maple.shardFor(collection)
	hash := shard.Hash(collection, false)
	if hash == nil {
		return
	}

	var removed bool
	hash.Compute(field, func(old internal.Entry, exists bool) (internal.Entry, bool) {
		if !exists {
			return old, true
		}
		if writeIndex < old.Index {
			return old, false
		}
		removed = old.DeleteAt != 0
		return old, true
	})

	if removed {
		shard.Events.Push(&internal.Event{
			Type: internal.EventTRemove,
			Ref:  internal.FieldRef{Collection: collection, Field: field},
		})
	}
}

// --------------------------------------------------------------------------
// Hash Read Operations
// --------------------------------------------------------------------------

// HGet returns a copy of the field value.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) HGet(collection, field string) ([]byte, bool) {
	hash := maple.shardFor(collection).Hash(collection, false)
	if hash == nil {
		return nil, false
	}

	entry, ok := hash.Load(field)
	if !ok || entry.IsDeleted(maple.currIndex.Load()) {
		return nil, false
	}

	data := make([]byte, len(entry.Value))
	copy(data, entry.Value)
	return data, true
}

// HGetAll returns copies of all live fields of a collection.
// The result is not a consistent cut if the collection is modified concurrently.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) HGetAll(collection string) map[string][]byte {
	result := make(map[string][]byte)

	hash := maple.shardFor(collection).Hash(collection, false)
	if hash == nil {
		return result
	}

	writeIdx := maple.currIndex.Load()
	hash.Range(func(field string, entry internal.Entry) bool {
		if entry.IsDeleted(writeIdx) {
			return true
		}
		data := make([]byte, len(entry.Value))
		copy(data, entry.Value)
		result[field] = data
		return true
	})
	return result
}

// --------------------------------------------------------------------------
// Geo Operations
// --------------------------------------------------------------------------

// GeoAdd inserts or moves a member.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) GeoAdd(key, member string, point db.GeoPoint, writeIndex uint64) error {
	if err := point.Validate(); err != nil {
		return err
	}
	maple.SetWriteIdx(writeIndex)

	geo := maple.shardFor(key).GeoSet(key, true)
	geo.Compute(member, func(old internal.GeoEntry, exists bool) (internal.GeoEntry, bool) {
		if exists && writeIndex < old.Index {
			return old, false
		}
		return internal.GeoEntry{Point: point, Index: writeIndex}, false
	})
	return nil
}

// GeoRemove removes a member.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) GeoRemove(key, member string, writeIndex uint64) {
	maple.SetWriteIdx(writeIndex)

	geo := maple.shardFor(key).GeoSet(key, false)
	if geo == nil {
		return
	}
	geo.Compute(member, func(old internal.GeoEntry, exists bool) (internal.GeoEntry, bool) {
		if exists && writeIndex < old.Index {
			return old, false
		}
		return old, true
	})
}

// GeoRadius returns the members within radiusKm of center, nearest first.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) GeoRadius(key string, center db.GeoPoint, radiusKm float64) []db.GeoMember {
	result := make([]db.GeoMember, 0)

	geo := maple.shardFor(key).GeoSet(key, false)
	if geo == nil || radiusKm < 0 || math.IsNaN(radiusKm) {
		return result
	}

	geo.Range(func(member string, entry internal.GeoEntry) bool {
		dist := util.HaversineKm(center.Lon, center.Lat, entry.Point.Lon, entry.Point.Lat)
		if dist <= radiusKm {
			result = append(result, db.GeoMember{Member: member, DistKm: dist, Point: entry.Point})
		}
		return true
	})

	sort.Slice(result, func(i, j int) bool {
		if result[i].DistKm != result[j].DistKm {
			return result[i].DistKm < result[j].DistKm
		}
		return result[i].Member < result[j].Member
	})
	return result
}

// --------------------------------------------------------------------------
// Garbage Collection
// --------------------------------------------------------------------------

// startGC starts one gc goroutine per shard, if the gc is not running yet
func (maple *mapleImpl) startGC() {
	if maple.gcIsRunning.CompareAndSwap(false, true) {
		for _, shard := range maple.shards {
			go maple.garbageCollector(shard)
		}
	}
}

// stopGC stops the gc goroutines of the current shards
func (maple *mapleImpl) stopGC() {
	if maple.gcIsRunning.CompareAndSwap(true, false) {
		for _, shard := range maple.shards {
			shard.Events.Close()
		}
	}
}

// garbageCollector removes expired leases of one shard.
// It is the only goroutine touching the DeleteHeap of its shard.
func (maple *mapleImpl) garbageCollector(shard *internal.Shard) {
	gcTimer := time.NewTimer(maple.gcInterval)
	defer gcTimer.Stop()

	for {
		gcTimer.Reset(maple.gcInterval)

		endLoop := false
		for !endLoop {
			select {
			case event, ok := <-shard.Events.Recv():
				if !ok {
					return
				}
				switch event.Type {
				case internal.EventTLease:
					if hash := shard.Hash(event.Ref.Collection, false); hash != nil {
						if entry, ok := hash.Load(event.Ref.Field); ok && entry.DeleteAt != 0 {
							shard.DeleteHeap.AddItem(event.Ref, entry.DeleteAt)
						}
					}
				case internal.EventTRemove:
					shard.DeleteHeap.RemoveByKey(event.Ref)
				default:
					panic(fmt.Sprintf("unknown event %s", event))
				}
			case <-gcTimer.C:
				endLoop = true
			}
		}

		// read the index once so a busy shard can not keep the sweep running forever
		writeIndex := maple.currIndex.Load()

		for {
			item, exists := shard.DeleteHeap.Peek()
			if !exists || item.Priority > writeIndex {
				break
			}

			if hash := shard.Hash(item.Key.Collection, false); hash != nil {
				hash.Compute(item.Key.Field, func(e internal.Entry, loaded bool) (internal.Entry, bool) {
					if !loaded {
						return e, true
					}
					// the field may have been overwritten after it was scheduled
					return e, e.IsDeleted(writeIndex)
				})
			}

			// a rewritten lease produces a new event and is scheduled again
			shard.DeleteHeap.RemoveByKey(item.Key)
		}
	}
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

type savedField struct {
	ref   internal.FieldRef
	entry internal.Entry
}

type savedMember struct {
	key    string
	member string
	entry  internal.GeoEntry
}

// Save writes a fuzzy snapshot of the database to w.
// Concurrent reads and writes are allowed but may or may not be part of the snapshot.
func (maple *mapleImpl) Save(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 1024*1024)
	writeIdx := maple.currIndex.Load()

	var fields []savedField
	var members []savedMember
	for _, shard := range maple.shards {
		shard.Hashes.Range(func(collection string, hash *internal.HashMap) bool {
			hash.Range(func(field string, entry internal.Entry) bool {
				if entry.IsDeleted(writeIdx) {
					return true
				}
				value := make([]byte, len(entry.Value))
				copy(value, entry.Value)
				entry.Value = value
				fields = append(fields, savedField{internal.FieldRef{Collection: collection, Field: field}, entry})
				return true
			})
			return true
		})
		shard.Geo.Range(func(key string, geo *internal.GeoMap) bool {
			geo.Range(func(member string, entry internal.GeoEntry) bool {
				members = append(members, savedMember{key, member, entry})
				return true
			})
			return true
		})
	}

	enc := &encoder{w: bw}
	enc.raw([]byte(magicNum))
	enc.u8(mapleVersion)
	enc.u64(maple.seed)
	enc.u64(writeIdx)

	enc.u64(uint64(len(fields)))
	for _, f := range fields {
		enc.str(f.ref.Collection)
		enc.str(f.ref.Field)
		enc.u64(f.entry.DeleteAt)
		enc.u64(f.entry.Index)
		enc.bytes(f.entry.Value)
	}

	enc.u64(uint64(len(members)))
	for _, m := range members {
		enc.str(m.key)
		enc.str(m.member)
		enc.f64(m.entry.Point.Lon)
		enc.f64(m.entry.Point.Lat)
		enc.u64(m.entry.Index)
	}

	if enc.err != nil {
		return enc.err
	}
	return bw.Flush()
}

// Load replaces the database content with a snapshot created by Save.
//
// Thread-safety: This function must not be called concurrently with any other method.
func (maple *mapleImpl) Load(r io.Reader) error {
	dec := &decoder{r: bufio.NewReaderSize(r, 1024*1024)}

	if magic := dec.raw(len(magicNum)); dec.err == nil && string(magic) != magicNum {
		return fmt.Errorf("invalid file format: magic number mismatch")
	}
	if version := dec.u8(); dec.err == nil && int(version) != mapleVersion {
		return fmt.Errorf("unsupported version: %d (expected %d)", version, mapleVersion)
	}
	seed := dec.u64()
	writeIdx := dec.u64()
	if dec.err != nil {
		return dec.err
	}

	// the gc goroutines belong to the old shards
	maple.stopGC()
	defer maple.startGC()

	maple.shards = newShards(maple.numShards)
	maple.seed = seed
	maple.currIndex.Store(0)

	fieldCount := dec.u64()
	for i := uint64(0); i < fieldCount && dec.err == nil; i++ {
		ref := internal.FieldRef{Collection: dec.str(), Field: dec.str()}
		entry := internal.Entry{DeleteAt: dec.u64(), Index: dec.u64(), Value: dec.bytes()}
		if dec.err != nil {
			break
		}
		shard := maple.shardFor(ref.Collection)
		shard.Hash(ref.Collection, true).Store(ref.Field, entry)

		// the gc is stopped, the heap can be filled directly
		if entry.DeleteAt != 0 {
			shard.DeleteHeap.AddItem(ref, entry.DeleteAt)
		}
	}

	memberCount := dec.u64()
	for i := uint64(0); i < memberCount && dec.err == nil; i++ {
		key, member := dec.str(), dec.str()
		entry := internal.GeoEntry{Point: db.GeoPoint{Lon: dec.f64(), Lat: dec.f64()}, Index: dec.u64()}
		if dec.err != nil {
			break
		}
		maple.shardFor(key).GeoSet(key, true).Store(member, entry)
	}

	if dec.err != nil {
		return dec.err
	}

	maple.SetWriteIdx(writeIdx)
	return nil
}

// encoder and decoder keep the first error and turn all further calls into no-ops

type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) raw(b []byte) {
	if e.err == nil {
		_, e.err = e.w.Write(b)
	}
}

func (e *encoder) u8(v uint8) {
	e.raw([]byte{v})
}

func (e *encoder) u64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	e.raw(buf[:])
}

func (e *encoder) f64(v float64) {
	e.u64(math.Float64bits(v))
}

func (e *encoder) bytes(b []byte) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(len(b)))
	e.raw(buf[:])
	e.raw(b)
}

func (e *encoder) str(s string) {
	e.bytes([]byte(s))
}

type decoder struct {
	r   io.Reader
	err error
}

func (d *decoder) raw(n int) []byte {
	if d.err != nil {
		return nil
	}
	buf := make([]byte, n)
	_, d.err = io.ReadFull(d.r, buf)
	return buf
}

func (d *decoder) u8() uint8 {
	if b := d.raw(1); d.err == nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u64() uint64 {
	if b := d.raw(8); d.err == nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (d *decoder) f64() float64 {
	return math.Float64frombits(d.u64())
}

func (d *decoder) bytes() []byte {
	b := d.raw(4)
	if d.err != nil {
		return nil
	}
	return d.raw(int(binary.LittleEndian.Uint32(b)))
}

func (d *decoder) str() string {
	return string(d.bytes())
}

// --------------------------------------------------------------------------
// Features and Metadata
// --------------------------------------------------------------------------

const supportedFeatures = db.FeatureHSet |
	db.FeatureHSetEIfUnset |
	db.FeatureHGet |
	db.FeatureHGetAll |
	db.FeatureHDel |
	db.FeatureGeoAdd |
	db.FeatureGeoRemove |
	db.FeatureGeoRadius |
	db.FeatureSave |
	db.FeatureLoad |
	db.FeatureGarbageCollect

// GetInfo scans all shards and reports sizes and the shard distribution
func (maple *mapleImpl) GetInfo() db.DatabaseInfo {
	writeIdx := maple.currIndex.Load()

	var (
		sizeBytes   int
		collections int
		fields      int
		geoKeys     int
		members     int
		leases      int
		shardSizes  = make([]float64, len(maple.shards))
	)

	for i, shard := range maple.shards {
		shard.Hashes.Range(func(collection string, hash *internal.HashMap) bool {
			collections++
			hash.Range(func(field string, entry internal.Entry) bool {
				if entry.IsDeleted(writeIdx) {
					return true
				}
				fields++
				if entry.DeleteAt != 0 {
					leases++
				}
				// 16 bytes of metadata per entry
				sizeBytes += len(collection) + len(field) + len(entry.Value) + 16
				return true
			})
			return true
		})
		shard.Geo.Range(func(key string, geo *internal.GeoMap) bool {
			geoKeys++
			geo.Range(func(member string, _ internal.GeoEntry) bool {
				members++
				// two coordinates and the index
				sizeBytes += len(key) + len(member) + 24
				return true
			})
			return true
		})
		shardSizes[i] = float64(shard.Size())
	}

	meta := &struct {
		CurrentWriteIndex uint64                 `json:"current_write_index"`
		ShardCount        int                    `json:"shard_count"`
		ShardDistribution util.DistributionStats `json:"shard_distribution"`
		HashCollections   int                    `json:"hash_collections"`
		HashFields        int                    `json:"hash_fields"`
		Leases            int                    `json:"leases"`
		GeoCollections    int                    `json:"geo_collections"`
		GeoMembers        int                    `json:"geo_members"`
	}{
		CurrentWriteIndex: writeIdx,
		ShardCount:        len(maple.shards),
		ShardDistribution: util.NewDistributionStats(shardSizes),
		HashCollections:   collections,
		HashFields:        fields,
		Leases:            leases,
		GeoCollections:    geoKeys,
		GeoMembers:        members,
	}

	var features []db.Feature
	for f := db.FeatureHSet; f <= db.FeatureGarbageCollect; f <<= 1 {
		if supportedFeatures&f == f {
			features = append(features, f)
		}
	}

	return db.DatabaseInfo{
		SizeBytes:         sizeBytes,
		DbType:            db.ImplMaple,
		SupportedFeatures: features,
		Metadata:          meta,
	}
}

// SupportsFeature checks if this implementation supports the given features
func (maple *mapleImpl) SupportsFeature(feature db.Feature) bool {
	return supportedFeatures&feature == feature
}

// Close stops the garbage collector
func (maple *mapleImpl) Close() error {
	maple.stopGC()
	return nil
}

// --------------------------------------------------------------------------
// Index Management
// --------------------------------------------------------------------------

// SetWriteIdx moves the write index forward. Lower indexes are ignored.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) SetWriteIdx(newIdx uint64) {
	for {
		currIdx := maple.currIndex.Load()
		if newIdx <= currIdx {
			return
		}
		if maple.currIndex.CompareAndSwap(currIdx, newIdx) {
			return
		}
	}
}

// WriteIdx returns the current write index
func (maple *mapleImpl) WriteIdx() uint64 {
	return maple.currIndex.Load()
}
