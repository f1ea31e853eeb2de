package internal

import (
	"fmt"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/db/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Event Types are used to signal changes to the gc of a shard
// --------------------------------------------------------------------------

type EventType int

const (
	EventTLease  EventType = iota // a field with a deletion time was written
	EventTRemove                  // a field was removed, stop tracking it
)

func (e EventType) String() string {
	switch e {
	case EventTLease:
		return "Lease"
	case EventTRemove:
		return "Remove"
	default:
		return "Unknown"
	}
}

// FieldRef addresses a single field of a hash collection
type FieldRef struct {
	Collection string
	Field      string
}

type Event struct {
	Type EventType
	Ref  FieldRef
}

func (e Event) String() string {
	return fmt.Sprintf("Event{Type: %s, Ref: %s/%s}", e.Type, e.Ref.Collection, e.Ref.Field)
}

// --------------------------------------------------------------------------
// Entry Types
// --------------------------------------------------------------------------

// Entry is the value of a hash field with metadata
type Entry struct {
	Value    []byte
	DeleteAt uint64 // 0 = never
	Index    uint64 // write index of the last update
}

// IsDeleted reports whether the entry is logically deleted at the given write index
func (e Entry) IsDeleted(writeIdx uint64) bool {
	return e.DeleteAt != 0 && writeIdx >= e.DeleteAt
}

// GeoEntry is the position of a geo member
type GeoEntry struct {
	Point db.GeoPoint
	Index uint64
}

// --------------------------------------------------------------------------
// Shard Type (partition of the database)
// --------------------------------------------------------------------------

type (
	HashMap = xsync.MapOf[string, Entry]
	GeoMap  = xsync.MapOf[string, GeoEntry]
)

// Shard holds all collections whose name hashes to it.
// The DeleteHeap is owned by the gc goroutine of the shard and must not be touched elsewhere.
type Shard struct {
	Hashes     *xsync.MapOf[string, *HashMap]
	Geo        *xsync.MapOf[string, *GeoMap]
	DeleteHeap *util.MapHeap[FieldRef]
	Events     *util.LockFreeMPSC[Event] // closed to stop the gc of this shard
}

func NewShard() *Shard {
	return &Shard{
		Hashes:     xsync.NewMapOf[string, *HashMap](),
		Geo:        xsync.NewMapOf[string, *GeoMap](),
		DeleteHeap: util.NewMapHeap[FieldRef](),
		Events:     util.NewLockFreeMPSC[Event](),
	}
}

// Hash returns the map of a hash collection. If create is false and the
// collection does not exist, nil is returned.
func (s *Shard) Hash(collection string, create bool) *HashMap {
	if !create {
		h, _ := s.Hashes.Load(collection)
		return h
	}
	h, _ := s.Hashes.LoadOrCompute(collection, func() *HashMap {
		return xsync.NewMapOf[string, Entry]()
	})
	return h
}

// GeoSet returns the map of a geo collection, see Hash.
func (s *Shard) GeoSet(key string, create bool) *GeoMap {
	if !create {
		g, _ := s.Geo.Load(key)
		return g
	}
	g, _ := s.Geo.LoadOrCompute(key, func() *GeoMap {
		return xsync.NewMapOf[string, GeoEntry]()
	})
	return g
}

// Size returns the number of hash fields and geo members stored in the shard
func (s *Shard) Size() int {
	size := 0
	s.Hashes.Range(func(_ string, h *HashMap) bool {
		size += h.Size()
		return true
	})
	s.Geo.Range(func(_ string, g *GeoMap) bool {
		size += g.Size()
		return true
	})
	return size
}

// GetShard returns the shard responsible for a hashed collection name
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func GetShard[T any](key util.UintKey, shards []*T) *T {
	// the higher bits are better distributed
	shiftedKey := uint64(key) >> 7
	return shards[shiftedKey%uint64(len(shards))]
}
