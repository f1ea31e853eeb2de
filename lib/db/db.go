package db

import (
	"errors"
	"fmt"
	"io"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMaple Implementation = "maple"
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureHSet           Feature = 1 << iota // Support for HSet operations
	FeatureHSetEIfUnset                       // Support for HSetEIfUnset operations (leases)
	FeatureHGet                               // Support for HGet operations
	FeatureHGetAll                            // Support for HGetAll operations
	FeatureHDel                               // Support for HDel operations
	FeatureGeoAdd                             // Support for GeoAdd operations
	FeatureGeoRemove                          // Support for GeoRemove operations
	FeatureGeoRadius                          // Support for GeoRadius operations
	FeatureSave                               // Support for Save operations
	FeatureLoad                               // Support for Load operations
	FeatureGarbageCollect                     // Support for GarbageCollect operations
)

func (f Feature) String() string {
	switch f {
	case FeatureHSet:
		return "HSet"
	case FeatureHSetEIfUnset:
		return "HSetEIfUnset"
	case FeatureHGet:
		return "HGet"
	case FeatureHGetAll:
		return "HGetAll"
	case FeatureHDel:
		return "HDel"
	case FeatureGeoAdd:
		return "GeoAdd"
	case FeatureGeoRemove:
		return "GeoRemove"
	case FeatureGeoRadius:
		return "GeoRadius"
	case FeatureSave:
		return "Save"
	case FeatureLoad:
		return "Load"
	case FeatureGarbageCollect:
		return "GarbageCollect"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Geo Types
// --------------------------------------------------------------------------

// Bounds of the indexable area. The latitude limit is the one used by web
// mercator based geo indexes, points closer to the poles are rejected.
const (
	MinLongitude = -180.0
	MaxLongitude = 180.0
	MinLatitude  = -85.05112878
	MaxLatitude  = 85.05112878
)

// ErrInvalidPoint is returned by GeoAdd for coordinates outside the indexable area
var ErrInvalidPoint = errors.New("invalid geo point")

// GeoPoint is a position given as longitude and latitude in degrees
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Validate returns ErrInvalidPoint (wrapped) if the point can not be indexed
func (p GeoPoint) Validate() error {
	if p.Lon < MinLongitude || p.Lon > MaxLongitude || p.Lat < MinLatitude || p.Lat > MaxLatitude {
		return fmt.Errorf("%w: lon=%f lat=%f", ErrInvalidPoint, p.Lon, p.Lat)
	}
	return nil
}

// GeoMember is a single result of a radius query
type GeoMember struct {
	Member string   `json:"member"`
	DistKm float64  `json:"dist_km"`
	Point  GeoPoint `json:"point"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// DB defines the interface for hash-and-geo database implementations.
//
// Data is organized in named collections. A hash collection maps field names to
// byte values, a geo collection maps member names to points. Hash and geo
// collections live in separate namespaces, so the same name may be used for both.
// Implementations can vary in their feature support, which can be queried with SupportsFeature.
type DB interface {

	// --------------------------------------------------------------------------
	// Hash Write Operations
	// --------------------------------------------------------------------------

	// HSet inserts or updates the field of a hash collection.
	// The writeIndex parameter is used as a logical timestamp for the entry,
	// writes with an index lower than the stored one are ignored.
	HSet(collection, field string, value []byte, writeIndex uint64)

	// HSetEIfUnset inserts the field only if it does not exist yet.
	// If deleteIn > 0 the field is deleted once the write index reaches writeIndex+deleteIn.
	HSetEIfUnset(collection, field string, value []byte, writeIndex, deleteIn uint64)

	// HDel removes the field from the hash collection.
	HDel(collection, field string, writeIndex uint64)

	// --------------------------------------------------------------------------
	// Hash Query Operations
	// --------------------------------------------------------------------------

	// HGet retrieves the value of a field.
	// The boolean return value indicates whether the field was found.
	HGet(collection, field string) (value []byte, loaded bool)

	// HGetAll returns a copy of all live fields of a collection.
	// An unknown collection results in an empty (non-nil) map.
	HGetAll(collection string) map[string][]byte

	// --------------------------------------------------------------------------
	// Geo Operations
	// --------------------------------------------------------------------------

	// GeoAdd inserts or moves a member of a geo collection.
	// Returns ErrInvalidPoint if the point is outside the indexable area.
	GeoAdd(key, member string, point GeoPoint, writeIndex uint64) error

	// GeoRemove removes a member from a geo collection.
	GeoRemove(key, member string, writeIndex uint64)

	// GeoRadius returns all members within radiusKm of center, ordered by
	// ascending distance. Members with equal distance are ordered by name.
	GeoRadius(key string, center GeoPoint, radiusKm float64) []GeoMember

	// --------------------------------------------------------------------------
	// Persistence Operations
	// --------------------------------------------------------------------------

	// Save persists the current state of the database to the provided io.Writer.
	Save(w io.Writer) (err error)

	// Load restores the database state data provided by an io.Reader.
	Load(r io.Reader) (err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// --------------------------------------------------------------------------
	// Write Index Operations
	// --------------------------------------------------------------------------

	// SetWriteIdx sets the current index of the database only if the provided index is greater than the current index.
	SetWriteIdx(index uint64)

	// WriteIdx returns the current index of the database.
	WriteIdx() (index uint64)

	// Close closes the database.
	Close() (err error)
}
