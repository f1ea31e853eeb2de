package internal

import "github.com/ValentinKolb/dRide/lib/db"

// QueryType defines the possible read operations.
type QueryType uint8

const (
	QueryTHGet      QueryType = iota // Retrieve a hash field.
	QueryTHGetAll                    // Retrieve all fields of a hash collection.
	QueryTGeoRadius                  // Radius search in a geo collection.
	QueryTGetDBInfo                  // Retrieve metadata about the database.
)

func (q QueryType) String() string {
	switch q {
	case QueryTHGet:
		return "HGet"
	case QueryTHGetAll:
		return "HGetAll"
	case QueryTGeoRadius:
		return "GeoRadius"
	case QueryTGetDBInfo:
		return "GetDBInfo"
	default:
		return "Unknown"
	}
}

// ToDBFeature converts a QueryType to the db.Feature it needs (0 if none is needed).
func (q QueryType) ToDBFeature() db.Feature {
	switch q {
	case QueryTHGet:
		return db.FeatureHGet
	case QueryTHGetAll:
		return db.FeatureHGetAll
	case QueryTGeoRadius:
		return db.FeatureGeoRadius
	default:
		return 0
	}
}

// Query is a read request. Queries are executed in-process and therefore not serialized.
type Query struct {
	Type       QueryType
	Collection string // collection or geo key (empty for GetDBInfo)
	Field      string
	Center     db.GeoPoint
	RadiusKm   float64
}

// QueryResult is the result of a QueryTHGet operation.
// All other query results are map[string][]byte, []db.GeoMember or db.DatabaseInfo.
type QueryResult struct {
	Ok    bool
	Value []byte
}
