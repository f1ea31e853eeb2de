// Package db provides the interface for the hash-and-geo databases that back
// the ride store shards.
//
// Key Components:
//
//   - DB Interface: The core interface that all database implementations must satisfy.
//     It provides hash operations (HSet, HSetEIfUnset, HGet, HGetAll, HDel),
//     geo operations (GeoAdd, GeoRemove, GeoRadius), persistence (Save, Load)
//     and write index management.
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     advertise through SupportsFeature.
//
//   - Geo Types: GeoPoint and GeoMember describe positions and radius query results.
//     Only points within the web mercator bounds can be indexed.
//
// Note on Write Indexes:
//   - Every write carries a write index that serves as a logical timestamp. A write
//     with an index lower than the one stored for an entry is ignored, which makes
//     replaying a replication log idempotent.
//   - Leases created by HSetEIfUnset expire relative to the write index, not wall time.
//     Use SetWriteIdx to advance the logical clock without writing.
//   - Reads never return entries that are logically deleted, even if the garbage
//     collector did not remove them yet.
//
// The engines/maple package provides the in-memory implementation, the testing
// package a conformance suite that every implementation should pass.
package db
