// Package maple implements the in-memory hash-and-geo database (db.DB).
//
// Key Components:
//
//   - mapleImpl: manages the shards, the write index and the gc goroutines.
//     The write index is not generated by the database itself, the caller passes
//     it with every write (a local counter, a raft log index, the index shipped
//     with a replication log entry, ...).
//
//   - Shard: a partition holding every hash and geo collection whose name hashes
//     to it. Collections are xsync maps, so operations on different fields of the
//     same collection do not block each other.
//
//   - Entry / GeoEntry: a field value or member position together with the write
//     index of its last update. Writes with a lower index are ignored.
//
// Leases:
//
// HSetEIfUnset with deleteIn > 0 creates a field that disappears once the write
// index reaches its deletion index. Reads check the deletion index themselves, the
// gc only frees the memory. Each shard has one gc goroutine that receives lease
// events through a lock-free MPSC queue, keeps them in a keyed heap and sweeps
// everything that is due on every interval.
//
// Geo Queries:
//
// GeoRadius computes the haversine distance of every member of the collection
// and returns the ones inside the radius sorted by distance (ties by member name).
// Geo collections in this system hold the drivers of one region, a linear scan
// keeps the index exact and simple.
//
// Persistence Format:
//  1. Magic number "MAPLEDB\x00"
//  2. Version (currently 4)
//  3. Seed and write index
//  4. Number of hash fields, then per field: collection, field, deletion index, write index, value
//  5. Number of geo members, then per member: key, member, lon, lat, write index
//
// Strings and values are prefixed with their uint32 length, numbers are little
// endian. Snapshots are fuzzy, the caller has to provide consistency if needed.
package maple
