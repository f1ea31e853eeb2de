// Package internal holds the operation format shared by the store
// implementations (lstore, rstore, dstore).
//
// Commands are write operations. They are serialized into the raft log by dstore
// and shipped through the replication log by rstore. Apply executes a command on
// a db.DB at a given write index, so every implementation applies writes the same way.
//
// Command Format:
//
//   - 1 byte: command type
//   - 8 bytes: deleteIn (uint64, big endian)
//   - 8 bytes: longitude, 8 bytes: latitude (float64 bits, big endian)
//   - 4 bytes: collection length, N bytes: collection
//   - 4 bytes: field length, N bytes: field
//   - M bytes: value (optional)
//
// Queries are read operations. They are never persisted and are passed to Lookup
// (or dragonboat's SyncRead/StaleRead) as plain structs.
package internal
