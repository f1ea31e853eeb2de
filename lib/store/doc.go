// Package store defines IStore, the handle the ride service uses to talk to one
// regional database (a master or one of its replicas). A store combines hash
// collections (field/value records such as drivers:EU) with geo collections
// (members with coordinates, queried by radius).
//
// Implementations:
//
//   - lstore: a single local database, writes are indexed with an atomic counter.
//   - rstore: a local master with an asynchronously updated, lagging replica.
//   - dstore: a Dragonboat raft shard with a linearizable master view and a
//     stale-read replica view.
//   - rpc/client: a store served by a remote dride server.
//
// All implementations report their own failures as *Error with a RetCode, so
// callers can tell a read-only replica (RetCReadOnly) or a canceled request
// (RetCCanceled) from internal failures. The conformance suite in
// lib/store/testing checks that writable implementations behave the same.
package store
