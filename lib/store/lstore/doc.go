// Package lstore implements a local, in-memory, single-node store based on the
// store.IStore interface. It is a thin wrapper around any db.DB implementation
// with automatic write index management. Data is not persisted between process restarts.
//
// Every write gets the next value of an atomic counter as its write index. The
// counter is the logical clock that leases (HSetEIfUnset with deleteIn) are measured in.
//
// Usage Example:
//
//	s := lstore.NewLocalStore(func() db.DB { return maple.NewMapleDB(nil) })
//	err := s.HSet(ctx, "drivers:EU", "d1", data)
//	value, ok, err := s.HGet(ctx, "drivers:EU", "d1")
//
// For a master with a lagging read replica see the rstore package, for
// raft replicated shards the dstore package.
package lstore
