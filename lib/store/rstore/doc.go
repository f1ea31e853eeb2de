// Package rstore implements an in-process master/replica pair of stores.
//
// The master applies writes synchronously and appends them to a replication log
// (a util.LockFreeMPSC). A single follower goroutine applies the log to the
// replica database after a configurable lag, so reads from the replica can
// observe old data. This models an eventually consistent read replica of a
// regional database.
//
// Master writes are serialized, which gives every write a unique write index
// and makes the replica apply the exact same sequence the master applied.
// Leases (HSetEIfUnset with deleteIn) therefore expire on both sides at the
// same logical time.
//
// Usage Example:
//
//	pair := rstore.NewReplicatedPair(func() db.DB { return maple.NewMapleDB(nil) }, 50*time.Millisecond)
//	defer pair.Close()
//
//	_ = pair.Master().HSet(ctx, "drivers:EU", "d1", data)
//	_, ok, _ := pair.Replica().HGet(ctx, "drivers:EU", "d1") // ok may still be false
//	_ = pair.WaitForSync(ctx)                                 // now it is true
package rstore
