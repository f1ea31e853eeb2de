// Package lockmgr implements locks on top of any store.IStore.
//
// A lock is a field of a hash collection (the ride service uses locks:{region})
// whose value is the owner ID of the holder. The lock manager keeps no state of
// its own, so any number of lock managers can be created on the same store and
// collection.
//
//   - Acquire: HSetEIfUnset writes a fresh owner ID (a random UUID) only if the
//     field is unset. A following HGet tells whether our ID won.
//   - Timeout: the field is written as a lease (deleteIn) and disappears after
//     timeout further writes to the store, so a crashed holder can not block a
//     key forever.
//   - Release: the field is deleted only if it still holds our owner ID.
//
// The lock is as strong as the store under it. On a raft master (dstore) it is
// linearizable. Locks must never be taken on a replica, which rejects the write.
//
// Usage Example:
//
//	locks := lockmgr.NewLockManager(master, "locks:EU")
//	ok, owner, err := locks.AcquireLock(ctx, "driver-42", 1000)
//	if err != nil || !ok {
//		return
//	}
//	defer locks.ReleaseLock(ctx, "driver-42", owner)
package lockmgr
