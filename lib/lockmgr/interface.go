package lockmgr

import "context"

// ILockManager defines the interface for a lock provider.
type ILockManager interface {
	// AcquireLock acquires the lock for the given key. A timeout > 0 releases the
	// lock automatically after that many further writes to the underlying store.
	// Returns whether the lock was acquired and, if so, the owner ID needed to release it.
	AcquireLock(ctx context.Context, key string, timeout uint64) (ok bool, ownerID []byte, err error)

	// ReleaseLock releases the lock for the given key if ownerID holds it.
	// Returns true as well if the lock did not exist (anymore).
	ReleaseLock(ctx context.Context, key string, ownerID []byte) (ok bool, err error)
}
