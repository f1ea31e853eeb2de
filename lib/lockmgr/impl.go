package lockmgr

import (
	"bytes"
	"context"

	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/google/uuid"
)

type lockMgrImpl struct {
	store      store.IStore
	collection string
}

// NewLockManager creates a lock manager that keeps its locks as fields of the
// given hash collection (e.g. locks:EU) in the store.
func NewLockManager(s store.IStore, collection string) ILockManager {
	return &lockMgrImpl{
		store:      s,
		collection: collection,
	}
}

func (lm *lockMgrImpl) AcquireLock(ctx context.Context, key string, timeout uint64) (bool, []byte, error) {
	id := uuid.New()
	ownerID := id[:]

	// only one writer can create the field, HSetEIfUnset does not overwrite
	if err := lm.store.HSetEIfUnset(ctx, lm.collection, key, ownerID, timeout); err != nil {
		return false, nil, err
	}

	value, found, err := lm.store.HGet(ctx, lm.collection, key)
	if err != nil {
		return false, nil, err
	}
	if found && bytes.Equal(value, ownerID) {
		return true, ownerID, nil
	}
	return false, nil, nil
}

func (lm *lockMgrImpl) ReleaseLock(ctx context.Context, key string, ownerID []byte) (bool, error) {
	value, ok, err := lm.store.HGet(ctx, lm.collection, key)
	if err != nil || !ok {
		return err == nil, err
	}

	if !bytes.Equal(ownerID, value) {
		return false, nil
	}

	err = lm.store.HDel(ctx, lm.collection, key)
	return err == nil, err
}
