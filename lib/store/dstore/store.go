package dstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/ValentinKolb/dRide/lib/store/internal"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/client"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	retries = 5
	log     = logger.GetLogger("store")
)

// storeImpl is the raft backed implementation of the store.IStore interface.
// It encapsulates a Dragonboat NodeHost which is used to communicate with the state machine.
type storeImpl struct {
	nh       *dragonboat.NodeHost
	shardID  uint64
	cs       *client.Session
	timeout  time.Duration
	readOnly bool // replica view: stale reads, no writes
}

// NewDistributedStore creates a new distributed store instance which uses raft consensus to ensure strict linearizability
// across multiple nodes. This is the master view of a shard.
func NewDistributedStore(nh *dragonboat.NodeHost, shardID uint64, timeout time.Duration) store.IStore {
	return &storeImpl{
		nh:      nh,
		shardID: shardID,
		cs:      nh.GetNoOPSession(shardID),
		timeout: timeout,
	}
}

// NewReplicaView creates a read-only view of a shard. Reads are served from the
// local node's state machine with StaleRead and may miss writes that are
// committed but not yet applied locally. Writes fail with store.RetCReadOnly.
func NewReplicaView(nh *dragonboat.NodeHost, shardID uint64, timeout time.Duration) store.IStore {
	return &storeImpl{
		nh:       nh,
		shardID:  shardID,
		timeout:  timeout,
		readOnly: true,
	}
}

// --------------------------------------------------------------------------
// Internal write and read operations (used by interface methods)
// --------------------------------------------------------------------------

// wait sleeps before the next retry, returns false if the context is done
func (s *storeImpl) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(s.timeout / 10):
		return true
	}
}

// write serializes a Command and sends it via SyncPropose.
// It returns a *store.Error if an error occurs, or nil on success.
func (s *storeImpl) write(ctx context.Context, cmd internal.Command) error {
	if s.readOnly {
		return store.NewError(store.RetCReadOnly, "writes must be sent to the master")
	}

	data := cmd.Serialize()
	for i := 0; i < retries; i++ {
		if err := store.FromContext(ctx); err != nil {
			return err
		}

		proposeCtx, cancel := context.WithTimeout(ctx, s.timeout)
		res, err := s.nh.SyncPropose(proposeCtx, s.cs, data)
		cancel()

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncPropose: System busy, retrying (%d/%d)...", i+1, retries)
			if !s.wait(ctx) {
				return store.FromContext(ctx)
			}
			continue
		}

		if err != nil {
			if ctxErr := store.FromContext(ctx); ctxErr != nil {
				return ctxErr
			}
			return store.NewError(store.RetCInternalError, err.Error())
		}
		if res.Value != uint64(store.RetCSuccess) {
			return store.NewError(store.RetCode(res.Value), string(res.Data))
		}
		return nil
	}
	return store.NewError(store.RetCInternalError, "timeout")
}

// read is a generic helper function that queries the state machine
// and attempts to convert the response into the expected type R.
//
// The master view uses SyncRead (linearizable), the replica view StaleRead.
// If the read fails due to a system busy error, the function retries up to 5 times.
func read[R any](ctx context.Context, s *storeImpl, q internal.Query) (R, error) {
	var zero R
	for i := 0; i < retries; i++ {
		if err := store.FromContext(ctx); err != nil {
			return zero, err
		}

		var res interface{}
		var err error
		if s.readOnly {
			res, err = s.nh.StaleRead(s.shardID, q)
		} else {
			readCtx, cancel := context.WithTimeout(ctx, s.timeout)
			res, err = s.nh.SyncRead(readCtx, s.shardID, q)
			cancel()
		}

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncRead: System busy, retrying (%d/%d)...", i+1, retries)
			if !s.wait(ctx) {
				return zero, store.FromContext(ctx)
			}
			continue
		}

		if err != nil {
			var storeErr *store.Error
			if errors.As(err, &storeErr) {
				return zero, storeErr
			}
			if ctxErr := store.FromContext(ctx); ctxErr != nil {
				return zero, ctxErr
			}
			return zero, store.NewError(store.RetCInternalError, err.Error())
		}

		// The state machine is expected to return the response in the expected type R.
		casted, ok := res.(R)
		if !ok {
			return zero, store.NewError(store.RetCInternalError,
				fmt.Sprintf("unexpected type: received %T, expected %T", res, zero))
		}
		return casted, nil
	}
	return zero, store.NewError(store.RetCInternalError, "timeout")
}

// --------------------------------------------------------------------------
// Interface Methods (docs see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) HSet(ctx context.Context, collection, field string, value []byte) error {
	return s.write(ctx, internal.Command{Type: internal.CommandTHSet, Collection: collection, Field: field, Value: value})
}

func (s *storeImpl) HSetEIfUnset(ctx context.Context, collection, field string, value []byte, deleteIn uint64) error {
	return s.write(ctx, internal.Command{Type: internal.CommandTHSetEIfUnset, Collection: collection, Field: field, Value: value, DeleteIn: deleteIn})
}

func (s *storeImpl) HDel(ctx context.Context, collection, field string) error {
	return s.write(ctx, internal.Command{Type: internal.CommandTHDel, Collection: collection, Field: field})
}

func (s *storeImpl) HGet(ctx context.Context, collection, field string) ([]byte, bool, error) {
	res, err := read[internal.QueryResult](ctx, s, internal.Query{Type: internal.QueryTHGet, Collection: collection, Field: field})
	if err != nil {
		return nil, false, err
	}
	return res.Value, res.Ok, nil
}

func (s *storeImpl) HGetAll(ctx context.Context, collection string) (map[string][]byte, error) {
	return read[map[string][]byte](ctx, s, internal.Query{Type: internal.QueryTHGetAll, Collection: collection})
}

func (s *storeImpl) GeoAdd(ctx context.Context, key, member string, point db.GeoPoint) error {
	// validate before proposing, a rejected command would still take a log entry
	if err := point.Validate(); err != nil {
		return store.NewError(store.RetCInvalidOperation, err.Error())
	}
	return s.write(ctx, internal.Command{Type: internal.CommandTGeoAdd, Collection: key, Field: member, Point: point})
}

func (s *storeImpl) GeoRemove(ctx context.Context, key, member string) error {
	return s.write(ctx, internal.Command{Type: internal.CommandTGeoRemove, Collection: key, Field: member})
}

func (s *storeImpl) GeoRadius(ctx context.Context, key string, center db.GeoPoint, radiusKm float64) ([]db.GeoMember, error) {
	return read[[]db.GeoMember](ctx, s, internal.Query{Type: internal.QueryTGeoRadius, Collection: key, Center: center, RadiusKm: radiusKm})
}

func (s *storeImpl) GetDBInfo(ctx context.Context) (db.DatabaseInfo, error) {
	// metadata does not need to be linearizable
	res, err := s.nh.StaleRead(s.shardID, internal.Query{Type: internal.QueryTGetDBInfo})
	if err != nil {
		return db.DatabaseInfo{}, store.NewError(store.RetCInternalError, err.Error())
	}
	info, ok := res.(db.DatabaseInfo)
	if !ok {
		return db.DatabaseInfo{}, store.NewError(store.RetCInternalError, fmt.Sprintf("unexpected type: received %T", res))
	}
	return info, nil
}
