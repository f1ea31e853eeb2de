package lstore

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/ValentinKolb/dRide/lib/store/internal"
)

type storeImpl struct {
	db    db.DB
	index atomic.Uint64
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
func NewLocalStore(factory store.DBFactory) store.IStore {
	return &storeImpl{
		db: factory(),
	}
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

// write applies the command with the next write index
func (s *storeImpl) write(ctx context.Context, cmd internal.Command) error {
	if err := store.FromContext(ctx); err != nil {
		return err
	}
	return internal.Apply(s.db, &cmd, s.incAndGetIndex())
}

// read executes the query and casts the result to R
func read[R any](ctx context.Context, s *storeImpl, q internal.Query) (R, error) {
	var zero R
	if err := store.FromContext(ctx); err != nil {
		return zero, err
	}
	res, err := internal.Lookup(s.db, q)
	if err != nil {
		return zero, err
	}
	casted, ok := res.(R)
	if !ok {
		return zero, store.NewError(store.RetCInternalError,
			fmt.Sprintf("unexpected type: received %T, expected %T", res, zero))
	}
	return casted, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
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
	return s.write(ctx, internal.Command{Type: internal.CommandTGeoAdd, Collection: key, Field: member, Point: point})
}

func (s *storeImpl) GeoRemove(ctx context.Context, key, member string) error {
	return s.write(ctx, internal.Command{Type: internal.CommandTGeoRemove, Collection: key, Field: member})
}

func (s *storeImpl) GeoRadius(ctx context.Context, key string, center db.GeoPoint, radiusKm float64) ([]db.GeoMember, error) {
	return read[[]db.GeoMember](ctx, s, internal.Query{Type: internal.QueryTGeoRadius, Collection: key, Center: center, RadiusKm: radiusKm})
}

func (s *storeImpl) GetDBInfo(ctx context.Context) (db.DatabaseInfo, error) {
	return read[db.DatabaseInfo](ctx, s, internal.Query{Type: internal.QueryTGetDBInfo})
}
