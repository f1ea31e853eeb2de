package rstore

import (
	"context"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/ValentinKolb/dRide/lib/store/internal"
)

// --------------------------------------------------------------------------
// Master (docu see store/interface.go)
// --------------------------------------------------------------------------

type masterStore struct {
	p *Pair
}

func (s *masterStore) HSet(ctx context.Context, collection, field string, value []byte) error {
	return s.p.write(ctx, internal.Command{Type: internal.CommandTHSet, Collection: collection, Field: field, Value: value})
}

func (s *masterStore) HSetEIfUnset(ctx context.Context, collection, field string, value []byte, deleteIn uint64) error {
	return s.p.write(ctx, internal.Command{Type: internal.CommandTHSetEIfUnset, Collection: collection, Field: field, Value: value, DeleteIn: deleteIn})
}

func (s *masterStore) HDel(ctx context.Context, collection, field string) error {
	return s.p.write(ctx, internal.Command{Type: internal.CommandTHDel, Collection: collection, Field: field})
}

func (s *masterStore) HGet(ctx context.Context, collection, field string) ([]byte, bool, error) {
	return hget(ctx, s.p.masterDB, collection, field)
}

func (s *masterStore) HGetAll(ctx context.Context, collection string) (map[string][]byte, error) {
	return read[map[string][]byte](ctx, s.p.masterDB, internal.Query{Type: internal.QueryTHGetAll, Collection: collection})
}

func (s *masterStore) GeoAdd(ctx context.Context, key, member string, point db.GeoPoint) error {
	return s.p.write(ctx, internal.Command{Type: internal.CommandTGeoAdd, Collection: key, Field: member, Point: point})
}

func (s *masterStore) GeoRemove(ctx context.Context, key, member string) error {
	return s.p.write(ctx, internal.Command{Type: internal.CommandTGeoRemove, Collection: key, Field: member})
}

func (s *masterStore) GeoRadius(ctx context.Context, key string, center db.GeoPoint, radiusKm float64) ([]db.GeoMember, error) {
	return georadius(ctx, s.p.masterDB, key, center, radiusKm)
}

func (s *masterStore) GetDBInfo(ctx context.Context) (db.DatabaseInfo, error) {
	return read[db.DatabaseInfo](ctx, s.p.masterDB, internal.Query{Type: internal.QueryTGetDBInfo})
}

// --------------------------------------------------------------------------
// Replica
// --------------------------------------------------------------------------

type replicaStore struct {
	p *Pair
}

func readOnly() error {
	return store.NewError(store.RetCReadOnly, "writes must be sent to the master")
}

func (s *replicaStore) HSet(context.Context, string, string, []byte) error {
	return readOnly()
}

func (s *replicaStore) HSetEIfUnset(context.Context, string, string, []byte, uint64) error {
	return readOnly()
}

func (s *replicaStore) HDel(context.Context, string, string) error {
	return readOnly()
}

func (s *replicaStore) HGet(ctx context.Context, collection, field string) ([]byte, bool, error) {
	return hget(ctx, s.p.replicaDB, collection, field)
}

func (s *replicaStore) HGetAll(ctx context.Context, collection string) (map[string][]byte, error) {
	return read[map[string][]byte](ctx, s.p.replicaDB, internal.Query{Type: internal.QueryTHGetAll, Collection: collection})
}

func (s *replicaStore) GeoAdd(context.Context, string, string, db.GeoPoint) error {
	return readOnly()
}

func (s *replicaStore) GeoRemove(context.Context, string, string) error {
	return readOnly()
}

func (s *replicaStore) GeoRadius(ctx context.Context, key string, center db.GeoPoint, radiusKm float64) ([]db.GeoMember, error) {
	return georadius(ctx, s.p.replicaDB, key, center, radiusKm)
}

func (s *replicaStore) GetDBInfo(ctx context.Context) (db.DatabaseInfo, error) {
	return read[db.DatabaseInfo](ctx, s.p.replicaDB, internal.Query{Type: internal.QueryTGetDBInfo})
}

// --------------------------------------------------------------------------
// Shared read helpers
// --------------------------------------------------------------------------

func hget(ctx context.Context, database db.DB, collection, field string) ([]byte, bool, error) {
	res, err := read[internal.QueryResult](ctx, database, internal.Query{Type: internal.QueryTHGet, Collection: collection, Field: field})
	if err != nil {
		return nil, false, err
	}
	return res.Value, res.Ok, nil
}

func georadius(ctx context.Context, database db.DB, key string, center db.GeoPoint, radiusKm float64) ([]db.GeoMember, error) {
	return read[[]db.GeoMember](ctx, database, internal.Query{Type: internal.QueryTGeoRadius, Collection: key, Center: center, RadiusKm: radiusKm})
}
