package internal

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/store"
)

// Apply executes a write command on the database at the given write index.
// It returns nil or a *store.Error.
func Apply(database db.DB, cmd *Command, index uint64) error {
	feat, err := cmd.Type.ToDBFeature()
	if err != nil {
		return store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown command operation: %s", cmd.Type))
	}
	if !database.SupportsFeature(feat) {
		return store.NewError(store.RetCUnsupportedOperation, fmt.Sprintf("%s operation is not supported", cmd.Type))
	}

	switch cmd.Type {
	case CommandTHSet:
		database.HSet(cmd.Collection, cmd.Field, cmd.Value, index)
	case CommandTHSetEIfUnset:
		database.HSetEIfUnset(cmd.Collection, cmd.Field, cmd.Value, index, cmd.DeleteIn)
	case CommandTHDel:
		database.HDel(cmd.Collection, cmd.Field, index)
	case CommandTGeoAdd:
		if err := database.GeoAdd(cmd.Collection, cmd.Field, cmd.Point, index); err != nil {
			if errors.Is(err, db.ErrInvalidPoint) {
				return store.NewError(store.RetCInvalidOperation, err.Error())
			}
			return store.NewError(store.RetCInternalError, err.Error())
		}
	case CommandTGeoRemove:
		database.GeoRemove(cmd.Collection, cmd.Field, index)
	}
	return nil
}

// Lookup executes a query on the database.
// It returns QueryResult, map[string][]byte, []db.GeoMember or db.DatabaseInfo depending on the query type.
func Lookup(database db.DB, q Query) (interface{}, error) {
	if feat := q.Type.ToDBFeature(); feat != 0 && !database.SupportsFeature(feat) {
		return nil, store.NewError(store.RetCUnsupportedOperation, fmt.Sprintf("%s operation is not supported", q.Type))
	}

	switch q.Type {
	case QueryTHGet:
		val, ok := database.HGet(q.Collection, q.Field)
		return QueryResult{Value: val, Ok: ok}, nil
	case QueryTHGetAll:
		return database.HGetAll(q.Collection), nil
	case QueryTGeoRadius:
		if err := q.Center.Validate(); err != nil {
			return nil, store.NewError(store.RetCInvalidOperation, err.Error())
		}
		if q.RadiusKm < 0 {
			return nil, store.NewError(store.RetCInvalidOperation, fmt.Sprintf("negative radius %f", q.RadiusKm))
		}
		return database.GeoRadius(q.Collection, q.Center, q.RadiusKm), nil
	case QueryTGetDBInfo:
		return database.GetInfo(), nil
	default:
		return nil, store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown query operation: %d", q.Type))
	}
}
