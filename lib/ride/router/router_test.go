package router

import (
	"context"
	"testing"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/db/engines/maple"
	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/ValentinKolb/dRide/lib/store/lstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullTable() Table {
	table := Table{}
	for _, region := range model.Regions {
		for _, role := range []Role{Master, Replica} {
			table[Key{Region: region, Role: role}] = lstore.NewLocalStore(func() db.DB { return maple.NewMapleDB(nil) })
		}
	}
	return table
}

func TestResolveByConsistency(t *testing.T) {
	table := fullTable()
	r, err := New(table)
	require.NoError(t, err)

	for _, region := range model.Regions {
		for _, kind := range []EntityKind{KindDriver, KindPassenger, KindRide} {
			assert.Same(t, table[Key{region, Master}], r.Resolve(region, model.Strong, kind))
			assert.Same(t, table[Key{region, Replica}], r.Resolve(region, model.Eventual, kind))
		}
		assert.Same(t, table[Key{region, Master}], r.Master(region))
	}
}

func TestUnknownRegionUsesDefault(t *testing.T) {
	table := fullTable()
	r, err := New(table)
	require.NoError(t, err)

	assert.Same(t, table[Key{model.RegionUS, Master}], r.Resolve(model.Region(42), model.Strong, KindRide))
	assert.Same(t, table[Key{model.RegionUS, Replica}], r.Resolve(model.Region(42), model.Eventual, KindRide))
}

func TestIncompleteTable(t *testing.T) {
	table := fullTable()
	delete(table, Key{model.RegionEU, Replica})
	table[Key{model.RegionASIA, Master}] = nil

	_, err := New(table)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eu.replica")
	assert.Contains(t, err.Error(), "asia.master")
}

func TestTableIsCopied(t *testing.T) {
	table := fullTable()
	original := table[Key{model.RegionEU, Master}]
	r, err := New(table)
	require.NoError(t, err)

	table[Key{model.RegionEU, Master}] = lstore.NewLocalStore(func() db.DB { return maple.NewMapleDB(nil) })
	delete(table, Key{model.RegionUS, Replica})

	assert.Same(t, original, r.Master(model.RegionEU))
	assert.NotNil(t, r.Resolve(model.RegionUS, model.Eventual, KindDriver))
}

func TestLocalTable(t *testing.T) {
	lt := NewLocalTable(0)
	defer lt.Close()

	r, err := New(lt.Table)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, r.Master(model.RegionEU).HSet(ctx, "drivers:EU", "d1", []byte("x")))
	require.NoError(t, lt.Pairs[model.RegionEU].WaitForSync(ctx))

	_, ok, err := r.Resolve(model.RegionEU, model.Eventual, KindDriver).HGet(ctx, "drivers:EU", "d1")
	require.NoError(t, err)
	assert.True(t, ok)

	// regions are separate stores
	_, ok, _ = r.Master(model.RegionUS).HGet(ctx, "drivers:EU", "d1")
	assert.False(t, ok)

	err = r.Resolve(model.RegionEU, model.Eventual, KindDriver).HSet(ctx, "drivers:EU", "d2", nil)
	var storeErr *store.Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, store.RetCReadOnly, storeErr.Code)
}
