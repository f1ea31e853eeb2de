package coordinator

import (
	"testing"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDriver(t *testing.T) {
	f := newFixture(t, 0, nil)
	drivers := f.coord.Drivers()

	d, err := drivers.Create(ctx, model.RegionEU, model.Driver{Name: "Ada", Latitude: 52.52, Longitude: 13.40})
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, model.DriverAvailable, d.Status)

	members, err := f.repo.FindNearby(ctx, model.RegionEU, d.Point(), 1, model.Strong)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, d.ID, members[0].Member)

	_, err = drivers.Create(ctx, model.RegionEU, model.Driver{ID: d.ID, Name: "Ada", Latitude: 52.52, Longitude: 13.40})
	assertKind(t, model.KindConflict, err)

	_, err = drivers.Create(ctx, model.RegionEU, model.Driver{Name: " "})
	assertKind(t, model.KindValidation, err)
	_, err = drivers.Create(ctx, model.RegionEU, model.Driver{Name: "x", Latitude: 89})
	assertKind(t, model.KindValidation, err)
	_, err = drivers.Create(ctx, model.RegionEU, model.Driver{Name: "x", Status: model.DriverOnRide})
	assertKind(t, model.KindValidation, err)

	off, err := drivers.Create(ctx, model.RegionEU, model.Driver{Name: "Off", Status: model.DriverOffline, Latitude: 52.52, Longitude: 13.40})
	require.NoError(t, err)
	members, err = f.repo.FindNearby(ctx, model.RegionEU, off.Point(), 1, model.Strong)
	require.NoError(t, err)
	assert.Len(t, members, 1, "offline drivers are not indexed")
}

func TestDriverStatusTransitions(t *testing.T) {
	f := newFixture(t, 0, nil)
	drivers := f.coord.Drivers()
	f.driver(t, "D1", 0, model.DriverAvailable)
	f.passenger(t, "P1")
	center := db.GeoPoint{Lat: baseLat, Lon: baseLon}

	_, err := drivers.SetStatus(ctx, model.RegionUS, "D1", model.DriverOffline)
	require.NoError(t, err)
	members, err := f.repo.FindNearby(ctx, model.RegionUS, center, 5, model.Strong)
	require.NoError(t, err)
	assert.Empty(t, members)

	_, err = f.coord.BookRide(ctx, model.RegionUS, "P1")
	assertKind(t, model.KindNotFound, err)

	_, err = drivers.SetStatus(ctx, model.RegionUS, "D1", model.DriverAvailable)
	require.NoError(t, err)
	members, err = f.repo.FindNearby(ctx, model.RegionUS, center, 5, model.Strong)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	_, err = drivers.SetStatus(ctx, model.RegionUS, "D1", model.DriverOnRide)
	assertKind(t, model.KindValidation, err)
	_, err = drivers.SetStatus(ctx, model.RegionUS, "missing", model.DriverOffline)
	assertKind(t, model.KindNotFound, err)

	_, err = f.coord.BookRide(ctx, model.RegionUS, "P1")
	require.NoError(t, err)
	_, err = drivers.SetStatus(ctx, model.RegionUS, "D1", model.DriverOffline)
	assertKind(t, model.KindConflict, err)
}

func TestUpdateDriverLocation(t *testing.T) {
	f := newFixture(t, 0, nil)
	drivers := f.coord.Drivers()
	f.driver(t, "D1", 0, model.DriverAvailable)
	f.passenger(t, "P1")

	// move the driver out of the search radius
	d, err := drivers.UpdateLocation(ctx, model.RegionUS, "D1", baseLat+2, baseLon)
	require.NoError(t, err)
	assert.Equal(t, baseLat+2, d.Latitude)

	_, err = f.coord.BookRide(ctx, model.RegionUS, "P1")
	assertKind(t, model.KindNotFound, err)

	_, err = drivers.UpdateLocation(ctx, model.RegionUS, "D1", 100, 0)
	assertKind(t, model.KindValidation, err)
	_, err = drivers.UpdateLocation(ctx, model.RegionUS, "missing", baseLat, baseLon)
	assertKind(t, model.KindNotFound, err)
}

func TestPassengerCRUD(t *testing.T) {
	f := newFixture(t, 0, nil)
	passengers := f.coord.Passengers()

	p, err := passengers.Create(ctx, model.RegionASIA, model.Passenger{Name: "Bo", Latitude: 35.68, Longitude: 139.69})
	require.NoError(t, err)
	assert.Equal(t, model.PassengerOnline, p.Status)

	list, err := passengers.List(ctx, model.RegionASIA, model.Strong)
	require.NoError(t, err)
	assert.Equal(t, []model.Passenger{*p}, list)

	_, err = passengers.Create(ctx, model.RegionASIA, model.Passenger{Name: "x", Status: model.PassengerOnRide})
	assertKind(t, model.KindValidation, err)

	require.NoError(t, passengers.Delete(ctx, model.RegionASIA, p.ID))
	assertKind(t, model.KindNotFound, passengers.Delete(ctx, model.RegionASIA, p.ID))
	_, err = passengers.Get(ctx, model.RegionASIA, p.ID, model.Strong)
	assertKind(t, model.KindNotFound, err)
}
