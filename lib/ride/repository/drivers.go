package repository

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/ValentinKolb/dRide/lib/ride/router"
)

// DriverStore persists drivers in the hash collection of their region and
// keeps the region's geo index of driver positions. Hash and geo index are
// separate store calls, nothing keeps them in lockstep.
type DriverStore struct {
	drivers hashStore[model.Driver]
	router  *router.Router
}

func NewDriverStore(r *router.Router) *DriverStore {
	return &DriverStore{
		drivers: hashStore[model.Driver]{router: r, kind: router.KindDriver},
		router:  r,
	}
}

// Save writes the hash entry of the driver. The geo index is not touched.
func (s *DriverStore) Save(ctx context.Context, region model.Region, d *model.Driver) error {
	return s.drivers.save(ctx, region, d.ID, d)
}

// FindByID returns the driver, the boolean reports whether it exists
func (s *DriverStore) FindByID(ctx context.Context, region model.Region, id string, consistency model.ConsistencyLevel) (*model.Driver, bool, error) {
	return s.drivers.find(ctx, region, id, consistency)
}

// FindAll returns all drivers of the region ordered by id
func (s *DriverStore) FindAll(ctx context.Context, region model.Region, consistency model.ConsistencyLevel) ([]model.Driver, error) {
	return s.drivers.findAll(ctx, region, consistency)
}

// Delete removes the hash entry and the geo index member of the driver
func (s *DriverStore) Delete(ctx context.Context, region model.Region, id string) error {
	if err := s.drivers.delete(ctx, region, id); err != nil {
		return err
	}
	return s.RemoveFromGeoIndex(ctx, region, id)
}

// AddToGeoIndex inserts or moves the driver in the geo index
func (s *DriverStore) AddToGeoIndex(ctx context.Context, region model.Region, id string, point db.GeoPoint) error {
	if err := s.router.Master(region).GeoAdd(ctx, GeoKey(region), id, point); err != nil {
		return model.Internal(fmt.Sprintf("failed to index driver %s", id), err)
	}
	return nil
}

// RemoveFromGeoIndex removes the driver from the geo index
func (s *DriverStore) RemoveFromGeoIndex(ctx context.Context, region model.Region, id string) error {
	if err := s.router.Master(region).GeoRemove(ctx, GeoKey(region), id); err != nil {
		return model.Internal(fmt.Sprintf("failed to remove driver %s from the geo index", id), err)
	}
	return nil
}

// FindNearby returns the indexed drivers within radiusKm of center, nearest first
func (s *DriverStore) FindNearby(ctx context.Context, region model.Region, center db.GeoPoint, radiusKm float64, consistency model.ConsistencyLevel) ([]db.GeoMember, error) {
	members, err := s.router.Resolve(region, consistency, router.KindDriver).GeoRadius(ctx, GeoKey(region), center, radiusKm)
	if err != nil {
		return nil, model.Internal("failed to search the geo index", err)
	}
	return members, nil
}

// UpdateLocation stores a new position for the driver. The hash entry is
// written first, then the geo index. A failure between the two leaves the
// index at the old position. Offline drivers are not put back into the index.
func (s *DriverStore) UpdateLocation(ctx context.Context, region model.Region, id string, latitude, longitude float64) (*model.Driver, error) {
	d, ok, err := s.FindByID(ctx, region, id, model.Strong)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NotFound("driver %s not found", id)
	}

	d.Latitude, d.Longitude = latitude, longitude
	if err := s.Save(ctx, region, d); err != nil {
		return nil, err
	}
	if d.Status == model.DriverOffline {
		return d, nil
	}
	if err := s.AddToGeoIndex(ctx, region, id, d.Point()); err != nil {
		return nil, err
	}
	return d, nil
}
