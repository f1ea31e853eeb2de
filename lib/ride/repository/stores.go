package repository

import (
	"context"

	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/ValentinKolb/dRide/lib/ride/router"
)

// PassengerStore persists passengers in the hash collection of their region
type PassengerStore struct {
	passengers hashStore[model.Passenger]
}

func NewPassengerStore(r *router.Router) *PassengerStore {
	return &PassengerStore{passengers: hashStore[model.Passenger]{router: r, kind: router.KindPassenger}}
}

func (s *PassengerStore) Save(ctx context.Context, region model.Region, p *model.Passenger) error {
	return s.passengers.save(ctx, region, p.ID, p)
}

func (s *PassengerStore) FindByID(ctx context.Context, region model.Region, id string, consistency model.ConsistencyLevel) (*model.Passenger, bool, error) {
	return s.passengers.find(ctx, region, id, consistency)
}

func (s *PassengerStore) FindAll(ctx context.Context, region model.Region, consistency model.ConsistencyLevel) ([]model.Passenger, error) {
	return s.passengers.findAll(ctx, region, consistency)
}

func (s *PassengerStore) Delete(ctx context.Context, region model.Region, id string) error {
	return s.passengers.delete(ctx, region, id)
}

// RideStore persists rides in the hash collection of their region
type RideStore struct {
	rides hashStore[model.Ride]
}

func NewRideStore(r *router.Router) *RideStore {
	return &RideStore{rides: hashStore[model.Ride]{router: r, kind: router.KindRide}}
}

func (s *RideStore) Save(ctx context.Context, region model.Region, ride *model.Ride) error {
	return s.rides.save(ctx, region, ride.ID, ride)
}

func (s *RideStore) FindByID(ctx context.Context, region model.Region, id string, consistency model.ConsistencyLevel) (*model.Ride, bool, error) {
	return s.rides.find(ctx, region, id, consistency)
}

func (s *RideStore) FindAll(ctx context.Context, region model.Region, consistency model.ConsistencyLevel) ([]model.Ride, error) {
	return s.rides.findAll(ctx, region, consistency)
}
