package coordinator

import (
	"context"
	"time"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/lockmgr"
	"github.com/ValentinKolb/dRide/lib/ride/events"
	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/ValentinKolb/dRide/lib/ride/repository"
	"github.com/ValentinKolb/dRide/lib/ride/router"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("ride")

// Coordinator runs the ride lifecycle on top of the region stores of a router
type Coordinator struct {
	drivers    *repository.DriverStore
	passengers *repository.PassengerStore
	rides      *repository.RideStore
	locks      map[model.Region]lockmgr.ILockManager // nil without driver locks
	opts       options
}

func New(r *router.Router, opts ...Option) *Coordinator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Coordinator{
		drivers:    repository.NewDriverStore(r),
		passengers: repository.NewPassengerStore(r),
		rides:      repository.NewRideStore(r),
		opts:       o,
	}
	if o.driverLocks {
		c.locks = make(map[model.Region]lockmgr.ILockManager, len(model.Regions))
		for _, region := range model.Regions {
			c.locks[region] = lockmgr.NewLockManager(r.Master(region), repository.LockKey(region))
		}
	}
	return c
}

func (c *Coordinator) nowMillis() int64 {
	return c.opts.now().UnixMilli()
}

// publish sends an event, failures are only logged
func (c *Coordinator) publish(ctx context.Context, ev events.Event) {
	ev.Timestamp = c.nowMillis()
	if err := c.opts.publisher.Publish(ctx, ev); err != nil {
		Logger.Warningf("failed to publish %s event: %v", ev.Type, err)
	}
}

// BookRide assigns the first available driver near the passenger and starts a ride.
//
// All reads are strong. The passenger, ride and driver are written one after
// another. A failed write returns an internal error and leaves the earlier
// writes in place.
func (c *Coordinator) BookRide(ctx context.Context, region model.Region, passengerID string) (ride *model.Ride, err error) {
	start := time.Now()
	defer func() { recordBooking(start, err) }()

	passenger, ok, err := c.passengers.FindByID(ctx, region, passengerID, model.Strong)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NotFound("passenger %s not found", passengerID)
	}
	if passenger.Status == model.PassengerOnRide {
		return nil, model.Conflict("passenger %s is already on a ride", passengerID)
	}

	candidates, err := c.drivers.FindNearby(ctx, region, passenger.Point(), c.opts.searchRadiusKm, model.Strong)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, model.NotFound("no drivers nearby")
	}

	driver, release, err := c.selectDriver(ctx, region, candidates)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, model.NotFound("no available drivers nearby")
	}
	defer release()

	passenger.Status = model.PassengerOnRide
	if err := c.passengers.Save(ctx, region, passenger); err != nil {
		return nil, err
	}

	ride = &model.Ride{
		ID:          uuid.NewString(),
		PassengerID: passenger.ID,
		DriverID:    driver.ID,
		Status:      model.RideOngoing,
		StartTime:   c.nowMillis(),
	}
	if err := c.rides.Save(ctx, region, ride); err != nil {
		return nil, err
	}

	driver.Status = model.DriverOnRide
	if err := c.drivers.Save(ctx, region, driver); err != nil {
		return nil, err
	}

	Logger.Infof("booked ride %s in %s: passenger %s, driver %s", ride.ID, region, passenger.ID, driver.ID)
	c.publish(ctx, events.Event{
		Type:        events.RideBooked,
		Region:      region.String(),
		RideID:      ride.ID,
		DriverID:    driver.ID,
		PassengerID: passenger.ID,
		Status:      string(ride.Status),
	})
	return ride, nil
}

// selectDriver returns the first candidate that is AVAILABLE in the hash
// collection. Candidates without a hash entry are skipped. With driver locks
// the candidate is claimed first and the returned release func drops the claim.
// A nil driver means no candidate qualified.
func (c *Coordinator) selectDriver(ctx context.Context, region model.Region, candidates []db.GeoMember) (*model.Driver, func(), error) {
	for _, candidate := range candidates {
		release := func() {}
		if c.locks != nil {
			claimed, rel, err := c.claim(ctx, region, candidate.Member)
			if err != nil {
				return nil, nil, err
			}
			if !claimed {
				Logger.Debugf("driver %s is claimed by another booking", candidate.Member)
				continue
			}
			release = rel
		}

		driver, ok, err := c.drivers.FindByID(ctx, region, candidate.Member, model.Strong)
		if err != nil {
			release()
			return nil, nil, err
		}
		if !ok {
			Logger.Warningf("driver %s is in the geo index of %s but has no record", candidate.Member, region)
			release()
			continue
		}
		if driver.Status != model.DriverAvailable {
			release()
			continue
		}
		return driver, release, nil
	}
	return nil, nil, nil
}

// claim takes the lock of a driver
func (c *Coordinator) claim(ctx context.Context, region model.Region, driverID string) (bool, func(), error) {
	lm := c.locks[region]
	ok, owner, err := lm.AcquireLock(ctx, driverID, c.opts.lockLease)
	if err != nil {
		return false, nil, model.Internal("failed to lock driver "+driverID, err)
	}
	if !ok {
		return false, nil, nil
	}
	return true, func() {
		// released even if the booking's context is done, the lease covers a failed release
		if _, err := lm.ReleaseLock(context.WithoutCancel(ctx), driverID, owner); err != nil {
			Logger.Warningf("failed to release lock of driver %s: %v", driverID, err)
		}
	}, nil
}

// EndRide completes an ongoing ride. The passenger goes back ONLINE and the
// driver AVAILABLE at its last stored position. A passenger or driver without
// a record is skipped.
func (c *Coordinator) EndRide(ctx context.Context, region model.Region, rideID string) (ride *model.Ride, err error) {
	defer func() { recordEnd(err) }()

	ride, ok, err := c.rides.FindByID(ctx, region, rideID, model.Strong)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NotFound("ride %s not found", rideID)
	}
	if ride.Status != model.RideOngoing {
		return nil, model.Conflict("ride %s is %s", rideID, ride.Status)
	}

	end := max(c.nowMillis(), ride.StartTime)
	ride.Status = model.RideCompleted
	ride.EndTime = &end
	if err := c.rides.Save(ctx, region, ride); err != nil {
		return nil, err
	}

	passenger, ok, err := c.passengers.FindByID(ctx, region, ride.PassengerID, model.Strong)
	if err != nil {
		return nil, err
	}
	if ok {
		passenger.Status = model.PassengerOnline
		if err := c.passengers.Save(ctx, region, passenger); err != nil {
			return nil, err
		}
	} else {
		Logger.Warningf("passenger %s of ride %s has no record", ride.PassengerID, ride.ID)
	}

	driver, ok, err := c.drivers.FindByID(ctx, region, ride.DriverID, model.Strong)
	if err != nil {
		return nil, err
	}
	if ok {
		driver.Status = model.DriverAvailable
		if err := c.drivers.Save(ctx, region, driver); err != nil {
			return nil, err
		}
		if err := c.drivers.AddToGeoIndex(ctx, region, driver.ID, driver.Point()); err != nil {
			return nil, err
		}
	} else {
		Logger.Warningf("driver %s of ride %s has no record", ride.DriverID, ride.ID)
	}

	Logger.Infof("completed ride %s in %s", ride.ID, region)
	c.publish(ctx, events.Event{
		Type:        events.RideCompleted,
		Region:      region.String(),
		RideID:      ride.ID,
		DriverID:    ride.DriverID,
		PassengerID: ride.PassengerID,
		Status:      string(ride.Status),
	})
	if ok {
		c.publish(ctx, events.Event{
			Type:     events.DriverAvailable,
			Region:   region.String(),
			DriverID: driver.ID,
			Status:   string(driver.Status),
		})
	}
	return ride, nil
}

// GetAllRides lists the rides of a region ordered by id
func (c *Coordinator) GetAllRides(ctx context.Context, region model.Region, consistency model.ConsistencyLevel) ([]model.Ride, error) {
	return c.rides.FindAll(ctx, region, consistency)
}

// GetRideByID returns a single ride
func (c *Coordinator) GetRideByID(ctx context.Context, region model.Region, id string, consistency model.ConsistencyLevel) (*model.Ride, error) {
	ride, ok, err := c.rides.FindByID(ctx, region, id, consistency)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NotFound("ride %s not found", id)
	}
	return ride, nil
}
