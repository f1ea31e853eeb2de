package coordinator

import (
	"time"

	"github.com/ValentinKolb/dRide/lib/ride/events"
)

// DefaultSearchRadiusKm is the radius around the passenger searched for drivers
const DefaultSearchRadiusKm = 50.0

// DefaultLockLease is the number of store writes after which a driver claim lock
// expires if its holder never released it
const DefaultLockLease = 1000

type options struct {
	searchRadiusKm float64
	now            func() time.Time
	driverLocks    bool
	lockLease      uint64
	publisher      events.Publisher
}

func defaultOptions() options {
	return options{
		searchRadiusKm: DefaultSearchRadiusKm,
		now:            time.Now,
		publisher:      events.NopPublisher{},
	}
}

// Option configures a Coordinator
type Option func(*options)

// WithSearchRadius sets the radius of the driver search. Values <= 0 are ignored.
func WithSearchRadius(km float64) Option {
	return func(o *options) {
		if km > 0 {
			o.searchRadiusKm = km
		}
	}
}

// WithClock replaces time.Now for ride start and end times
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithDriverLocks makes BookRide claim a driver with a lock before booking it,
// so concurrent bookings can not select the same driver. The lock is a lease
// that expires after lease store writes (DefaultLockLease if 0).
func WithDriverLocks(lease uint64) Option {
	return func(o *options) {
		o.driverLocks = true
		o.lockLease = lease
		if lease == 0 {
			o.lockLease = DefaultLockLease
		}
	}
}

// WithPublisher sets the publisher for status change events
func WithPublisher(p events.Publisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}
