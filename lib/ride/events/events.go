// Package events publishes status changes of rides and drivers.
//
// Events are published after the store writes of an operation succeeded. A
// failed publish is logged by the caller and never undoes the operation.
package events

import (
	"context"

	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("events")

// Routing keys
const (
	RideBooked      = "ride.status.booked"
	RideCompleted   = "ride.status.completed"
	DriverAvailable = "driver.status.available"
	DriverOffline   = "driver.status.offline"
)

// Event is the json body of a published message
type Event struct {
	Type        string `json:"type"`
	Region      string `json:"region"`
	RideID      string `json:"rideId,omitempty"`
	DriverID    string `json:"driverId,omitempty"`
	PassengerID string `json:"passengerId,omitempty"`
	Status      string `json:"status"`
	Timestamp   int64  `json:"timestamp"` // epoch milliseconds
}

// Publisher sends events to a message broker
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NopPublisher drops all events
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
