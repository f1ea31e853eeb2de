package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventJSON(t *testing.T) {
	data, err := json.Marshal(Event{Type: RideBooked, Region: "EU", RideID: "r1", DriverID: "d1", PassengerID: "p1", Status: "ONGOING", Timestamp: 42})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ride.status.booked","region":"EU","rideId":"r1","driverId":"d1","passengerId":"p1","status":"ONGOING","timestamp":42}`, string(data))

	data, err = json.Marshal(Event{Type: DriverOffline, Region: "US", DriverID: "d1", Status: "OFFLINE"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "rideId")
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: RideCompleted}))
	assert.NoError(t, p.Close())
}

func TestAMQPPublisherRejectsBadURL(t *testing.T) {
	_, err := NewAMQPPublisher("not-a-url", "")
	assert.Error(t, err)
}
