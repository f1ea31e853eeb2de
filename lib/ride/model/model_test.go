package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegion(t *testing.T) {
	for _, r := range Regions {
		parsed, err := ParseRegion(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}

	r, err := ParseRegion("eu")
	require.NoError(t, err)
	assert.Equal(t, RegionEU, r)

	_, err = ParseRegion("MARS")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestParseConsistency(t *testing.T) {
	c, err := ParseConsistency("eventual")
	require.NoError(t, err)
	assert.Equal(t, Eventual, c)

	c, err = ParseConsistency("STRONG")
	require.NoError(t, err)
	assert.Equal(t, Strong, c)

	_, err = ParseConsistency("quorum")
	assert.Error(t, err)
}

func TestStatusJSON(t *testing.T) {
	var d Driver
	require.NoError(t, json.Unmarshal([]byte(`{"id":"d1","status":"on_ride"}`), &d))
	assert.Equal(t, DriverOnRide, d.Status)

	err := json.Unmarshal([]byte(`{"id":"d1","status":"flying"}`), &d)
	assert.Equal(t, KindValidation, KindOf(err))

	var p Passenger
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1"}`), &p))
	assert.Equal(t, PassengerStatus(""), p.Status, "missing status stays empty so a default can be applied")

	data, err := json.Marshal(Ride{ID: "r1", Status: RideOngoing, StartTime: 5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"r1","passengerId":"","driverId":"","status":"ONGOING","startTime":5,"endTime":null}`, string(data))
}

func TestErrorKinds(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("ride %s", "r1")))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("wrapped: %w", Conflict("busy"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("connection reset")))

	cause := errors.New("timeout")
	err := Internal("failed to save ride", cause)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.ErrorIs(t, err, cause)

	// internal wrapping never hides a more specific kind
	assert.Equal(t, KindNotFound, KindOf(Internal("lookup", NotFound("driver d1"))))
}

func TestValidateLocation(t *testing.T) {
	assert.NoError(t, ValidateLocation(0, 0))
	assert.NoError(t, ValidateLocation(-85.05112878, 180))
	assert.Error(t, ValidateLocation(89, 0))
	assert.Error(t, ValidateLocation(0, -180.5))
}
