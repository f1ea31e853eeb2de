package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Region
// --------------------------------------------------------------------------

// Region is a geographic shard. It is a routing dimension and never stored in entities.
type Region uint8

const (
	RegionUS Region = iota
	RegionEU
	RegionASIA
)

// DefaultRegion is used when a request does not name a (known) region
const DefaultRegion = RegionUS

// Regions lists all regions in declaration order
var Regions = []Region{RegionUS, RegionEU, RegionASIA}

var regionNames = map[Region]string{
	RegionUS:   "US",
	RegionEU:   "EU",
	RegionASIA: "ASIA",
}

func (r Region) String() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Region(%d)", uint8(r))
}

// ParseRegion parses a region name (case-insensitive)
func ParseRegion(s string) (Region, error) {
	for r, name := range regionNames {
		if strings.EqualFold(s, name) {
			return r, nil
		}
	}
	return DefaultRegion, Invalid("unknown region %q", s)
}

// --------------------------------------------------------------------------
// ConsistencyLevel
// --------------------------------------------------------------------------

// ConsistencyLevel selects the store role a read is served from
type ConsistencyLevel uint8

const (
	Strong   ConsistencyLevel = iota // read from the region's master
	Eventual                         // read from the region's replica
)

// DefaultConsistency is used when a request does not name a (known) consistency level
const DefaultConsistency = Strong

func (c ConsistencyLevel) String() string {
	switch c {
	case Strong:
		return "STRONG"
	case Eventual:
		return "EVENTUAL"
	default:
		return fmt.Sprintf("ConsistencyLevel(%d)", uint8(c))
	}
}

// ParseConsistency parses a consistency level name (case-insensitive)
func ParseConsistency(s string) (ConsistencyLevel, error) {
	switch strings.ToUpper(s) {
	case "STRONG":
		return Strong, nil
	case "EVENTUAL":
		return Eventual, nil
	default:
		return DefaultConsistency, Invalid("unknown consistency level %q", s)
	}
}

// --------------------------------------------------------------------------
// Statuses
// --------------------------------------------------------------------------

type DriverStatus string

const (
	DriverAvailable DriverStatus = "AVAILABLE"
	DriverOnRide    DriverStatus = "ON_RIDE"
	DriverOffline   DriverStatus = "OFFLINE"
)

// ParseDriverStatus parses a driver status (case-insensitive)
func ParseDriverStatus(s string) (DriverStatus, error) {
	switch st := DriverStatus(strings.ToUpper(s)); st {
	case DriverAvailable, DriverOnRide, DriverOffline:
		return st, nil
	default:
		return "", Invalid("unknown driver status %q", s)
	}
}

func (s *DriverStatus) UnmarshalJSON(data []byte) error {
	return unmarshalStatus(data, s, ParseDriverStatus)
}

type PassengerStatus string

const (
	PassengerOnline  PassengerStatus = "ONLINE"
	PassengerOnRide  PassengerStatus = "ON_RIDE"
	PassengerOffline PassengerStatus = "OFFLINE"
)

// ParsePassengerStatus parses a passenger status (case-insensitive)
func ParsePassengerStatus(s string) (PassengerStatus, error) {
	switch st := PassengerStatus(strings.ToUpper(s)); st {
	case PassengerOnline, PassengerOnRide, PassengerOffline:
		return st, nil
	default:
		return "", Invalid("unknown passenger status %q", s)
	}
}

func (s *PassengerStatus) UnmarshalJSON(data []byte) error {
	return unmarshalStatus(data, s, ParsePassengerStatus)
}

type RideStatus string

const (
	RideOngoing   RideStatus = "ONGOING"
	RideCompleted RideStatus = "COMPLETED"
	// RideCancelled is part of the stored format but no operation produces it yet.
	RideCancelled RideStatus = "CANCELLED"
)

// ParseRideStatus parses a ride status (case-insensitive)
func ParseRideStatus(s string) (RideStatus, error) {
	switch st := RideStatus(strings.ToUpper(s)); st {
	case RideOngoing, RideCompleted, RideCancelled:
		return st, nil
	default:
		return "", Invalid("unknown ride status %q", s)
	}
}

func (s *RideStatus) UnmarshalJSON(data []byte) error {
	return unmarshalStatus(data, s, ParseRideStatus)
}

// unmarshalStatus decodes a json string into a closed status enum. An empty
// string decodes to the zero value, so optional fields can be defaulted later.
func unmarshalStatus[S ~string](data []byte, dst *S, parse func(string) (S, error)) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return Invalid("status must be a string")
	}
	if raw == "" {
		*dst = ""
		return nil
	}
	st, err := parse(raw)
	if err != nil {
		return err
	}
	*dst = st
	return nil
}
