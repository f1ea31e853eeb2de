package model

import "github.com/ValentinKolb/dRide/lib/db"

// Geo limits of the store's geo index
const (
	MaxLatitude  = db.MaxLatitude
	MaxLongitude = db.MaxLongitude
)

type Driver struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Status    DriverStatus `json:"status"`
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`
}

// Point returns the driver's position for the geo index
func (d *Driver) Point() db.GeoPoint {
	return db.GeoPoint{Lon: d.Longitude, Lat: d.Latitude}
}

type Passenger struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Status    PassengerStatus `json:"status"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
}

// Point returns the passenger's position as search center
func (p *Passenger) Point() db.GeoPoint {
	return db.GeoPoint{Lon: p.Longitude, Lat: p.Latitude}
}

// Ride links a passenger and a driver. Times are epoch milliseconds, EndTime is nil while the ride is ongoing.
type Ride struct {
	ID          string     `json:"id"`
	PassengerID string     `json:"passengerId"`
	DriverID    string     `json:"driverId"`
	Status      RideStatus `json:"status"`
	StartTime   int64      `json:"startTime"`
	EndTime     *int64     `json:"endTime"`
}

// ValidateLocation checks that a position can be stored in the geo index
func ValidateLocation(latitude, longitude float64) error {
	if err := (db.GeoPoint{Lon: longitude, Lat: latitude}).Validate(); err != nil {
		return Invalid("invalid location: latitude must be within ±%v and longitude within ±%v", MaxLatitude, MaxLongitude)
	}
	return nil
}
