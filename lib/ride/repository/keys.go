package repository

import (
	"fmt"

	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/ValentinKolb/dRide/lib/ride/router"
)

// CollectionKey returns the hash collection of an entity kind in a region, e.g. "drivers:EU"
func CollectionKey(kind router.EntityKind, region model.Region) string {
	return fmt.Sprintf("%s:%s", kind, region)
}

// GeoKey returns the geo collection of the drivers of a region, e.g. "drivers:geo:EU"
func GeoKey(region model.Region) string {
	return fmt.Sprintf("%s:geo:%s", router.KindDriver, region)
}

// LockKey returns the collection of the driver claim locks of a region, e.g. "locks:EU"
func LockKey(region model.Region) string {
	return fmt.Sprintf("locks:%s", region)
}
