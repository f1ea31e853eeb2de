// Package router resolves the store handle for a region, consistency level and
// entity kind.
//
// The routing table maps (region, role) to a store.IStore and is fixed when the
// Router is created. There is no health checking and no failover: if a master
// is down, calls routed to it fail.
package router

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("router")

// Role is the role of a store within its region
type Role uint8

const (
	Master Role = iota
	Replica
)

func (r Role) String() string {
	if r == Replica {
		return "replica"
	}
	return "master"
}

// ParseRole parses "master" or "replica" (case-insensitive)
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "master":
		return Master, nil
	case "replica":
		return Replica, nil
	default:
		return Master, fmt.Errorf("unknown role %q", s)
	}
}

// EntityKind is the kind of entity a store call is for
type EntityKind string

const (
	KindDriver    EntityKind = "drivers"
	KindPassenger EntityKind = "passengers"
	KindRide      EntityKind = "rides"
)

// Key addresses one cell of the routing table
type Key struct {
	Region model.Region
	Role   Role
}

func (k Key) String() string {
	return fmt.Sprintf("%s.%s", strings.ToLower(k.Region.String()), k.Role)
}

// Table is a routing table, it must contain every region with both roles
type Table map[Key]store.IStore

// Router is an immutable routing table
type Router struct {
	table Table
}

// New validates the table and copies it, later changes to table have no effect
func New(table Table) (*Router, error) {
	copied := make(Table, len(model.Regions)*2)
	var missing []string
	for _, region := range model.Regions {
		for _, role := range []Role{Master, Replica} {
			key := Key{Region: region, Role: role}
			st, ok := table[key]
			if !ok || st == nil {
				missing = append(missing, key.String())
				continue
			}
			copied[key] = st
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("routing table is incomplete, missing %s", strings.Join(missing, ", "))
	}
	return &Router{table: copied}, nil
}

// Resolve returns the store for a read of the given entity kind.
// Strong reads go to the master, eventual reads to the replica. A region
// outside the enumeration is replaced by the default region.
func (r *Router) Resolve(region model.Region, consistency model.ConsistencyLevel, kind EntityKind) store.IStore {
	role := Master
	if consistency == model.Eventual {
		role = Replica
	}
	return r.table[Key{Region: normalize(region), Role: role}]
}

// Master returns the master store of a region. All writes go through it.
func (r *Router) Master(region model.Region) store.IStore {
	return r.table[Key{Region: normalize(region), Role: Master}]
}

func normalize(region model.Region) model.Region {
	for _, known := range model.Regions {
		if region == known {
			return region
		}
	}
	Logger.Debugf("unknown region %d, using %s", uint8(region), model.DefaultRegion)
	return model.DefaultRegion
}
