package router

import (
	"errors"
	"time"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/db/engines/maple"
	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/ValentinKolb/dRide/lib/store/rstore"
)

// LocalTable is a routing table backed by one in-process master/replica pair per region
type LocalTable struct {
	Table Table
	Pairs map[model.Region]*rstore.Pair
}

// NewLocalTable creates a pair with the given replica lag for every region
func NewLocalTable(lag time.Duration) *LocalTable {
	lt := &LocalTable{
		Table: make(Table, len(model.Regions)*2),
		Pairs: make(map[model.Region]*rstore.Pair, len(model.Regions)),
	}
	for _, region := range model.Regions {
		pair := rstore.NewReplicatedPair(func() db.DB { return maple.NewMapleDB(nil) }, lag)
		lt.Pairs[region] = pair
		lt.Table[Key{Region: region, Role: Master}] = pair.Master()
		lt.Table[Key{Region: region, Role: Replica}] = pair.Replica()
	}
	return lt
}

// Close closes all pairs
func (lt *LocalTable) Close() error {
	var errs []error
	for _, pair := range lt.Pairs {
		errs = append(errs, pair.Close())
	}
	return errors.Join(errs...)
}
