package lstore

import (
	"testing"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/db/engines/maple"
	"github.com/ValentinKolb/dRide/lib/store"
	storetesting "github.com/ValentinKolb/dRide/lib/store/testing"
)

func TestLocalStore(t *testing.T) {
	storetesting.RunStoreTests(t, "lstore", func() store.IStore {
		return NewLocalStore(func() db.DB { return maple.NewMapleDB(nil) })
	})
}
