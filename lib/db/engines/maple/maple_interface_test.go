package maple

import (
	"testing"
	"time"

	"github.com/ValentinKolb/dRide/lib/db"
	dbtesting "github.com/ValentinKolb/dRide/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunDBTests(t, "MapleDB", func() db.DB {
		return NewMapleDB(nil)
	})
}

func TestSingleShard(t *testing.T) {
	dbtesting.RunDBTests(t, "MapleDB(1 shard)", func() db.DB {
		return NewMapleDB(&DBOptions{NumShards: 1, GCInterval: 10 * time.Millisecond})
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunDBBenchmarks(b, "MapleDB", func() db.DB {
		return NewMapleDB(nil)
	})
}
