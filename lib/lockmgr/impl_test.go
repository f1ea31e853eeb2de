package lockmgr

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/db/engines/maple"
	"github.com/ValentinKolb/dRide/lib/store/lstore"
)

func newManager() (ILockManager, func()) {
	database := maple.NewMapleDB(nil)
	s := lstore.NewLocalStore(func() db.DB { return database })
	return NewLockManager(s, "locks:US"), func() { _ = database.Close() }
}

func TestAcquireRelease(t *testing.T) {
	lm, cleanup := newManager()
	defer cleanup()
	ctx := context.Background()

	ok, owner, err := lm.AcquireLock(ctx, "d1", 0)
	if err != nil || !ok || len(owner) == 0 {
		t.Fatalf("AcquireLock = (%v, %v, %v)", ok, owner, err)
	}

	if ok, _, _ := lm.AcquireLock(ctx, "d1", 0); ok {
		t.Error("a held lock must not be acquired twice")
	}
	if ok, _, _ := lm.AcquireLock(ctx, "d2", 0); !ok {
		t.Error("a different key must be lockable")
	}

	if ok, _ := lm.ReleaseLock(ctx, "d1", []byte("someone else")); ok {
		t.Error("release with a foreign owner ID must fail")
	}
	if ok, err := lm.ReleaseLock(ctx, "d1", owner); !ok || err != nil {
		t.Errorf("ReleaseLock = (%v, %v)", ok, err)
	}
	if ok, err := lm.ReleaseLock(ctx, "d1", owner); !ok || err != nil {
		t.Errorf("releasing a free lock must succeed, got (%v, %v)", ok, err)
	}

	if ok, _, _ := lm.AcquireLock(ctx, "d1", 0); !ok {
		t.Error("a released lock must be acquirable again")
	}
}

func TestLockTimeout(t *testing.T) {
	lm, cleanup := newManager()
	defer cleanup()
	ctx := context.Background()

	if ok, _, _ := lm.AcquireLock(ctx, "d1", 3); !ok {
		t.Fatal("AcquireLock failed")
	}
	// every attempt is a write and moves the logical clock forward
	acquired := false
	for i := 0; i < 5 && !acquired; i++ {
		acquired, _, _ = lm.AcquireLock(ctx, "d1", 3)
	}
	if !acquired {
		t.Error("lock must expire after its timeout")
	}
}

func TestConcurrentAcquire(t *testing.T) {
	lm, cleanup := newManager()
	defer cleanup()
	ctx := context.Background()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _, err := lm.AcquireLock(ctx, "contended", 0); err == nil && ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	if winners.Load() != 1 {
		t.Errorf("%d goroutines acquired the lock, want exactly 1", winners.Load())
	}
}
