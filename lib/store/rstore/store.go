package rstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/db/util"
	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/ValentinKolb/dRide/lib/store/internal"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("rstore")

// logEntry is a write of the master waiting to be applied to the replica
type logEntry struct {
	cmd   internal.Command
	index uint64
	at    time.Time
}

// Pair is a master database with one asynchronously updated replica.
// Every successful write to the master is appended to a replication log. A
// follower goroutine applies each entry to the replica once it is older than
// the configured lag, in the order the master applied them.
type Pair struct {
	masterDB  db.DB
	replicaDB db.DB
	lag       time.Duration

	// mu serializes master writes so the replication log has the master's order
	mu    sync.Mutex
	index uint64

	log     *util.LockFreeMPSC[logEntry]
	pushed  atomic.Uint64
	applied atomic.Uint64

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewReplicatedPair creates a master and a replica database with the factory
// and starts the follower. A lag of 0 applies entries as soon as they arrive.
func NewReplicatedPair(factory store.DBFactory, lag time.Duration) *Pair {
	p := &Pair{
		masterDB:  factory(),
		replicaDB: factory(),
		lag:       lag,
		log:       util.NewLockFreeMPSC[logEntry](),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go p.follow()
	return p
}

// Master returns the writable store of the pair
func (p *Pair) Master() store.IStore {
	return &masterStore{p: p}
}

// Replica returns the read-only store of the pair. Writes fail with RetCReadOnly.
func (p *Pair) Replica() store.IStore {
	return &replicaStore{p: p}
}

// Pending returns how many write indexes the replica is behind the master
func (p *Pair) Pending() uint64 {
	return p.pushed.Load() - p.applied.Load()
}

// WaitForSync blocks until the replica has applied every write the master
// accepted before the call, or the context is done.
func (p *Pair) WaitForSync(ctx context.Context) error {
	target := p.pushed.Load()
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for p.applied.Load() < target {
		select {
		case <-ctx.Done():
			return store.FromContext(ctx)
		case <-p.done:
			if p.applied.Load() < target {
				return store.NewError(store.RetCInternalError, "replication stopped")
			}
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

// Close stops the follower and closes both databases. Pending entries are
// applied to the replica without waiting for the lag.
func (p *Pair) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.stop)
		p.log.Close()
		<-p.done
		if e := p.masterDB.Close(); e != nil {
			err = e
		}
		if e := p.replicaDB.Close(); e != nil && err == nil {
			err = e
		}
	})
	return err
}

// follow applies the replication log to the replica
func (p *Pair) follow() {
	defer close(p.done)

	for entry := range p.log.Recv() {
		if wait := time.Until(entry.at.Add(p.lag)); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-p.stop:
				timer.Stop()
			}
		}

		if err := internal.Apply(p.replicaDB, &entry.cmd, entry.index); err != nil {
			// the master accepted this command, the replica diverges from here on
			log.Errorf("failed to apply %s at index %d to replica: %v", entry.cmd.Type, entry.index, err)
		}
		p.applied.Store(entry.index)
	}
}

// write applies the command to the master and appends it to the replication log
func (p *Pair) write(ctx context.Context, cmd internal.Command) error {
	if err := store.FromContext(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.log.IsClosed() {
		return store.NewError(store.RetCInternalError, "store is closed")
	}

	p.index++
	if err := internal.Apply(p.masterDB, &cmd, p.index); err != nil {
		return err
	}

	p.pushed.Store(p.index)
	p.log.Push(&logEntry{cmd: cmd, index: p.index, at: time.Now()})
	return nil
}

// read executes the query on the database and casts the result to R
func read[R any](ctx context.Context, database db.DB, q internal.Query) (R, error) {
	var zero R
	if err := store.FromContext(ctx); err != nil {
		return zero, err
	}
	res, err := internal.Lookup(database, q)
	if err != nil {
		return zero, err
	}
	casted, ok := res.(R)
	if !ok {
		return zero, store.NewError(store.RetCInternalError,
			fmt.Sprintf("unexpected type: received %T, expected %T", res, zero))
	}
	return casted, nil
}
