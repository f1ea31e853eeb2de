// Package dstore implements a raft replicated store on top of the Dragonboat
// consensus library. Each shard runs a StateMachine that owns a db.DB; writes are
// serialized as internal.Command entries of the raft log and applied with the
// log index as write index, so every replica ends in the same state.
//
// Views:
//
//   - NewDistributedStore returns the master view of a shard. Writes go through
//     SyncPropose, reads through SyncRead and are linearizable.
//
//   - NewReplicaView returns a read-only view. Reads use StaleRead on the local
//     node and can lag behind the committed state. Writes fail with
//     store.RetCReadOnly. This is the EVENTUAL counterpart of a master view.
//
// Both views retry on dragonboat.ErrSystemBusy (up to 5 times) and respect the
// caller's context as well as the configured per operation timeout.
//
// Snapshots:
//
//	The state machine is an IConcurrentStateMachine and takes fuzzy snapshots
//	with db.DB Save. Recovery loads the latest snapshot and replays the raft
//	log entries committed after it.
//
// Example:
//
//	nh, err := dragonboat.NewNodeHost(nodeHostConfig)
//	if err != nil { ... }
//
//	dbFactory := func() db.DB { return maple.NewMapleDB(nil) }
//	err = nh.StartConcurrentReplica(members, false, dstore.CreateStateMachineFactory(dbFactory), shardConfig)
//	if err != nil { ... }
//
//	master := dstore.NewDistributedStore(nh, shardID, 5*time.Second)
//	replica := dstore.NewReplicaView(nh, shardID, 5*time.Second)
//
// Deploy an odd number of nodes. A shard can only make progress while a
// majority of its replicas is available.
package dstore
