// Package util provides the building blocks of the db engines.
//
// The package contains:
//   - functions: seeded FNV-1a string hashing and seed generation
//   - geo: haversine distance on a spherical earth
//   - mapheap: a keyed min-heap used to schedule lease deletion
//   - lockfreempsc: a lock-free multi-producer single-consumer queue used for gc events and replication logs
//   - statistics: shard distribution metrics reported by GetInfo
package util
