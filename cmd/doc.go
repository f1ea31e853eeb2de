// Package cmd implements the command-line interface of dRide. It provides a
// hierarchical command structure for running store nodes and the ride API and
// for working with both as a client.
//
// The package is organized into several subpackages:
//
//   - serve: starts a store node with lstore, dstore and replica shards
//   - store: raw hash and geo operations on one shard (hset, hget, georadius, ...)
//   - api: starts the ride HTTP API
//   - ride: the ride operations from the command line (add-driver, book, end, ...)
//   - util: shared configuration, routing and flag helpers (internal use)
//
// See dride -help for a list of all commands.
package cmd
