// Package rpc connects the ride api to store nodes.
//
// Subpackages:
//
//   - common: the Message protocol, configuration and logging
//   - transport: pluggable network transports (tcp, unix, http)
//   - serializer: Message encodings (binary, json, gob)
//   - client: store.IStore implemented by rpc calls
//   - server: the store node that serves shards to clients
package rpc
