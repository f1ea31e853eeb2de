// Package transport defines the contract between the rpc server and client and the
// network. A transport moves opaque byte slices addressed to a shard id. It knows
// nothing about messages or stores.
//
// Implementations live in the sub packages:
//
//   - tcp and unix: framed connections built on the base package
//   - http: one POST request per message (POST /{shardId})
//
// IRPCServerTransport calls a ServerHandleFunc for every request it receives.
// IRPCClientTransport sends requests and waits for the matching response.
package transport
