package transport

import (
	"context"

	"github.com/ValentinKolb/dRide/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is called by a server transport for every received request.
// It takes the shard the request is addressed to and the serialized request and
// returns the serialized response. The context is cancelled when the request
// times out or the caller goes away.
type ServerHandleFunc func(ctx context.Context, shardId uint64, req []byte) (resp []byte)

// IRPCServerTransport is the interface for the RPC transport layer of a store node
type IRPCServerTransport interface {
	// RegisterHandler registers the handler that is called for each request.
	// The transport is responsible for extracting the shard id from the request.
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport and blocks until it is closed or fails
	Listen(config common.ServerConfig) error
	// Close stops listening. Listen returns nil afterwards.
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request for a shard to the server and returns the response.
	// It gives up when ctx is done.
	Send(ctx context.Context, shardId uint64, req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}
