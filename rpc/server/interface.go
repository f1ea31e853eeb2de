package server

import (
	"context"

	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/ValentinKolb/dRide/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle executes the request against the store and returns the response.
	// Errors are reported inside the response message, never as a Go error.
	Handle(ctx context.Context, req *common.Message, store store.IStore) (resp *common.Message)
}
