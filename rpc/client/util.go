package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/ValentinKolb/dRide/rpc/common"
	"github.com/ValentinKolb/dRide/rpc/serializer"
	"github.com/ValentinKolb/dRide/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter stores all data needed by an RPC client of one shard
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invokeRPCRequest serializes the request, sends it to the shard and deserializes the response.
// Errors reported by the remote store are returned as *store.Error with their original code.
// It also checks that the response has the type of the request.
func (a *rpcClientAdapter) invokeRPCRequest(ctx context.Context, req *common.Message) (*common.Message, error) {
	if err := store.FromContext(ctx); err != nil {
		return nil, err
	}

	reqBytes, err := a.serializer.Serialize(*req)
	if err != nil {
		return nil, err
	}

	respBytes, err := a.transport.Send(ctx, a.shardId, reqBytes)
	if err != nil {
		if ctxErr := store.FromContext(ctx); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("rpc shard %d: %w", a.shardId, err)
	}

	resp := &common.Message{}
	if err := a.serializer.Deserialize(respBytes, resp); err != nil {
		return nil, fmt.Errorf("rpc shard %d: invalid response: %w", a.shardId, err)
	}

	if resp.MsgType == common.MsgTError || resp.Err != "" {
		code := resp.Code
		if code == store.RetCSuccess {
			code = store.RetCInternalError
		}
		return nil, store.NewError(code, resp.Err)
	}

	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("rpc shard %d: unexpected message type: %s, expected %s", a.shardId, resp.MsgType, req.MsgType)
	}

	return resp, nil
}

// decodeDBInfo reads the json encoded db.DatabaseInfo of a DBInfo response
func decodeDBInfo(resp *common.Message) (db.DatabaseInfo, error) {
	var info db.DatabaseInfo
	if len(resp.Meta) == 0 {
		return info, nil
	}
	if err := json.Unmarshal(resp.Meta, &info); err != nil {
		return db.DatabaseInfo{}, fmt.Errorf("invalid db info: %w", err)
	}
	return info, nil
}
