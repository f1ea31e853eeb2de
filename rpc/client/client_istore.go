package client

import (
	"context"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/ValentinKolb/dRide/rpc/common"
	"github.com/ValentinKolb/dRide/rpc/serializer"
	"github.com/ValentinKolb/dRide/rpc/transport"
)

// NewRPCStore connects the transport and returns a store.IStore that forwards
// every operation to the given shard. The returned store also implements
// io.Closer, closing it closes the transport.
func NewRPCStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.IStore, error) {
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &rpcStore{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// Close closes the underlying transport
func (i *rpcStore) Close() error {
	return i.transport.Close()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcStore) HSet(ctx context.Context, collection, field string, value []byte) error {
	_, err := i.invokeRPCRequest(ctx, common.NewHSetRequest(collection, field, value))
	return err
}

func (i *rpcStore) HSetEIfUnset(ctx context.Context, collection, field string, value []byte, deleteIn uint64) error {
	_, err := i.invokeRPCRequest(ctx, common.NewHSetEIfUnsetRequest(collection, field, value, deleteIn))
	return err
}

func (i *rpcStore) HDel(ctx context.Context, collection, field string) error {
	_, err := i.invokeRPCRequest(ctx, common.NewHDelRequest(collection, field))
	return err
}

func (i *rpcStore) HGet(ctx context.Context, collection, field string) ([]byte, bool, error) {
	resp, err := i.invokeRPCRequest(ctx, common.NewHGetRequest(collection, field))
	if err != nil {
		return nil, false, err
	}
	return resp.Value, resp.Ok, nil
}

func (i *rpcStore) HGetAll(ctx context.Context, collection string) (map[string][]byte, error) {
	resp, err := i.invokeRPCRequest(ctx, common.NewHGetAllRequest(collection))
	if err != nil {
		return nil, err
	}
	// empty maps are not transmitted
	if resp.Fields == nil {
		return map[string][]byte{}, nil
	}
	return resp.Fields, nil
}

func (i *rpcStore) GeoAdd(ctx context.Context, key, member string, point db.GeoPoint) error {
	_, err := i.invokeRPCRequest(ctx, common.NewGeoAddRequest(key, member, point))
	return err
}

func (i *rpcStore) GeoRemove(ctx context.Context, key, member string) error {
	_, err := i.invokeRPCRequest(ctx, common.NewGeoRemoveRequest(key, member))
	return err
}

func (i *rpcStore) GeoRadius(ctx context.Context, key string, center db.GeoPoint, radiusKm float64) ([]db.GeoMember, error) {
	resp, err := i.invokeRPCRequest(ctx, common.NewGeoRadiusRequest(key, center, radiusKm))
	if err != nil {
		return nil, err
	}
	return resp.Members, nil
}

func (i *rpcStore) GetDBInfo(ctx context.Context) (db.DatabaseInfo, error) {
	resp, err := i.invokeRPCRequest(ctx, common.NewDBInfoRequest())
	if err != nil {
		return db.DatabaseInfo{}, err
	}
	return decodeDBInfo(resp)
}
