package server

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/ValentinKolb/dRide/rpc/common"
)

func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(ctx context.Context, req *common.Message, s store.IStore) *common.Message {
	if s == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	switch req.MsgType {
	case common.MsgTHSet:
		err := s.HSet(ctx, req.Collection, req.Field, req.Value)
		return common.NewResponse(req.MsgType, err)
	case common.MsgTHSetEIfUnset:
		err := s.HSetEIfUnset(ctx, req.Collection, req.Field, req.Value, req.DeleteIn)
		return common.NewResponse(req.MsgType, err)
	case common.MsgTHDel:
		err := s.HDel(ctx, req.Collection, req.Field)
		return common.NewResponse(req.MsgType, err)
	case common.MsgTHGet:
		val, ok, err := s.HGet(ctx, req.Collection, req.Field)
		return common.NewHGetResponse(val, ok, err)
	case common.MsgTHGetAll:
		fields, err := s.HGetAll(ctx, req.Collection)
		return common.NewHGetAllResponse(fields, err)
	case common.MsgTGeoAdd:
		err := s.GeoAdd(ctx, req.Collection, req.Field, req.Point)
		return common.NewResponse(req.MsgType, err)
	case common.MsgTGeoRemove:
		err := s.GeoRemove(ctx, req.Collection, req.Field)
		return common.NewResponse(req.MsgType, err)
	case common.MsgTGeoRadius:
		members, err := s.GeoRadius(ctx, req.Collection, req.Point, req.RadiusKm)
		return common.NewGeoRadiusResponse(members, err)
	case common.MsgTDBInfo:
		info, err := s.GetDBInfo(ctx)
		return common.NewDBInfoResponse(info, err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC IStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
