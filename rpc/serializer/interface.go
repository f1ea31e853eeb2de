package serializer

import "github.com/ValentinKolb/dRide/rpc/common"

// IRPCSerializer converts Messages to and from their wire representation.
// Client and server of a shard must use the same serializer.
type IRPCSerializer interface {
	// Name returns the name of the format (binary, json, gob)
	Name() string
	// Serialize encodes a Message
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize decodes b into msg. Fields of msg that b does not carry are reset.
	Deserialize(b []byte, msg *common.Message) error
}
