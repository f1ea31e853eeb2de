package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/store"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Collection string      `json:"collection,omitempty"` // Hash collection or geo key
	Field      string      `json:"field,omitempty"`      // Hash field or geo member
	DeleteIn   uint64      `json:"deleteIn,omitempty"`   // Used for: HSetEIfUnset
	Value      []byte      `json:"value,omitempty"`      // Used for: HSet, HSetEIfUnset (request), HGet (response)
	Point      db.GeoPoint `json:"point"`                // Used for: GeoAdd, GeoRadius (center)
	RadiusKm   float64     `json:"radiusKm,omitempty"`   // Used for: GeoRadius

	// Response only fields
	Fields  map[string][]byte `json:"fields,omitempty"`  // Used for: HGetAll
	Members []db.GeoMember    `json:"members,omitempty"` // Used for: GeoRadius
	Ok      bool              `json:"ok,omitempty"`      // Used for: HGet
	Code    store.RetCode     `json:"code,omitempty"`    // Store return code if Err is set
	Err     string            `json:"err,omitempty"`     // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Used for: DBInfo (json encoded db.DatabaseInfo)
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewHSetRequest creates a new HSet request
func NewHSetRequest(collection, field string, value []byte) *Message {
	return &Message{MsgType: MsgTHSet, Collection: collection, Field: field, Value: value}
}

// NewHSetEIfUnsetRequest creates a new HSetEIfUnset request
func NewHSetEIfUnsetRequest(collection, field string, value []byte, deleteIn uint64) *Message {
	return &Message{MsgType: MsgTHSetEIfUnset, Collection: collection, Field: field, Value: value, DeleteIn: deleteIn}
}

// NewHDelRequest creates a new HDel request
func NewHDelRequest(collection, field string) *Message {
	return &Message{MsgType: MsgTHDel, Collection: collection, Field: field}
}

// NewHGetRequest creates a new HGet request
func NewHGetRequest(collection, field string) *Message {
	return &Message{MsgType: MsgTHGet, Collection: collection, Field: field}
}

// NewHGetResponse creates a new HGet response
func NewHGetResponse(value []byte, ok bool, err error) *Message {
	msg := NewResponse(MsgTHGet, err)
	msg.Value = value
	msg.Ok = ok
	return msg
}

// NewHGetAllRequest creates a new HGetAll request
func NewHGetAllRequest(collection string) *Message {
	return &Message{MsgType: MsgTHGetAll, Collection: collection}
}

// NewHGetAllResponse creates a new HGetAll response
func NewHGetAllResponse(fields map[string][]byte, err error) *Message {
	msg := NewResponse(MsgTHGetAll, err)
	msg.Fields = fields
	return msg
}

// NewGeoAddRequest creates a new GeoAdd request
func NewGeoAddRequest(key, member string, point db.GeoPoint) *Message {
	return &Message{MsgType: MsgTGeoAdd, Collection: key, Field: member, Point: point}
}

// NewGeoRemoveRequest creates a new GeoRemove request
func NewGeoRemoveRequest(key, member string) *Message {
	return &Message{MsgType: MsgTGeoRemove, Collection: key, Field: member}
}

// NewGeoRadiusRequest creates a new GeoRadius request
func NewGeoRadiusRequest(key string, center db.GeoPoint, radiusKm float64) *Message {
	return &Message{MsgType: MsgTGeoRadius, Collection: key, Point: center, RadiusKm: radiusKm}
}

// NewGeoRadiusResponse creates a new GeoRadius response
func NewGeoRadiusResponse(members []db.GeoMember, err error) *Message {
	msg := NewResponse(MsgTGeoRadius, err)
	msg.Members = members
	return msg
}

// NewDBInfoRequest creates a new DBInfo request
func NewDBInfoRequest() *Message {
	return &Message{MsgType: MsgTDBInfo}
}

// NewDBInfoResponse creates a new DBInfo response, the info is stored json encoded in Meta
func NewDBInfoResponse(info db.DatabaseInfo, err error) *Message {
	msg := NewResponse(MsgTDBInfo, err)
	if err == nil {
		meta, mErr := json.Marshal(info)
		if mErr != nil {
			return NewResponse(MsgTDBInfo, mErr)
		}
		msg.Meta = meta
	}
	return msg
}

// NewResponse creates a response of the given type that only carries an error (if any).
// The return code of a *store.Error is kept, other errors become RetCInternalError.
func NewResponse(msgType MessageType, err error) *Message {
	msg := &Message{MsgType: msgType}
	if err != nil {
		msg.Err = err.Error()
		msg.Code = store.RetCInternalError
		var storeErr *store.Error
		if errors.As(err, &storeErr) {
			msg.Code = storeErr.Code
			msg.Err = storeErr.Msg
		}
	}
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Code:    store.RetCInternalError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var messageTypeNames = map[MessageType]string{
	MsgTSuccess:      "success",
	MsgTError:        "error",
	MsgTHSet:         "hset",
	MsgTHSetEIfUnset: "hsetEIfUnset",
	MsgTHDel:         "hdel",
	MsgTHGet:         "hget",
	MsgTHGetAll:      "hgetall",
	MsgTGeoAdd:       "geoadd",
	MsgTGeoRemove:    "georemove",
	MsgTGeoRadius:    "georadius",
	MsgTDBInfo:       "dbinfo",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for msgType, name := range messageTypeNames {
		if name == s {
			*t = msgType
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IStore hash operations

	MsgTHSet         // Set a hash field
	MsgTHSetEIfUnset // Set a hash field if unset (optionally as lease)
	MsgTHDel         // Delete a hash field
	MsgTHGet         // Get a hash field
	MsgTHGetAll      // Get all fields of a hash collection

	// IStore geo operations

	MsgTGeoAdd    // Insert or move a geo member
	MsgTGeoRemove // Remove a geo member
	MsgTGeoRadius // Radius query

	// Metadata

	MsgTDBInfo // Database info of the shard
)
