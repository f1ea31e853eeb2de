package serializer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/ValentinKolb/dRide/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasCollection uint16 = 1 << iota
	hasField
	hasDeleteIn
	hasValue
	hasPoint
	hasRadius
	hasFields
	hasMembers
	hasOk
	hasCode
	hasErr
	hasMeta
)

const headerSize = 3 // 1 byte MsgType + 2 bytes flags

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Name() string {
	return "binary"
}

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	w := writer{buf: make([]byte, b.sizeBytes(msg)), pos: headerSize}
	w.buf[0] = byte(msg.MsgType)

	var flags uint16
	if msg.Collection != "" {
		flags |= hasCollection
		w.bytes([]byte(msg.Collection))
	}
	if msg.Field != "" {
		flags |= hasField
		w.bytes([]byte(msg.Field))
	}
	if msg.DeleteIn > 0 {
		flags |= hasDeleteIn
		w.u64(msg.DeleteIn)
	}
	if msg.Value != nil {
		flags |= hasValue
		w.bytes(msg.Value)
	}
	if msg.Point != (db.GeoPoint{}) {
		flags |= hasPoint
		w.f64(msg.Point.Lon)
		w.f64(msg.Point.Lat)
	}
	if msg.RadiusKm != 0 {
		flags |= hasRadius
		w.f64(msg.RadiusKm)
	}
	if msg.Fields != nil {
		flags |= hasFields
		w.u32(uint32(len(msg.Fields)))
		for name, value := range msg.Fields {
			w.bytes([]byte(name))
			w.bytes(value)
		}
	}
	if msg.Members != nil {
		flags |= hasMembers
		w.u32(uint32(len(msg.Members)))
		for _, m := range msg.Members {
			w.bytes([]byte(m.Member))
			w.f64(m.DistKm)
			w.f64(m.Point.Lon)
			w.f64(m.Point.Lat)
		}
	}
	if msg.Ok {
		flags |= hasOk
		w.buf[w.pos] = 1
		w.pos++
	}
	if msg.Code != store.RetCSuccess {
		flags |= hasCode
		w.u64(uint64(msg.Code))
	}
	if msg.Err != "" {
		flags |= hasErr
		w.bytes([]byte(msg.Err))
	}
	if msg.Meta != nil {
		flags |= hasMeta
		w.bytes(msg.Meta)
	}

	// Set flags after knowing which fields are present
	binary.BigEndian.PutUint16(w.buf[1:3], flags)
	return w.buf, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	if len(data) < headerSize {
		return fmt.Errorf("data too short for message header")
	}

	// reset all fields, the message may be reused
	*msg = common.Message{MsgType: common.MessageType(data[0])}
	flags := binary.BigEndian.Uint16(data[1:3])
	r := reader{data: data, pos: headerSize}

	if flags&hasCollection != 0 {
		msg.Collection = string(r.bytes("collection"))
	}
	if flags&hasField != 0 {
		msg.Field = string(r.bytes("field"))
	}
	if flags&hasDeleteIn != 0 {
		msg.DeleteIn = r.u64("deleteIn")
	}
	if flags&hasValue != 0 {
		msg.Value = r.copyBytes("value")
	}
	if flags&hasPoint != 0 {
		msg.Point.Lon = r.f64("longitude")
		msg.Point.Lat = r.f64("latitude")
	}
	if flags&hasRadius != 0 {
		msg.RadiusKm = r.f64("radius")
	}
	if flags&hasFields != 0 {
		n := r.u32("fields count")
		if r.err == nil {
			msg.Fields = make(map[string][]byte, n)
			for i := uint32(0); i < n && r.err == nil; i++ {
				name := string(r.bytes("field name"))
				msg.Fields[name] = r.copyBytes("field value")
			}
		}
	}
	if flags&hasMembers != 0 {
		n := r.u32("members count")
		if r.err == nil {
			msg.Members = make([]db.GeoMember, 0, n)
			for i := uint32(0); i < n && r.err == nil; i++ {
				m := db.GeoMember{Member: string(r.bytes("member"))}
				m.DistKm = r.f64("distance")
				m.Point.Lon = r.f64("member longitude")
				m.Point.Lat = r.f64("member latitude")
				msg.Members = append(msg.Members, m)
			}
		}
	}
	if flags&hasOk != 0 {
		if r.need(1, "ok flag") {
			msg.Ok = data[r.pos] != 0
			r.pos++
		}
	}
	if flags&hasCode != 0 {
		msg.Code = store.RetCode(r.u64("code"))
	}
	if flags&hasErr != 0 {
		msg.Err = string(r.bytes("error"))
	}
	if flags&hasMeta != 0 {
		msg.Meta = r.copyBytes("meta")
	}

	return r.err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	size := headerSize

	if msg.Collection != "" {
		size += 4 + len(msg.Collection)
	}
	if msg.Field != "" {
		size += 4 + len(msg.Field)
	}
	if msg.DeleteIn > 0 {
		size += 8
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Point != (db.GeoPoint{}) {
		size += 16
	}
	if msg.RadiusKm != 0 {
		size += 8
	}
	if msg.Fields != nil {
		size += 4
		for name, value := range msg.Fields {
			size += 4 + len(name) + 4 + len(value)
		}
	}
	if msg.Members != nil {
		size += 4
		for _, m := range msg.Members {
			size += 4 + len(m.Member) + 24
		}
	}
	if msg.Ok {
		size++
	}
	if msg.Code != store.RetCSuccess {
		size += 8
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}
	return size
}

// writer writes big endian values into a preallocated buffer
type writer struct {
	buf []byte
	pos int
}

func (w *writer) u32(v uint32) {
	binary.BigEndian.PutUint32(w.buf[w.pos:w.pos+4], v)
	w.pos += 4
}

func (w *writer) u64(v uint64) {
	binary.BigEndian.PutUint64(w.buf[w.pos:w.pos+8], v)
	w.pos += 8
}

func (w *writer) f64(v float64) {
	w.u64(math.Float64bits(v))
}

// bytes writes a length prefixed byte slice
func (w *writer) bytes(b []byte) {
	w.u32(uint32(len(b)))
	w.pos += copy(w.buf[w.pos:], b)
}

// reader reads values written by writer. After the first error all reads
// return zero values and err keeps the first error.
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) need(n int, what string) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.data) {
		r.err = fmt.Errorf("data too short for %s", what)
		return false
	}
	return true
}

func (r *reader) u32(what string) uint32 {
	if !r.need(4, what) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v
}

func (r *reader) u64(what string) uint64 {
	if !r.need(8, what) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v
}

func (r *reader) f64(what string) float64 {
	return math.Float64frombits(r.u64(what))
}

// bytes returns a length prefixed slice that aliases the input data
func (r *reader) bytes(what string) []byte {
	n := int(r.u32(what + " length"))
	if !r.need(n, what) {
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// copyBytes is bytes without aliasing, an empty slice stays non-nil
func (r *reader) copyBytes(what string) []byte {
	b := r.bytes(what)
	if r.err != nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
