package serializer

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"io"

	"github.com/ValentinKolb/dRide/rpc/common"
)

// NewJSONSerializer creates a serializer using json encoding. It is the most
// readable format and the one to use when debugging with the http transport.
func NewJSONSerializer() IRPCSerializer {
	return &encodingSerializer{
		name:   "json",
		encode: func(w io.Writer, v any) error { return json.NewEncoder(w).Encode(v) },
		decode: func(r io.Reader, v any) error { return json.NewDecoder(r).Decode(v) },
	}
}

// NewGOBSerializer creates a serializer using Go's gob format
func NewGOBSerializer() IRPCSerializer {
	return &encodingSerializer{
		name:   "gob",
		encode: func(w io.Writer, v any) error { return gob.NewEncoder(w).Encode(v) },
		decode: func(r io.Reader, v any) error { return gob.NewDecoder(r).Decode(v) },
	}
}

// encodingSerializer adapts a stream encoding of the standard library to IRPCSerializer
type encodingSerializer struct {
	name   string
	encode func(w io.Writer, v any) error
	decode func(r io.Reader, v any) error
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (s *encodingSerializer) Name() string {
	return s.name
}

func (s *encodingSerializer) Serialize(msg common.Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.encode(&buf, msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *encodingSerializer) Deserialize(b []byte, msg *common.Message) error {
	// neither json nor gob transmit zero values, a reused msg would keep old fields
	*msg = common.Message{}
	return s.decode(bytes.NewReader(b), msg)
}
