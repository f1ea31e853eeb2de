// Package serializer turns common.Message values into bytes and back. It is used
// by the rpc server and client on both ends of every transport.
//
// Implementations:
//
//   - Binary: a flag based format that only encodes present fields. Hash
//     results are encoded as a count followed by name/value pairs, geo results
//     as a count followed by member, distance and position. It keeps nil and
//     empty slices apart and is the default.
//   - JSON: human readable, useful for debugging with curl against the http transport.
//   - GOB: Go's gob encoding. It works but is the slowest and largest of the three.
//
// All serializers are stateless and safe for concurrent use.
//
//	s := serializer.NewBinarySerializer()
//	data, err := s.Serialize(msg)
//	var received common.Message
//	err = s.Deserialize(data, &received)
package serializer
