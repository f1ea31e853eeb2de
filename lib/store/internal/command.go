package internal

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ValentinKolb/dRide/lib/db"
)

// CommandType defines the possible write operations.
type CommandType uint8

const (
	CommandTHSet         CommandType = iota // Insert or update a hash field.
	CommandTHSetEIfUnset                    // Insert a hash field if it does not exist.
	CommandTHDel                            // Delete a hash field.
	CommandTGeoAdd                          // Insert or move a geo member.
	CommandTGeoRemove                       // Remove a geo member.
)

func (ct CommandType) String() string {
	switch ct {
	case CommandTHSet:
		return "HSet"
	case CommandTHSetEIfUnset:
		return "HSetEIfUnset"
	case CommandTHDel:
		return "HDel"
	case CommandTGeoAdd:
		return "GeoAdd"
	case CommandTGeoRemove:
		return "GeoRemove"
	default:
		return fmt.Sprintf("Unknown(%d)", ct)
	}
}

// ToDBFeature converts a CommandType to the db.Feature it needs.
func (ct CommandType) ToDBFeature() (db.Feature, error) {
	switch ct {
	case CommandTHSet:
		return db.FeatureHSet, nil
	case CommandTHSetEIfUnset:
		return db.FeatureHSetEIfUnset, nil
	case CommandTHDel:
		return db.FeatureHDel, nil
	case CommandTGeoAdd:
		return db.FeatureGeoAdd, nil
	case CommandTGeoRemove:
		return db.FeatureGeoRemove, nil
	default:
		return 0, fmt.Errorf("unknown command type %d", ct)
	}
}

// Command is a single write operation (an entry of the raft log or of a replication log).
// Collection is the geo key for geo commands and Field the member.
type Command struct {
	Type       CommandType
	Collection string
	Field      string
	DeleteIn   uint64
	Point      db.GeoPoint
	Value      []byte
}

const headerSize = 1 + 8 + 8 + 8 + 4 // type, deleteIn, lon, lat, collection length

// SizeBytes returns the exact number of bytes needed to serialize this command
func (command *Command) SizeBytes() int {
	return headerSize + len(command.Collection) + 4 + len(command.Field) + len(command.Value)
}

// Serialize encodes the command as:
// 1 byte type,
// 8 bytes deleteIn,
// 8 bytes longitude (IEEE 754 bits),
// 8 bytes latitude (IEEE 754 bits),
// 4 bytes collection length, N bytes collection,
// 4 bytes field length, N bytes field,
// remaining bytes value (optional).
// All integers are big endian.
func (command *Command) Serialize() []byte {
	result := make([]byte, command.SizeBytes())

	result[0] = byte(command.Type)
	binary.BigEndian.PutUint64(result[1:9], command.DeleteIn)
	binary.BigEndian.PutUint64(result[9:17], math.Float64bits(command.Point.Lon))
	binary.BigEndian.PutUint64(result[17:25], math.Float64bits(command.Point.Lat))

	pos := 25
	binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(command.Collection)))
	pos += 4
	pos += copy(result[pos:], command.Collection)

	binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(command.Field)))
	pos += 4
	pos += copy(result[pos:], command.Field)

	copy(result[pos:], command.Value)
	return result
}

// Deserialize extracts all Command fields from a byte array.
func (command *Command) Deserialize(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("data too short for command")
	}

	command.Type = CommandType(data[0])
	command.DeleteIn = binary.BigEndian.Uint64(data[1:9])
	command.Point = db.GeoPoint{
		Lon: math.Float64frombits(binary.BigEndian.Uint64(data[9:17])),
		Lat: math.Float64frombits(binary.BigEndian.Uint64(data[17:25])),
	}

	pos := 25
	collLen := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if len(data) < pos+collLen+4 {
		return fmt.Errorf("data too short for collection of length %d", collLen)
	}
	command.Collection = string(data[pos : pos+collLen])
	pos += collLen

	fieldLen := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if len(data) < pos+fieldLen {
		return fmt.Errorf("data too short for field of length %d", fieldLen)
	}
	command.Field = string(data[pos : pos+fieldLen])
	pos += fieldLen

	if valueLen := len(data) - pos; valueLen > 0 {
		// reuse the buffer if possible
		if cap(command.Value) < valueLen {
			command.Value = make([]byte, valueLen)
		} else {
			command.Value = command.Value[:valueLen]
		}
		copy(command.Value, data[pos:])
	} else {
		command.Value = nil
	}

	return nil
}
