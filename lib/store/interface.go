package store

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dRide/lib/db"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by the store.
type DBFactory func() db.DB

// IStore is a handle to one hash-and-geo store (a master or a replica of a region).
// Write operations return only an error (nil on success), read operations
// return the requested data along with an error. Errors produced by the store
// itself are of type *Error.
//
// Every method takes a context. Implementations check it before doing any work
// and network backed ones pass it down to the transport.
type IStore interface {
	// HSet inserts or updates the field of a hash collection.
	HSet(ctx context.Context, collection, field string, value []byte) (err error)
	// HSetEIfUnset inserts the field only if it does not exist. No error is returned
	// if it exists. A deleteIn > 0 makes the field disappear after deleteIn further
	// writes to the store (a lease measured in logical time).
	HSetEIfUnset(ctx context.Context, collection, field string, value []byte, deleteIn uint64) (err error)
	// HDel removes the field from the hash collection.
	HDel(ctx context.Context, collection, field string) (err error)
	// HGet returns the value of a field. The boolean reports whether the field was found.
	HGet(ctx context.Context, collection, field string) (value []byte, loaded bool, err error)
	// HGetAll returns all fields of a hash collection.
	HGetAll(ctx context.Context, collection string) (fields map[string][]byte, err error)
	// GeoAdd inserts or moves a member of a geo collection.
	GeoAdd(ctx context.Context, key, member string, point db.GeoPoint) (err error)
	// GeoRemove removes a member from a geo collection.
	GeoRemove(ctx context.Context, key, member string) (err error)
	// GeoRadius returns the members within radiusKm of center, nearest first.
	GeoRadius(ctx context.Context, key string, center db.GeoPoint, radiusKm float64) (members []db.GeoMember, err error)
	// GetDBInfo returns metadata about the database underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo(ctx context.Context) (info db.DatabaseInfo, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error wraps a return code and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new store error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// FromContext turns a done context into a store error, nil if the context is still active
func FromContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return NewError(RetCCanceled, err.Error())
	}
	return nil
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by underlying database.
	RetCInvalidOperation                    // 3: Invalid operation (e.g. malformed arguments).
	RetCReadOnly                            // 4: Write sent to a read-only replica.
	RetCCanceled                            // 5: The context was canceled or its deadline passed.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCReadOnly:
		return "ReadOnly"
	case RetCCanceled:
		return "Canceled"
	default:
		return fmt.Sprintf("Unknown(%d)", uint64(c))
	}
}
