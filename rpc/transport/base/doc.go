// Package base implements the framed client and server transport shared by the
// tcp and unix transports. The protocol specific parts (dialing, listening and
// socket options) are injected through IClientConnector and IServerConnector.
//
// Every message is sent as a frame:
//
//   - 8 bytes: shard id (uint64, big endian)
//   - 8 bytes: request id (uint64, big endian)
//   - 4 bytes: payload length (uint32, big endian)
//   - N bytes: payload
//
// The client multiplexes requests over a fixed set of connections (round robin,
// ConnectionsPerEndpoint per endpoint) and matches responses by request id, so
// several requests can be in flight on one connection. A connection that fails
// to read fails all requests waiting on it and is re-established in the
// background. Failed sends are retried with exponential backoff up to RetryCount
// attempts, unless the caller's context is done.
//
// The server handles each connection in its own goroutine and processes up to
// WorkersPerConn requests of a connection concurrently. Read buffers come from
// a sync.Pool of BufferSize byte slices. Each request is handled with a context
// that expires after TimeoutSecond.
//
// All exported methods are safe for concurrent use, except Listen which must be
// called once.
package base
