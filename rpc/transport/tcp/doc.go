// Package tcp provides the TCP connectors for the framed transport of the base
// package. Connections on both ends get the socket options of common.SocketConfig
// (no delay, keep alive, linger and buffer sizes).
package tcp
