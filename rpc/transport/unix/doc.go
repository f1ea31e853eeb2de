// Package unix provides the Unix domain socket connectors for the framed
// transport of the base package. It is meant for store nodes and api processes
// running on the same machine. The endpoint is the socket path, an existing
// file at that path is removed when the server starts.
package unix
