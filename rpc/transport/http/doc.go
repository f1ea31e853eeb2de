// Package http implements the rpc transport on top of net/http. Each request is
// a POST to /{shardId} with the serialized message as body, the response body
// is the serialized response.
//
// The client balances requests round robin over all endpoints and sends a retry
// to the next endpoint. Endpoints may be given with or without scheme
// (localhost:8080 or http://localhost:8080).
//
// The http transport is slower than tcp or unix but works through proxies and
// is easy to inspect with curl when the json serializer is used.
package http
