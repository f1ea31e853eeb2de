// Package server implements the store node: a set of shards served over one
// rpc transport.
//
// Every shard wraps a store.IStore. The shard types are
//
//   - lstore: a local maple database. If a replica follows the shard, it is
//     created as the master of an rstore pair.
//   - replica: a read only view of another shard. A replica of a lstore shard
//     applies the writes of its master after ServerConfig.ReplicaLag, a replica
//     of a dstore shard serves stale reads from the local raft replica.
//   - dstore: a raft replicated shard (dragonboat). The raft settings of the
//     ServerConfig must be set.
//
// Requests are decoded with the configured serializer and executed by the
// IRPCServerAdapter of the shard. The server counts requests and errors per
// shard and type with VictoriaMetrics metrics, they are exposed on
// ServerConfig.MetricsEndpoint under /metrics if it is set.
//
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport(), serializer.NewBinarySerializer())
//	if err := s.Serve(); err != nil {
//		log.Fatal(err)
//	}
//
// Serve blocks until Close is called. Loggers are not initialized by the server,
// call common.InitLoggers first.
package server
