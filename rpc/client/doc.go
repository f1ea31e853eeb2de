// Package client implements store.IStore on top of the rpc transport, so the
// ride services can use a remote shard like a local store.
//
//	config := common.ClientConfig{
//		Endpoints:              []string{"localhost:8080"},
//		TimeoutSecond:          5,
//		RetryCount:             3,
//		ConnectionsPerEndpoint: 1,
//	}
//	st, err := client.NewRPCStore(100, config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	err = st.HSet(ctx, "drivers:EU", "d1", data)
//
// Errors of the remote store come back as *store.Error with the code set by the
// server. Transport failures are plain errors, a done context yields RetCCanceled.
//
// Every store needs its own transport. More connections per endpoint help with
// large payloads, for small messages one connection is usually as fast.
package client
