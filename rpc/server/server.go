package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/dRide/lib/db"
	"github.com/ValentinKolb/dRide/lib/db/engines/maple"
	"github.com/ValentinKolb/dRide/lib/store"
	"github.com/ValentinKolb/dRide/lib/store/dstore"
	"github.com/ValentinKolb/dRide/lib/store/lstore"
	"github.com/ValentinKolb/dRide/lib/store/rstore"
	"github.com/ValentinKolb/dRide/rpc/common"
	"github.com/ValentinKolb/dRide/rpc/serializer"
	"github.com/ValentinKolb/dRide/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a shard of the RPC server: the store it encapsulates and
// the adapter that handles requests for the store
type serverShard struct {
	Store   store.IStore
	Adapter IRPCServerAdapter
	label   string // shard id as metrics label
}

// RPCServer serves a set of store shards over a transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]

	// resources owned by the server, released by Close
	pairs         map[uint64]*rstore.Pair
	nodeHost      *dragonboat.NodeHost
	metrics       *metrics.Set
	metricsServer *http.Server
	closeOnce     sync.Once
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
		pairs:      make(map[uint64]*rstore.Pair),
		metrics:    metrics.NewSet(),
	}
}

// Serve initializes all shards and starts the transport layer.
// It blocks until the transport is closed.
func (s *RPCServer) Serve() error {
	if err := s.Init(); err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// Init validates the configuration and creates all shards. Serve calls it,
// it is exported for callers that want to use the shards without a transport.
func (s *RPCServer) Init() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	Logger.Infof("Created RPC Server (serializer %s)", s.serializer.Name())
	Logger.Infof(s.config.String())

	dbFactory := func() db.DB { return maple.NewMapleDB(nil) }

	// only create the NodeHost if we have raft shards
	if s.config.HasRemoteShard() {
		nodeHost, err := dragonboat.NewNodeHost(s.config.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
		s.nodeHost = nodeHost
	}

	timeout := time.Duration(s.config.TimeoutSecond) * time.Second

	// lstore shards that are followed by a replica become a replicated pair
	followed := make(map[uint64]bool)
	for _, shardConfig := range s.config.Shards {
		if shardConfig.Type == common.ShardTypeReplicaIStore {
			followed[shardConfig.ReplicaOf] = true
		}
	}
	types := make(map[uint64]common.ServerShardType, len(s.config.Shards))
	for _, shardConfig := range s.config.Shards {
		types[shardConfig.ShardID] = shardConfig.Type
	}

	/*
		Note: A single RPC Server can have any number of local, replica and raft shards.
		Masters are created before their replicas, so the shards are built in two passes.
	*/

	for _, shardConfig := range s.config.Shards {
		switch shardConfig.Type {
		case common.ShardTypeLocalIStore:
			if followed[shardConfig.ShardID] {
				pair := rstore.NewReplicatedPair(dbFactory, s.config.ReplicaLag)
				s.pairs[shardConfig.ShardID] = pair
				s.addShard(shardConfig.ShardID, pair.Master())
				s.metrics.NewGauge(fmt.Sprintf(`rstore_pending_writes{shard="%d"}`, shardConfig.ShardID), func() float64 {
					return float64(pair.Pending())
				})
				Logger.Infof("created replicated local store for shard %d", shardConfig.ShardID)
			} else {
				s.addShard(shardConfig.ShardID, lstore.NewLocalStore(dbFactory))
				Logger.Infof("created local store for shard %d", shardConfig.ShardID)
			}

		case common.ShardTypeRemoteIStore:
			if s.nodeHost == nil {
				return fmt.Errorf("node host is nil, cannot create remote store")
			}
			if err := s.nodeHost.StartConcurrentReplica(s.config.ClusterMembers, false, dstore.CreateStateMachineFactory(dbFactory), s.config.ToDragonboatConfig(shardConfig.ShardID)); err != nil {
				return fmt.Errorf("failed to start shard %d: %w", shardConfig.ShardID, err)
			}
			s.addShard(shardConfig.ShardID, dstore.NewDistributedStore(s.nodeHost, shardConfig.ShardID, timeout))
			Logger.Infof("started raft shard %d", shardConfig.ShardID)

		case common.ShardTypeReplicaIStore:
			// second pass

		default:
			return fmt.Errorf("invalid shard type: %s", shardConfig.Type)
		}
	}

	for _, shardConfig := range s.config.Shards {
		if shardConfig.Type != common.ShardTypeReplicaIStore {
			continue
		}
		if types[shardConfig.ReplicaOf] == common.ShardTypeRemoteIStore {
			s.addShard(shardConfig.ShardID, dstore.NewReplicaView(s.nodeHost, shardConfig.ReplicaOf, timeout))
		} else {
			s.addShard(shardConfig.ShardID, s.pairs[shardConfig.ReplicaOf].Replica())
		}
		Logger.Infof("created replica shard %d following shard %d", shardConfig.ShardID, shardConfig.ReplicaOf)
	}

	if s.config.MetricsEndpoint != "" {
		s.startMetricsServer()
	}

	Logger.Infof("dRide store setup completed successfully")

	s.registerTransportHandler()
	return nil
}

// Close stops the transport and releases all shards
func (s *RPCServer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.transport.Close()
		if s.metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = s.metricsServer.Shutdown(ctx)
			cancel()
		}
		for id, pair := range s.pairs {
			if pErr := pair.Close(); pErr != nil {
				Logger.Errorf("failed to close shard %d: %v", id, pErr)
			}
		}
		if s.nodeHost != nil {
			s.nodeHost.Close()
		}
	})
	return err
}

// Handle deserializes a request for a shard, executes it and returns the serialized response
func (s *RPCServer) Handle(ctx context.Context, shardId uint64, req []byte) []byte {
	var respMsg *common.Message

	shard, ok := s.shards.Load(shardId)
	if !ok {
		respMsg = common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardId))
	} else {
		var msg common.Message
		if err := s.serializer.Deserialize(req, &msg); err != nil {
			respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
		} else {
			start := time.Now()
			respMsg = shard.Adapter.Handle(ctx, &msg, shard.Store)
			s.metrics.GetOrCreateCounter(fmt.Sprintf(`rpc_requests_total{shard=%q,type=%q}`, shard.label, msg.MsgType)).Inc()
			s.metrics.GetOrCreateHistogram(fmt.Sprintf(`rpc_request_duration_seconds{shard=%q}`, shard.label)).UpdateDuration(start)
			if respMsg.Err != "" {
				s.metrics.GetOrCreateCounter(fmt.Sprintf(`rpc_errors_total{shard=%q,code=%q}`, shard.label, respMsg.Code)).Inc()
			}
		}
	}

	val, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("failed to serialize response: %v", err)
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *RPCServer) addShard(shardID uint64, st store.IStore) {
	s.shards.Store(shardID, serverShard{
		Store:   st,
		Adapter: NewIStoreServerAdapter(),
		label:   strconv.FormatUint(shardID, 10),
	})
}

func (s *RPCServer) registerTransportHandler() {
	s.transport.RegisterHandler(s.Handle)
}

func (s *RPCServer) startMetricsServer() {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		s.metrics.WritePrometheus(w)
		metrics.WritePrometheus(w, true)
	})
	s.metricsServer = &http.Server{Addr: s.config.MetricsEndpoint, Handler: mux}

	go func() {
		Logger.Infof("Serving metrics on %s/metrics", s.config.MetricsEndpoint)
		if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("metrics server failed: %v", err)
		}
	}()
}
