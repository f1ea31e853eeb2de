package common

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lni/dragonboat/v4/config"
)

// --------------------------------------------------------------------------
// helper functions to interface with Dragonboat (for the server)
// --------------------------------------------------------------------------

// Dragonboat uses RTT (Round Trip Time) to determine the timing of elections and heartbeats.
// These default values are selected according to the RAFT Paper
const (
	electionRTTFactor  = 10
	heartbeatRTTFactor = 1
)

// ToDragonboatConfig converts the ServerConfig to Dragonboat Config
func (c *ServerConfig) ToDragonboatConfig(shardId uint64) config.Config {
	return config.Config{
		ReplicaID:          c.ReplicaID,
		ShardID:            shardId,
		ElectionRTT:        electionRTTFactor,
		HeartbeatRTT:       heartbeatRTTFactor,
		CheckQuorum:        true,
		SnapshotEntries:    c.SnapshotEntries,
		CompactionOverhead: c.CompactionOverhead,
	}
}

// ToNodeHostConfig creates a NodeHostConfig for Dragonboat
func (c *ServerConfig) ToNodeHostConfig() config.NodeHostConfig {
	return config.NodeHostConfig{
		WALDir:         c.DataDir,
		NodeHostDir:    c.DataDir,
		RTTMillisecond: c.RTTMillisecond,
		RaftAddress:    c.ClusterMembers[c.ReplicaID],
	}
}

// --------------------------------------------------------------------------
// Transport configuration
// --------------------------------------------------------------------------

// SocketConfig holds the socket options used by the framed transports (tcp, unix)
type SocketConfig struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int // negative: os default
	WriteBufferSize int
	ReadBufferSize  int
}

// DefaultSocketConfig returns the socket options used if none are configured
func DefaultSocketConfig() SocketConfig {
	return SocketConfig{
		TCPNoDelay:      true,
		TCPKeepAliveSec: 30,
		TCPLingerSec:    -1,
	}
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

type ServerShardType string

const (
	ShardTypeLocalIStore   ServerShardType = "lstore"  // single local database
	ShardTypeReplicaIStore ServerShardType = "replica" // read replica of a lstore or dstore shard
	ShardTypeRemoteIStore  ServerShardType = "dstore"  // raft replicated shard
)

type ServerShard struct {
	// ShardID is the ID of the shard
	ShardID uint64
	// Type is the kind of store backing the shard
	Type ServerShardType
	// ReplicaOf is the ID of the shard a replica follows (only for ShardTypeReplicaIStore)
	ReplicaOf uint64
}

// ServerConfig holds all configuration parameters of a store node.
type ServerConfig struct {
	Shards []ServerShard

	// Dragonboat parameters
	RTTMillisecond     uint64
	SnapshotEntries    uint64
	CompactionOverhead uint64
	DataDir            string
	ReplicaID          uint64
	ClusterMembers     map[uint64]string

	// timeout for raft operations and socket reads/writes
	TimeoutSecond int64

	// ReplicaLag is the delay after which replicas of lstore shards apply writes of their master
	ReplicaLag time.Duration

	// Transport settings
	Endpoint        string
	BufferSize      int
	WorkersPerConn  int
	Socket          SocketConfig
	MetricsEndpoint string // empty disables the metrics listener
	LogLevel        string
}

// HasRemoteShard checks if the configuration contains any raft shards
func (c *ServerConfig) HasRemoteShard() bool {
	for _, shard := range c.Shards {
		if shard.Type == ShardTypeRemoteIStore {
			return true
		}
	}
	return false
}

// Validate checks that shard IDs are unique and that every replica shard follows
// a lstore or dstore shard of this config
func (c *ServerConfig) Validate() error {
	types := make(map[uint64]ServerShardType, len(c.Shards))
	for _, shard := range c.Shards {
		if _, dup := types[shard.ShardID]; dup {
			return fmt.Errorf("duplicate shard ID %d", shard.ShardID)
		}
		types[shard.ShardID] = shard.Type
	}
	for _, shard := range c.Shards {
		if shard.Type != ShardTypeReplicaIStore {
			continue
		}
		master, ok := types[shard.ReplicaOf]
		if !ok {
			return fmt.Errorf("shard %d is a replica of unknown shard %d", shard.ShardID, shard.ReplicaOf)
		}
		if master == ShardTypeReplicaIStore {
			return fmt.Errorf("shard %d can not follow replica shard %d", shard.ShardID, shard.ReplicaOf)
		}
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	if c.MetricsEndpoint != "" {
		addField("Metrics", c.MetricsEndpoint)
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	addSection("Shards")
	for _, shard := range c.Shards {
		desc := string(shard.Type)
		if shard.Type == ShardTypeReplicaIStore {
			desc = fmt.Sprintf("replica(%d), lag %s", shard.ReplicaOf, c.ReplicaLag)
		}
		addField(strconv.FormatUint(shard.ShardID, 10), desc)
	}

	if c.HasRemoteShard() {
		addSection("Node Identity")
		addField("RAFT Address", c.ClusterMembers[c.ReplicaID])
		addField("Node ID", strconv.FormatUint(c.ReplicaID, 10))

		addSection("RAFT Parameters")
		addField("Round Trip Time (ms)", fmt.Sprintf("%d ms", c.RTTMillisecond))
		addField("Election RTT (ms)", fmt.Sprintf("%d", c.RTTMillisecond*electionRTTFactor))
		addField("Heartbeat RTT (ms)", fmt.Sprintf("%d", c.RTTMillisecond*heartbeatRTTFactor))
		addField("Snapshot Entries", fmt.Sprintf("%d", c.SnapshotEntries))
		addField("Compaction Overhead", fmt.Sprintf("%d", c.CompactionOverhead))
		addField("Data Directory", c.DataDir)

		addSection("Cluster Members")
		var keys []uint64
		for k := range c.ClusterMembers {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("    Node %d: %s\n", k, c.ClusterMembers[k]))
		}
	}
	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoints              []string
	TimeoutSecond          int
	RetryCount             int
	ConnectionsPerEndpoint int
	Socket                 SocketConfig
}

// Timeout returns the configured timeout, 0 means none
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.ConnectionsPerEndpoint)))))

	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
