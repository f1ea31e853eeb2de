package common

import (
	"strings"
	"testing"
)

func TestServerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		shards  []ServerShard
		wantErr string
	}{
		{
			name: "local master with replica",
			shards: []ServerShard{
				{ShardID: 100, Type: ShardTypeLocalIStore},
				{ShardID: 101, Type: ShardTypeReplicaIStore, ReplicaOf: 100},
			},
		},
		{
			name: "raft master with replica",
			shards: []ServerShard{
				{ShardID: 200, Type: ShardTypeRemoteIStore},
				{ShardID: 201, Type: ShardTypeReplicaIStore, ReplicaOf: 200},
			},
		},
		{
			name: "duplicate id",
			shards: []ServerShard{
				{ShardID: 1, Type: ShardTypeLocalIStore},
				{ShardID: 1, Type: ShardTypeRemoteIStore},
			},
			wantErr: "duplicate shard ID 1",
		},
		{
			name:    "unknown master",
			shards:  []ServerShard{{ShardID: 2, Type: ShardTypeReplicaIStore, ReplicaOf: 9}},
			wantErr: "unknown shard 9",
		},
		{
			name: "replica of replica",
			shards: []ServerShard{
				{ShardID: 1, Type: ShardTypeLocalIStore},
				{ShardID: 2, Type: ShardTypeReplicaIStore, ReplicaOf: 1},
				{ShardID: 3, Type: ShardTypeReplicaIStore, ReplicaOf: 2},
			},
			wantErr: "can not follow replica shard 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := ServerConfig{Shards: tt.shards}
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "error", "INFO", ""} {
		if _, err := ParseLogLevel(level); err != nil {
			t.Errorf("ParseLogLevel(%q) = %v", level, err)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("ParseLogLevel(verbose) must fail")
	}
}
