package util

import (
	"testing"

	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/ValentinKolb/dRide/lib/ride/router"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		in      string
		want    Route
		wantErr bool
	}{
		{in: "us.master=100@http://localhost:8080", want: Route{Key: router.Key{Region: model.RegionUS, Role: router.Master}, ShardID: 100, Endpoint: "http://localhost:8080"}},
		{in: " EU.Replica=201@/tmp/dride.sock ", want: Route{Key: router.Key{Region: model.RegionEU, Role: router.Replica}, ShardID: 201, Endpoint: "/tmp/dride.sock"}},
		{in: "asia.master=7@localhost:9000", want: Route{Key: router.Key{Region: model.RegionASIA, Role: router.Master}, ShardID: 7, Endpoint: "localhost:9000"}},
		{in: "us.master", wantErr: true},
		{in: "us=100@x", wantErr: true},
		{in: "mars.master=100@x", wantErr: true},
		{in: "us.leader=100@x", wantErr: true},
		{in: "us.master=abc@x", wantErr: true},
		{in: "us.master=100@", wantErr: true},
		{in: "us.master=100", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseRoute(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRoute(%q) expected an error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRoute(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRoute(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseRoutes(t *testing.T) {
	routes, err := ParseRoutes([]string{"us.master=1@a,us.replica=2@a", "", "eu.master=3@b"})
	if err != nil {
		t.Fatalf("ParseRoutes failed: %v", err)
	}
	if len(routes) != 3 {
		t.Fatalf("expected 3 routes, got %d", len(routes))
	}

	if _, err := ParseRoutes([]string{"us.master=1@a", "us.master=2@b"}); err == nil {
		t.Error("expected an error for a duplicate cell")
	}
}
