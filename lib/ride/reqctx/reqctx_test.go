package reqctx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := FromContext(context.Background())
	assert.Equal(t, model.RegionUS, v.Region)
	assert.Equal(t, model.Strong, v.Consistency)
}

func TestWithAndFromContext(t *testing.T) {
	ctx := With(context.Background(), Values{Region: model.RegionASIA, Consistency: model.Eventual})
	v := FromContext(ctx)
	assert.Equal(t, model.RegionASIA, v.Region)
	assert.Equal(t, model.Eventual, v.Consistency)

	// the parent context is untouched
	assert.Equal(t, Default(), FromContext(context.Background()))
}

func TestParse(t *testing.T) {
	tests := []struct {
		region, consistency string
		want                Values
	}{
		{"EU", "EVENTUAL", Values{model.RegionEU, model.Eventual}},
		{"asia", "strong", Values{model.RegionASIA, model.Strong}},
		{"", "", Default()},
		{"MARS", "EVENTUAL", Values{model.RegionUS, model.Eventual}},
		{"EU", "sometimes", Values{model.RegionEU, model.Strong}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Parse(tt.region, tt.consistency), "Parse(%q, %q)", tt.region, tt.consistency)
	}
}

func TestMiddleware(t *testing.T) {
	var seen Values
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/rides", nil)
	req.Header.Set(HeaderRegion, "eu")
	req.Header.Set(HeaderConsistency, "Eventual")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, Values{model.RegionEU, model.Eventual}, seen)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/rides", nil))
	assert.Equal(t, Default(), seen)
}
