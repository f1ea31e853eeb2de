package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ValentinKolb/dRide/lib/ride/coordinator"
	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/ValentinKolb/dRide/lib/ride/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type api struct {
	t       *testing.T
	handler http.Handler
}

func newAPI(t *testing.T) *api {
	lt := router.NewLocalTable(0)
	t.Cleanup(func() { _ = lt.Close() })
	r, err := router.New(lt.Table)
	require.NoError(t, err)
	return &api{t: t, handler: NewServer(coordinator.New(r)).Handler()}
}

func (a *api) do(method, target string, body any, header map[string]string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestBookAndEndFlow(t *testing.T) {
	a := newAPI(t)
	eu := map[string]string{"X-Region": "eu"}

	rec := a.do(http.MethodPost, "/drivers", map[string]any{"id": "D1", "name": "Ada", "latitude": 52.52, "longitude": 13.40}, eu)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, model.DriverAvailable, decodeAs[model.Driver](t, rec).Status)

	rec = a.do(http.MethodPost, "/passengers", map[string]any{"id": "P1", "name": "Bo", "latitude": 52.51, "longitude": 13.41}, eu)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/rides/book?id=P1", nil, eu)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ride := decodeAs[model.Ride](t, rec)
	assert.Equal(t, "D1", ride.DriverID)
	assert.Equal(t, model.RideOngoing, ride.Status)
	assert.Contains(t, rec.Body.String(), `"endTime":null`)

	rec = a.do(http.MethodGet, "/drivers/D1", nil, eu)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.DriverOnRide, decodeAs[model.Driver](t, rec).Status)

	rec = a.do(http.MethodPost, "/rides/end?id="+ride.ID, nil, eu)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ended := decodeAs[model.Ride](t, rec)
	assert.Equal(t, model.RideCompleted, ended.Status)
	require.NotNil(t, ended.EndTime)

	rec = a.do(http.MethodPost, "/rides/end?id="+ride.ID, nil, eu)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodGet, "/rides", nil, eu)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeAs[[]model.Ride](t, rec), 1)

	// the rides live in EU, the default region does not have them
	rec = a.do(http.MethodGet, "/rides/"+ride.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookWithJSONBody(t *testing.T) {
	a := newAPI(t)
	a.do(http.MethodPost, "/drivers", map[string]any{"id": "D1", "name": "Ada", "latitude": 40.71, "longitude": -74.0}, nil)
	a.do(http.MethodPost, "/passengers", map[string]any{"id": "P1", "name": "Bo", "latitude": 40.72, "longitude": -74.0}, nil)

	rec := a.do(http.MethodPost, "/rides/book", map[string]string{"passengerId": "P1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "P1", decodeAs[model.Ride](t, rec).PassengerID)
}

func TestErrorStatusMapping(t *testing.T) {
	a := newAPI(t)
	a.do(http.MethodPost, "/drivers", map[string]any{"id": "D1", "name": "Ada", "latitude": 40.71, "longitude": -74.0}, nil)

	tests := []struct {
		name   string
		method string
		target string
		body   any
		status int
		kind   string
	}{
		{"unknown passenger", http.MethodPost, "/rides/book?id=nobody", nil, http.StatusNotFound, "NotFound"},
		{"missing id", http.MethodPost, "/rides/book", nil, http.StatusBadRequest, "Validation"},
		{"unknown ride", http.MethodPost, "/rides/end?id=nope", nil, http.StatusNotFound, "NotFound"},
		{"duplicate driver", http.MethodPost, "/drivers", map[string]any{"id": "D1", "name": "Ada", "latitude": 1, "longitude": 1}, http.StatusConflict, "Conflict"},
		{"empty name", http.MethodPost, "/drivers", map[string]any{"name": "", "latitude": 1, "longitude": 1}, http.StatusBadRequest, "Validation"},
		{"latitude out of range", http.MethodPost, "/passengers", map[string]any{"name": "Bo", "latitude": 86, "longitude": 1}, http.StatusBadRequest, "Validation"},
		{"unknown status", http.MethodPost, "/drivers/D1/status", map[string]string{"status": "SLEEPING"}, http.StatusBadRequest, "Validation"},
		{"on ride status", http.MethodPost, "/drivers/D1/status", map[string]string{"status": "ON_RIDE"}, http.StatusBadRequest, "Validation"},
		{"location without coordinates", http.MethodPost, "/drivers/updateLocation", map[string]string{"id": "D1"}, http.StatusBadRequest, "Validation"},
		{"unknown driver", http.MethodGet, "/drivers/D2", nil, http.StatusNotFound, "NotFound"},
		{"malformed body", http.MethodPost, "/passengers", "not an object", http.StatusBadRequest, "Validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(tt.method, tt.target, tt.body, nil)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decodeAs[errorBody](t, rec)
			assert.Equal(t, tt.kind, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestConsistencyHeader(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodPost, "/passengers", map[string]any{"id": "P1", "name": "Bo", "latitude": 1, "longitude": 1}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, level := range []string{"STRONG", "eventual", "bogus", ""} {
		rec = a.do(http.MethodGet, "/passengers", nil, map[string]string{"X-Consistency-Level": level, "X-Region": "nowhere"})
		require.Equal(t, http.StatusOK, rec.Code, level)
	}
	rec = a.do(http.MethodGet, "/passengers/P1", nil, map[string]string{"X-Region": "US"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInternalErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusOf(model.KindInternal))

	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/rides", nil), assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal", decodeAs[errorBody](t, rec).Error)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newAPI(t)
	a.do(http.MethodPost, "/rides/book?id=nobody", nil, nil)

	rec := a.do(http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ride_bookings_total{result="notfound"}`)
}
