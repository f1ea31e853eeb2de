package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ValentinKolb/dRide/lib/ride/coordinator"
	"github.com/ValentinKolb/dRide/lib/ride/reqctx"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("api")

// Server exposes a coordinator over HTTP
type Server struct {
	coord   *coordinator.Coordinator
	handler http.Handler

	mu     sync.Mutex
	server *http.Server
	closed bool
}

func NewServer(coord *coordinator.Coordinator) *Server {
	s := &Server{coord: coord}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /drivers", s.createDriver)
	mux.HandleFunc("POST /drivers/updateLocation", s.updateDriverLocation)
	mux.HandleFunc("POST /drivers/{id}/status", s.setDriverStatus)
	mux.HandleFunc("GET /drivers", s.listDrivers)
	mux.HandleFunc("GET /drivers/{id}", s.getDriver)
	mux.HandleFunc("DELETE /drivers/{id}", s.deleteDriver)

	mux.HandleFunc("POST /passengers", s.createPassenger)
	mux.HandleFunc("GET /passengers", s.listPassengers)
	mux.HandleFunc("GET /passengers/{id}", s.getPassenger)
	mux.HandleFunc("DELETE /passengers/{id}", s.deletePassenger)

	mux.HandleFunc("POST /rides/book", s.bookRide)
	mux.HandleFunc("POST /rides/end", s.endRide)
	mux.HandleFunc("GET /rides", s.listRides)
	mux.HandleFunc("GET /rides/{id}", s.getRide)

	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	s.handler = loggerMiddleware(reqctx.Middleware(mux))
	return s
}

// Handler returns the routes of the API
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Listen serves the API on addr until Close is called
func (s *Server) Listen(addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.server = server
	s.mu.Unlock()

	Logger.Infof("Starting ride API on %s", addr)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// --------------------------------------------------------------------------
// Middleware (logging)
// --------------------------------------------------------------------------

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		Logger.Debugf("%s %s => %d took %s", r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
