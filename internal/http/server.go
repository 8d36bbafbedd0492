package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/taxi-dispatch/internal/config"
	"github.com/example/taxi-dispatch/internal/dispatch"
	"github.com/example/taxi-dispatch/internal/drivers"
	"github.com/example/taxi-dispatch/internal/ledger"
	"github.com/example/taxi-dispatch/internal/registry"
)

// Server is the HTTP surface: the websocket endpoint feeding the
// dispatch coordinator plus a read-only query API over the registry,
// ledger and driver pool.
type Server struct {
	cfg    config.ServerConfig
	logger *slog.Logger

	reg    *registry.Registry
	ledger *ledger.Ledger
	coord  *dispatch.Coordinator
	pool   *drivers.Pool

	mux      *mux.Router
	upgrader websocket.Upgrader
}

func NewServer(cfg config.ServerConfig, logger *slog.Logger, reg *registry.Registry, ldg *ledger.Ledger, coord *dispatch.Coordinator, pool *drivers.Pool) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		reg:    reg,
		ledger: ldg,
		coord:  coord,
		pool:   pool,
		mux:    mux.NewRouter(),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: cfg.WSHandshakeTimeout,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/ws/stats", s.handleWSStats).Methods("GET")

	s.mux.HandleFunc("/api/v1/rides", s.handleListRides).Methods("GET")
	s.mux.HandleFunc("/api/v1/rides/stats", s.handleRideStats).Methods("GET")
	s.mux.HandleFunc("/api/v1/rides/{ride_id}", s.handleGetRide).Methods("GET")

	s.mux.HandleFunc("/api/v1/drivers", s.handleListDrivers).Methods("GET")
	s.mux.HandleFunc("/api/v1/drivers/online", s.handleOnlineDrivers).Methods("GET")
	s.mux.HandleFunc("/api/v1/drivers/stats", s.handleDriverStats).Methods("GET")
	s.mux.HandleFunc("/api/v1/drivers/generate", s.handleGenerateDriver).Methods("POST")
	s.mux.HandleFunc("/api/v1/drivers/{driver_id}", s.handleGetDriver).Methods("GET")

	s.mux.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }
