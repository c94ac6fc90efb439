// v1
// server.go

package api

import (
	"log/slog"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pratikpanchal22/multi-source-energy-meter/internal/broker"
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/control"
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/sim"
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/telemetry"
)

// ConnectionReporter exposes the external publisher's connectivity for the
// broker status endpoint.
type ConnectionReporter interface {
	Connected() bool
}

// Server bundles the HTTP surface: control and configuration requests in,
// WebSocket event stream out.
type Server struct {
	log       *slog.Logger
	hub       *telemetry.Hub
	processor *control.Processor
	readings  *sim.Store
	brokers   *broker.ConfigStore
	publisher ConnectionReporter
	sources   []control.Source
}

func NewServer(log *slog.Logger, hub *telemetry.Hub, processor *control.Processor, readings *sim.Store, brokers *broker.ConfigStore, publisher ConnectionReporter, sources []control.Source) *Server {
	return &Server{
		log:       log.With(slog.String("component", "api")),
		hub:       hub,
		processor: processor,
		readings:  readings,
		brokers:   brokers,
		publisher: publisher,
		sources:   sources,
	}
}

// Router registers all routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/status", s.handleStatus).Methods("GET")
	r.HandleFunc("/control", s.handleControl).Methods("POST")
	r.HandleFunc("/configuration", s.handleGetConfiguration).Methods("GET")
	r.HandleFunc("/configuration", s.handlePostConfiguration).Methods("POST")
	r.HandleFunc("/broker/status", s.handleBrokerStatus).Methods("GET")
	r.HandleFunc("/events", s.handleEvents).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.log.Info("http routes registered")
	return r
}
