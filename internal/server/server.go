// Package server exposes the lookup service over HTTP. The surface is a
// thin mapping onto the auth layer and the session broker: a middleware
// pipeline handles CORS and token decoding, per-route guards enforce login
// and role requirements, and the handlers translate the error taxonomy
// into status codes.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/educates/lookup-service/internal/auth"
	"github.com/educates/lookup-service/internal/broker"
	"github.com/educates/lookup-service/internal/cache"
)

const ProgramName = "lookup-service"

type Server struct {
	logger        *slog.Logger
	listener      net.Listener
	server        http.Server
	state         *cache.ServiceState
	authenticator *auth.Authenticator
	broker        *broker.Broker
	metrics       Emitter
	ready         atomic.Value
	done          chan struct{}
}

func NewServer(logger *slog.Logger, listener net.Listener, emitter Emitter, state *cache.ServiceState, authenticator *auth.Authenticator, sessionBroker *broker.Broker) *Server {
	s := &Server{
		logger:        logger,
		listener:      listener,
		state:         state,
		authenticator: authenticator,
		broker:        sessionBroker,
		metrics:       emitter,
		server: http.Server{
			ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
			BaseContext: func(net.Listener) context.Context {
				return ContextWithLogger(context.Background(), logger)
			},
		},
		done: make(chan struct{}),
	}

	cors := &corsMiddleware{state: state}
	token := &tokenMiddleware{authenticator: authenticator}
	metrics := metricsMiddleware{Emitter: emitter}

	mux := NewMiddlewareMux(
		MiddlewarePanic,
		MiddlewareLogging,
		cors.Middleware(),
		token.Middleware(),
		metrics.Metrics(),
	)

	mux.HandleFunc("/", s.NotFound)
	mux.HandleFunc("GET /healthz/ready", s.HealthzReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /login", s.Login)
	mux.HandleFunc("POST /auth/login", s.Login)
	mux.HandleFunc("POST /auth/logout", s.Logout)
	mux.HandleFunc("GET /auth/verify", s.LoginRequired(s.Verify))

	workshopRoles := s.RolesAccepted("admin", "tenant")

	mux.HandleFunc("GET /api/v1/workshops", s.LoginRequired(workshopRoles(s.GetWorkshops)))
	mux.HandleFunc("POST /api/v1/workshops", s.LoginRequired(workshopRoles(s.RequestWorkshop)))

	s.server.Handler = mux

	return s
}

// DefaultRegistry returns the prometheus registry the emitter and the
// /metrics endpoint share.
func DefaultRegistry() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

func (s *Server) Run(ctx context.Context, stop <-chan struct{}) {
	if stop != nil {
		go func() {
			<-stop
			s.ready.Store(false)
			_ = s.server.Shutdown(ctx)
		}()
	}

	s.logger.Info("listening", "address", s.listener.Addr().String())

	s.ready.Store(true)

	err := s.server.Serve(s.listener)
	if err != http.ErrServerClosed {
		s.logger.Error(err.Error())
		os.Exit(1)
	}

	close(s.done)
}

func (s *Server) Join() {
	<-s.done
}

func (s *Server) CheckReady() bool {
	ready, ok := s.ready.Load().(bool)
	return ok && ready
}

func (s *Server) NotFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "The requested path could not be found", http.StatusNotFound)
}

func (s *Server) HealthzReady(w http.ResponseWriter, r *http.Request) {
	var healthStatus float64
	if s.CheckReady() {
		w.WriteHeader(http.StatusOK)
		healthStatus = 1.0
	} else {
		w.WriteHeader(http.StatusInternalServerError)
		healthStatus = 0.0
	}

	s.metrics.EmitGauge("lookup_service_health", healthStatus, map[string]string{
		"endpoint": "/healthz/ready",
	})
}
