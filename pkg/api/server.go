// Package api exposes the contract registry and change-detection pipeline
// over HTTP using gorilla/mux.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/contractguard/contractguard/pkg/config"
	"github.com/contractguard/contractguard/pkg/contracts"
	"github.com/contractguard/contractguard/pkg/detection"
	"github.com/contractguard/contractguard/pkg/httputil"
	"github.com/contractguard/contractguard/pkg/observability"
)

// Server wires the HTTP surface together
type Server struct {
	router   *mux.Router
	registry contracts.Service
	detector *detection.Orchestrator
	logger   *observability.Logger
}

// RouteRegistrar registers a handler group on a router
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// NewServer creates a Server and registers all routes
func NewServer(registry contracts.Service, detector *detection.Orchestrator, logger *observability.Logger, cfg *config.ServerConfig, metrics *observability.Metrics) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		registry: registry,
		detector: detector,
		logger:   logger,
	}

	middlewares := []mux.MiddlewareFunc{
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
		httputil.ContentTypeMiddleware,
	}
	if cfg != nil {
		if cfg.MaxRequestBytes > 0 {
			middlewares = append(middlewares, httputil.MaxBytesMiddleware(cfg.MaxRequestBytes))
		}
		if len(cfg.AllowedOrigins) > 0 {
			middlewares = append(middlewares, httputil.CORSMiddleware(cfg.AllowedOrigins))
		}
	}
	if metrics != nil {
		middlewares = append(middlewares, observability.HTTPMetricsMiddleware(metrics))
	}
	s.router.Use(middlewares...)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	NewContractHandlers(registry, logger).RegisterRoutes(api)
	NewConsumerHandlers(registry, logger).RegisterRoutes(api)
	NewDetectionHandlers(detector, logger).RegisterRoutes(api)

	return s
}

// Router returns the configured router
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RegisterRoutes registers routes from an additional RouteRegistrar
func (s *Server) RegisterRoutes(registrar RouteRegistrar) {
	registrar.RegisterRoutes(s.router)
}
