package server

import (
	"log/slog"
	"net/http"

	"pharmacy-dashboard/internal/config"
	"pharmacy-dashboard/internal/handlers"
	"pharmacy-dashboard/internal/middleware"
	"pharmacy-dashboard/internal/services"
	"pharmacy-dashboard/internal/settings"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	apiHandlers  *handlers.APIHandlers
	sseHandlers  *handlers.SSEHandlers
	pageHandlers *handlers.PageHandlers
}

func NewServer(cfg *config.Config, analytics *services.Analytics, store settings.Store, logger *slog.Logger) *Server {
	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		apiHandlers:  handlers.NewAPIHandlers(analytics, store, cfg.Settings.Cookie, logger),
		sseHandlers:  handlers.NewSSEHandlers(analytics, logger, cfg.Display.Currency),
		pageHandlers: handlers.NewPageHandlers(store, cfg.Settings.Cookie, cfg.Display.Currency, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireToken(s.logger, h)
	}

	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", s.pageHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.Handle("GET /api/analytics", authed(s.apiHandlers.HandleAnalytics))
	s.mux.Handle("GET /api/growth", authed(s.apiHandlers.HandleGrowth))
	s.mux.HandleFunc("GET /api/settings", s.apiHandlers.HandleGetSettings)
	s.mux.HandleFunc("PUT /api/settings", s.apiHandlers.HandlePutSettings)

	// Datastar SSE endpoints
	s.mux.Handle("GET /sse/analytics", authed(s.sseHandlers.HandleAnalytics))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
