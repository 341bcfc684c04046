// Package api provides the HTTP API server and handlers for the Memoria
// server. The API is consumed by platform-facing bots that own message
// rendering and identity; handlers trust the actor fields they carry.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/memoriaapp/memoria-server/internal/ratelimit"
	"github.com/memoriaapp/memoria-server/internal/service"
	"github.com/memoriaapp/memoria-server/internal/session"
	"github.com/memoriaapp/memoria-server/internal/store"
	"github.com/memoriaapp/memoria-server/internal/validation"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Recall   *service.RecallService
	Carousel *service.CarouselService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store         store.Store
	services      *Services
	sessions      *session.Store
	validator     *validation.Validator
	actionLimiter *ratelimit.UserLimiter
	router        *chi.Mux
	api           huma.API
	logger        *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// corsOrigins are the origins the CORS middleware admits.
func NewServer(st store.Store, services *Services, sessions *session.Store, actionLimiter *ratelimit.UserLimiter, corsOrigins []string, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}))

	humaConfig := huma.DefaultConfig("Memoria API", "1.0.0")
	humaAPI := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:         st,
		services:      services,
		sessions:      sessions,
		validator:     validation.New(),
		actionLimiter: actionLimiter,
		router:        router,
		api:           humaAPI,
		logger:        logger,
	}

	s.registerHealthRoutes()
	s.registerMediaRoutes()
	s.registerCarouselRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
