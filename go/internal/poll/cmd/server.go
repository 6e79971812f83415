package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/admin"
	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/config"
	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/coordinator"
	"github.com/Prabhsingh0401/Polling-System/go/internal/poll/gateway"
)

func setupServer(cfg *config.Config, connections *gateway.ConnectionManager, coord *coordinator.Coordinator, mirror admin.MirrorStatus) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	registerRoutes(r, connections, coord, mirror)

	// Wrap with CORS
	handler := c.Handler(r)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      h2c.NewHandler(handler, &http2.Server{}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func registerRoutes(r chi.Router, connections *gateway.ConnectionManager, coord *coordinator.Coordinator, mirror admin.MirrorStatus) {
	// Websocket transport
	gateway.NewWebSocketHandler(connections, coord).RegisterRoutes(r)

	// REST compatibility routes
	app := admin.NewApp(coord)
	admin.NewHandlers(app).RegisterRoutes(r)

	// Admin RPC service
	adminServicePath, adminServiceHandler := admin.NewAdminServiceHandler(admin.NewService(app))
	r.Mount(adminServicePath, adminServiceHandler)

	r.Method(http.MethodGet, "/health", admin.NewHealthChecker(coord, mirror))

	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if _, err := w.Write([]byte("Server is working!")); err != nil {
			log.Error().Err(err).Msg("failed to write test response")
		}
	})
}
