package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/edgefit-be/internal/api/handlers"
	"github.com/isdelr/edgefit-be/internal/auth"
	"github.com/isdelr/edgefit-be/internal/metrics"
	"github.com/isdelr/edgefit-be/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Options holds router settings taken from configuration.
type Options struct {
	AllowedOrigins []string
	SecureCookies  bool
}

// NewRouter creates and configures a new Chi router.
func NewRouter(
	opts Options,
	userService services.UserServiceProvider,
	chatService services.ChatServiceProvider,
	healthHandler *handlers.HealthHandler,
	rec metrics.Recorder,
	gatherer prometheus.Gatherer,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(accessLog(rec))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, opts.SecureCookies)
	chatHandler := handlers.NewChatHandler(chatService)
	wsHandler := handlers.NewWebSocketHandler(chatService, opts.AllowedOrigins)

	r.Get("/healthz", healthHandler.Get)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register/", userHandler.Register)
		r.Post("/login/", userHandler.Login)
		r.Post("/token", userHandler.Token)
	})

	r.Route("/bot", func(r chi.Router) {
		r.Use(auth.JWTMiddleware(userService))

		r.Post("/chat/", chatHandler.Chat)
		r.Post("/save", chatHandler.Save)
		r.Get("/history", chatHandler.History)
		r.Get("/ws", wsHandler.Serve)
	})

	return r
}

// accessLog logs every request and counts responses by status.
func accessLog(rec metrics.Recorder) func(http.Handler) http.Handler {
	return hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		rec.RecordHTTPStatus(status)

		level := zerolog.InfoLevel
		if status >= 500 {
			level = zerolog.ErrorLevel
		} else if status >= 400 {
			level = zerolog.WarnLevel
		}
		hlog.FromRequest(r).WithLevel(level).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("http_request")
	})
}
