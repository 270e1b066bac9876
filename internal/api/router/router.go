// Package router assembles the HTTP surface of the concierge service.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/easysalon/salon-concierge/internal/http/middleware"
	"github.com/easysalon/salon-concierge/internal/webchat"
	"github.com/easysalon/salon-concierge/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Webchat            *webchat.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// MessageRatePerSec throttles the HTTP message endpoint per client IP.
	// Zero disables throttling.
	MessageRatePerSec float64
	MessageBurst      int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handleHealth)

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	if cfg.Webchat != nil {
		r.Route("/webchat", func(r chi.Router) {
			r.Get("/ws", cfg.Webchat.HandleWebSocket)
			r.Get("/history", cfg.Webchat.HandleHistory)
			r.Get("/suggestions", cfg.Webchat.HandleSuggestions)

			r.Group(func(r chi.Router) {
				if cfg.MessageRatePerSec > 0 {
					r.Use(httpmiddleware.RateLimit(cfg.MessageRatePerSec, cfg.MessageBurst))
				}
				r.Post("/message", cfg.Webchat.HandleMessage)
			})
		})
	}

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
