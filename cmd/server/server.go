// cmd/server/server.go
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Clubhouse/internal/api"
	"github.com/codr1/Clubhouse/internal/api/analytics"
	"github.com/codr1/Clubhouse/internal/api/auth"
	"github.com/codr1/Clubhouse/internal/api/availability"
	"github.com/codr1/Clubhouse/internal/api/newsletter"
	"github.com/codr1/Clubhouse/internal/api/predictions"
	"github.com/codr1/Clubhouse/internal/api/registrations"
	"github.com/codr1/Clubhouse/internal/api/sponsorship"
)

const healthPingTimeout = 2 * time.Second

func newServer(config *Config, deps *appDeps) *http.Server {
	return &http.Server{
		Addr:              ":" + config.Port,
		Handler:           newHandler(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// newHandler expects initHandlers to have run with the same deps.
func newHandler(deps *appDeps) http.Handler {
	mux := http.NewServeMux()
	registerRoutes(mux, deps)

	return api.ChainMiddleware(mux,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)
}

func registerRoutes(mux *http.ServeMux, deps *appDeps) {
	adminOnly := api.WithAdmin(deps.adminAuthorizer)

	mux.HandleFunc("GET /health", handleHealth(deps))

	// Public forms
	mux.HandleFunc("POST /api/register", registrations.HandleRegister)
	mux.HandleFunc("POST /api/availability", availability.HandleSetAvailability)
	mux.HandleFunc("POST /api/newsletter/subscribe", newsletter.HandleSubscribe)
	mux.HandleFunc("POST /api/newsletter/unsubscribe", newsletter.HandleUnsubscribe)
	mux.HandleFunc("POST /api/sponsorship", sponsorship.HandleSubmitInquiry)
	mux.HandleFunc("POST /api/analytics/events", analytics.HandleTrackEvent)

	// Match predictions
	mux.HandleFunc("POST /api/predictions/{matchId}/vote", predictions.HandleVote)
	mux.HandleFunc("GET /api/predictions/{matchId}", predictions.HandleTally)

	// Who am I; never rejects a missing or non-admin credential
	mux.HandleFunc("GET /api/admin/check", auth.HandleCheck)

	mux.Handle("GET /api/admin/registrations", adminOnly(http.HandlerFunc(registrations.HandleListRegistrations)))
	mux.Handle("GET /api/admin/availability", adminOnly(http.HandlerFunc(availability.HandleListAvailability)))
	mux.Handle("GET /api/admin/newsletter", adminOnly(http.HandlerFunc(newsletter.HandleListSubscribers)))
	mux.Handle("GET /api/admin/analytics", adminOnly(http.HandlerFunc(analytics.HandleEventSummary)))
	mux.Handle("GET /api/admin/sponsorship", adminOnly(http.HandlerFunc(sponsorship.HandleListInquiries)))
}

// handleHealth reports 503 when the database stops answering pings.
func handleHealth(deps *appDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.database != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
			defer cancel()
			if err := deps.database.PingContext(ctx); err != nil {
				log.Ctx(r.Context()).Error().Err(err).Msg("Health check: database ping failed")
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
