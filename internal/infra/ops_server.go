package infra

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Pinger is the slice of the database pool the ops server needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewOpsServer builds the internal operations server: health checks and a
// manual tick trigger, served on a separate port with no authentication.
// Not exposed publicly.
func NewOpsServer(port string, db Pinger, scheduler *Scheduler, log zerolog.Logger) *http.Server {
	opsLog := log.With().Str("component", "ops").Logger()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "Ardentia Exchange - ops",
			"endpoints": {
				"health": "GET /health",
				"trigger_tick": "POST /tick/trigger"
			}
		}`))
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "healthy"
		if err := db.Ping(ctx); err != nil {
			dbStatus = "unhealthy"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{
			"status": "healthy",
			"service": "ardentia-exchange",
			"database": %q,
			"timestamp": %q
		}`, dbStatus, time.Now().Format(time.RFC3339))
	})

	r.Post("/tick/trigger", func(w http.ResponseWriter, _ *http.Request) {
		opsLog.Info().Msg("manual tick triggered via ops API")

		go func() {
			if err := scheduler.RunNow(); err != nil {
				opsLog.Error().Err(err).Msg("manual tick failed")
			}
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{
			"message": "Tick triggered successfully",
			"status": "processing"
		}`))
	})

	return &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
