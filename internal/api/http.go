package api

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kdarko/ecgbill/internal/api/swagger"
	"github.com/kdarko/ecgbill/internal/auth"
	"github.com/kdarko/ecgbill/internal/config"
	"github.com/kdarko/ecgbill/internal/migrate"
	"github.com/kdarko/ecgbill/internal/notification"
	"github.com/kdarko/ecgbill/internal/storage"
	"github.com/kdarko/ecgbill/internal/ui"
)

// NewMux constructs the HTTP mux, wiring in storage, the schedule
// session, auth, metrics, and health endpoints.
func NewMux(cfg config.Config) *http.ServeMux {
	ctx := context.Background()

	// Optional auto-migration: run `goose up` on startup when enabled.
	if cfg.AutoMigrate && cfg.DBDriver != "memory" {
		if err := migrate.Up(ctx, cfg.DBDriver, cfg.DBDSN); err != nil {
			log.Printf("auto-migration failed: %v", err)
		}
	}

	st, err := storage.Open(ctx, storage.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		log.Printf("storage.Open failed (driver=%s dsn=%s): %v; falling back to in-memory", cfg.DBDriver, cfg.DBDSN, err)
		st = storage.NewMemory()
	}

	session := newScheduleSession(ctx, st)

	var authSvc *auth.Service
	if cfg.AuthEnabled {
		authSvc, err = auth.NewService(st)
		if err != nil {
			log.Fatalf("auth init failed: %v", err)
		}
	}

	notifier := notification.NewService(notification.FromEnv())

	mux := http.NewServeMux()

	// Metrics endpoint.
	mux.Handle("/metrics", promhttp.Handler())

	// Health / readiness / liveness.
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			log.Printf("readyz: db ping failed: %v", err)
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})

	// Bill computation.
	mux.HandleFunc("/bill", handleBill(session))

	// Tariff schedules and policies.
	RegisterTariffHandlers(mux, session, authSvc, notifier)

	// Operator authentication.
	if authSvc != nil {
		RegisterAuthHandlers(mux, st, authSvc)
	}

	// API documentation.
	mux.Handle("/docs/", http.StripPrefix("/docs", swagger.Handler()))

	// Web UI
	mux.Handle("/ui/", http.StripPrefix("/ui/", ui.Handler()))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})

	return mux
}
