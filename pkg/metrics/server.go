package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// NewMux builds the diagnostics mux: /metrics for scraping and, when healthz
// is non-nil, /healthz for the aggregated component report.
func NewMux(healthz http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	if healthz != nil {
		mux.Handle("/healthz", healthz)
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><h1>Resource Search Diagnostics</h1><p><a href="/metrics">/metrics</a> <a href="/healthz">/healthz</a></p></body></html>`)
	})
	return mux
}

// StartServer exposes the diagnostics mux on the given port and returns a
// shutdown function. The console only enables this when the user turns on
// diagnostics. healthz may be nil.
func StartServer(port int, healthz http.Handler) (shutdown func(context.Context) error) {
	server := &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", port),
		Handler:      NewMux(healthz),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("diagnostics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("diagnostics server error", "error", err)
		}
	}()

	return server.Shutdown
}
