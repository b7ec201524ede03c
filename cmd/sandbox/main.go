package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mamos/internal/log"
)

// sandbox is the placeholder service health checks are pointed at.
func newRouter(now func() time.Time) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("MAMOS Sandbox API is running.\n"))
	})
	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"time":   now().UTC().Format(time.RFC3339),
		})
	})
	return r
}

func main() {
	ctx := log.NewContext(context.Background(), "sandbox")
	l := log.FromContext(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	l.Info("server started", "port", port)
	if err := http.ListenAndServe(":"+port, newRouter(time.Now)); err != nil {
		l.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
