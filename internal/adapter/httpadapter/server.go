package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes health, readiness, metrics and rendered-map HTTP endpoints.
type Server struct {
	httpServer *http.Server
	mapsDir    string
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /maps/{id} routes. Maps are served from mapsDir.
func NewServer(addr string, ready sharedobs.ReadinessChecker, mapsDir string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		mapsDir: mapsDir,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /maps/{id}", s.handleMap)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleMap serves <mapsDir>/<id>.png. The id may be given with or without
// the .png suffix.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(r.PathValue("id"), ".png")
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid map id"})
		return
	}

	path := filepath.Join(s.mapsDir, id+".png")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "map not found"})
			return
		}
		s.logger.Error("open map failed", "id", id, "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "map unavailable"})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "map unavailable"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeContent(w, r, id+".png", info.ModTime(), f)
}
