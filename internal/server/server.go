// Package server exposes find/query over HTTP. The embedder is loaded once
// at startup and shared; a filesystem watcher keeps the index fresh, so
// request handlers never trigger a refresh themselves.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"maharajah/internal/index"
	"maharajah/internal/search"
	"maharajah/internal/store"
)

// Config wires the server to an already-assembled engine.
type Config struct {
	Host      string
	Port      int
	Root      string
	Store     *store.Store
	Retriever *search.Retriever
	Indexer   *index.Indexer
}

// Run starts the HTTP server and the background watcher. It blocks until
// ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	stopWatcher, err := watch(ctx, cfg.Root, func() {
		report, err := cfg.Indexer.Index(ctx, index.Flags{})
		switch {
		case err != nil:
			slog.Error("background refresh failed", "error", err)
		case report.FilesChanged > 0 || report.FilesDeleted > 0:
			slog.Info("background refresh",
				"changed", report.FilesChanged, "deleted", report.FilesDeleted)
		}
	})
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer stopWatcher()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	h := &handlers{cfg: cfg}
	r.Post("/find", h.find)
	r.Post("/query", h.query)
	r.Get("/stats", h.stats)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

type handlers struct {
	cfg Config
}

// searchRequest is the body of /find and /query.
type searchRequest struct {
	Query    string   `json:"query"`
	K        int      `json:"k"`
	MinScore *float64 `json:"min_score"`
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request) (*searchRequest, bool) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return nil, false
	}
	if req.K <= 0 {
		req.K = 10
	}
	return &req, true
}

func (h *handlers) find(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	results, err := h.cfg.Retriever.Find(r.Context(), req.Query, req.K, req.MinScore)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, results)
}

func (h *handlers) query(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	results, err := h.cfg.Retriever.Query(r.Context(), req.Query, req.K, req.MinScore)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, results)
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.cfg.Store.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int{
		"file_count":  st.FileCount,
		"chunk_count": st.ChunkCount,
		"dimension":   st.Dimension,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if v == nil {
		v = []struct{}{}
	}
	json.NewEncoder(w).Encode(v)
}
