package profileserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
)

// Server serves the catalog and profile HTTP API
type Server struct {
	repo    *Repository
	metrics *Metrics
	logger  *slog.Logger
	mux     *http.ServeMux
}

// NewServer builds the HTTP handler tree
func NewServer(repo *Repository, metrics *Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	s := &Server{repo: repo, metrics: metrics, logger: logger, mux: http.NewServeMux()}

	s.mux.Handle("GET /items", metrics.instrument("/items", s.handleItems))
	s.mux.Handle("GET /profile", metrics.instrument("/profile", s.handleFindProfile))
	s.mux.Handle("PATCH /profile/{id}", metrics.instrument("/profile/{id}", s.handlePatchProfile))
	s.mux.Handle("GET /metrics", metrics.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.repo.ListItems()
	if err != nil {
		s.internalError(w, "list items", err)
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleFindProfile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	profiles, err := s.repo.FindProfiles(q.Get("username"), q.Get("password"))
	if err != nil {
		s.internalError(w, "find profiles", err)
		return
	}
	s.writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) handlePatchProfile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid profile id", http.StatusBadRequest)
		return
	}

	var body struct {
		Favorites *[]int64 `json:"favorites"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Favorites == nil {
		http.Error(w, "body must be {\"favorites\": [id, ...]}", http.StatusBadRequest)
		return
	}

	updated, err := s.repo.UpdateFavorites(id, *body.Favorites)
	if errors.Is(err, ErrProfileNotFound) {
		http.Error(w, "profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, "update favorites", err)
		return
	}

	s.metrics.patches.Inc()
	s.logger.Info("favorites replaced", "profileID", id, "count", len(updated.Favorites))
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("request failed", "op", op, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
