// Package admin serves the loopback-only JSON status endpoints.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/maloquacious/tablekit/internal/dberrors"
	"github.com/maloquacious/tablekit/internal/logger"
	"github.com/maloquacious/tablekit/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Info is reported by /admin/status.
type Info struct {
	Version       string
	SchemaVersion string
	BuildDate     string
}

// Server holds the admin routes.
type Server struct {
	store    store.Store
	info     Info
	log      logger.Logger
	gatherer prometheus.Gatherer
	now      func() time.Time
}

func New(s store.Store, info Info, log logger.Logger, g prometheus.Gatherer) *Server {
	if log == nil {
		log = logger.Discard
	}
	return &Server{store: s, info: info, log: log, gatherer: g, now: time.Now}
}

// Handler returns the admin mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/admin/status", jsonOnly(http.HandlerFunc(s.status)))
	mux.Handle("/admin/kvs", jsonOnly(http.HandlerFunc(s.entries)))
	mux.Handle("/admin/health", jsonOnly(http.HandlerFunc(s.health)))
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	state, err := s.store.CheckState()
	resp := map[string]string{
		"version":       s.info.Version,
		"schemaVersion": s.info.SchemaVersion,
		"buildDate":     s.info.BuildDate,
		"time":          s.now().UTC().Format(time.RFC3339),
		"store":         state.String(),
	}
	if err != nil {
		resp["storeError"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// entries lists ?table= entries, or returns one entry when partition, aspect and key are given.
func (s *Server) entries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	table := q.Get("table")
	if table == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "table is required")
		return
	}
	if key := q.Get("key"); key != "" {
		e, err := s.store.GetEntry(r.Context(), table, q.Get("partition"), q.Get("aspect"), key)
		if err != nil {
			s.storeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
		return
	}
	list, err := s.store.ListEntries(r.Context(), table)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	table := r.URL.Query().Get("table")
	if table == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "table is required")
		return
	}
	h, err := s.store.TableHealth(r.Context(), table)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"table": table, "health": int(h), "flags": h.String()})
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dberrors.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case dberrors.IsNotAuthorized(err):
		writeJSONError(w, http.StatusForbidden, "not_authorized", err.Error())
	case errors.Is(err, dberrors.ErrInvalidArgument):
		writeJSONError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	default:
		s.log.Error("admin: store failure", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

// jsonOnly enforces the JSON-only contract for admin routes.
func jsonOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept := r.Header.Get("Accept")
		if !strings.Contains(accept, "application/json") && accept != "" {
			writeJSONError(w, http.StatusNotAcceptable, "not_acceptable", "Accept must include application/json")
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "admin routes are read-only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": msg,
	})
}
