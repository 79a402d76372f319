package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/teamforge/realtime/internal/feed"
	"github.com/teamforge/realtime/internal/realtime"
	"github.com/teamforge/realtime/internal/version"
)

// Clients include native apps, so the browser same-origin check does
// not apply; the session token presented in the path is the gate.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleRealtime upgrades the connection and registers it under the
// token from the handshake path. The token is recorded as presented,
// not validated here: delivery resolves it per event, so an expired
// token simply never matches.
func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	category := realtime.Category(chi.URLParam(r, "category"))
	token := chi.URLParam(r, "token")

	reg, ok := s.hub.Registry(category)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed",
			"category", category,
			"error", err,
		)
		return
	}

	opts := realtime.ConnOptions{
		IdleTimeout:  s.cfg.Realtime.IdleTimeout,
		WriteTimeout: s.cfg.Realtime.WriteTimeout,
		PingInterval: s.cfg.Realtime.PingInterval,
		SendBuffer:   s.cfg.Realtime.SendBuffer,
		ReadLimit:    s.cfg.Realtime.ReadLimit,
	}

	conn := realtime.NewConn(ws, token, opts, s.logger.With("category", category))
	conn.OnClose(func() {
		reg.Release(token, conn)
	})
	reg.Register(token, conn)
	conn.Start()
}

// feedResponse is the JSON body of the feed endpoint.
type feedResponse struct {
	Entries  []feed.Entry `json:"entries"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// handleFeed serves the merged, paginated notification feed.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	page := 0
	if v := r.URL.Query().Get("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
	}

	pageSize := s.cfg.Feed.DefaultPageSize
	if v := r.URL.Query().Get("page_size"); v != "" {
		pageSize, err = strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid page_size", http.StatusBadRequest)
			return
		}
	}
	if pageSize > s.cfg.Feed.MaxPageSize {
		pageSize = s.cfg.Feed.MaxPageSize
	}

	entries, err := s.agg.Feed(r.Context(), userID, page, pageSize)
	if err != nil {
		if errors.Is(err, feed.ErrInvalidPageSize) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error("feed request failed", "user_id", userID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []feed.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(feedResponse{
		Entries:  entries,
		Page:     page,
		PageSize: pageSize,
	})
}

// handleHealth reports liveness, live connection counts, and database
// reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"version": version.Version,
	}

	conns := map[string]int{}
	for cat, n := range s.hub.Stats() {
		conns[string(cat)] = n
	}
	status["connections"] = conns

	code := http.StatusOK
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			status["database"] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}
