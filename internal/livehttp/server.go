// Package livehttp serves a local HTTP API over a running freefall session:
// the live lifecycle snapshot, the recent event feed, the retry trigger,
// and the session's round history from the ledger.
package livehttp

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/MJE43/freefall-wager/internal/ledger"
	"github.com/MJE43/freefall-wager/internal/round"
)

// Controller is the lifecycle surface the API exposes.
type Controller interface {
	Snapshot() round.Snapshot
	Connect(ctx context.Context) error
}

// Server runs the local live API.
type Server struct {
	ctrl   Controller
	feed   *Feed
	store  *ledger.Store
	logger *log.Logger

	addr         string
	httpServer   *http.Server
	writeTimeout time.Duration
	readTimeout  time.Duration
}

// New creates a live server bound to loopback at port. store may be nil
// when no ledger is configured.
func New(ctrl Controller, feed *Feed, store *ledger.Store, port int, logger *log.Logger) *Server {
	if port <= 0 {
		port = 8077
	}
	if feed == nil {
		feed = NewFeed(0)
	}
	if logger == nil {
		logger = log.New(os.Stdout, "[LIVE] ", log.LstdFlags)
	}
	return &Server{
		ctrl:         ctrl,
		feed:         feed,
		store:        store,
		logger:       logger,
		addr:         fmt.Sprintf("127.0.0.1:%d", port),
		writeTimeout: 10 * time.Second,
		readTimeout:  10 * time.Second,
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /live/state", s.handleState)
	mux.HandleFunc("GET /live/events", s.handleEvents)
	mux.HandleFunc("POST /live/retry", s.handleRetry)
	mux.HandleFunc("GET /live/sessions/{id}", s.handleSession)
	mux.HandleFunc("GET /live/sessions/{id}/rounds", s.handleRounds)
	mux.HandleFunc("GET /live/sessions/{id}/export.csv", s.handleExport)
	return s.logRequest(mux)
}

// Start begins listening in a goroutine. It returns when the socket is bound.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.logger.Printf("Live API on http://%s/live/state", s.addr)
	go func() {
		_ = s.httpServer.Serve(ln)
	}()
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// GET /live/state
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

// GET /live/events?since=&limit=
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	since := qInt64(r, "since", 0)
	limit := clampInt(qInt(r, "limit", 100), 1, 1000)
	events, last := s.feed.Since(since, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"last":   last,
	})
}

// POST /live/retry re-runs the authority health check.
func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Connect(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errObj("CONNECTION_ERROR", err.Error(), ""))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /live/sessions/{id}
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sum, err := s.store.SessionSummary(sess.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errObj("SERVER_ERROR", "failed to summarize session", ""))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": sess,
		"summary": sum,
		"rtp":     sum.RTP(),
	})
}

// GET /live/sessions/{id}/rounds?limit=&offset=
func (s *Server) handleRounds(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	limit := clampInt(qInt(r, "limit", 100), 1, 1000)
	offset := clampInt(qInt(r, "offset", 0), 0, 1_000_000)

	rows, total, err := s.store.ListRounds(sess.ID, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errObj("SERVER_ERROR", "failed to list rounds", ""))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total": total,
		"rows":  rows,
	})
}

// GET /live/sessions/{id}/export.csv
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="rounds.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "created_at", "mode", "bet", "tier", "multiplier", "target_payout", "payout", "zero_payout", "reason", "frames", "source", "bet_id"})

	const page = 1000
	for offset := 0; ; offset += page {
		rows, _, err := s.store.ListRounds(sess.ID, page, offset)
		if err != nil {
			s.logger.Printf("export %s: %v", sess.ID, err)
			break
		}
		for _, rd := range rows {
			_ = cw.Write([]string{
				rd.ID,
				rd.CreatedAt.UTC().Format(time.RFC3339Nano),
				rd.Mode,
				strconv.FormatFloat(rd.Bet, 'f', 8, 64),
				rd.Tier,
				strconv.FormatFloat(rd.Multiplier, 'f', 2, 64),
				strconv.FormatFloat(rd.TargetPayout, 'f', 8, 64),
				strconv.FormatFloat(rd.Payout, 'f', 8, 64),
				strconv.FormatBool(rd.ZeroPayout),
				rd.Reason,
				strconv.Itoa(rd.Frames),
				rd.Source,
				rd.BetID,
			})
		}
		if len(rows) < page {
			break
		}
	}
	cw.Flush()
}

// session resolves the {id} path value, writing the error response itself.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*ledger.Session, bool) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, errObj("NOT_FOUND", "no ledger configured", ""))
		return nil, false
	}
	sess, err := s.store.GetSession(r.PathValue("id"))
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errObj("NOT_FOUND", "session not found", "id"))
		return nil, false
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errObj("SERVER_ERROR", "failed to fetch session", ""))
		return nil, false
	}
	return sess, true
}

// ========== helpers ==========

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errObj(code, msg, field string) map[string]any {
	e := map[string]any{
		"code":    code,
		"message": msg,
	}
	if field != "" {
		e["field"] = field
	}
	return map[string]any{"error": e}
}

func qInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func qInt64(r *http.Request, key string, def int64) int64 {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return i
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Printf("%s %s %dms", r.Method, r.URL.Path, time.Since(start).Milliseconds())
	})
}
