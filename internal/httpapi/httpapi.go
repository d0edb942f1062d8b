// Package httpapi exposes the two operator trigger endpoints (C12) this
// engine needs beyond its cron schedule — an on-demand binlog sync and an
// on-demand MSS push for a given date or id set — plus a Prometheus
// /metrics handler. Grounded on the teacher's internal/api.Server
// (method-pattern ServeMux, one handlers_*.go per concern) generalized
// from Hermod's large REST surface down to this engine's two triggers.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tidwall/gjson"

	"github.com/gsoultan/binlogsync/internal/logging"
)

// SyncFunc runs one binlog sync pass over both the org and user feeds.
type SyncFunc func(ctx context.Context) error

// PushFunc runs one MSS push/reconcile pass for hitDate (or, if hitDate is
// empty, for the explicit ids given).
type PushFunc func(ctx context.Context, hitDate string, ids []string) error

// Server wires the trigger handlers over the engine's own run functions —
// it never reaches into driver/push internals directly, the same
// separation the teacher's api.Server keeps from its engine.Registry.
type Server struct {
	sync PushOrSyncGuard
	push PushOrSyncGuard
	log  *logging.Logger

	syncFn SyncFunc
	pushFn PushFunc
}

// PushOrSyncGuard serializes concurrent triggers of the same kind so two
// overlapping HTTP calls can't race the same underlying run — a plain
// buffered channel used as a non-blocking mutex, matching the teacher's
// single-flight guard pattern in internal/api/handlers_workers.go's
// heartbeat deduplication.
type PushOrSyncGuard chan struct{}

func newGuard() PushOrSyncGuard {
	g := make(PushOrSyncGuard, 1)
	g <- struct{}{}
	return g
}

func (g PushOrSyncGuard) tryAcquire() bool {
	select {
	case <-g:
		return true
	default:
		return false
	}
}

func (g PushOrSyncGuard) release() {
	g <- struct{}{}
}

// NewServer builds a Server. syncFn/pushFn are the engine's own run
// entrypoints, wired by cmd/binlogsync's main.
func NewServer(log *logging.Logger, syncFn SyncFunc, pushFn PushFunc) *Server {
	return &Server{
		sync:   newGuard(),
		push:   newGuard(),
		log:    log,
		syncFn: syncFn,
		pushFn: pushFn,
	}
}

// Routes builds the ServeMux, matching the teacher's one-mux-per-server
// convention in internal/api/server.go.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST /binlog/sync", s.handleBinlogSync)
	mux.HandleFunc("POST /pxb/pushByDate", s.handlePushByDate)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleBinlogSync triggers one on-demand sync pass. A sync already in
// flight makes this a 409 rather than queuing a second overlapping run.
func (s *Server) handleBinlogSync(w http.ResponseWriter, r *http.Request) {
	if !s.sync.tryAcquire() {
		http.Error(w, "sync already in progress", http.StatusConflict)
		return
	}
	defer s.sync.release()

	if err := s.syncFn(r.Context()); err != nil {
		s.log.Error("triggered sync failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "completed"})
}

// handlePushByDate triggers one on-demand MSS push. The body is decoded
// loosely with gjson rather than a typed struct, matching gateway.Payload's
// convention, since this endpoint accepts either a "date" field or an
// "ids" array and no other shape guarantees are needed.
func (s *Server) handlePushByDate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	hitDate := gjson.GetBytes(body, "date").String()
	var ids []string
	for _, v := range gjson.GetBytes(body, "ids").Array() {
		ids = append(ids, v.String())
	}

	if !s.push.tryAcquire() {
		http.Error(w, "push already in progress", http.StatusConflict)
		return
	}
	defer s.push.release()

	if err := s.pushFn(r.Context(), hitDate, ids); err != nil {
		s.log.Error("triggered push failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "completed"})
}
