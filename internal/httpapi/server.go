// Package httpapi exposes the Run Orchestration Service over HTTP: trigger,
// resume, cancel, and a run's event stream. Handler style and the
// WriteJSON/WriteError response helpers are carried over from
// internal/daemon/httputil.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/blockrun/blockrun/internal/daemon/httputil"
	"github.com/blockrun/blockrun/pkg/events"
	"github.com/blockrun/blockrun/pkg/orchestration"
	"github.com/blockrun/blockrun/pkg/workflow"
)

const maxRequestBodySize = 1 * 1024 * 1024

// Server wires the orchestration Service and its backing Store onto an
// http.ServeMux.
type Server struct {
	Service     *orchestration.Service
	Store       workflow.Store
	Broadcaster *events.Broadcaster
}

// NewServer builds a Server.
func NewServer(svc *orchestration.Service, store workflow.Store, broadcaster *events.Broadcaster) *Server {
	return &Server{Service: svc, Store: store, Broadcaster: broadcaster}
}

// RegisterRoutes registers every route this server handles on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/workflows/{workflowId}/versions/{version}/trigger", s.handleTrigger)
	mux.HandleFunc("POST /v1/runs/{runId}/resume", s.handleResume)
	mux.HandleFunc("POST /v1/runs/{runId}/cancel", s.handleCancel)
	mux.HandleFunc("GET /v1/runs/{runId}", s.handleGetRun)
	mux.HandleFunc("GET /v1/runs/{runId}/events", s.handleRunEvents)
}

type triggerRequest struct {
	OrgID        string `json:"orgId"`
	TriggerEvent any    `json:"triggerEvent"`
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	versionID := r.PathValue("version")

	var req triggerRequest
	if err := decodeBody(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	version, err := s.Store.GetVersion(r.Context(), versionID)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "workflow version not found")
		return
	}

	run, err := s.Service.Trigger(r.Context(), version, req.OrgID, req.TriggerEvent)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, run)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("runId")

	var resumeInput map[string]any
	if err := decodeBody(w, r, &resumeInput); err != nil && err != io.EOF {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := s.Service.Resume(r.Context(), runID, resumeInput)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, run)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.Service.Cancel(r.PathValue("runId"))
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.Store.GetRun(r.Context(), r.PathValue("runId"))
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "run not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, run)
}

// handleRunEvents streams a run's events as server-sent events until the
// client disconnects or the run reaches a terminal status.
func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	if s.Broadcaster == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "event streaming is not configured")
		return
	}

	runID := r.PathValue("runId")
	ch, unsubscribe := s.Broadcaster.SubscribeRun(r.Context(), runID)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case evt, open := <-ch:
			if !open {
				return
			}
			payload, _ := json.Marshal(evt)
			w.Write([]byte("data: "))
			w.Write(payload)
			w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-r.Context().Done():
			return
		case <-time.After(30 * time.Second):
			w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	return json.NewDecoder(body).Decode(v)
}
