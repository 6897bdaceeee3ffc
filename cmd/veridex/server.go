// cmd/veridex/server.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Server exposes the verification pipeline over HTTP: submit a claim,
// poll its status, or stream stage progress over a websocket.
type Server struct {
	cfg      *Config
	pipeline *Pipeline
	store    *JobStore
	router   *mux.Router
	upgrader websocket.Upgrader

	watchers map[uuid.UUID][]chan string
	watchMu  sync.Mutex

	httpServer *http.Server
}

func NewServer(cfg *Config, pipeline *Pipeline, store *JobStore) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		store:    store,
		watchers: make(map[uuid.UUID][]chan string),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = s.buildRouter()
	return s
}

// checkOrigin allows every origin unless an allowlist is configured.
func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedWSOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range s.cfg.AllowedWSOrigins {
		allowed = strings.TrimSpace(allowed)
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (s *Server) buildRouter() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/claims/analyze", s.handleAnalyze).Methods("POST")
	api.HandleFunc("/claims/{id}", s.handleGetJob).Methods("GET")
	api.HandleFunc("/claims/{id}/progress", s.handleProgress).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	return router
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.ServerPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		Logger().Info("HTTP server listening on %s", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// analyzeRequest mirrors RunRequest with an optional web-search flag so an
// omitted field can take the configured default.
type analyzeRequest struct {
	ClaimText    string      `json:"claim_text"`
	UseWebSearch *bool       `json:"use_web_search,omitempty"`
	ForcedAgents []string    `json:"forced_agents,omitempty"`
	Media        []MediaItem `json:"media,omitempty"`
}

// handleAnalyze validates the request, registers a job, and runs the
// pipeline in the background. Responds immediately with the job id.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, NewError(ErrorTypeServer, ErrServerRequest, "invalid request body", err))
		return
	}
	if strings.TrimSpace(body.ClaimText) == "" && len(body.Media) == 0 {
		writeError(w, http.StatusBadRequest, NewError(ErrorTypeServer, ErrServerRequest, "claim_text or media is required", nil))
		return
	}

	useWebSearch := s.cfg.WebSearchDefault
	if body.UseWebSearch != nil {
		useWebSearch = *body.UseWebSearch
	}
	req := RunRequest{
		ClaimText:    body.ClaimText,
		UseWebSearch: useWebSearch,
		ForcedAgents: body.ForcedAgents,
		Media:        body.Media,
	}

	job := s.store.Create(req)
	Logger().Info("Accepted verification job %s", job.ID)

	go s.runJob(job.ID, job.Request)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (s *Server) runJob(jobID uuid.UUID, req RunRequest) {
	timeout := s.cfg.JobTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	defer s.closeWatchers(jobID)

	progress := func(stage string) {
		s.store.SetStage(jobID, stage)
		s.notifyWatchers(jobID, stage)
	}

	state, err := s.pipeline.Run(ctx, req, progress)
	if err != nil {
		Logger().Error("Job %s failed: %v", jobID, err)
		s.store.Fail(jobID, err.Error())
		s.notifyWatchers(jobID, "Failed")
		return
	}

	s.store.Complete(jobID, state)
	s.notifyWatchers(jobID, "Completed")
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, NewError(ErrorTypeServer, ErrServerRequest, "invalid job id", err))
		return
	}

	job, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, NewError(ErrorTypeServer, ErrServerJob, "job not found", nil))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

// handleProgress upgrades to a websocket and streams stage labels until
// the job reaches a terminal state or the client disconnects.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, NewError(ErrorTypeServer, ErrServerRequest, "invalid job id", err))
		return
	}
	job, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, NewError(ErrorTypeServer, ErrServerJob, "job not found", nil))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		Logger().Warning("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Register before the terminal check: a job finishing in between would
	// otherwise leave this watcher with a channel nothing ever closes.
	ch := s.addWatcher(id)
	defer s.removeWatcher(id, ch)

	// Replay the current stage so late subscribers see where the job is.
	job, ok = s.store.Get(id)
	if !ok {
		return
	}
	if job.Stage != "" {
		if err := conn.WriteJSON(map[string]string{"stage": job.Stage}); err != nil {
			return
		}
	}
	if job.Status == JobStatusCompleted || job.Status == JobStatusFailed {
		return
	}

	for stage := range ch {
		if err := conn.WriteJSON(map[string]string{"stage": stage}); err != nil {
			return
		}
		if stage == "Completed" || stage == "Failed" {
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"version": VERSION,
		"jobs":    s.store.Len(),
	})
}

func (s *Server) addWatcher(jobID uuid.UUID) chan string {
	ch := make(chan string, 16)
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	s.watchers[jobID] = append(s.watchers[jobID], ch)
	return ch
}

func (s *Server) removeWatcher(jobID uuid.UUID, ch chan string) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	list := s.watchers[jobID]
	for i, c := range list {
		if c == ch {
			s.watchers[jobID] = append(list[:i], list[i+1:]...)
			break
		}
	}
}

func (s *Server) notifyWatchers(jobID uuid.UUID, stage string) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers[jobID] {
		select {
		case ch <- stage:
		default:
			// Slow consumer, drop the update rather than block the run.
		}
	}
}

func (s *Server) closeWatchers(jobID uuid.UUID) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers[jobID] {
		close(ch)
	}
	delete(s.watchers, jobID)
}

func writeError(w http.ResponseWriter, status int, err *VeridexError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Message,
		"code":  err.Code,
	})
}
