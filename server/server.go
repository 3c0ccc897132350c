// Package server exposes the chat service over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/krishg0kul/genai-multi-agent/agent"
	"github.com/krishg0kul/genai-multi-agent/chat"
	"github.com/krishg0kul/genai-multi-agent/errors"
	"github.com/krishg0kul/genai-multi-agent/memory"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxBodyBytes bounds a chat request body.
const maxBodyBytes = 1 << 20

// Chatter is the part of chat.Service the server needs.
type Chatter interface {
	Handle(ctx context.Context, userID, message string) (agent.FinalResult, error)
	History(ctx context.Context, userID string) ([]memory.Entry, error)
	Clear(ctx context.Context, userID string) (bool, error)
}

// Recorder receives one observation per served request and serves the
// collected metrics.
type Recorder interface {
	RecordHTTP(method, route string, code int, elapsed time.Duration)
	Handler() http.Handler
}

type Server struct {
	chat    Chatter
	metrics Recorder
	router  chi.Router
}

type Option func(*Server)

// WithMetrics records request metrics and mounts GET /metrics.
func WithMetrics(rec Recorder) Option {
	return func(s *Server) { s.metrics = rec }
}

func New(svc Chatter, opts ...Option) *Server {
	s := &Server{chat: svc}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(accessLog(s.metrics))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/chat", s.handleChat)
	r.Get("/history/{userID}", s.handleHistory)
	r.Delete("/history/{userID}", s.handleClear)
	r.Get("/ws", s.handleWS)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// Handler returns the routes wrapped in OpenTelemetry instrumentation.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "helpdesk",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("helpdesk server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.Wrapf(err, "server failed")
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrapf(err, "shutdown failed")
	}
	return nil
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type historyResponse struct {
	UserID  string         `json:"userId"`
	Entries []memory.Entry `json:"entries"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.chat.Handle(r.Context(), req.UserID, req.Message)
	if err != nil {
		s.writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	entries, err := s.chat.History(r.Context(), userID)
	if err != nil {
		s.writeChatError(w, err)
		return
	}
	if entries == nil {
		entries = []memory.Entry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{UserID: userID, Entries: entries})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	removed, err := s.chat.Clear(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": removed})
}

// writeChatError maps validation failures to 400 and everything else to 500.
func (s *Server) writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, chat.ErrEmptyMessage.Error())
	case errors.Is(err, memory.ErrInvalidUserID):
		writeError(w, http.StatusBadRequest, memory.ErrInvalidUserID.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error", Message: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
