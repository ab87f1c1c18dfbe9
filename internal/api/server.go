// Package api implements the JSON HTTP API consumed by the web front end.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nugget/accountable/internal/assistant"
	"github.com/nugget/accountable/internal/buildinfo"
	"github.com/nugget/accountable/internal/speech"
	"github.com/nugget/accountable/internal/store"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// maxAudioBytes bounds speech-to-text uploads.
const maxAudioBytes = 32 << 20

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server is the HTTP API server.
type Server struct {
	address        string
	port           int
	store          *store.Store
	assistant      *assistant.Assistant
	transcriber    speech.Transcriber
	synthesizer    speech.Synthesizer
	defaultUserID  string
	allowedOrigins []string
	logger         *slog.Logger
	server         *http.Server
	upgrader       websocket.Upgrader
	now            func() time.Time
}

// NewServer creates a new API server.
func NewServer(address string, port int, st *store.Store, asst *assistant.Assistant, logger *slog.Logger) *Server {
	s := &Server{
		address:       address,
		port:          port,
		store:         st,
		assistant:     asst,
		defaultUserID: "demo123",
		logger:        logger,
		now:           time.Now,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.originAllowed,
	}
	return s
}

// SetSpeech configures the speech providers. Either may be nil, in
// which case the matching endpoint answers 503.
func (s *Server) SetSpeech(t speech.Transcriber, syn speech.Synthesizer) {
	s.transcriber = t
	s.synthesizer = syn
}

// SetDefaultUser sets the user assumed when a request names none.
func (s *Server) SetDefaultUser(id string) {
	if id != "" {
		s.defaultUserID = id
	}
}

// SetAllowedOrigins configures CORS. "*" allows every origin.
func (s *Server) SetAllowedOrigins(origins []string) {
	s.allowedOrigins = origins
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Conversation
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/chat/ws", s.handleChatWS)
	mux.HandleFunc("POST /api/tts", s.handleTTS)
	mux.HandleFunc("POST /api/stt", s.handleSTT)
	mux.HandleFunc("GET /api/proactive-check", s.handleProactiveCheck)

	// Tasks
	mux.HandleFunc("GET /api/tasks", s.handleTaskList)
	mux.HandleFunc("POST /api/tasks", s.handleTaskCreate)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.handleTaskComplete)

	// Goals
	mux.HandleFunc("GET /api/goals", s.handleGoalList)
	mux.HandleFunc("POST /api/goals", s.handleGoalCreate)
	mux.HandleFunc("POST /api/goals/{id}/progress", s.handleGoalProgress)
	mux.HandleFunc("GET /api/goals/{id}/subgoals", s.handleSubgoalList)
	mux.HandleFunc("POST /api/goals/{id}/subgoals", s.handleSubgoalCreate)
	mux.HandleFunc("POST /api/goals/{id}/subgoals/{sid}/toggle", s.handleSubgoalToggle)
	mux.HandleFunc("GET /api/goals/{id}/notes", s.handleGoalNotesGet)
	mux.HandleFunc("POST /api/goals/{id}/notes", s.handleGoalNotesSet)

	// Habits
	mux.HandleFunc("GET /api/habits", s.handleHabitList)
	mux.HandleFunc("POST /api/habits", s.handleHabitCreate)
	mux.HandleFunc("DELETE /api/habits/{id}", s.handleHabitDelete)
	mux.HandleFunc("POST /api/habits/{id}/log", s.handleHabitLog)

	// Chat history
	mux.HandleFunc("GET /api/history", s.handleHistoryList)
	mux.HandleFunc("POST /api/history/new", s.handleHistoryNew)
	mux.HandleFunc("GET /api/history/{session_id}", s.handleHistoryGet)
	mux.HandleFunc("DELETE /api/history/{session_id}", s.handleHistoryDelete)
	mux.HandleFunc("GET /api/history/{session_id}/export", s.handleHistoryExport)

	// Social
	mux.HandleFunc("POST /api/users/register", s.handleUserRegister)
	mux.HandleFunc("POST /api/friends/search", s.handleFriendSearch)
	mux.HandleFunc("POST /api/friends/request", s.handleFriendRequest)
	mux.HandleFunc("GET /api/friends/requests", s.handleFriendRequests)
	mux.HandleFunc("POST /api/friends/requests/{id}/respond", s.handleFriendRespond)
	mux.HandleFunc("GET /api/friends", s.handleFriendList)
	mux.HandleFunc("GET /api/friends/invite", s.handleFriendInvite)
	mux.HandleFunc("GET /api/friends/export", s.handleFriendExport)
	mux.HandleFunc("GET /api/friends/{friend_id}/tasks", s.handleFriendTasks)
	mux.HandleFunc("GET /api/friends/{friend_id}/goals", s.handleFriendGoals)
	mux.HandleFunc("GET /api/messages", s.handleMessageList)

	// Health endpoints
	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s.withCORS(s.withLogging(mux))
}

// Start serves HTTP requests until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", addr, s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // completion and speech providers can be slow
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", "address", addr, "port", s.port)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// statusRecorder captures the response code for request logging. It
// forwards Hijack so websocket upgrades still work behind it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(s.allowedOrigins, "*") || slices.Contains(s.allowedOrigins, origin)
}

// withCORS answers preflight requests and labels responses for the
// configured front-end origins.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(r) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.Info(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}

func (s *Server) respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, v, s.logger)
}

func (s *Server) ok(w http.ResponseWriter, v any) {
	s.respond(w, http.StatusOK, v)
}

func (s *Server) message(w http.ResponseWriter, msg string) {
	s.ok(w, map[string]string{"message": msg})
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	s.respond(w, code, map[string]string{"error": message})
}

// storeError maps store failures to responses: ErrNotFound becomes 404
// with notFound as the message, anything else is logged and 500.
func (s *Server) storeError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, store.ErrNotFound) {
		s.errorResponse(w, http.StatusNotFound, notFound)
		return
	}
	s.logger.Error("store operation failed", "error", err)
	s.errorResponse(w, http.StatusInternalServerError, "internal error")
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// userID picks the acting user: an explicit id from the body, then the
// user_id query parameter, then the configured default.
func (s *Server) userID(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if id := r.URL.Query().Get("user_id"); id != "" {
		return id
	}
	return s.defaultUserID
}

// pathInt parses a numeric path value, writing a 400 on failure.
func (s *Server) pathInt(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	n, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}
