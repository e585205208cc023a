package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/novagestion/asesoria-server/internal/agent/graph"
	"github.com/novagestion/asesoria-server/internal/agent/graph/observers"
	"github.com/novagestion/asesoria-server/internal/agent/model"
	errx "github.com/novagestion/asesoria-server/internal/core/error"
	logx "github.com/novagestion/asesoria-server/pkg/logger"
)

// ChatPath is the single chat endpoint.
const ChatPath = "/asesoria/novagestion"

// FallbackReply is sent instead of an error whenever the flow fails.
const FallbackReply = "Lo siento, ha ocurrido un error interno. Por favor contacta a la oficina."

const maxBodyBytes = 64 * 1024

// ChatResponse is the body of every successful or degraded chat reply.
type ChatResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves the chat endpoint on top of a graph.Runner.
type Server struct {
	Runner  graph.Runner
	Metrics *observers.Metrics
}

// NewHandler creates the HTTP handler. gatherer backs /metrics and may be nil.
func NewHandler(runner graph.Runner, metrics *observers.Metrics, gatherer prometheus.Gatherer) http.Handler {
	server := &Server{Runner: runner, Metrics: metrics}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", server.Health)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Post(ChatPath, server.Chat)
	return r
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Chat handles POST /asesoria/novagestion. Malformed bodies get a 400; any
// failure past decoding is answered with FallbackReply and a 200.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var body model.ChatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		logx.Warn().Err(err).Msg("Chat: invalid request body")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errx.BadRequestMessage})
		return
	}
	body.RequestID = middleware.GetReqID(r.Context())

	reply, err := s.invoke(r, body)
	if err != nil {
		s.Metrics.ObserveFallbackReply()
		logx.Error().
			Err(err).
			Str("request_id", body.RequestID).
			Int("status", errx.StatusOf(err)).
			Msg("Chat flow failed, sending fallback reply")
		writeJSON(w, http.StatusOK, ChatResponse{Response: FallbackReply})
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Response: reply.Response})
}

func (s *Server) invoke(r *http.Request, body model.ChatRequest) (reply model.ChatReply, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("chat flow panic: %v", rec)
		}
	}()
	if s.Runner == nil {
		return model.ChatReply{}, fmt.Errorf("runner: %w", errx.ErrNotConfigured)
	}
	return s.Runner.Invoke(r.Context(), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("Response encode failed")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logx.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	})
}
