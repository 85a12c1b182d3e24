// Package server exposes the extraction pipeline over HTTP and WebSocket.
//
// Routes:
//
//	POST /v1/extract                 extract one transcript
//	POST /v1/extract/batch           extract many transcripts
//	GET  /v1/vocabulary/{source_id}  read persisted items
//	POST /v1/language/plan           language-mixing plan for a reply
//	GET  /v1/stream                  live extraction over a WebSocket
//	GET  /healthz, /readyz, /metrics
//
// All /v1 routes share a per-client and global rate limit.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/MrWong99/lexora/internal/extract"
	"github.com/MrWong99/lexora/internal/health"
	"github.com/MrWong99/lexora/internal/langmix"
	"github.com/MrWong99/lexora/internal/observe"
	"github.com/MrWong99/lexora/pkg/store"
	"github.com/MrWong99/lexora/pkg/types"
)

// DefaultMaxBodyBytes bounds request bodies and WebSocket messages.
const DefaultMaxBodyBytes = 2 << 20

// Server serves the Lexora API.
type Server struct {
	orch           *extract.Orchestrator
	metrics        *observe.Metrics
	health         *health.Handler
	metricsHandler http.Handler
	limit          RateLimit
	maxBodyBytes   int64
	originPatterns []string
}

// Option configures a [Server].
type Option func(*Server)

// WithMetrics records on m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHealth serves /healthz and /readyz from h.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetricsHandler serves h at /metrics, typically promhttp.Handler().
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithRateLimit throttles the /v1 routes.
func WithRateLimit(rl RateLimit) Option {
	return func(s *Server) { s.limit = rl }
}

// WithMaxBodyBytes bounds request bodies. Default: [DefaultMaxBodyBytes].
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithOriginPatterns lists the origins allowed to open /v1/stream from a
// browser. Same-origin requests are always accepted.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) { s.originPatterns = patterns }
}

// New returns a Server around orch.
func New(orch *extract.Orchestrator, opts ...Option) *Server {
	s := &Server{
		orch:         orch,
		health:       health.New(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/extract", s.handleExtract)
	api.HandleFunc("POST /v1/extract/batch", s.handleBatch)
	api.HandleFunc("GET /v1/vocabulary/{source_id}", s.handleVocabulary)
	api.HandleFunc("POST /v1/language/plan", s.handlePlan)
	api.HandleFunc("GET /v1/stream", s.handleStream)

	var limited http.Handler = api
	if s.limit.RPS > 0 {
		limited = newLimiter(s.limit, s.metrics).middleware(api)
	}

	mux := http.NewServeMux()
	mux.Handle("/v1/", limited)
	s.health.Register(mux)
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}
	return recovery(observe.Middleware(s.metrics)(mux))
}

// ── Requests ─────────────────────────────────────────────────────────────────

// requestOptions are the extraction options shared by every request shape.
type requestOptions struct {
	TargetLanguage   types.Language `json:"target_language,omitempty"`
	MaxItems         int            `json:"max_items,omitempty"`
	Mode             types.Method   `json:"mode,omitempty"`
	MinLevelEnglish  string         `json:"min_level_english,omitempty"`
	MinLevelJapanese string         `json:"min_level_japanese,omitempty"`
	Enrich           bool           `json:"enrich,omitempty"`
	Persist          bool           `json:"persist,omitempty"`
	SourceID         string         `json:"source_id,omitempty"`
}

func (r requestOptions) options() (extract.Options, error) {
	en, err := parseFloor(r.MinLevelEnglish, types.English)
	if err != nil {
		return extract.Options{}, err
	}
	ja, err := parseFloor(r.MinLevelJapanese, types.Japanese)
	if err != nil {
		return extract.Options{}, err
	}
	return extract.Options{
		TargetLanguage:   r.TargetLanguage,
		MaxItems:         r.MaxItems,
		Mode:             r.Mode,
		MinLevelEnglish:  en,
		MinLevelJapanese: ja,
		Enrich:           r.Enrich,
		Persist:          r.Persist,
		SourceID:         r.SourceID,
	}, nil
}

// parseFloor parses a level label of the given language's scale.
func parseFloor(label string, lang types.Language) (types.Level, error) {
	if label == "" {
		return types.LevelUnknown, nil
	}
	lvl, scale, err := types.ParseLevel(label)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", extract.ErrInvalidOptions, err)
	}
	if scale != lang {
		return 0, fmt.Errorf("%w: %q is not a %s level", extract.ErrInvalidOptions, label, lang)
	}
	return lvl, nil
}

type extractRequest struct {
	Text string `json:"text"`
	requestOptions
}

type batchRequest struct {
	Transcripts []extract.BatchEntry `json:"transcripts"`
	requestOptions
}

type planRequest struct {
	Text string `json:"text"`
}

type vocabularyResponse struct {
	SourceID string                 `json:"source_id"`
	Count    int                    `json:"count"`
	Items    []types.VocabularyItem `json:"items"`
}

// ── Handlers ─────────────────────────────────────────────────────────────────

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !s.decode(w, r, &req) {
		return
	}
	opts, err := req.options()
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	res, err := s.orch.Extract(r.Context(), req.Text, opts)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !s.decode(w, r, &req) {
		return
	}
	opts, err := req.options()
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	sum, err := s.orch.ExtractBatch(r.Context(), req.Transcripts, opts)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleVocabulary(w http.ResponseWriter, r *http.Request) {
	st := s.orch.Store()
	if st == nil {
		writeError(w, http.StatusNotImplemented, "persistence is not configured")
		return
	}
	id := r.PathValue("source_id")
	items, err := st.ListBySource(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vocabularyResponse{SourceID: id, Count: len(items), Items: items})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, langmix.PlanFor(req.Text))
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// decode reads a JSON body into v. On failure it writes a 4xx response and
// returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, extract.ErrInvalidOptions),
		errors.Is(err, extract.ErrEmptyBatch),
		errors.Is(err, store.ErrEmptySourceID):
		return http.StatusBadRequest
	case errors.Is(err, extract.ErrTextTooLarge):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		observe.Logger(r.Context()).Error("server: request failed", "path", r.URL.Path, "err", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("server: encode response", "err", err)
	}
}

// recovery turns a handler panic into a 500 response.
func recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				slog.ErrorContext(r.Context(), "server: panic recovered",
					"panic", v,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
