// Package server exposes editor sessions over HTTP.
package server

import (
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"medtech_outlook_agent/document"
	"medtech_outlook_agent/generator"
)

//go:embed web/dist
var embeddedStatic embed.FS

// Options tune a Server. Zero values pick sensible defaults.
type Options struct {
	DefaultModel   generator.Model
	RequestTimeout time.Duration

	// Base seeds sessions created without content. Nil means the built-in
	// outlook article.
	Base *document.Document
}

type Server struct {
	agent    *generator.Agent
	opts     Options
	store    *sessionStore
	staticFS http.Handler
	log      zerolog.Logger
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*generator.Session
}

func newStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*generator.Session)}
}

func (s *sessionStore) set(id string, sess *generator.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = sess
}

func (s *sessionStore) get(id string) (*generator.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func New(agent *generator.Agent, opts Options, logger zerolog.Logger) (*Server, error) {
	if agent == nil {
		return nil, errors.New("generator agent required")
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = generator.DefaultModel
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.Base == nil {
		opts.Base = document.Default()
	}

	sub, err := fs.Sub(embeddedStatic, "web/dist")
	if err != nil {
		return nil, err
	}

	return &Server{
		agent:    agent,
		opts:     opts,
		store:    newStore(),
		staticFS: http.FileServer(http.FS(sub)),
		log:      logger.With().Str("component", "server").Logger(),
	}, nil
}

// NewSession registers a session over content (the base document when empty).
func (s *Server) NewSession(content string, model generator.Model) *generator.Session {
	if content == "" {
		content = s.opts.Base.Text()
	}
	if model == "" {
		model = s.opts.DefaultModel
	}
	id := uuid.NewString()
	sess := generator.NewSession(id, document.New(content), s.agent, s.log)
	sess.SetModel(model)
	s.store.set(id, sess)
	return sess
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/models", s.handleModels)
	mux.HandleFunc("GET /api/magics", s.handleMagics)

	mux.HandleFunc("POST /api/sessions", s.handleSessionCreate)
	mux.HandleFunc("GET /api/sessions/{id}", s.withSession(s.handleSessionGet))
	mux.HandleFunc("PUT /api/sessions/{id}/document", s.withSession(s.handleDocumentPut))
	mux.HandleFunc("POST /api/sessions/{id}/document/upload", s.withSession(s.handleDocumentUpload))
	mux.HandleFunc("GET /api/sessions/{id}/document/download", s.withSession(s.handleDocumentDownload))
	mux.HandleFunc("GET /api/sessions/{id}/document/preview", s.withSession(s.handleDocumentPreview))
	mux.HandleFunc("GET /api/sessions/{id}/keywords", s.withSession(s.handleKeywordsGet))
	mux.HandleFunc("PUT /api/sessions/{id}/keywords", s.withSession(s.handleKeywordsPut))
	mux.HandleFunc("PUT /api/sessions/{id}/model", s.withSession(s.handleModelPut))
	mux.HandleFunc("POST /api/sessions/{id}/chat", s.withSession(s.handleChat))
	mux.HandleFunc("POST /api/sessions/{id}/magics/{magic}", s.withSession(s.handleMagic))
	mux.HandleFunc("POST /api/sessions/{id}/improve", s.withSession(s.handleImprove))
	mux.HandleFunc("GET /api/sessions/{id}/dashboard", s.withSession(s.handleDashboard))

	mux.Handle("/", s.staticHandler())
	return s.logMiddleware(mux)
}

func (s *Server) staticHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		s.staticFS.ServeHTTP(w, r)
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *generator.Session)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.store.get(r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h(w, r, sess)
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps session errors onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, generator.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, generator.ErrUnknownMagic):
		return http.StatusNotFound
	case errors.Is(err, generator.ErrEmptyInput), errors.Is(err, generator.ErrUnknownModel):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Flush keeps SSE working through the middleware.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		ev := s.log.Debug()
		if rec.status >= http.StatusInternalServerError {
			ev = s.log.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
