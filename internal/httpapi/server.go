// Package httpapi serves the portal's JSON API: articles, materials, the
// message board, document upload with content extraction, and object
// storage upload.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nevindra/pedforum"
	"github.com/nevindra/pedforum/extract"
	"github.com/nevindra/pedforum/internal/metrics"
	"github.com/nevindra/pedforum/storage"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 32 << 20

// Extractor converts an uploaded document into HTML and images.
type Extractor interface {
	Extract(data []byte, ext string) (extract.Content, error)
}

// contextExtractor is implemented by extractors that accept a parent
// context for tracing.
type contextExtractor interface {
	ExtractContext(ctx context.Context, data []byte, ext string) (extract.Content, error)
}

// Uploader stores a file and returns where it landed.
type Uploader interface {
	Upload(ctx context.Context, fileName string, data []byte) (storage.Object, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and error logs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithExtractor replaces the default extractor.
func WithExtractor(e Extractor) Option {
	return func(s *Server) { s.extractor = e }
}

// WithUploader enables POST /upload-to-s3. Without it the endpoint
// answers 503.
func WithUploader(u Uploader) Option {
	return func(s *Server) { s.uploader = u }
}

// WithMaxBodyBytes limits request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// Server holds the handler dependencies.
type Server struct {
	store     pedforum.Store
	extractor Extractor
	uploader  Uploader
	logger    *slog.Logger
	maxBody   int64
}

// New creates a Server backed by store.
func New(store pedforum.Store, opts ...Option) *Server {
	s := &Server{
		store:   store,
		logger:  slog.New(slog.DiscardHandler),
		maxBody: DefaultMaxBodyBytes,
	}
	for _, o := range opts {
		o(s)
	}
	if s.extractor == nil {
		s.extractor = extract.New(extract.WithLogger(s.logger))
	}
	return s
}

// endpoint pairs an HTTP method with its handler.
type endpoint struct {
	method  string
	handler http.HandlerFunc
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recoverer)
	r.Use(metrics.Middleware)
	r.Use(s.logRequests)
	r.Use(cors)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Метод не поддерживается")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Не найдено")
	})

	s.route(r, "/articles",
		endpoint{http.MethodGet, s.listArticles},
		endpoint{http.MethodPost, s.createArticle})
	s.route(r, "/materials",
		endpoint{http.MethodGet, s.listMaterials},
		endpoint{http.MethodPost, s.createMaterial},
		endpoint{http.MethodDelete, s.deleteMaterial})
	s.route(r, "/messages",
		endpoint{http.MethodGet, s.listMessages},
		endpoint{http.MethodPost, s.createMessage})
	s.route(r, "/upload-file",
		endpoint{http.MethodPost, s.uploadFile})
	s.route(r, "/upload-to-s3",
		endpoint{http.MethodPost, s.uploadToStorage})

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

// route registers the endpoints of one resource plus a CORS preflight
// handler advertising exactly those methods.
func (s *Server) route(r chi.Router, pattern string, endpoints ...endpoint) {
	methods := make([]string, 0, len(endpoints)+1)
	for _, e := range endpoints {
		r.Method(e.method, pattern, e.handler)
		methods = append(methods, e.method)
	}
	allow := strings.Join(append(methods, http.MethodOptions), ", ")
	r.Options(pattern, func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Methods", allow)
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Access-Control-Max-Age", "86400")
		w.WriteHeader(http.StatusOK)
	})
}

// cors allows any origin on every response.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

// recoverer turns a handler panic into a JSON 500 and logs the stack.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("httpapi: panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// decodeBody reads a JSON body no larger than the configured limit. It
// writes the error response itself and reports whether decoding succeeded.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Слишком большой запрос")
			return false
		}
		writeError(w, http.StatusBadRequest, "Некорректный JSON: "+err.Error())
		return false
	}
	return true
}

// internalError logs err and answers 500 with msg.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Error("httpapi: request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
		"request_id", middleware.GetReqID(r.Context()))
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		http.Error(w, "marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write([]byte(buf.String()))
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
