// Package api exposes the report pipeline over HTTP.
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goreport/internal/app"
	"github.com/hyperifyio/goreport/internal/docanalysis"
	"github.com/hyperifyio/goreport/internal/imagematch"
	"github.com/hyperifyio/goreport/internal/sections"
)

// Service is the part of *app.App the handlers use.
type Service interface {
	Status() app.StatusReport
	UploadSample(ctx context.Context, r io.Reader, originalFilename string) (docanalysis.Profile, error)
	Profile(ctx context.Context, id string) (docanalysis.Profile, error)
	StoreImage(r io.Reader, filename string) (imagematch.Image, error)
	GenerateContent(ctx context.Context, req app.ContentRequest) (sections.GeneratedContent, error)
	GenerateReport(ctx context.Context, req app.ReportRequest) app.ReportResponse
	ResolveOutput(name string) (string, error)
	Cleanup(maxAge time.Duration) (int, error)
}

// requestTimeout bounds one request, AI generation included.
const requestTimeout = 5 * time.Minute

// maxUploadBytes caps multipart uploads.
const maxUploadBytes = 32 << 20

// Server is the HTTP API.
type Server struct {
	svc    Service
	router *chi.Mux
}

// NewServer builds the router.
func NewServer(svc Service) *Server {
	s := &Server{svc: svc}
	s.setupRouter()
	return s
}

// Router returns the configured router.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/topics/classify", s.handleClassify)

		r.Route("/samples", func(r chi.Router) {
			r.Post("/", s.handleUploadSample)
			r.Get("/{id}", s.handleGetSample)
		})
		r.Post("/images", s.handleUploadImage)
		r.Post("/content", s.handleGenerateContent)

		r.Route("/reports", func(r chi.Router) {
			r.Post("/", s.handleGenerateReport)
			r.Get("/{filename}", s.handleDownloadReport)
		})
	})

	s.router = r
}

// loggingMiddleware writes one log line per request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("remote_addr", r.RemoteAddr).
				Msg("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}
