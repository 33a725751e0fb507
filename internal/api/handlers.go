package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goreport/internal/app"
	"github.com/hyperifyio/goreport/internal/docmodel"
	"github.com/hyperifyio/goreport/internal/imagematch"
	"github.com/hyperifyio/goreport/internal/store"
	"github.com/hyperifyio/goreport/internal/topic"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, apiResponse{Success: status >= 200 && status < 300, Data: data})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	write(w, status, apiResponse{Error: &apiError{Code: code, Message: message}})
}

func write(w http.ResponseWriter, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// errorStatus maps pipeline errors onto a status code and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrInvalidRequest), errors.Is(err, imagematch.ErrImageTooLarge):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, docmodel.ErrUnsupportedFormat), errors.Is(err, imagematch.ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType, "unsupported_format"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func respondErr(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	respondError(w, status, code, err.Error())
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode body: %v", app.ErrInvalidRequest, err)
	}
	return nil
}

// formFile returns the named multipart file.
func formFile(w http.ResponseWriter, r *http.Request, field string) (io.ReadCloser, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	f, h, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("%w: multipart field %q: %v", app.ErrInvalidRequest, field, err)
	}
	return f, h.Filename, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": app.BuildVersion,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.svc.Status())
}

type classifyRequest struct {
	Topic string `json:"topic"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "topic is required")
		return
	}
	respondJSON(w, http.StatusOK, topic.Classify(req.Topic))
}

func (s *Server) handleUploadSample(w http.ResponseWriter, r *http.Request) {
	f, name, err := formFile(w, r, "file")
	if err != nil {
		respondErr(w, err)
		return
	}
	defer f.Close()
	p, err := s.svc.UploadSample(r.Context(), f, name)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetSample(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	f, name, err := formFile(w, r, "file")
	if err != nil {
		respondErr(w, err)
		return
	}
	defer f.Close()
	img, err := s.svc.StoreImage(f, name)
	if err != nil {
		respondErr(w, err)
		return
	}
	img.Caption = r.FormValue("caption")
	img.DeclaredRelevance = r.FormValue("content_relevance")
	respondJSON(w, http.StatusCreated, img)
}

func (s *Server) handleGenerateContent(w http.ResponseWriter, r *http.Request) {
	var req app.ContentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	g, err := s.svc.GenerateContent(r.Context(), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req app.ReportRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondErr(w, err)
		return
	}
	resp := s.svc.GenerateReport(r.Context(), req)
	if !resp.Success {
		status, code := errorStatus(resp.Err)
		if status == http.StatusInternalServerError {
			code = "generation_failed"
		}
		write(w, status, apiResponse{
			Data:  resp,
			Error: &apiError{Code: code, Message: resp.Message},
		})
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

var contentTypes = map[string]string{
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pdf":  "application/pdf",
}

func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	path, err := s.svc.ResolveOutput(name)
	if err != nil {
		respondErr(w, err)
		return
	}
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}
