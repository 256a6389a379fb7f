package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/muhammadolammi/jobrank/internal/extract"
	logpkg "github.com/muhammadolammi/jobrank/internal/logger"
	"github.com/muhammadolammi/jobrank/internal/metrics"
	"github.com/muhammadolammi/jobrank/internal/report"
	"github.com/muhammadolammi/jobrank/internal/screening"
)

// rankingServer accepts uploads and ranks them synchronously.
type rankingServer struct {
	screener  *screening.Screener
	maxUpload int64
	logger    *zap.Logger
}

type rankingResponse struct {
	Results  []report.Entry      `json:"results"`
	Failures []screening.Failure `json:"failures"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newRouter(s *rankingServer) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/v1/rankings", s.createRanking)
	return r
}

// createRanking handles POST /v1/rankings.
func (s *rankingServer) createRanking(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large",
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid multipart body: "+err.Error())
		return
	}

	req, err := requestFromForm(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	outcome, err := s.screener.Rank(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="ranked_candidates.csv"`)
		w.WriteHeader(http.StatusOK)
		if err := report.WriteCSV(w, outcome.Results); err != nil {
			logpkg.FromContext(r.Context()).Error("write csv", zap.Error(err))
		}
		return
	}

	failures := outcome.Failures
	if failures == nil {
		failures = []screening.Failure{}
	}
	writeJSON(w, http.StatusOK, rankingResponse{
		Results:  report.Entries(outcome.Results),
		Failures: failures,
	})
}

// requestFromForm reads job_description and the resumes files in upload order.
func requestFromForm(r *http.Request) (screening.Request, error) {
	req := screening.Request{JobDescription: r.FormValue("job_description")}

	for _, fh := range r.MultipartForm.File["resumes"] {
		format, err := extract.FormatFromFilename(fh.Filename)
		if err != nil {
			return screening.Request{}, err
		}
		f, err := fh.Open()
		if err != nil {
			return screening.Request{}, fmt.Errorf("open upload %q: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return screening.Request{}, fmt.Errorf("read upload %q: %w", fh.Filename, err)
		}
		req.Documents = append(req.Documents, screening.Document{
			ID:      fh.Filename,
			Content: data,
			Format:  format,
		})
	}
	return req, nil
}

func (s *rankingServer) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, screening.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, extract.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "unsupported_format", err.Error())
	case errors.Is(err, extract.ErrExtraction):
		writeError(w, http.StatusUnprocessableEntity, "extraction_failed", err.Error())
	default:
		logpkg.FromContext(r.Context()).Error("ranking failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// jsonRecoverer returns JSON instead of a plain text stacktrace on panic.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered", zap.Any("panic", rvr), zap.Stack("stacktrace"))
					writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits one log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
