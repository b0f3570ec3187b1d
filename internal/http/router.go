// Package http exposes the text pipeline over HTTP and websocket.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"convi-text-pipeline/internal/app"
	"convi-text-pipeline/internal/export"
	"convi-text-pipeline/internal/observability/metrics"
	"convi-text-pipeline/internal/schema"
	"convi-text-pipeline/internal/service/session"
	"convi-text-pipeline/internal/service/turn"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(instrument(application.Metrics))

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if !application.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/schema/output", outputSchema)
		r.Post("/transcripts", processTranscript(application.Sessions))
		r.Post("/transcripts/export", exportTranscript(application.Sessions))
		r.Get("/transcripts/stream", streamTranscript(application.Sessions))
	})

	return r
}

func processTranscript(h *session.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeRequest(w, r, bodyLimit(h))
		if !ok {
			return
		}
		out, err := h.Process(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func exportTranscript(h *session.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeRequest(w, r, bodyLimit(h))
		if !ok {
			return
		}
		out, err := h.Process(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}

		f, err := export.Workbook(out)
		if err != nil {
			writeError(w, err)
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+out.SessionID+`.xlsx"`)
		w.WriteHeader(http.StatusOK)
		if err := f.Write(w); err != nil {
			log.Error().Err(err).Str("sessionId", out.SessionID).Msg("Failed to write workbook")
		}
	}
}

func outputSchema(w http.ResponseWriter, _ *http.Request) {
	m, err := schema.OutputSchemaMap()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// bodyLimit bounds a JSON request carrying a transcript of the handler's
// maximum size, allowing for escaping of every byte as \uXXXX. Zero means
// unlimited.
func bodyLimit(h *session.Handler) int64 {
	n := h.Limits().MaxTranscriptBytes
	if n <= 0 {
		return 0
	}
	return int64(n)*6 + 4096
}

func decodeRequest(w http.ResponseWriter, r *http.Request, limit int64) (session.Request, bool) {
	var req session.Request
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: session.ErrTranscriptTooLarge.Error()})
			return req, false
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return req, false
	}
	return req, true
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrEmptyTranscript):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrTranscriptTooLarge), errors.Is(err, session.ErrTooManyTurns):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, turn.ErrNoTurns):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	writeJSON(w, code, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// instrument records request counts and latency by route pattern.
func instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.RecordRequest("http", route, strconv.Itoa(status), time.Since(start).Seconds())
		})
	}
}
