package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/usecase"
	"github.com/mnemo-chat/mnemo/pkg/utils/errutil"
	"github.com/mnemo-chat/mnemo/pkg/utils/logging"
	"github.com/mnemo-chat/mnemo/pkg/utils/safe"
)

const maxRequestBody = 4 << 20

type Server struct {
	router          *chi.Mux
	uc              *usecase.UseCases
	requesterHeader string
}

type Options func(*Server)

// WithRequesterHeader changes the header holding the authenticated user ID
func WithRequesterHeader(name string) Options {
	return func(s *Server) {
		s.requesterHeader = name
	}
}

func New(uc *usecase.UseCases, opts ...Options) (*Server, error) {
	if uc == nil {
		return nil, goerr.New("use cases are required")
	}

	r := chi.NewRouter()
	s := &Server{
		router:          r,
		uc:              uc,
		requesterHeader: DefaultRequesterHeader,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(requesterMiddleware(s.requesterHeader))

		r.Post("/tags/match", s.matchTagHandler)
		r.Post("/tags/resolve", s.resolveTagsHandler)
		r.Put("/tags/{id}", s.renameTagHandler)

		r.Post("/memories", s.saveMemoryHandler)
		r.Post("/memories/duplicate", s.duplicateMemoryHandler)
		r.Post("/memories/forget", s.forgetMemoriesHandler)

		r.Post("/prompt", s.buildPromptHandler)

		r.Get("/tools", s.listToolsHandler)
		r.Post("/tools/{name}", s.runToolHandler)

		r.Delete("/conversations/{id}", s.deleteConversationHandler)
		r.Delete("/users/{id}", s.deleteUserHandler)
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
				"remote", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	data, _ := json.Marshal(errorResponse{Error: msg})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// handleError maps domain errors onto status codes. Client errors are
// answered directly; everything else goes through errutil for reporting.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidArgument),
		errors.Is(err, usecase.ErrInvalidDeleteMode):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, usecase.ErrSlugConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, usecase.ErrEmbedderNotConfigured),
		errors.Is(err, model.ErrEmbeddingGeneration):
		errutil.HandleHTTP(r.Context(), w, err, http.StatusServiceUnavailable)
	default:
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
	}
}
