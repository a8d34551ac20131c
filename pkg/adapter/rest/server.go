// Package rest exposes the directory service over HTTP/JSON.
//
// The adapter is deliberately thin: it translates requests into service
// calls and error codes into HTTP statuses, nothing more. Authentication
// happens upstream; the already-authenticated actor arrives in the
// X-Actor header.
package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mlohr/groupdrive/internal/logger"
	"github.com/mlohr/groupdrive/pkg/directory"
)

// Server is the HTTP adapter over a directory.Service.
type Server struct {
	service *directory.Service
	router  chi.Router
}

// NewServer builds the adapter and its routes.
func NewServer(service *directory.Service) *Server {
	s := &Server{service: service}

	r := chi.NewRouter()
	r.Post("/groups/{group}/root", s.handleGetOrCreateRoot)
	r.Route("/directories/{id}", func(r chi.Router) {
		r.Get("/path", s.handleGetPath)
		r.Get("/folders", s.handleGetSubFolders)
		r.Post("/folders", s.handleCreateFolder)
		r.Delete("/", s.handleDeleteFolder)
		r.Get("/permissions", s.handleGetPermissions)
		r.Put("/permissions", s.handleUpdatePermissions)
		r.Get("/search", s.handleSearch)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// actor extracts the authenticated actor from the request. An empty
// header means the upstream authentication layer was bypassed; reject.
func actor(r *http.Request) (string, bool) {
	a := r.Header.Get("X-Actor")
	return a, a != ""
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			logger.Error("failed to encode response: %v", err)
		}
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusForCode maps domain error codes to HTTP statuses.
func statusForCode(code directory.ErrorCode) int {
	switch code {
	case directory.ErrNotFound:
		return http.StatusNotFound
	case directory.ErrInvalidName, directory.ErrInvalidArgument:
		return http.StatusBadRequest
	case directory.ErrUnknownGroup:
		return http.StatusUnprocessableEntity
	case directory.ErrReadDenied, directory.ErrWriteDenied, directory.ErrDeleteDenied,
		directory.ErrNotAdmin, directory.ErrQuotaExceeded:
		return http.StatusForbidden
	case directory.ErrNotEmpty, directory.ErrAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func codeString(code directory.ErrorCode) string {
	switch code {
	case directory.ErrNotFound:
		return "not_found"
	case directory.ErrInvalidName:
		return "invalid_name"
	case directory.ErrInvalidArgument:
		return "invalid_argument"
	case directory.ErrUnknownGroup:
		return "unknown_group"
	case directory.ErrQuotaExceeded:
		return "quota_exceeded"
	case directory.ErrReadDenied:
		return "read_denied"
	case directory.ErrWriteDenied:
		return "write_denied"
	case directory.ErrDeleteDenied:
		return "delete_denied"
	case directory.ErrNotAdmin:
		return "not_admin"
	case directory.ErrNotEmpty:
		return "not_empty"
	case directory.ErrAlreadyExists:
		return "already_exists"
	default:
		return "storage_failure"
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := directory.CodeOf(err)
	if code == directory.ErrStorage {
		logger.Error("request failed: %v", err)
	}
	writeJSON(w, statusForCode(code), errorBody{Error: errorDetail{
		Code:    codeString(code),
		Message: err.Error(),
	}})
}

func writeUnauthenticated(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorDetail{
		Code:    "unauthenticated",
		Message: "missing X-Actor header",
	}})
}
