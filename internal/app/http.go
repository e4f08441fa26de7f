package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"recordhub/api/internal/access"
	"recordhub/api/internal/auth"
	"recordhub/api/internal/period"
)

const maxImportBodyBytes = 8 << 20

type HTTPServer struct {
	service    *Service
	corsOrigin string
	limiter    *RateLimiter
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	server := &HTTPServer{service: service, corsOrigin: corsOrigin}
	if service.cfg.RateLimitRPS > 0 {
		server.limiter = NewRateLimiter(service.cfg.RateLimitRPS, max(service.cfg.RateLimitBurst, 1))
	}
	return server
}

func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if s.service.cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(logRequests)
	r.Use(chimw.Recoverer)
	r.Use(corsMiddleware(s.corsOrigin))
	if s.limiter != nil {
		r.Use(rateLimitMiddleware(s.limiter))
	}

	r.Get("/api/health", s.handleHealth)
	r.Head("/api/health", s.handleHealth)
	r.Get("/api/ready", s.handleReady)
	r.Head("/api/ready", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/api/documents", listHandler(s, documentParams, s.service.FindDocuments))
		r.Get("/api/documents/stats", listHandler(s, documentParams, s.service.DocumentStats))
		r.Get("/api/documents/overview", listHandler(s, documentParams, s.service.DocumentOverview))

		r.Route("/api/teams/{teamId}", func(r chi.Router) {
			r.Get("/documents", listHandler(s, documentParams, s.service.FindDocuments))
			r.Get("/documents/stats", listHandler(s, documentParams, s.service.DocumentStats))
			r.Get("/documents/overview", listHandler(s, documentParams, s.service.DocumentOverview))
			r.Get("/tasks", listHandler(s, taskParams, s.service.FindTasks))
			r.Get("/tasks/stats", listHandler(s, taskParams, s.service.TaskStats))
			r.Get("/contracts", listHandler(s, contractParams, s.service.FindContracts))
			r.Get("/contracts/stats", listHandler(s, contractParams, s.service.ContractStats))
			r.Get("/releases", listHandler(s, releaseParams, s.service.FindReleases))
			r.Get("/releases/stats", listHandler(s, releaseParams, s.service.ReleaseStats))
			r.Get("/catalog", listHandler(s, catalogParams, s.service.FindCatalog))
			r.Get("/catalog/stats", listHandler(s, catalogParams, s.service.CatalogStats))
			r.Post("/catalog/import", s.handleCatalogImport)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})
	return r
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

// listHandler parses the entity's parameters, runs op for the session in
// the request context and writes its result.
func listHandler[R any](s *HTTPServer, params listParams, op func(context.Context, Session, ListInput) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := s.parseRequest(w, r, params)
		if !ok {
			return
		}
		result, err := op(r.Context(), sessionFrom(r.Context()), in)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *HTTPServer) handleCatalogImport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rows []CatalogInput `json:"rows"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBodyBytes)
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	result, err := s.service.ImportCatalog(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "teamId"), body.Rows)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *HTTPServer) parseRequest(w http.ResponseWriter, r *http.Request, params listParams) (ListInput, bool) {
	defaultPerPage, maxPerPage := s.service.cfg.DefaultPerPage, s.service.cfg.MaxPerPage
	if defaultPerPage <= 0 {
		defaultPerPage = 10
	}
	if maxPerPage <= 0 {
		maxPerPage = 100
	}
	in, err := parseListInput(r.URL.Query(), params, defaultPerPage, maxPerPage)
	if err != nil {
		writeMappedError(w, err)
		return ListInput{}, false
	}
	in.TeamID = chi.URLParam(r, "teamId")
	return in, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func writeMappedError(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	writeError(w, status, code, message, details)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

// mapError turns service errors into responses. An unknown team and a team
// the caller does not belong to produce the same response.
func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, access.ErrTeamNotFound) || errors.Is(err, access.ErrNotAuthorized) {
		return http.StatusForbidden, "ACCESS_DENIED", "You do not have access to this team", nil
	}
	if errors.Is(err, access.ErrUnknownUser) || errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	if errors.Is(err, period.ErrInvalidPeriod) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid request", map[string]string{"period": err.Error()}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
