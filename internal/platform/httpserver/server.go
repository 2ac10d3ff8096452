package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	trajectservice "traject/contexts/assessment-workflow/traject-service"
	trajecthttpadapter "traject/contexts/assessment-workflow/traject-service/adapters/http"
	domainerrors "traject/contexts/assessment-workflow/traject-service/domain/errors"
	trajecthttp "traject/contexts/assessment-workflow/traject-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "traject/internal/platform/httpserver/docs"
)

const maxBodyBytes = 64 << 10

type Server struct {
	mux     *http.ServeMux
	http    *http.Server
	logger  *slog.Logger
	addr    string
	traject trajectservice.Module
}

func New(traject trajectservice.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		traject: traject,
	}
	s.registerRoutes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the routed mux, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("POST /trajects", s.handleProvisionTraject)
	s.mux.HandleFunc("GET /trajects/{traject_id}", s.handleGetTraject)
	s.mux.HandleFunc("POST /trajects/{traject_id}/status", s.handleAdvanceStatus)
	s.mux.HandleFunc("GET /owners/{owner_role}/{owner_id}/trajects", s.handleListOwnerCases)
}

func (s *Server) handleProvisionTraject(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req trajecthttp.ProvisionTrajectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	actor := trajecthttpadapter.ResolveActor(userID, r.Header.Get("X-User-Role"))
	resp, err := s.traject.Handler.ProvisionTrajectHandler(r.Context(), actor, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetTraject(w http.ResponseWriter, r *http.Request) {
	resp, err := s.traject.Handler.GetTrajectHandler(r.Context(), r.PathValue("traject_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdvanceStatus(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req trajecthttp.AdvanceStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	actor := trajecthttpadapter.ResolveActor(userID, r.Header.Get("X-User-Role"))
	resp, err := s.traject.Handler.AdvanceStatusHandler(r.Context(), actor, r.PathValue("traject_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListOwnerCases(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	resp, err := s.traject.Handler.ListOwnerCasesHandler(
		r.Context(),
		r.PathValue("owner_role"),
		r.PathValue("owner_id"),
		r.URL.Query().Get("status"),
		limit,
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

// writeDomainError maps error classifications onto HTTP statuses. Internal
// errors are logged and hidden from the client.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch domainerrors.KindOf(err) {
	case domainerrors.KindValidation:
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case domainerrors.KindForbidden:
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case domainerrors.KindNotFound:
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case domainerrors.KindConflict:
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case domainerrors.KindTransient:
		writeError(w, http.StatusServiceUnavailable, "transient_failure", "temporarily unavailable, retry the request")
	default:
		s.logger.Error("request failed",
			"event", "http_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, trajecthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
