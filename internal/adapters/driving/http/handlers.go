package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/spf13/cast"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driving"
	"github.com/custodia-labs/asset-sync/internal/core/services"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// ReadyResponse reports per-dependency readiness
// @Description Readiness response
type ReadyResponse struct {
	Status   string            `json:"status" example:"ready"`
	Services map[string]string `json:"services,omitempty"`
}

// SyncFailedResponse is returned when a run started but ended FAILED
// @Description Failed sync response; the sync log is final
type SyncFailedResponse struct {
	Error   string          `json:"error" example:"fetch https://cmdb.example.com/assets: unexpected status 500"`
	SyncLog *domain.SyncLog `json:"syncLog"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the liveness status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Checks the database and lock backend connections
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ready", Services: map[string]string{}}

	check := func(name string, p Pinger) {
		if p == nil {
			return
		}
		if err := p.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", "service", name, "error", err)
			resp.Services[name] = "unavailable"
			resp.Status = "not ready"
			return
		}
		resp.Services[name] = "ok"
	}
	check("database", s.db)
	check("lock", s.lock)

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Integration endpoints

// handleListIntegrations godoc
// @Summary      List integrations
// @Description  List all integration configurations. Credentials and webhook secrets are never returned.
// @Tags         Integrations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.IntegrationConfig
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /integrations [get]
func (s *Server) handleListIntegrations(w http.ResponseWriter, r *http.Request) {
	configs, err := s.integrationService.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "failed to list integrations")
		return
	}
	if configs == nil {
		configs = []*domain.IntegrationConfig{}
	}
	writeJSON(w, http.StatusOK, configs)
}

// handleGetIntegration godoc
// @Summary      Get integration
// @Description  Get an integration configuration by ID
// @Tags         Integrations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Integration ID"
// @Success      200  {object}  domain.IntegrationConfig
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Integration not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /integrations/{id} [get]
func (s *Server) handleGetIntegration(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing integration id")
		return
	}

	cfg, err := s.integrationService.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err, "failed to get integration")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleCreateIntegration godoc
// @Summary      Create integration
// @Description  Create an integration configuration (admin only). New configurations start INACTIVE.
// @Tags         Integrations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.CreateIntegrationRequest  true  "Integration configuration"
// @Success      201      {object}  domain.IntegrationConfig
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      403      {object}  ErrorResponse  "Forbidden - admin only"
// @Failure      409      {object}  ErrorResponse  "Integration name already exists"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /integrations [post]
func (s *Server) handleCreateIntegration(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req driving.CreateIntegrationRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := s.integrationService.Create(r.Context(), authCtx.UserID, req)
	if err != nil {
		s.writeServiceError(w, err, "failed to create integration")
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

// handleUpdateIntegration godoc
// @Summary      Update integration
// @Description  Partially update an integration configuration (admin only). Omitted fields are unchanged.
// @Tags         Integrations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                            true  "Integration ID"
// @Param        request  body      driving.UpdateIntegrationRequest  true  "Fields to change"
// @Success      200      {object}  domain.IntegrationConfig
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      403      {object}  ErrorResponse  "Forbidden - admin only"
// @Failure      404      {object}  ErrorResponse  "Integration not found"
// @Failure      409      {object}  ErrorResponse  "Integration name already exists"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /integrations/{id} [put]
func (s *Server) handleUpdateIntegration(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing integration id")
		return
	}

	var req driving.UpdateIntegrationRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := s.integrationService.Update(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, err, "failed to update integration")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleDeleteIntegration godoc
// @Summary      Delete integration
// @Description  Delete an integration configuration and its sync history (admin only). Assets are kept.
// @Tags         Integrations
// @Security     BearerAuth
// @Param        id   path  string  true  "Integration ID"
// @Success      204
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      403  {object}  ErrorResponse  "Forbidden - admin only"
// @Failure      404  {object}  ErrorResponse  "Integration not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /integrations/{id} [delete]
func (s *Server) handleDeleteIntegration(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing integration id")
		return
	}

	if err := s.integrationService.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, err, "failed to delete integration")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTestIntegration godoc
// @Summary      Test connection
// @Description  Probe the integration endpoint with its configured authentication (admin only). No sync log is written.
// @Tags         Integrations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Integration ID"
// @Success      200  {object}  driving.TestConnectionResult
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      403  {object}  ErrorResponse  "Forbidden - admin only"
// @Failure      404  {object}  ErrorResponse  "Integration not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /integrations/{id}/test [post]
func (s *Server) handleTestIntegration(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing integration id")
		return
	}

	result, err := s.integrationService.TestConnection(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err, "failed to test connection")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Sync endpoints

// handleTriggerSync godoc
// @Summary      Trigger sync
// @Description  Run a pull sync now and return its log (admin only). Only ACTIVE pull integrations can be synced.
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Integration ID"
// @Success      200  {object}  domain.SyncLog     "COMPLETED or PARTIAL run"
// @Failure      400  {object}  ErrorResponse      "Integration inactive or not pullable"
// @Failure      401  {object}  ErrorResponse      "Unauthorized"
// @Failure      403  {object}  ErrorResponse      "Forbidden - admin only"
// @Failure      404  {object}  ErrorResponse      "Integration not found"
// @Failure      409  {object}  ErrorResponse      "Sync already in progress"
// @Failure      502  {object}  SyncFailedResponse "Source system unreachable or returned an error"
// @Failure      500  {object}  SyncFailedResponse "Internal server error"
// @Router       /integrations/{id}/sync [post]
func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing integration id")
		return
	}

	log, err := s.syncService.Sync(r.Context(), id, domain.SyncSourceManual)
	if err != nil {
		s.writeRunError(w, log, err, "sync failed")
		return
	}
	writeJSON(w, http.StatusOK, log)
}

// handleSyncHistory godoc
// @Summary      Sync history
// @Description  List the most recent sync logs for an integration, newest first
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Integration ID"
// @Param        limit  query     int     false  "Maximum logs to return (default 20, max 200)"
// @Success      200    {array}   domain.SyncLog
// @Failure      400    {object}  ErrorResponse  "Invalid limit"
// @Failure      401    {object}  ErrorResponse  "Unauthorized"
// @Failure      404    {object}  ErrorResponse  "Integration not found"
// @Failure      500    {object}  ErrorResponse  "Internal server error"
// @Router       /integrations/{id}/sync-history [get]
func (s *Server) handleSyncHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing integration id")
		return
	}

	limit := services.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := cast.ToIntE(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, services.MaxHistoryLimit)
	}

	logs, err := s.syncService.History(r.Context(), id, limit)
	if err != nil {
		s.writeServiceError(w, err, "failed to list sync history")
		return
	}
	if logs == nil {
		logs = []*domain.SyncLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// Webhook endpoints

// handleWebhook godoc
// @Summary      Push records
// @Description  Ingest a JSON object or array of objects for a WEBHOOK integration. Authenticate with X-Webhook-Secret or an admin bearer token.
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Security     WebhookSecret
// @Security     BearerAuth
// @Param        id       path      string  true  "Integration ID"
// @Param        payload  body      object  true  "Record or array of records"
// @Success      200      {object}  domain.SyncLog
// @Failure      400      {object}  SyncFailedResponse  "Malformed payload or integration does not accept webhooks"
// @Failure      401      {object}  ErrorResponse       "Invalid webhook secret or token"
// @Failure      404      {object}  ErrorResponse       "Integration not found"
// @Failure      409      {object}  ErrorResponse       "Sync already in progress"
// @Failure      413      {object}  ErrorResponse       "Payload too large"
// @Failure      500      {object}  SyncFailedResponse  "Internal server error"
// @Router       /integrations/{id}/webhook [post]
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing integration id")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	log, err := s.webhookIngestor.Ingest(r.Context(), id, body)
	if err != nil {
		s.writeRunError(w, log, err, "webhook ingest failed")
		return
	}
	writeJSON(w, http.StatusOK, log)
}

// Helper functions

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	return dec.Decode(v)
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrIntegrationInactive),
		errors.Is(err, domain.ErrInvalidIntegrationType):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsTransportError(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeServiceError writes a client error with its message, or logs and
// writes fallback for anything unexpected.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(fallback, "error", err)
		writeError(w, status, fallback)
		return
	}
	writeError(w, status, err.Error())
}

// writeRunError reports a run error. When the run produced a log it is
// returned alongside the error.
func (s *Server) writeRunError(w http.ResponseWriter, log *domain.SyncLog, err error, fallback string) {
	if log == nil {
		s.writeServiceError(w, err, fallback)
		return
	}

	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error(fallback, "sync_log_id", log.ID, "error", err)
		msg = fallback
	}
	writeJSON(w, status, SyncFailedResponse{Error: msg, SyncLog: log})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
