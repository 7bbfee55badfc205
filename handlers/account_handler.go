package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keyfront/keyfront/gateway"
	"github.com/keyfront/keyfront/middleware"
	"github.com/keyfront/keyfront/services"
	"github.com/keyfront/keyfront/store"
	"github.com/keyfront/keyfront/utils"
)

// LoginRequest is the credential exchange request body
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the refresh exchange request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	service *services.AccountService
	events  store.LoginEventStore
	logger  *zap.Logger
}

// NewAccountHandler creates a new AccountHandler. The event store is
// optional; pass nil to disable login-event recording.
func NewAccountHandler(service *services.AccountService, events store.LoginEventStore, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		events:  events,
		logger:  logger,
	}
}

// HandleLogin handles POST /api/v1/accounts/login
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.bindRequest(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		gwErr := gateway.AsError(err)
		h.recordEvent(r.Context(), store.EventLogin, req.Username, false, gwErr.Code)
		_ = utils.WriteGatewayError(w, gwErr)
		return
	}

	h.recordEvent(r.Context(), store.EventLogin, req.Username, true, "")
	_ = utils.WriteOK(w, result)
}

// HandleRefresh handles POST /api/v1/accounts/refresh
func (h *AccountHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !h.bindRequest(w, r, &req) {
		return
	}

	result, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		gwErr := gateway.AsError(err)
		h.recordEvent(r.Context(), store.EventRefresh, "", false, gwErr.Code)
		_ = utils.WriteGatewayError(w, gwErr)
		return
	}

	h.recordEvent(r.Context(), store.EventRefresh, "", true, "")
	_ = utils.WriteOK(w, result)
}

// HandleLogout handles POST /api/v1/accounts/logout
func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	_ = utils.WriteOK(w, h.service.Logout(r.Context(), principal))
}

// HandleMe handles GET /api/v1/accounts/me
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	_ = utils.WriteOK(w, h.service.UserInfo(r.Context(), principal))
}

// HandleValidate handles GET /api/v1/accounts/validate
func (h *AccountHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	_ = utils.WriteOK(w, h.service.TokenValidation(claims))
}

// bindRequest decodes and validates a JSON request body. It writes the
// error response itself and reports whether binding succeeded.
func (h *AccountHandler) bindRequest(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return false
	}

	if err := utils.ValidateStruct(dest); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), utils.GetValidationFields(err))
		return false
	}

	return true
}

// recordEvent persists an exchange outcome for auditing. Recording is
// best effort: a store failure is logged and the response proceeds.
func (h *AccountHandler) recordEvent(ctx context.Context, kind store.EventKind, username string, success bool, errorCode string) {
	if h.events == nil {
		return
	}

	event := &store.LoginEvent{
		ID:        uuid.New(),
		Username:  username,
		Kind:      kind,
		Success:   success,
		ErrorCode: errorCode,
		RequestID: middleware.GetRequestIDFromContext(ctx),
		CreatedAt: time.Now().UTC(),
	}

	if err := h.events.Create(ctx, event); err != nil {
		h.logger.Warn("failed to record login event",
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}
