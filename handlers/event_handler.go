package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keyfront/keyfront/store"
	"github.com/keyfront/keyfront/utils"
)

// EventHandler exposes the login-event audit trail
type EventHandler struct {
	events store.LoginEventStore
	logger *zap.Logger
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(events store.LoginEventStore, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		events: events,
		logger: logger,
	}
}

// LoginEventResponse is the wire shape of one audit record
type LoginEventResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Kind      string `json:"kind"`
	Success   bool   `json:"success"`
	ErrorCode string `json:"error_code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// HandleList handles GET /api/v1/events
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := store.ListFilter{
		Username: r.URL.Query().Get("username"),
		Kind:     store.EventKind(r.URL.Query().Get("kind")),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	}

	events, err := h.events.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list login events", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	resp := make([]LoginEventResponse, 0, len(events))
	for _, event := range events {
		resp = append(resp, toEventResponse(event))
	}
	_ = utils.WriteOK(w, resp)
}

// HandleGet handles GET /api/v1/events/{id}
func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid event ID", nil)
		return
	}

	event, err := h.events.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = utils.WriteNotFound(w, "Login event not found")
			return
		}
		h.logger.Error("failed to get login event",
			zap.String("id", id.String()),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	_ = utils.WriteOK(w, toEventResponse(event))
}

// HandleDelete handles DELETE /api/v1/events/{id}
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid event ID", nil)
		return
	}

	if err := h.events.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = utils.WriteNotFound(w, "Login event not found")
			return
		}
		h.logger.Error("failed to delete login event",
			zap.String("id", id.String()),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	utils.WriteNoContent(w)
}

func toEventResponse(event *store.LoginEvent) LoginEventResponse {
	return LoginEventResponse{
		ID:        event.ID.String(),
		Username:  event.Username,
		Kind:      string(event.Kind),
		Success:   event.Success,
		ErrorCode: event.ErrorCode,
		RequestID: event.RequestID,
		CreatedAt: event.CreatedAt.UTC().Format(timeFormat),
	}
}

func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return value
}
