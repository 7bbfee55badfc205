package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/keyfront/keyfront/store"
)

type stubEventStore struct {
	events  map[uuid.UUID]*store.LoginEvent
	listErr error

	lastFilter store.ListFilter
}

func newStubEventStore(events ...*store.LoginEvent) *stubEventStore {
	s := &stubEventStore{events: make(map[uuid.UUID]*store.LoginEvent)}
	for _, e := range events {
		s.events[e.ID] = e
	}
	return s
}

func (s *stubEventStore) Create(_ context.Context, event *store.LoginEvent) error {
	s.events[event.ID] = event
	return nil
}

func (s *stubEventStore) GetByID(_ context.Context, id uuid.UUID) (*store.LoginEvent, error) {
	event, ok := s.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return event, nil
}

func (s *stubEventStore) List(_ context.Context, filter store.ListFilter) ([]*store.LoginEvent, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.lastFilter = filter
	var out []*store.LoginEvent
	for _, e := range s.events {
		out = append(out, e)
	}
	return out, nil
}

func (s *stubEventStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func sampleEvent() *store.LoginEvent {
	return &store.LoginEvent{
		ID:        uuid.New(),
		Username:  "jdoe",
		Kind:      store.EventLogin,
		Success:   false,
		ErrorCode: "authentication_failed",
		RequestID: "req-1",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// serveWithRouter runs the request through a chi router so URL params resolve.
func serveWithRouter(h *EventHandler, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/events", h.HandleList)
	r.Get("/events/{id}", h.HandleGet)
	r.Delete("/events/{id}", h.HandleDelete)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleListPassesFilter(t *testing.T) {
	events := newStubEventStore(sampleEvent())
	h := NewEventHandler(events, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/events?username=jdoe&kind=login&limit=10&offset=5", nil)
	rec := serveWithRouter(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jdoe", events.lastFilter.Username)
	assert.Equal(t, store.EventLogin, events.lastFilter.Kind)
	assert.Equal(t, 10, events.lastFilter.Limit)
	assert.Equal(t, 5, events.lastFilter.Offset)

	var resp []LoginEventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "jdoe", resp[0].Username)
	assert.Equal(t, "login", resp[0].Kind)
	assert.Equal(t, "authentication_failed", resp[0].ErrorCode)
	assert.Equal(t, "2025-06-01T12:00:00Z", resp[0].CreatedAt)
}

func TestHandleListEmptyStoreReturnsEmptyArray(t *testing.T) {
	h := NewEventHandler(newStubEventStore(), zap.NewNop())

	rec := serveWithRouter(h, httptest.NewRequest(http.MethodGet, "/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandleListStoreFailure(t *testing.T) {
	events := newStubEventStore()
	events.listErr = errors.New("connection refused")
	h := NewEventHandler(events, zap.NewNop())

	rec := serveWithRouter(h, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHandleGet(t *testing.T) {
	event := sampleEvent()
	h := NewEventHandler(newStubEventStore(event), zap.NewNop())

	rec := serveWithRouter(h, httptest.NewRequest(http.MethodGet, "/events/"+event.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginEventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, event.ID.String(), resp.ID)
	assert.Equal(t, "req-1", resp.RequestID)
}

func TestHandleGetInvalidID(t *testing.T) {
	h := NewEventHandler(newStubEventStore(), zap.NewNop())

	rec := serveWithRouter(h, httptest.NewRequest(http.MethodGet, "/events/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetNotFound(t *testing.T) {
	h := NewEventHandler(newStubEventStore(), zap.NewNop())

	rec := serveWithRouter(h, httptest.NewRequest(http.MethodGet, "/events/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDelete(t *testing.T) {
	event := sampleEvent()
	events := newStubEventStore(event)
	h := NewEventHandler(events, zap.NewNop())

	rec := serveWithRouter(h, httptest.NewRequest(http.MethodDelete, "/events/"+event.ID.String(), nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, events.events)
}

func TestHandleDeleteNotFound(t *testing.T) {
	h := NewEventHandler(newStubEventStore(), zap.NewNop())

	rec := serveWithRouter(h, httptest.NewRequest(http.MethodDelete, "/events/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
