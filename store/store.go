// Package store defines the gateway's persistence interfaces. Each storage
// concern is a small capability interface with one concrete adapter per
// storage technology; no shared base hierarchy.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// EventKind names the exchange path that produced a login event.
type EventKind string

const (
	EventLogin   EventKind = "login"
	EventRefresh EventKind = "refresh"
)

// LoginEvent is an audit record of one credential or refresh exchange
// outcome. It records outcomes, never sessions or credentials.
type LoginEvent struct {
	ID        uuid.UUID
	Username  string
	Kind      EventKind
	Success   bool
	ErrorCode string
	RequestID string
	CreatedAt time.Time
}

// ListFilter narrows and pages a login-event listing. Zero values mean
// "no constraint"; Limit defaults at the adapter.
type ListFilter struct {
	Username string
	Kind     EventKind
	Limit    int
	Offset   int
}

// LoginEventStore persists login events.
type LoginEventStore interface {
	// Create inserts a new login event
	Create(ctx context.Context, event *LoginEvent) error

	// GetByID retrieves a login event by ID
	GetByID(ctx context.Context, id uuid.UUID) (*LoginEvent, error)

	// List retrieves login events matching the filter, newest first
	List(ctx context.Context, filter ListFilter) ([]*LoginEvent, error)

	// Delete removes a login event by ID
	Delete(ctx context.Context, id uuid.UUID) error
}
