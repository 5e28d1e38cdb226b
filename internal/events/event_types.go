package events

import (
	"time"

	"github.com/spec-kit/identity-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user.registered"
	EventUserCreated    EventType = "user.created"
	EventUserUpdated    EventType = "user.updated"
)

// Actor encapsulates actor metadata for an event. A nil UserID means the
// subject acted on their own account.
type Actor struct {
	UserID *string `json:"user_id,omitempty"`
	IP     *string `json:"ip,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email    string  `json:"email"`
	FullName *string `json:"full_name,omitempty"`
}

// UserChangedPayload carries profile snapshots for created and updated users.
// Before is nil on creation.
type UserChangedPayload struct {
	Action      domain.AuditAction  `json:"action"`
	Before      *domain.UserProfile `json:"before,omitempty"`
	After       domain.UserProfile  `json:"after"`
	Description string              `json:"description"`
}
