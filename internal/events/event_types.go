package events

import (
	"time"

	"github.com/civicdesk/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintRegistered    EventType = "complaint_registered"
	EventComplaintRejected      EventType = "complaint_rejected"
	EventComplaintAssigned      EventType = "complaint_assigned"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
	EventComplaintRated         EventType = "complaint_rated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type       domain.ActorType `json:"type"`
	UserID     *string          `json:"user_id,omitempty"`
	ProviderID *string          `json:"provider_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ComplaintID string      `json:"complaint_id"`
	TicketID    string      `json:"ticket_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ComplaintRegisteredPayload payload.
type ComplaintRegisteredPayload struct {
	Department  domain.Department        `json:"department"`
	Priority    domain.ComplaintPriority `json:"priority"`
	Area        string                   `json:"area"`
	IsDuplicate bool                     `json:"is_duplicate"`
	ProviderID  *string                  `json:"provider_id,omitempty"`
}

// ComplaintAssignedPayload payload.
type ComplaintAssignedPayload struct {
	ProviderID   string `json:"provider_id"`
	ProviderName string `json:"provider_name"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
	Note      string                 `json:"note,omitempty"`
}

// ComplaintRatedPayload payload.
type ComplaintRatedPayload struct {
	Rating int `json:"rating"`
}
