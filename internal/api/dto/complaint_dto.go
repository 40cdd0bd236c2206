package dto

import (
	"time"

	"github.com/civicdesk/complaint-service/internal/domain"
)

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	Department  string   `json:"department"`
	Description string   `json:"description"`
	PhotoRef    string   `json:"photo_ref"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     string   `json:"address"`
	Area        string   `json:"area"`
}

// IntakeResponse is returned to the submitter after triage.
type IntakeResponse struct {
	Complaint  ComplaintSummary `json:"complaint"`
	Confidence int              `json:"confidence"`
	Reason     string           `json:"reason,omitempty"`
	AssignedTo string           `json:"assigned_to,omitempty"`
	Duplicate  bool             `json:"duplicate"`
}

// ComplaintSummary response.
type ComplaintSummary struct {
	ID         string                   `json:"id"`
	TicketID   string                   `json:"ticket_id"`
	Department domain.Department        `json:"department"`
	Status     domain.ComplaintStatus   `json:"status"`
	Priority   domain.ComplaintPriority `json:"priority"`
	Area       string                   `json:"area,omitempty"`
	AssignedTo string                   `json:"assigned_to,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// ComplaintDetailResponse provides full complaint info.
type ComplaintDetailResponse struct {
	ID               string                   `json:"id"`
	TicketID         string                   `json:"ticket_id"`
	Department       domain.Department        `json:"department"`
	Description      string                   `json:"description"`
	PhotoRef         string                   `json:"photo_ref,omitempty"`
	Latitude         *float64                 `json:"latitude,omitempty"`
	Longitude        *float64                 `json:"longitude,omitempty"`
	Address          string                   `json:"address,omitempty"`
	Area             string                   `json:"area,omitempty"`
	Status           domain.ComplaintStatus   `json:"status"`
	Priority         domain.ComplaintPriority `json:"priority"`
	AssignedTo       string                   `json:"assigned_to,omitempty"`
	IsDuplicate      bool                     `json:"is_duplicate"`
	DuplicateOf      *string                  `json:"duplicate_of,omitempty"`
	IntegrityRemarks string                   `json:"integrity_remarks,omitempty"`
	Rating           *int                     `json:"rating,omitempty"`
	ResolutionNote   string                   `json:"resolution_note,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
	ResolvedAt       *time.Time               `json:"resolved_at,omitempty"`
	History          []StatusEventResponse    `json:"history,omitempty"`
}

// StatusEventResponse is one entry of a complaint's audit trail.
type StatusEventResponse struct {
	ID        string                 `json:"id"`
	Status    domain.ComplaintStatus `json:"status"`
	ActorType domain.ActorType       `json:"actor_type"`
	ActorID   *string                `json:"actor_id,omitempty"`
	Note      string                 `json:"note,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// TransitionRequest payload for provider status changes.
type TransitionRequest struct {
	Status domain.ComplaintStatus `json:"status"`
	Note   string                 `json:"note"`
}

// RateComplaintRequest payload.
type RateComplaintRequest struct {
	Rating int `json:"rating"`
}

// DashboardResponse aggregates complaint counts per status.
type DashboardResponse struct {
	Counts map[domain.ComplaintStatus]int64 `json:"counts"`
}

// ToComplaintSummary maps a domain complaint to the summary view.
func ToComplaintSummary(c *domain.Complaint) ComplaintSummary {
	return ComplaintSummary{
		ID:         c.ID,
		TicketID:   c.TicketID,
		Department: c.Department,
		Status:     c.Status,
		Priority:   c.Priority,
		Area:       c.Area,
		AssignedTo: c.ProviderName,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// ToComplaintDetail maps a domain complaint and its trail to the detail view.
func ToComplaintDetail(c *domain.Complaint, trail []domain.StatusEvent) ComplaintDetailResponse {
	resp := ComplaintDetailResponse{
		ID:               c.ID,
		TicketID:         c.TicketID,
		Department:       c.Department,
		Description:      c.Description,
		PhotoRef:         c.PhotoRef,
		Latitude:         c.Latitude,
		Longitude:        c.Longitude,
		Address:          c.Address,
		Area:             c.Area,
		Status:           c.Status,
		Priority:         c.Priority,
		AssignedTo:       c.ProviderName,
		IsDuplicate:      c.IsDuplicate,
		DuplicateOf:      c.DuplicateOf,
		IntegrityRemarks: c.IntegrityRemarks,
		Rating:           c.Rating,
		ResolutionNote:   c.ResolutionNote,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
		ResolvedAt:       c.ResolvedAt,
	}
	for _, ev := range trail {
		resp.History = append(resp.History, StatusEventResponse{
			ID:        ev.ID,
			Status:    ev.Status,
			ActorType: ev.ActorType,
			ActorID:   ev.ActorID,
			Note:      ev.Note,
			CreatedAt: ev.CreatedAt,
		})
	}
	return resp
}

// ToComplaintSummaries maps a slice of complaints.
func ToComplaintSummaries(items []domain.Complaint) []ComplaintSummary {
	out := make([]ComplaintSummary, 0, len(items))
	for i := range items {
		out = append(out, ToComplaintSummary(&items[i]))
	}
	return out
}
