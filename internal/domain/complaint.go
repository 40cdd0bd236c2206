package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	StatusRegistered ComplaintStatus = "REGISTERED"
	StatusAccepted   ComplaintStatus = "ACCEPTED"
	StatusWorkingOn  ComplaintStatus = "WORKING_ON"
	StatusCompleted  ComplaintStatus = "COMPLETED"
	StatusRejected   ComplaintStatus = "REJECTED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s ComplaintStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// ActiveStatuses are the states that count toward a provider's load.
func ActiveStatuses() []ComplaintStatus {
	return []ComplaintStatus{StatusRegistered, StatusAccepted, StatusWorkingOn}
}

// ComplaintPriority enumerates urgency levels.
type ComplaintPriority string

const (
	PriorityCritical ComplaintPriority = "CRITICAL"
	PriorityHigh     ComplaintPriority = "HIGH"
	PriorityMedium   ComplaintPriority = "MEDIUM"
	PriorityLow      ComplaintPriority = "LOW"
)

// Complaint is the aggregate for citizen-filed service requests.
type Complaint struct {
	ID               string
	TicketID         string
	SubmitterID      string
	Department       Department
	Description      string
	PhotoRef         string
	Latitude         *float64
	Longitude        *float64
	Address          string
	Area             string
	Status           ComplaintStatus
	Priority         ComplaintPriority
	ProviderID       *string
	ProviderName     string
	IsDuplicate      bool
	DuplicateOf      *string
	IntegrityRemarks string
	Rating           *int
	ResolutionNote   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ResolvedAt       *time.Time
}

// StatusEvent is an immutable entry in a complaint's audit trail. The sequence
// of events for a complaint is a valid walk of the lifecycle table.
type StatusEvent struct {
	ID          string
	ComplaintID string
	Status      ComplaintStatus
	ActorType   ActorType
	ActorID     *string
	Note        string
	CreatedAt   time.Time
}

// ActorType indicates who caused a status event.
type ActorType string

const (
	ActorTypeSystem   ActorType = "SYSTEM"
	ActorTypeCitizen  ActorType = "CITIZEN"
	ActorTypeProvider ActorType = "PROVIDER"
)
