package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/civicdesk/complaint-service/internal/classifier"
	"github.com/civicdesk/complaint-service/internal/domain"
	"github.com/civicdesk/complaint-service/internal/events"
	"github.com/civicdesk/complaint-service/internal/geocode"
	"github.com/civicdesk/complaint-service/internal/observability"
	"github.com/civicdesk/complaint-service/internal/ratelimit"
	"github.com/civicdesk/complaint-service/internal/repository"
	"github.com/civicdesk/complaint-service/internal/triage"
	apperrors "github.com/civicdesk/complaint-service/pkg/util"
)

// ComplaintService coordinates the triage pipeline: department detection,
// integrity filtering, priority assignment, dispatch and persistence.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	providers  repository.ProviderRepository
	statusLog  repository.StatusEventRepository
	detector   *triage.DepartmentDetector
	priorities *triage.PriorityAssigner
	integrity  *triage.IntegrityFilter
	vision     classifier.ImageClassifier
	geocoder   geocode.Geocoder
	limiter    *ratelimit.IntakeLimiter
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo   repository.ComplaintRepository
	ProviderRepo    repository.ProviderRepository
	StatusEventRepo repository.StatusEventRepository
	Detector        *triage.DepartmentDetector
	Priorities      *triage.PriorityAssigner
	Integrity       *triage.IntegrityFilter
	Vision          classifier.ImageClassifier
	Geocoder        geocode.Geocoder
	Limiter         *ratelimit.IntakeLimiter
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
}

// ComplaintCreateInput describes an inbound complaint submission.
type ComplaintCreateInput struct {
	Department  string
	Description string
	PhotoRef    string
	Latitude    *float64
	Longitude   *float64
	Address     string
	Area        string
}

// IntakeResult is returned to the submitter after triage.
type IntakeResult struct {
	Complaint    *domain.Complaint
	Confidence   int
	Reason       string
	AssignedTo   string
	WasDuplicate bool
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{
		complaints: deps.ComplaintRepo,
		providers:  deps.ProviderRepo,
		statusLog:  deps.StatusEventRepo,
		detector:   deps.Detector,
		priorities: deps.Priorities,
		integrity:  deps.Integrity,
		vision:     deps.Vision,
		geocoder:   deps.Geocoder,
		limiter:    deps.Limiter,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Submit runs the full intake pipeline for a citizen complaint.
func (s *ComplaintService) Submit(ctx context.Context, userID string, input ComplaintCreateInput) (*IntakeResult, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}
	if strings.TrimSpace(input.PhotoRef) == "" {
		return nil, apperrors.NewValidationError("photo required", nil)
	}

	if !s.limiter.Allow(ctx, userID) {
		return nil, apperrors.NewTooManyRequests("too many complaints filed this hour")
	}

	area := strings.TrimSpace(input.Area)
	address := strings.TrimSpace(input.Address)
	if (area == "" || address == "") && input.Latitude != nil && input.Longitude != nil && s.geocoder != nil {
		location := s.geocoder.Resolve(ctx, *input.Latitude, *input.Longitude)
		if area == "" {
			area = location.Area
		}
		if address == "" {
			address = location.Address
		}
	}

	classification := s.resolveDepartment(ctx, input.Department, input.PhotoRef)
	department := classification.Department

	existing, err := s.complaints.ListOpenByDepartment(ctx, department)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	verdict := s.integrity.Check(ctx, description, area, existing)
	if verdict.IsFake {
		s.metrics.RecordTriage("intake_fake")
		return nil, apperrors.NewIntegrityRejection(
			"complaint rejected: "+verdict.Remarks,
			map[string]any{"remarks": verdict.Remarks})
	}

	priority := s.priorities.Assign(ctx, description, department)

	complaint := &domain.Complaint{
		TicketID:         generateTicketID(),
		SubmitterID:      userID,
		Department:       department,
		Description:      description,
		PhotoRef:         input.PhotoRef,
		Latitude:         input.Latitude,
		Longitude:        input.Longitude,
		Address:          address,
		Area:             area,
		Priority:         priority,
		IsDuplicate:      verdict.IsDuplicate,
		IntegrityRemarks: verdict.Remarks,
	}

	if verdict.IsDuplicate {
		// recorded for the audit trail but created directly in the terminal
		// state and never assigned
		complaint.Status = domain.StatusRejected
		if verdict.DuplicateOf != "" {
			duplicateOf := verdict.DuplicateOf
			complaint.DuplicateOf = &duplicateOf
		}
	} else {
		complaint.Status = domain.StatusRegistered
		pool, err := s.providers.ListWithLoads(ctx, department)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if provider := triage.SelectProvider(pool); provider != nil {
			complaint.ProviderID = &provider.ID
			complaint.ProviderName = provider.Name
		}
	}

	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, apperrors.MapError(err)
	}

	note := "complaint registered"
	eventType := events.EventComplaintRegistered
	if verdict.IsDuplicate {
		note = "rejected as duplicate: " + verdict.Remarks
		eventType = events.EventComplaintRejected
	}
	initial := &domain.StatusEvent{
		ComplaintID: complaint.ID,
		Status:      complaint.Status,
		ActorType:   domain.ActorTypeSystem,
		Note:        note,
	}
	if err := s.statusLog.Append(ctx, initial); err != nil {
		s.logger.Error("failed to append initial status event",
			zap.String("complaint_id", complaint.ID), zap.Error(err))
	}

	if verdict.IsDuplicate {
		s.metrics.RecordTriage("intake_duplicate")
	} else if complaint.ProviderID != nil {
		s.metrics.RecordTriage("intake_assigned")
	} else {
		s.metrics.RecordTriage("intake_unassigned")
	}

	s.publish(ctx, events.Event{
		Type:        eventType,
		ComplaintID: complaint.ID,
		TicketID:    complaint.TicketID,
		Actor:       events.Actor{Type: domain.ActorTypeCitizen, UserID: &userID},
		Payload: events.ComplaintRegisteredPayload{
			Department:  complaint.Department,
			Priority:    complaint.Priority,
			Area:        complaint.Area,
			IsDuplicate: complaint.IsDuplicate,
			ProviderID:  complaint.ProviderID,
		},
	})
	if complaint.ProviderID != nil {
		s.publish(ctx, events.Event{
			Type:        events.EventComplaintAssigned,
			ComplaintID: complaint.ID,
			TicketID:    complaint.TicketID,
			Actor:       events.Actor{Type: domain.ActorTypeSystem},
			Payload: events.ComplaintAssignedPayload{
				ProviderID:   *complaint.ProviderID,
				ProviderName: complaint.ProviderName,
			},
		})
	}

	return &IntakeResult{
		Complaint:    complaint,
		Confidence:   classification.Confidence,
		Reason:       classification.Reason,
		AssignedTo:   complaint.ProviderName,
		WasDuplicate: complaint.IsDuplicate,
	}, nil
}

// resolveDepartment prefers an explicit submitter choice, then photo
// classification, then the General fallback.
func (s *ComplaintService) resolveDepartment(ctx context.Context, requested, photoRef string) domain.ClassificationResult {
	if dept, ok := domain.ParseDepartment(requested); ok {
		return domain.ClassificationResult{
			Department: dept,
			Confidence: 100,
			Reason:     "department selected by submitter",
		}
	}

	var evidence *domain.VisionEvidence
	if s.vision != nil {
		var err error
		evidence, err = s.vision.ClassifyImage(ctx, photoRef)
		if err != nil {
			s.logger.Warn("image classification failed", zap.Error(err))
			evidence = nil
		}
	}
	result := s.detector.Detect(evidence)
	if result.Confidence == 0 {
		s.metrics.RecordTriage("classifier_fallback")
	}
	return result
}

// GetForUser fetches a complaint ensuring ownership.
func (s *ComplaintService) GetForUser(ctx context.Context, userID, complaintID string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
		}
		return nil, apperrors.MapError(err)
	}
	if complaint.SubmitterID != userID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return complaint, nil
}

// GetByID fetches a complaint without an ownership check, for admin views.
func (s *ComplaintService) GetByID(ctx context.Context, complaintID string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
		}
		return nil, apperrors.MapError(err)
	}
	return complaint, nil
}

// GetForProvider fetches a complaint ensuring it is assigned to the provider.
func (s *ComplaintService) GetForProvider(ctx context.Context, providerID, complaintID string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
		}
		return nil, apperrors.MapError(err)
	}
	if complaint.ProviderID == nil || *complaint.ProviderID != providerID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return complaint, nil
}

// ListForUser returns the submitter's complaints, newest first.
func (s *ComplaintService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Complaint, error) {
	return s.complaints.ListWithFilter(ctx, repository.ComplaintFilter{
		SubmitterID: &userID,
		Limit:       limit,
		Offset:      offset,
	})
}

// ListForProvider returns the provider's queue: their assigned complaints in
// non-terminal states.
func (s *ComplaintService) ListForProvider(ctx context.Context, providerID string, limit, offset int) ([]domain.Complaint, error) {
	return s.complaints.ListWithFilter(ctx, repository.ComplaintFilter{
		ProviderID: &providerID,
		Statuses:   domain.ActiveStatuses(),
		Limit:      limit,
		Offset:     offset,
	})
}

// AdminList returns complaints matching dashboard filters.
func (s *ComplaintService) AdminList(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	return s.complaints.ListWithFilter(ctx, filter)
}

// DashboardCounts aggregates complaint counts by status, optionally scoped to
// a department.
func (s *ComplaintService) DashboardCounts(ctx context.Context, dept *domain.Department) (map[domain.ComplaintStatus]int64, error) {
	return s.complaints.CountByStatus(ctx, dept)
}

func (s *ComplaintService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateTicketID() string {
	return "CMP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
