package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/civicdesk/complaint-service/internal/domain"
	"github.com/civicdesk/complaint-service/internal/events"
	"github.com/civicdesk/complaint-service/internal/observability"
	"github.com/civicdesk/complaint-service/internal/repository"
	apperrors "github.com/civicdesk/complaint-service/pkg/util"
)

// allowedTransitions is the lifecycle table. Completed and Rejected are
// terminal; everything absent from the table is refused.
var allowedTransitions = map[domain.ComplaintStatus][]domain.ComplaintStatus{
	domain.StatusRegistered: {domain.StatusAccepted, domain.StatusRejected},
	domain.StatusAccepted:   {domain.StatusWorkingOn, domain.StatusRejected},
	domain.StatusWorkingOn:  {domain.StatusCompleted},
	domain.StatusCompleted:  {},
	domain.StatusRejected:   {},
}

// AllowedTransitions returns the legal targets from a status, for refusal
// messages and API responses.
func AllowedTransitions(from domain.ComplaintStatus) []domain.ComplaintStatus {
	targets := allowedTransitions[from]
	out := make([]domain.ComplaintStatus, len(targets))
	copy(out, targets)
	return out
}

func isValidTransition(current, next domain.ComplaintStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// LifecycleService enforces the complaint status state machine, the
// one-active-job-per-provider constraint and the rating rules.
type LifecycleService struct {
	complaints repository.ComplaintRepository
	statusLog  repository.StatusEventRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// LifecycleDependencies bundles the service's collaborators.
type LifecycleDependencies struct {
	ComplaintRepo   repository.ComplaintRepository
	StatusEventRepo repository.StatusEventRepository
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		complaints: deps.ComplaintRepo,
		statusLog:  deps.StatusEventRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Transition moves a complaint to the target status on behalf of its assigned
// provider. Entry into Accepted is guarded by the provider capacity check,
// made atomic with the status write by the repository's conditional update.
func (s *LifecycleService) Transition(ctx context.Context, provider *domain.Provider, complaintID string, target domain.ComplaintStatus, note string) (*domain.Complaint, error) {
	if provider == nil {
		return nil, apperrors.NewUnauthorized("provider required")
	}

	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
		}
		return nil, apperrors.MapError(err)
	}

	if complaint.ProviderID == nil || *complaint.ProviderID != provider.ID {
		return nil, apperrors.NewForbidden("complaint is not assigned to you")
	}

	current := complaint.Status
	if !isValidTransition(current, target) {
		s.metrics.RecordTriage("transition_refused")
		return nil, apperrors.NewTransitionRefused(
			fmt.Sprintf("cannot move complaint from %s to %s", current, target),
			map[string]any{
				"current":   current,
				"attempted": target,
				"allowed":   AllowedTransitions(current),
			})
	}

	updated, err := s.complaints.TransitionStatus(ctx, repository.TransitionParams{
		ComplaintID:     complaint.ID,
		From:            current,
		To:              target,
		ProviderID:      provider.ID,
		EnforceCapacity: target == domain.StatusAccepted,
		ResolutionNote:  note,
		MarkResolved:    target == domain.StatusCompleted,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !updated {
		if target == domain.StatusAccepted {
			active, countErr := s.complaints.CountActiveByProvider(ctx, provider.ID)
			if countErr == nil && active > 0 {
				s.metrics.RecordTriage("capacity_conflict")
				return nil, apperrors.NewCapacityConflict(
					"you already have an active complaint; complete it before accepting another",
					map[string]any{"active_complaints": active})
			}
		}
		// lost a race: the complaint moved under us
		return nil, apperrors.NewTransitionRefused(
			fmt.Sprintf("complaint is no longer in %s", current),
			map[string]any{"attempted": target})
	}

	providerID := provider.ID
	event := &domain.StatusEvent{
		ComplaintID: complaint.ID,
		Status:      target,
		ActorType:   domain.ActorTypeProvider,
		ActorID:     &providerID,
		Note:        note,
	}
	if event.Note == "" {
		event.Note = fmt.Sprintf("%s moved complaint to %s", provider.Name, target)
	}
	if err := s.statusLog.Append(ctx, event); err != nil {
		s.logger.Error("failed to append status event",
			zap.String("complaint_id", complaint.ID), zap.Error(err))
	}

	refreshed, err := s.complaints.GetByID(ctx, complaint.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordTriage("transition_" + string(target))
	s.publish(ctx, events.Event{
		Type:        events.EventComplaintStatusChanged,
		ComplaintID: refreshed.ID,
		TicketID:    refreshed.TicketID,
		Actor:       events.Actor{Type: domain.ActorTypeProvider, ProviderID: &providerID},
		Payload: events.ComplaintStatusChangedPayload{
			OldStatus: current,
			NewStatus: target,
			Note:      note,
		},
	})
	return refreshed, nil
}

// Rate attaches a 1-5 rating. Only the original submitter may rate, only once,
// and only after completion.
func (s *LifecycleService) Rate(ctx context.Context, userID, complaintID string, rating int) (*domain.Complaint, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", nil)
	}

	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
		}
		return nil, apperrors.MapError(err)
	}
	if complaint.SubmitterID != userID {
		return nil, apperrors.NewForbidden("only the submitter may rate this complaint")
	}
	if complaint.Status != domain.StatusCompleted {
		return nil, apperrors.NewConflict("only completed complaints can be rated",
			map[string]any{"status": complaint.Status})
	}
	if complaint.Rating != nil {
		return nil, apperrors.NewConflict("complaint already rated", nil)
	}

	applied, err := s.complaints.AttachRating(ctx, complaint.ID, rating)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !applied {
		return nil, apperrors.NewConflict("complaint already rated", nil)
	}

	refreshed, err := s.complaints.GetByID(ctx, complaint.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:        events.EventComplaintRated,
		ComplaintID: refreshed.ID,
		TicketID:    refreshed.TicketID,
		Actor:       events.Actor{Type: domain.ActorTypeCitizen, UserID: &userID},
		Payload:     events.ComplaintRatedPayload{Rating: rating},
	})
	return refreshed, nil
}

// History returns the status trail for a complaint.
func (s *LifecycleService) History(ctx context.Context, complaintID string) ([]domain.StatusEvent, error) {
	trail, err := s.statusLog.ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return trail, nil
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
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
