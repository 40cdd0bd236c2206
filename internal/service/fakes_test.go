package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/civicdesk/complaint-service/internal/domain"
	"github.com/civicdesk/complaint-service/internal/repository"
)

// fakeComplaintRepo is an in-memory ComplaintRepository mirroring the
// conditional-update semantics of the SQL implementation.
type fakeComplaintRepo struct {
	mu    sync.Mutex
	seq   int
	items map[string]*domain.Complaint
}

func newFakeComplaintRepo() *fakeComplaintRepo {
	return &fakeComplaintRepo{items: map[string]*domain.Complaint{}}
}

func (r *fakeComplaintRepo) Create(ctx context.Context, complaint *domain.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	complaint.ID = fmt.Sprintf("complaint-%d", r.seq)
	complaint.CreatedAt = time.Now()
	complaint.UpdatedAt = complaint.CreatedAt
	clone := *complaint
	r.items[complaint.ID] = &clone
	return nil
}

func (r *fakeComplaintRepo) Update(ctx context.Context, complaint *domain.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[complaint.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *complaint
	clone.UpdatedAt = time.Now()
	r.items[complaint.ID] = &clone
	return nil
}

func (r *fakeComplaintRepo) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (r *fakeComplaintRepo) GetByTicketID(ctx context.Context, ticketID string) (*domain.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.TicketID == ticketID {
			clone := *item
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeComplaintRepo) ListWithFilter(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Complaint
	for _, item := range r.items {
		if filter.SubmitterID != nil && item.SubmitterID != *filter.SubmitterID {
			continue
		}
		if filter.Department != nil && item.Department != *filter.Department {
			continue
		}
		if filter.ProviderID != nil && (item.ProviderID == nil || *item.ProviderID != *filter.ProviderID) {
			continue
		}
		if filter.Area != nil && item.Area != *filter.Area {
			continue
		}
		if len(filter.Statuses) > 0 && !statusIn(item.Status, filter.Statuses) {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (r *fakeComplaintRepo) ListOpenByDepartment(ctx context.Context, dept domain.Department) ([]domain.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Complaint
	for _, item := range r.items {
		if item.Department == dept && item.Status != domain.StatusRejected {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeComplaintRepo) CountActiveByProvider(ctx context.Context, providerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, item := range r.items {
		if item.ProviderID != nil && *item.ProviderID == providerID &&
			(item.Status == domain.StatusAccepted || item.Status == domain.StatusWorkingOn) {
			count++
		}
	}
	return count, nil
}

func (r *fakeComplaintRepo) TransitionStatus(ctx context.Context, params repository.TransitionParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[params.ComplaintID]
	if !ok || item.Status != params.From {
		return false, nil
	}
	if item.ProviderID == nil || *item.ProviderID != params.ProviderID {
		return false, nil
	}
	if params.EnforceCapacity {
		for id, other := range r.items {
			if id == params.ComplaintID {
				continue
			}
			if other.ProviderID != nil && *other.ProviderID == params.ProviderID &&
				(other.Status == domain.StatusAccepted || other.Status == domain.StatusWorkingOn) {
				return false, nil
			}
		}
	}
	item.Status = params.To
	if params.ResolutionNote != "" {
		item.ResolutionNote = params.ResolutionNote
	}
	if params.MarkResolved {
		now := time.Now()
		item.ResolvedAt = &now
	}
	item.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeComplaintRepo) AttachRating(ctx context.Context, complaintID string, rating int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[complaintID]
	if !ok || item.Status != domain.StatusCompleted || item.Rating != nil {
		return false, nil
	}
	item.Rating = &rating
	item.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeComplaintRepo) CountByStatus(ctx context.Context, dept *domain.Department) (map[domain.ComplaintStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[domain.ComplaintStatus]int64{}
	for _, item := range r.items {
		if dept != nil && item.Department != *dept {
			continue
		}
		out[item.Status]++
	}
	return out, nil
}

func statusIn(status domain.ComplaintStatus, list []domain.ComplaintStatus) bool {
	for _, candidate := range list {
		if candidate == status {
			return true
		}
	}
	return false
}

// fakeProviderRepo serves a fixed provider pool. Loads are computed against a
// linked complaint repo so dispatch sees live counts.
type fakeProviderRepo struct {
	providers  []domain.Provider
	complaints *fakeComplaintRepo
}

func (r *fakeProviderRepo) Create(ctx context.Context, provider *domain.Provider) error {
	r.providers = append(r.providers, *provider)
	return nil
}

func (r *fakeProviderRepo) Update(ctx context.Context, provider *domain.Provider) error {
	for i := range r.providers {
		if r.providers[i].ID == provider.ID {
			r.providers[i] = *provider
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeProviderRepo) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	for i := range r.providers {
		if r.providers[i].ID == id {
			clone := r.providers[i]
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeProviderRepo) GetByEmail(ctx context.Context, email string) (*domain.Provider, error) {
	for i := range r.providers {
		if r.providers[i].Email == email {
			clone := r.providers[i]
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeProviderRepo) List(ctx context.Context, filter repository.ProviderFilter) ([]domain.Provider, error) {
	out := make([]domain.Provider, len(r.providers))
	copy(out, r.providers)
	return out, nil
}

func (r *fakeProviderRepo) ListWithLoads(ctx context.Context, dept domain.Department) ([]domain.ProviderLoad, error) {
	var out []domain.ProviderLoad
	for _, provider := range r.providers {
		if provider.Department != dept || !provider.Active {
			continue
		}
		load := 0
		if r.complaints != nil {
			r.complaints.mu.Lock()
			for _, item := range r.complaints.items {
				if item.ProviderID != nil && *item.ProviderID == provider.ID &&
					statusIn(item.Status, []domain.ComplaintStatus{domain.StatusRegistered, domain.StatusAccepted, domain.StatusWorkingOn}) {
					load++
				}
			}
			r.complaints.mu.Unlock()
		}
		out = append(out, domain.ProviderLoad{Provider: provider, Load: load})
	}
	return out, nil
}

// fakeStatusEventRepo appends into memory, preserving insertion order.
type fakeStatusEventRepo struct {
	mu     sync.Mutex
	seq    int
	events []domain.StatusEvent
}

func (r *fakeStatusEventRepo) Append(ctx context.Context, event *domain.StatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	event.ID = fmt.Sprintf("event-%d", r.seq)
	event.CreatedAt = time.Now()
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeStatusEventRepo) ListByComplaint(ctx context.Context, complaintID string) ([]domain.StatusEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StatusEvent
	for _, event := range r.events {
		if event.ComplaintID == complaintID {
			out = append(out, event)
		}
	}
	return out, nil
}
