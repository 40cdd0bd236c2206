package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/civicdesk/complaint-service/internal/auth"
	"github.com/civicdesk/complaint-service/internal/domain"
	"github.com/civicdesk/complaint-service/internal/repository"
	apperrors "github.com/civicdesk/complaint-service/pkg/util"
)

// ProviderService handles admin management of the provider pool.
type ProviderService struct {
	providers  repository.ProviderRepository
	complaints repository.ComplaintRepository
	bcryptCost int
}

// NewProviderService constructs the service.
func NewProviderService(providers repository.ProviderRepository, complaints repository.ComplaintRepository, bcryptCost int) *ProviderService {
	return &ProviderService{providers: providers, complaints: complaints, bcryptCost: bcryptCost}
}

// CreateProvider registers a department-scoped field provider.
func (s *ProviderService) CreateProvider(ctx context.Context, name, email, password, department string) (*domain.Provider, error) {
	dept, ok := domain.ParseDepartment(department)
	if !ok {
		return nil, apperrors.NewValidationError("unknown department",
			map[string]any{"department": department})
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
		return nil, apperrors.NewValidationError("name and email required", nil)
	}

	if _, err := s.providers.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	provider := &domain.Provider{
		Name:         strings.TrimSpace(name),
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Department:   dept,
		Active:       true,
	}
	if err := s.providers.Create(ctx, provider); err != nil {
		return nil, apperrors.MapError(err)
	}
	return provider, nil
}

// SetActive enables or disables a provider. Inactive providers receive no new
// assignments but keep their current ones.
func (s *ProviderService) SetActive(ctx context.Context, providerID string, active bool) (*domain.Provider, error) {
	provider, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("provider", map[string]any{"provider_id": providerID})
		}
		return nil, apperrors.MapError(err)
	}
	provider.Active = active
	if err := s.providers.Update(ctx, provider); err != nil {
		return nil, apperrors.MapError(err)
	}
	return provider, nil
}

// ListProviders returns providers matching the filter.
func (s *ProviderService) ListProviders(ctx context.Context, filter repository.ProviderFilter) ([]domain.Provider, error) {
	providers, err := s.providers.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return providers, nil
}

// DepartmentLoads reports per-provider active load for a department.
func (s *ProviderService) DepartmentLoads(ctx context.Context, department string) ([]domain.ProviderLoad, error) {
	dept, ok := domain.ParseDepartment(department)
	if !ok {
		return nil, apperrors.NewValidationError("unknown department",
			map[string]any{"department": department})
	}
	loads, err := s.providers.ListWithLoads(ctx, dept)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return loads, nil
}
