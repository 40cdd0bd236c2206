package dto

import (
	"time"

	"github.com/civicdesk/complaint-service/internal/domain"
)

// ProviderLoginRequest payload.
type ProviderLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateProviderRequest payload for admin provisioning.
type CreateProviderRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department"`
}

// UpdateProviderActiveRequest toggles dispatch eligibility.
type UpdateProviderActiveRequest struct {
	Active bool `json:"active"`
}

// ProviderResponse view of a provider account.
type ProviderResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Department domain.Department `json:"department"`
	Active     bool              `json:"active"`
	CreatedAt  time.Time         `json:"created_at"`
}

// ProviderLoadResponse pairs a provider with their active complaint count.
type ProviderLoadResponse struct {
	Provider ProviderResponse `json:"provider"`
	Load     int              `json:"load"`
}

// ToProviderResponse maps a domain provider.
func ToProviderResponse(p *domain.Provider) ProviderResponse {
	return ProviderResponse{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		Department: p.Department,
		Active:     p.Active,
		CreatedAt:  p.CreatedAt,
	}
}
