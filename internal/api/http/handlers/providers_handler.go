package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/complaint-service/internal/api/dto"
	"github.com/civicdesk/complaint-service/internal/auth"
	"github.com/civicdesk/complaint-service/internal/service"
	apperrors "github.com/civicdesk/complaint-service/pkg/util"
)

// ProvidersHandler exposes endpoints for field providers.
type ProvidersHandler struct {
	auth       *service.AuthService
	complaints *service.ComplaintService
	lifecycle  *service.LifecycleService
}

// NewProvidersHandler constructs handler.
func NewProvidersHandler(authService *service.AuthService, complaints *service.ComplaintService, lifecycle *service.LifecycleService) *ProvidersHandler {
	return &ProvidersHandler{auth: authService, complaints: complaints, lifecycle: lifecycle}
}

// Login handles POST /auth/providers/login.
func (h *ProvidersHandler) Login(c *fiber.Ctx) error {
	var req dto.ProviderLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	provider, token, exp, err := h.auth.LoginProvider(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"provider": dto.ToProviderResponse(provider),
			"auth":     dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Queue GET /provider/complaints lists active complaints assigned to the caller.
func (h *ProvidersHandler) Queue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Provider == nil {
		return apperrors.NewUnauthorized("provider required")
	}
	limit, offset := parsePagination(c)
	items, err := h.complaints.ListForProvider(c.Context(), principal.Provider.ID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToComplaintSummaries(items)})
}

// Transition POST /provider/complaints/:id/status moves an assigned complaint
// through its lifecycle.
func (h *ProvidersHandler) Transition(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Provider == nil {
		return apperrors.NewUnauthorized("provider required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}

	complaint, err := h.lifecycle.Transition(c.Context(), principal.Provider, c.Params("id"), req.Status, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToComplaintSummary(complaint)})
}

// History GET /provider/complaints/:id returns the complaint together with
// its status trail, for a complaint assigned to the caller.
func (h *ProvidersHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Provider == nil {
		return apperrors.NewUnauthorized("provider required")
	}
	complaint, err := h.complaints.GetForProvider(c.Context(), principal.Provider.ID, c.Params("id"))
	if err != nil {
		return err
	}
	trail, err := h.lifecycle.History(c.Context(), complaint.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToComplaintDetail(complaint, trail)})
}
