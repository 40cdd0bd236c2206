package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/complaint-service/internal/api/dto"
	"github.com/civicdesk/complaint-service/internal/auth"
	"github.com/civicdesk/complaint-service/internal/service"
	apperrors "github.com/civicdesk/complaint-service/pkg/util"
)

// ComplaintsHandler manages citizen complaint endpoints.
type ComplaintsHandler struct {
	complaints *service.ComplaintService
	lifecycle  *service.LifecycleService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaints *service.ComplaintService, lifecycle *service.LifecycleService) *ComplaintsHandler {
	return &ComplaintsHandler{complaints: complaints, lifecycle: lifecycle}
}

// Submit POST /complaints.
func (h *ComplaintsHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.ComplaintCreateInput{
		Department:  req.Department,
		Description: req.Description,
		PhotoRef:    req.PhotoRef,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		Area:        req.Area,
	}
	result, err := h.complaints.Submit(c.Context(), principal.User.ID, input)
	if err != nil {
		return err
	}

	resp := dto.IntakeResponse{
		Complaint:  dto.ToComplaintSummary(result.Complaint),
		Confidence: result.Confidence,
		Reason:     result.Reason,
		AssignedTo: result.AssignedTo,
		Duplicate:  result.WasDuplicate,
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": resp})
}

// List GET /complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	limit, offset := parsePagination(c)
	items, err := h.complaints.ListForUser(c.Context(), principal.User.ID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToComplaintSummaries(items)})
}

// Get GET /complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	complaint, err := h.complaints.GetForUser(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	trail, err := h.lifecycle.History(c.Context(), complaint.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToComplaintDetail(complaint, trail)})
}

// Rate POST /complaints/:id/rating.
func (h *ComplaintsHandler) Rate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.RateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	complaint, err := h.lifecycle.Rate(c.Context(), principal.User.ID, c.Params("id"), req.Rating)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToComplaintSummary(complaint)})
}

func parsePagination(c *fiber.Ctx) (int, int) {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
