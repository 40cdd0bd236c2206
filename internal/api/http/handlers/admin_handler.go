package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/complaint-service/internal/api/dto"
	"github.com/civicdesk/complaint-service/internal/domain"
	"github.com/civicdesk/complaint-service/internal/observability"
	"github.com/civicdesk/complaint-service/internal/repository"
	"github.com/civicdesk/complaint-service/internal/service"
	apperrors "github.com/civicdesk/complaint-service/pkg/util"
)

// AdminHandler exposes operations endpoints: provider management and the
// complaint dashboard.
type AdminHandler struct {
	providers  *service.ProviderService
	complaints *service.ComplaintService
	lifecycle  *service.LifecycleService
	metrics    *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(providers *service.ProviderService, complaints *service.ComplaintService, lifecycle *service.LifecycleService, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{providers: providers, complaints: complaints, lifecycle: lifecycle, metrics: metrics}
}

// CreateProvider POST /admin/providers.
func (h *AdminHandler) CreateProvider(c *fiber.Ctx) error {
	var req dto.CreateProviderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Department == "" {
		return apperrors.NewValidationError("name, email, password, department required", nil)
	}

	provider, err := h.providers.CreateProvider(c.Context(), req.Name, req.Email, req.Password, req.Department)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ToProviderResponse(provider)})
}

// SetProviderActive PATCH /admin/providers/:id/active.
func (h *AdminHandler) SetProviderActive(c *fiber.Ctx) error {
	var req dto.UpdateProviderActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	provider, err := h.providers.SetActive(c.Context(), c.Params("id"), req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToProviderResponse(provider)})
}

// ListProviders GET /admin/providers.
func (h *AdminHandler) ListProviders(c *fiber.Ctx) error {
	filter := repository.ProviderFilter{}
	if deptParam := c.Query("department"); deptParam != "" {
		dept, ok := domain.ParseDepartment(deptParam)
		if !ok {
			return apperrors.NewValidationError("unknown department", map[string]any{"department": deptParam})
		}
		filter.Department = &dept
	}
	if activeParam := c.Query("active"); activeParam != "" {
		active := strings.EqualFold(activeParam, "true")
		filter.Active = &active
	}
	filter.Limit, filter.Offset = parsePagination(c)

	providers, err := h.providers.ListProviders(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ProviderResponse, 0, len(providers))
	for i := range providers {
		items = append(items, dto.ToProviderResponse(&providers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DepartmentLoads GET /admin/providers/loads?department=...
func (h *AdminHandler) DepartmentLoads(c *fiber.Ctx) error {
	deptParam := c.Query("department")
	if deptParam == "" {
		return apperrors.NewValidationError("department required", nil)
	}
	loads, err := h.providers.DepartmentLoads(c.Context(), deptParam)
	if err != nil {
		return err
	}
	items := make([]dto.ProviderLoadResponse, 0, len(loads))
	for i := range loads {
		items = append(items, dto.ProviderLoadResponse{
			Provider: dto.ToProviderResponse(&loads[i].Provider),
			Load:     loads[i].Load,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListComplaints GET /admin/complaints with dashboard filters.
func (h *AdminHandler) ListComplaints(c *fiber.Ctx) error {
	filter := repository.ComplaintFilter{}
	if deptParam := c.Query("department"); deptParam != "" {
		dept, ok := domain.ParseDepartment(deptParam)
		if !ok {
			return apperrors.NewValidationError("unknown department", map[string]any{"department": deptParam})
		}
		filter.Department = &dept
	}
	if area := c.Query("area"); area != "" {
		filter.Area = &area
	}
	if providerID := c.Query("provider_id"); providerID != "" {
		filter.ProviderID = &providerID
	}
	for _, raw := range splitQueryList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.ComplaintStatus(strings.ToUpper(raw)))
	}
	for _, raw := range splitQueryList(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.ComplaintPriority(strings.ToUpper(raw)))
	}
	filter.Limit, filter.Offset = parsePagination(c)

	items, err := h.complaints.AdminList(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToComplaintSummaries(items)})
}

// GetComplaint GET /admin/complaints/:id returns full detail with history.
func (h *AdminHandler) GetComplaint(c *fiber.Ctx) error {
	complaint, err := h.complaints.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	trail, err := h.lifecycle.History(c.Context(), complaint.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToComplaintDetail(complaint, trail)})
}

// Dashboard GET /admin/dashboard aggregates counts by status plus triage
// counters.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	var dept *domain.Department
	if deptParam := c.Query("department"); deptParam != "" {
		parsed, ok := domain.ParseDepartment(deptParam)
		if !ok {
			return apperrors.NewValidationError("unknown department", map[string]any{"department": deptParam})
		}
		dept = &parsed
	}

	counts, err := h.complaints.DashboardCounts(c.Context(), dept)
	if err != nil {
		return err
	}
	data := fiber.Map{"counts": counts}
	if h.metrics != nil {
		data["triage"] = h.metrics.TriageSnapshot()
	}
	return c.JSON(fiber.Map{"data": data})
}

func splitQueryList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
