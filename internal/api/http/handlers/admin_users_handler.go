package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/community-service/internal/api/dto"
	"github.com/spec-kit/community-service/internal/auth"
	"github.com/spec-kit/community-service/internal/domain"
	"github.com/spec-kit/community-service/internal/service"
	apperrors "github.com/spec-kit/community-service/pkg/util/errorutil"
)

// AdminUsersHandler exposes account moderation to staff.
type AdminUsersHandler struct {
	users *service.UserService
}

// NewAdminUsersHandler constructs handler.
func NewAdminUsersHandler(users *service.UserService) *AdminUsersHandler {
	return &AdminUsersHandler{users: users}
}

// List handles GET /api/admin/users.
func (h *AdminUsersHandler) List(c *fiber.Ctx) error {
	var filters service.UserListFilters
	if raw := c.Query("status"); raw != "" {
		status := domain.UserStatus(raw)
		if !status.Valid() {
			return apperrors.NewValidationError("invalid status filter", map[string]string{"status": raw})
		}
		filters.Status = &status
	}
	if raw := c.Query("role"); raw != "" {
		role := domain.Role(raw)
		if !role.Valid() {
			return apperrors.NewValidationError("invalid role filter", map[string]string{"role": raw})
		}
		filters.Role = &role
	}
	filters.Limit, filters.Offset = pageParams(c)

	users, err := h.users.ListUsers(c.UserContext(), filters)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetStatus handles PATCH /api/admin/users/:id/status.
func (h *AdminUsersHandler) SetStatus(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "user")
	if err != nil {
		return err
	}
	var req dto.UserStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.SetStatus(c.UserContext(), principal, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// SetRole handles PATCH /api/admin/users/:id/role.
func (h *AdminUsersHandler) SetRole(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "user")
	if err != nil {
		return err
	}
	var req dto.UserRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.SetRole(c.UserContext(), principal, id, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
