package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/service"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// RolesHandler exposes the role directory.
type RolesHandler struct {
	auth *service.AuthService
}

// NewRolesHandler constructs handler.
func NewRolesHandler(authService *service.AuthService) *RolesHandler {
	return &RolesHandler{auth: authService}
}

// List handles GET /api/roles.
func (h *RolesHandler) List(c *fiber.Ctx) error {
	roles, err := h.auth.ListRoles(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": roles})
}

// Delete handles DELETE /api/roles/:id.
func (h *RolesHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return apperrors.NewValidationError("invalid role id", map[string]any{"field": "id"})
	}
	if err := h.auth.DeleteRole(c.UserContext(), actorFrom(c), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "Role deleted"}})
}
