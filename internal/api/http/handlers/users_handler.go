package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/api/dto"
	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/service"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// UsersHandler exposes account administration endpoints.
type UsersHandler struct {
	auth        *service.AuthService
	phoneRegion string
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, phoneRegion string) *UsersHandler {
	return &UsersHandler{auth: authService, phoneRegion: phoneRegion}
}

// List handles GET /api/users/list.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.auth.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": users})
}

// Details handles GET /api/users/details/:id. Non-admins may only read their
// own account.
func (h *UsersHandler) Details(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id := c.Params("id")
	if id != principal.UserID && !strings.EqualFold(principal.Role, domain.RoleNameAdmin) {
		return apperrors.NewForbidden("insufficient permissions")
	}

	profile, err := h.auth.GetUserByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profile})
}

// Create handles POST /api/users/create.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return invalidPayload()
	}
	if err := req.Validate(h.phoneRegion); err != nil {
		return err
	}

	profile, err := h.auth.AdminCreateUser(c.UserContext(), actorFrom(c), service.CreateUserInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		RoleName: req.RoleName,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": profile})
}

// Update handles PUT /api/users/update/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return invalidPayload()
	}
	if err := req.Validate(h.phoneRegion); err != nil {
		return err
	}

	profile, err := h.auth.AdminUpdateUser(c.UserContext(), actorFrom(c), c.Params("id"), service.UpdateUserInput{
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Password: req.Password,
		Status:   req.StatusValue(),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profile})
}

// LoginHistory handles GET /api/users/:id/logins.
func (h *UsersHandler) LoginHistory(c *fiber.Ctx) error {
	id := c.Params("id")
	logs, err := h.auth.ListLoginHistory(c.UserContext(), id, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	failed, err := h.auth.RecentFailedLogins(c.UserContext(), id, 0)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"logins":          logs,
		"recent_failures": len(failed),
	}})
}

// AuditTrail handles GET /api/users/:id/audit.
func (h *UsersHandler) AuditTrail(c *fiber.Ctx) error {
	logs, err := h.auth.ListAuditTrail(c.UserContext(), c.Params("id"), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": logs})
}

func actorFrom(c *fiber.Ctx) service.Actor {
	actor := service.Actor{IPAddress: c.IP()}
	if principal, ok := auth.PrincipalFromContext(c); ok {
		actor.UserID = principal.UserID
	}
	return actor
}
