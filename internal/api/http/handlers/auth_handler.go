package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/api/dto"
	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/service"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// AuthHandler exposes registration, login and token endpoints.
type AuthHandler struct {
	auth        *service.AuthService
	phoneRegion string
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, phoneRegion string) *AuthHandler {
	return &AuthHandler{auth: authService, phoneRegion: phoneRegion}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return invalidPayload()
	}
	if err := req.Validate(h.phoneRegion); err != nil {
		return err
	}

	res, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": res})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return invalidPayload()
	}
	if err := req.Validate(); err != nil {
		return err
	}

	res, err := h.auth.Login(c.UserContext(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": res})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := parseBody(c, &req); err != nil {
		return invalidPayload()
	}
	if err := h.auth.Logout(c.UserContext(), req.RefreshToken); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "Logged out successfully"}})
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := parseBody(c, &req); err != nil {
		return invalidPayload()
	}
	pair, err := h.auth.RefreshToken(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": pair})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	claims := principal.Claims
	return c.JSON(fiber.Map{"data": fiber.Map{
		"id":         principal.UserID,
		"email":      principal.Email,
		"name":       claims.Name,
		"role":       principal.Role,
		"role_id":    principal.RoleID,
		"status":     claims.Status,
		"expires_at": claims.ExpiresAt.Time,
	}})
}

// parseBody decodes the request body. An empty body leaves out untouched.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(out)
}

func invalidPayload() error {
	return apperrors.NewValidationError("invalid payload", nil)
}
