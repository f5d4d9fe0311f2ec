package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/community-service/internal/api/dto"
	"github.com/spec-kit/community-service/internal/auth"
	"github.com/spec-kit/community-service/internal/domain"
	"github.com/spec-kit/community-service/internal/service"
)

// AuthHandler exposes the session endpoints.
type AuthHandler struct {
	auth    *service.AuthService
	cookies auth.CookieSettings
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookies auth.CookieSettings) *AuthHandler {
	return &AuthHandler{auth: authService, cookies: cookies}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		UnitNumber: req.UnitNumber,
		Password:   req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, tokens, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.cookies.SetSession(c, tokens.Access, tokens.Refresh)
	return c.JSON(fiber.Map{"data": sessionResponse(user, tokens)})
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	user, tokens, err := h.auth.Refresh(c.UserContext(), c.Cookies(h.cookies.RefreshName))
	if err != nil {
		h.cookies.ClearSession(c)
		return err
	}
	h.cookies.SetSession(c, tokens.Access, tokens.Refresh)
	return c.JSON(fiber.Map{"data": sessionResponse(user, tokens)})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.cookies.ClearSession(c)
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.auth.Me(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ChangePassword handles POST /api/auth/password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), principal, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func sessionResponse(user *domain.User, tokens service.SessionTokens) dto.SessionResponse {
	return dto.SessionResponse{
		User:             dto.NewUserResponse(user),
		AccessExpiresAt:  tokens.Access.ExpiresAt,
		RefreshExpiresAt: tokens.Refresh.ExpiresAt,
	}
}
