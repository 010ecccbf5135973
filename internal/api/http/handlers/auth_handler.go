package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-network/internal/api/dto"
	"github.com/spec-kit/campus-network/internal/auth"
	"github.com/spec-kit/campus-network/internal/service"
	apperrors "github.com/spec-kit/campus-network/pkg/util/errorutil"
)

// AuthHandler exposes the public authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password required")
	}

	user, token, expiresAt, err := h.auth.Register(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": authResponse(token, expiresAt),
		},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	user, token, expiresAt, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if auth.IsKind(err, auth.FailureAuthenticationFailed) {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": authResponse(token, expiresAt),
		},
	})
}

// Logout handles POST /auth/logout. Always 204: the endpoint never reveals
// whether the presented token was live.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	raw, ok := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if ok {
		if err := h.auth.Logout(c.Context(), raw); err != nil {
			return err
		}
	}
	return c.SendStatus(http.StatusNoContent)
}

func authResponse(token string, expiresAt time.Time) dto.AuthResponse {
	return dto.AuthResponse{
		Token:     token,
		ExpiresIn: time.Until(expiresAt).Milliseconds(),
	}
}
