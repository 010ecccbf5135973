package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-network/internal/api/dto"
	"github.com/spec-kit/campus-network/internal/auth"
	"github.com/spec-kit/campus-network/internal/domain"
	"github.com/spec-kit/campus-network/internal/service"
	apperrors "github.com/spec-kit/campus-network/pkg/util/errorutil"
)

// UsersHandler exposes account reads and the admin operations.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Me handles GET /api/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	user, err := h.users.Get(c.Context(), principal.UserID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.NewUserResponse(user),
	})
}

// List handles GET /api/admin/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))

	users, err := h.users.List(c.Context(), limit)
	if err != nil {
		return err
	}

	out := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, dto.NewUserResponse(user))
	}
	return c.JSON(fiber.Map{"data": out})
}

// ChangeRole handles PATCH /api/admin/users/:id/role.
func (h *UsersHandler) ChangeRole(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || userID <= 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid user id")
	}

	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.ChangeRole(c.Context(), principal, userID, role)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.NewUserResponse(user),
	})
}
