package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-network/internal/api/dto"
	"github.com/spec-kit/campus-network/internal/auth"
	"github.com/spec-kit/campus-network/internal/service"
	apperrors "github.com/spec-kit/campus-network/pkg/util/errorutil"
)

// MessagesHandler exposes the direct-message endpoints. The policy table
// has already required ROLE_USER by the time these run.
type MessagesHandler struct {
	messages *service.MessageService
}

// NewMessagesHandler constructs handler.
func NewMessagesHandler(messageService *service.MessageService) *MessagesHandler {
	return &MessagesHandler{messages: messageService}
}

// Send handles POST /api/messages.
func (h *MessagesHandler) Send(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	message, err := h.messages.Send(c.Context(), principal, req.RecipientID, req.Body)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewMessageResponse(message),
	})
}

// History handles GET /api/messages?with=<user_id>&limit=<n>.
func (h *MessagesHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	otherID, err := strconv.ParseInt(c.Query("with"), 10, 64)
	if err != nil || otherID <= 0 {
		return fiber.NewError(http.StatusBadRequest, "query parameter 'with' required")
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	messages, err := h.messages.History(c.Context(), principal, otherID, limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.NewMessageResponses(messages),
	})
}
