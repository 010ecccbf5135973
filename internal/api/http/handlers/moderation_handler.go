package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-network/internal/api/dto"
	"github.com/spec-kit/campus-network/internal/service"
)

// ModerationHandler exposes the moderator review surface.
type ModerationHandler struct {
	messages *service.MessageService
}

// NewModerationHandler constructs handler.
func NewModerationHandler(messageService *service.MessageService) *ModerationHandler {
	return &ModerationHandler{messages: messageService}
}

// Reports handles GET /api/moderation/reports.
func (h *ModerationHandler) Reports(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))

	messages, err := h.messages.RecentForReview(c.Context(), limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.NewMessageResponses(messages),
	})
}
