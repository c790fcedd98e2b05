package http

import (
	"net/http"

	"pairchat/errors"
	"pairchat/services"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	conversationService services.IConversationService
}

func NewConversationHandler(conversationService services.IConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// Resolve finds or creates the single conversation between the caller and
// the peer named by the userId query parameter. The operation is symmetric:
// either party resolving the pair lands on the same conversation.
func (h *ConversationHandler) Resolve(c *gin.Context) {
	otherID := c.Query("userId")
	if otherID == "" {
		failure(c, http.StatusBadRequest, "userId query parameter is required")
		return
	}

	conversationID, err := h.conversationService.Resolve(c.Request.Context(), callerID(c), otherID)
	if err != nil {
		failure(c, errors.HTTPStatus(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"conversation": gin.H{
			"id": conversationID,
		},
	})
}
