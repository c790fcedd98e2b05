package http

import (
	"net/http"

	"pairchat/domain"
	"pairchat/errors"
	"pairchat/services"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type MessageHandler struct {
	chatService services.IChatService
}

func NewMessageHandler(chatService services.IChatService) *MessageHandler {
	return &MessageHandler{chatService: chatService}
}

type messagePayload struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"fromUserId"`
	SenderName     string `json:"fromUsername"`
	Body           string `json:"body"`
	CreatedAt      int64  `json:"createdAt"`
}

// History returns a conversation's messages, oldest first.
func (h *MessageHandler) History(c *gin.Context) {
	conversationID := c.Query("conversationId")
	if conversationID == "" {
		failure(c, http.StatusBadRequest, "conversationId query parameter is required")
		return
	}

	messages, err := h.chatService.GetMessages(c.Request.Context(), conversationID)
	if err != nil {
		failure(c, errors.HTTPStatus(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"messages": lo.Map(messages, func(m domain.StoredMessage, _ int) messagePayload {
			return messagePayload{
				ID:             m.ID.String(),
				ConversationID: m.ConversationID,
				SenderID:       m.SenderID,
				SenderName:     m.SenderName,
				Body:           m.Body,
				CreatedAt:      m.CreatedAt.Unix(),
			}
		}),
	})
}
