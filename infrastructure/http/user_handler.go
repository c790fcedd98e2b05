package http

import (
	"net/http"

	"pairchat/domain"
	"pairchat/errors"
	"pairchat/services"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type UserHandler struct {
	userService services.IUserService
}

func NewUserHandler(userService services.IUserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type peerPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	LastSeen int64  `json:"lastSeen"`
	Online   bool   `json:"online"`
}

// ListPeers returns every account except the caller's, with live presence.
func (h *UserHandler) ListPeers(c *gin.Context) {
	peers, err := h.userService.ListPeers(c.Request.Context(), callerID(c))
	if err != nil {
		failure(c, errors.HTTPStatus(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users": lo.Map(peers, func(p domain.Peer, _ int) peerPayload {
			return peerPayload{
				ID:       p.ID,
				Username: p.Username,
				Email:    p.Email,
				LastSeen: p.LastSeen.Unix(),
				Online:   p.Online,
			}
		}),
	})
}
