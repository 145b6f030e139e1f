package handlers

import (
	"github.com/gin-gonic/gin"
	"vault/messaging"
	"vault/middleware"
	"vault/models"
	"vault/utils"
)

type SendMessageRequest struct {
	Type     models.MessageKind `json:"type" binding:"required,oneof=text image"`
	Text     string             `json:"text"`
	MediaURL string             `json:"media_url"`
}

func (h *Handler) GetMessages(c *gin.Context) {
	ch, err := h.messages.ChannelFor(c.Request.Context(), middleware.GetUserID(c), c.Param("peer_id"))
	if err != nil {
		utils.Error(c, err)
		return
	}
	msgs, err := h.messages.History(c.Request.Context(), ch.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, msgs)
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	content, err := messaging.ParseContent(req.Type, req.Text, req.MediaURL)
	if err != nil {
		utils.Error(c, err)
		return
	}

	userID := middleware.GetUserID(c)
	ch, err := h.messages.ChannelFor(c.Request.Context(), userID, c.Param("peer_id"))
	if err != nil {
		utils.Error(c, err)
		return
	}
	msg, err := h.messages.Send(c.Request.Context(), ch.ID, userID, content)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, msg)
}
