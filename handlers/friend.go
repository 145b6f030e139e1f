package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"vault/apperr"
	"vault/middleware"
	"vault/utils"
)

type FriendRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *Handler) GetFriends(c *gin.Context) {
	friends, err := h.friends.Friends(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, friends)
}

// AddFriend answers 200 both when the friendship was created and when it
// already existed; the status field tells them apart.
func (h *Handler) AddFriend(c *gin.Context) {
	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	err := h.friends.AddFriend(c.Request.Context(), middleware.GetSession(c), req.UserID)
	switch {
	case err == nil:
		utils.Success(c, gin.H{"status": "added"})
	case errors.Is(err, apperr.ErrAlreadyFriends):
		utils.Success(c, gin.H{"status": "already_friends", "message": apperr.ErrAlreadyFriends.Message})
	default:
		utils.Error(c, err)
	}
}
