package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"vault/apperr"
	"vault/middleware"
	"vault/models"
	"vault/store"
	"vault/utils"
)

type UpdateUserRequest struct {
	DisplayName string             `json:"display_name" binding:"omitempty,max=100"`
	Device      *models.DeviceInfo `json:"device_info"`
}

type LocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
	Accuracy  float64 `json:"accuracy" binding:"min=0"`
}

func (h *Handler) GetCurrentUser(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), middleware.GetUserID(c))
	if errors.Is(err, store.ErrNotFound) {
		utils.NotFound(c, "user not found")
		return
	}
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, user)
}

func (h *Handler) UpdateCurrentUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	var update models.ProfileUpdate
	if name := strings.TrimSpace(req.DisplayName); name != "" {
		update.DisplayName = &name
	}
	update.Device = req.Device

	userID := middleware.GetUserID(c)
	if err := h.users.UpsertProfile(c.Request.Context(), userID, update); err != nil {
		utils.Error(c, err)
		return
	}
	h.GetCurrentUser(c)
}

func (h *Handler) Heartbeat(c *gin.Context) {
	if err := h.presence.Heartbeat(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, nil)
}

func (h *Handler) GetPresence(c *gin.Context) {
	status, err := h.presence.Status(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		utils.NotFound(c, "user not found")
		return
	}
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, status)
}

func (h *Handler) SearchUsers(c *gin.Context) {
	userID := middleware.GetUserID(c)

	friendIDs, err := h.friends.FriendIDs(c.Request.Context(), userID)
	if err != nil {
		utils.Error(c, err)
		return
	}
	res, err := h.friends.Search(c.Request.Context(), userID, c.Query("q"), friendIDs)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, res)
}

func (h *Handler) ReportLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	accepted, err := h.locations.Report(c.Request.Context(), middleware.GetUserID(c), models.Location{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
	})
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, gin.H{"accepted": accepted})
}

func (h *Handler) LocationHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		utils.Error(c, apperr.InvalidArg("limit must be a number"))
		return
	}
	entries, err := h.locations.History(c.Request.Context(), middleware.GetUserID(c), limit)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, entries)
}
