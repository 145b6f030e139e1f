package handlers

import (
	"github.com/gin-gonic/gin"
	"vault/apperr"
	"vault/identity"
	"vault/middleware"
	"vault/models"
	"vault/utils"
)

type RegisterRequest struct {
	Username string             `json:"username"`
	Email    string             `json:"email"`
	Password string             `json:"password"`
	Device   *models.DeviceInfo `json:"device_info"`
	Location *models.Location   `json:"location"`
}

type LoginRequest struct {
	Email    string             `json:"email"`
	Password string             `json:"password"`
	Device   *models.DeviceInfo `json:"device_info"`
	Location *models.Location   `json:"location"`
}

// Field presence is checked by the identity service so the user sees the
// fixed "All fields are required" message.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, apperr.ErrMissingFields)
		return
	}

	res, err := h.identity.SignUp(c.Request.Context(), identity.SignUpInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Device:   req.Device,
		Location: req.Location,
	})
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, res)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, apperr.ErrMissingFields)
		return
	}

	res, err := h.identity.SignIn(c.Request.Context(), identity.SignInInput{
		Email:    req.Email,
		Password: req.Password,
		Device:   req.Device,
		Location: req.Location,
	})
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, res)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.identity.SignOut(c.Request.Context(), middleware.GetSession(c)); err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, nil)
}
