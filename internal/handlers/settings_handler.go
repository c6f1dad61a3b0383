package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/services"
	"github.com/SAP-F-2025/attendance-service/internal/utils"
)

type SettingsHandler struct {
	BaseHandler
	settingsService services.SettingsService
}

func NewSettingsHandler(settingsService services.SettingsService, logger utils.Logger) *SettingsHandler {
	return &SettingsHandler{
		BaseHandler:     NewBaseHandler(logger),
		settingsService: settingsService,
	}
}

// GetProfile
// @Summary Get profile
// @Tags settings
// @Produce json
// @Success 200 {object} models.User
// @Router /settings/profile [get]
func (h *SettingsHandler) GetProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	profile, err := h.settingsService.GetProfile(c.Request.Context(), user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile changes profile fields and, optionally, the password
// @Summary Update profile
// @Tags settings
// @Accept json
// @Produce json
// @Param profile body models.ProfileUpdateRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Email already in use"
// @Router /settings/profile [put]
func (h *SettingsHandler) UpdateProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.ProfileUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating profile", "password_change", req.NewPassword != "")

	profile, err := h.settingsService.UpdateProfile(c.Request.Context(), user, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetNotificationSettings
// @Summary Get notification settings
// @Tags settings
// @Produce json
// @Success 200 {object} models.NotificationSettings
// @Router /settings/notifications [get]
func (h *SettingsHandler) GetNotificationSettings(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	settings, err := h.settingsService.GetNotificationSettings(c.Request.Context(), user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateNotificationSettings
// @Summary Update notification settings
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body models.NotificationSettingsRequest true "Toggles to change"
// @Success 200 {object} models.NotificationSettings
// @Router /settings/notifications [put]
func (h *SettingsHandler) UpdateNotificationSettings(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.NotificationSettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	settings, err := h.settingsService.UpdateNotificationSettings(c.Request.Context(), user, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
