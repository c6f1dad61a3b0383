package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/services"
	"github.com/SAP-F-2025/attendance-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
	}
}

// Login exchanges credentials for a bearer token
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Email and password"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Logging in", "email", req.Email)

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Signup registers a student account
// @Summary Sign up
// @Description Creates a student account; staff accounts are created by administrators
// @Tags auth
// @Accept json
// @Produce json
// @Param account body models.SignupRequest true "Student details"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Signing up", "email", req.Email)

	user, err := h.authService.Signup(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Logout revokes the current token
// @Summary Log out
// @Tags auth
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), c.GetString("token")); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.success(c, http.StatusOK, "Logged out successfully", nil)
}

// Me returns the authenticated user
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

// QuickLogin lists the demo accounts, empty outside demo mode
// @Summary Demo accounts
// @Tags auth
// @Produce json
// @Success 200 {array} models.QuickLoginOption
// @Router /auth/quick-login [get]
func (h *AuthHandler) QuickLogin(c *gin.Context) {
	c.JSON(http.StatusOK, h.authService.QuickLoginOptions())
}

// Navigation returns the sidebar entries for the caller's role
// @Summary Navigation
// @Tags auth
// @Produce json
// @Success 200 {array} models.NavigationItem
// @Router /navigation [get]
func (h *AuthHandler) Navigation(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, services.NavigationFor(user.Role))
}
