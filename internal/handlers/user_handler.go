package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/services"
	"github.com/SAP-F-2025/attendance-service/internal/utils"
)

// UserHandler serves one directory, students or teachers, selected by role
type UserHandler struct {
	BaseHandler
	userService services.UserService
	role        models.UserRole
}

func NewUserHandler(userService services.UserService, role models.UserRole, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger.With("directory", string(role))),
		userService: userService,
		role:        role,
	}
}

// ListUsers lists the directory
// @Summary List students or teachers
// @Tags users
// @Produce json
// @Param q query string false "Name, email or code"
// @Param department query string false "Department ID"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} services.UserListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /students [get]
// @Router /teachers [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req services.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Listing users", "page", req.Page, "size", req.Size)

	resp, err := h.userService.List(c.Request.Context(), user, h.role, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SearchUsers searches the directory
// @Summary Search students or teachers
// @Tags users
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {array} models.User
// @Failure 400 {object} ErrorResponse
// @Router /students/search [get]
// @Router /teachers/search [get]
func (h *UserHandler) SearchUsers(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Search query parameter 'q' is required",
		})
		return
	}

	users, err := h.userService.Search(c.Request.Context(), user, h.role, query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetUser returns one entry
// @Summary Get student or teacher
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse
// @Router /students/{id} [get]
// @Router /teachers/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}

	found, err := h.userService.Get(c.Request.Context(), user, h.role, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, found)
}

// CreateUser adds an entry and its identity-provider account
// @Summary Create student or teacher
// @Tags users
// @Accept json
// @Produce json
// @Param user body models.UserCreateRequest true "User data"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /students [post]
// @Router /teachers [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.UserCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating user", "email", req.Email)

	created, err := h.userService.Create(c.Request.Context(), user, h.role, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateUser edits an entry
// @Summary Update student or teacher
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body models.UserUpdateRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /students/{id} [put]
// @Router /teachers/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}

	var req models.UserUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating user", "target_id", id)

	updated, err := h.userService.Update(c.Request.Context(), user, h.role, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteUser removes an entry
// @Summary Delete student or teacher
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Teacher still assigned to classes"
// @Router /students/{id} [delete]
// @Router /teachers/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting user", "target_id", id)

	if err := h.userService.Delete(c.Request.Context(), user, h.role, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.success(c, http.StatusOK, "User deleted successfully", nil)
}
