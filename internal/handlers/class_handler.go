package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/services"
	"github.com/SAP-F-2025/attendance-service/internal/utils"
)

type ClassHandler struct {
	BaseHandler
	classService services.ClassService
}

func NewClassHandler(classService services.ClassService, logger utils.Logger) *ClassHandler {
	return &ClassHandler{
		BaseHandler:  NewBaseHandler(logger),
		classService: classService,
	}
}

// ListClasses lists the classes visible to the caller
// @Summary List classes
// @Tags classes
// @Produce json
// @Param q query string false "Class name"
// @Param department query string false "Department ID"
// @Param teacher_id query string false "Teacher ID"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} services.ClassListResponse
// @Router /classes [get]
func (h *ClassHandler) ListClasses(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req services.ClassListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.classService.List(c.Request.Context(), user, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SearchClasses
// @Summary Search classes
// @Tags classes
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {array} services.ClassResponse
// @Router /classes/search [get]
func (h *ClassHandler) SearchClasses(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	classes, err := h.classService.Search(c.Request.Context(), user, c.Query("q"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, classes)
}

// TodaysClasses lists visible classes meeting today
// @Summary Today's classes
// @Tags classes
// @Produce json
// @Success 200 {array} services.ClassResponse
// @Router /classes/today [get]
func (h *ClassHandler) TodaysClasses(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	classes, err := h.classService.TodaysClasses(c.Request.Context(), user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, classes)
}

// GetClass
// @Summary Get class
// @Tags classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} services.ClassResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /classes/{id} [get]
func (h *ClassHandler) GetClass(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}

	class, err := h.classService.Get(c.Request.Context(), user, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

// CreateClass
// @Summary Create class
// @Tags classes
// @Accept json
// @Produce json
// @Param class body models.ClassCreateRequest true "Class data"
// @Success 201 {object} services.ClassResponse
// @Failure 400 {object} ErrorResponse
// @Router /classes [post]
func (h *ClassHandler) CreateClass(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.ClassCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating class", "name", req.Name, "teacher_id", req.TeacherID)

	class, err := h.classService.Create(c.Request.Context(), user, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, class)
}

// UpdateClass
// @Summary Update class
// @Tags classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param class body models.ClassUpdateRequest true "Fields to change"
// @Success 200 {object} services.ClassResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /classes/{id} [put]
func (h *ClassHandler) UpdateClass(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}

	var req models.ClassUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	class, err := h.classService.Update(c.Request.Context(), user, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

// DeleteClass removes a class and its attendance history
// @Summary Delete class
// @Tags classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /classes/{id} [delete]
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting class", "class_id", id)

	if err := h.classService.Delete(c.Request.Context(), user, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.success(c, http.StatusOK, "Class deleted successfully", nil)
}

// EnrollStudents adds students to the roster
// @Summary Enroll students
// @Tags classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param students body models.EnrollStudentsRequest true "Student IDs"
// @Success 200 {object} services.ClassResponse
// @Failure 400 {object} ErrorResponse
// @Router /classes/{id}/students [post]
func (h *ClassHandler) EnrollStudents(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}

	var req models.EnrollStudentsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Enrolling students", "class_id", id, "count", len(req.StudentIDs))

	class, err := h.classService.EnrollStudents(c.Request.Context(), user, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

// UnenrollStudent removes one student from the roster
// @Summary Unenroll student
// @Tags classes
// @Produce json
// @Param id path string true "Class ID"
// @Param student_id path string true "Student ID"
// @Success 200 {object} services.ClassResponse
// @Failure 404 {object} ErrorResponse
// @Router /classes/{id}/students/{student_id} [delete]
func (h *ClassHandler) UnenrollStudent(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}
	studentID, ok := h.requireParam(c, "student_id")
	if !ok {
		return
	}

	class, err := h.classService.UnenrollStudent(c.Request.Context(), user, id, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}
