package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/services"
	"github.com/SAP-F-2025/attendance-service/internal/utils"
)

type DepartmentHandler struct {
	BaseHandler
	departmentService services.DepartmentService
}

func NewDepartmentHandler(departmentService services.DepartmentService, logger utils.Logger) *DepartmentHandler {
	return &DepartmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		departmentService: departmentService,
	}
}

// ListDepartments
// @Summary List departments
// @Tags departments
// @Produce json
// @Success 200 {array} models.Department
// @Router /departments [get]
func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	departments, err := h.departmentService.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, departments)
}

// GetDepartment
// @Summary Get department
// @Tags departments
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} models.Department
// @Failure 404 {object} ErrorResponse
// @Router /departments/{id} [get]
func (h *DepartmentHandler) GetDepartment(c *gin.Context) {
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}

	department, err := h.departmentService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, department)
}

// CreateDepartment
// @Summary Create department
// @Tags departments
// @Accept json
// @Produce json
// @Param department body models.DepartmentCreateRequest true "Department data"
// @Success 201 {object} models.Department
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /departments [post]
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.DepartmentCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating department", "name", req.Name)

	department, err := h.departmentService.Create(c.Request.Context(), user, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, department)
}

// UpdateDepartment
// @Summary Update department
// @Tags departments
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param department body models.DepartmentUpdateRequest true "Fields to change"
// @Success 200 {object} models.Department
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /departments/{id} [put]
func (h *DepartmentHandler) UpdateDepartment(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}

	var req models.DepartmentUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	department, err := h.departmentService.Update(c.Request.Context(), user, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, department)
}

// DeleteDepartment
// @Summary Delete department
// @Tags departments
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Department still referenced"
// @Router /departments/{id} [delete]
func (h *DepartmentHandler) DeleteDepartment(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting department", "department_id", id)

	if err := h.departmentService.Delete(c.Request.Context(), user, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.success(c, http.StatusOK, "Department deleted successfully", nil)
}
