package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/attendance-service/internal/services"
	"github.com/SAP-F-2025/attendance-service/internal/utils"
)

type ReportHandler struct {
	BaseHandler
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler:   NewBaseHandler(logger),
		reportService: reportService,
	}
}

// ===== REPORT ENDPOINTS =====

// ClassReport returns per-student attendance for a class
// @Summary Class report
// @Description Students only receive their own row
// @Tags reports
// @Produce json
// @Param id path string true "Class ID"
// @Param timeframe query string false "all, week, month, semester or year (default: all)"
// @Success 200 {object} services.ClassReport
// @Failure 400 {object} ErrorResponse "Bad request - invalid timeframe"
// @Failure 403 {object} ErrorResponse
// @Router /reports/classes/{id} [get]
func (h *ReportHandler) ClassReport(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}
	timeframe, ok := h.timeframe(c)
	if !ok {
		return
	}

	report, err := h.reportService.ClassReport(c.Request.Context(), user, id, timeframe)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportClassReport downloads the class report
// @Summary Export class report
// @Tags reports
// @Produce text/csv
// @Param id path string true "Class ID"
// @Param timeframe query string false "all, week, month, semester or year (default: all)"
// @Param format query string false "csv or xlsx (default: csv)"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /reports/classes/{id}/export [get]
func (h *ReportHandler) ExportClassReport(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}
	timeframe, ok := h.timeframe(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting class report", "class_id", id, "timeframe", timeframe)

	file, err := h.reportService.ExportClassReport(c.Request.Context(), user, id, timeframe, c.Query("format"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.sendFile(c, file)
}

// StudentReport returns one student's attendance across their classes
// @Summary Student report
// @Tags reports
// @Produce json
// @Param id path string true "Student ID"
// @Param timeframe query string false "all, week, month, semester or year (default: all)"
// @Success 200 {object} services.StudentReport
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /reports/students/{id} [get]
func (h *ReportHandler) StudentReport(c *gin.Context) {
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}
	h.studentReport(c, id)
}

// MyReport is StudentReport for the caller
// @Summary My report
// @Tags reports
// @Produce json
// @Param timeframe query string false "all, week, month, semester or year (default: all)"
// @Success 200 {object} services.StudentReport
// @Router /reports/me [get]
func (h *ReportHandler) MyReport(c *gin.Context) {
	h.studentReport(c, c.GetString("user_id"))
}

func (h *ReportHandler) studentReport(c *gin.Context, studentID string) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	timeframe, ok := h.timeframe(c)
	if !ok {
		return
	}

	report, err := h.reportService.StudentReport(c.Request.Context(), user, studentID, timeframe)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// DepartmentReport summarises attendance across a department
// @Summary Department report
// @Tags reports
// @Produce json
// @Param id path string true "Department ID"
// @Param timeframe query string false "all, week, month, semester or year (default: all)"
// @Success 200 {object} services.DepartmentReport
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /reports/departments/{id} [get]
func (h *ReportHandler) DepartmentReport(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}
	timeframe, ok := h.timeframe(c)
	if !ok {
		return
	}

	report, err := h.reportService.DepartmentReport(c.Request.Context(), user, id, timeframe)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
