package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/realtime"
	"github.com/SAP-F-2025/attendance-service/internal/services"
	"github.com/SAP-F-2025/attendance-service/internal/utils"
)

type AttendanceHandler struct {
	BaseHandler
	attendanceService services.AttendanceService
	classService      services.ClassService
	hub               *realtime.Hub
}

func NewAttendanceHandler(
	attendanceService services.AttendanceService,
	classService services.ClassService,
	hub *realtime.Hub,
	logger utils.Logger,
) *AttendanceHandler {
	return &AttendanceHandler{
		BaseHandler:       NewBaseHandler(logger),
		attendanceService: attendanceService,
		classService:      classService,
		hub:               hub,
	}
}

// GetSheet returns the record for a class and date, or a draft
// @Summary Attendance sheet
// @Description Returns the stored record or a draft with every enrolled student absent
// @Tags attendance
// @Produce json
// @Param class_id query string true "Class ID"
// @Param date query string false "YYYY-MM-DD (default: today)"
// @Success 200 {object} services.AttendanceSheet
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /attendance/sheet [get]
func (h *AttendanceHandler) GetSheet(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	classID := c.Query("class_id")
	if classID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Query parameter 'class_id' is required",
		})
		return
	}

	sheet, err := h.attendanceService.GetSheet(c.Request.Context(), user, classID, c.Query("date"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// MarkAttendance saves the record for a class and date
// @Summary Mark attendance
// @Description Creates or replaces the record for (class, date). Past dates are locked for everyone but administrators.
// @Tags attendance
// @Accept json
// @Produce json
// @Param record body models.MarkAttendanceRequest true "Attendance entries"
// @Success 200 {object} models.AttendanceRecord
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /attendance [post]
func (h *AttendanceHandler) MarkAttendance(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.MarkAttendanceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Marking attendance", "class_id", req.ClassID, "date", req.Date, "entries", len(req.Attendees))

	record, err := h.attendanceService.Mark(c.Request.Context(), user, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ListRecords lists a class's records within an optional date range
// @Summary List attendance records
// @Tags attendance
// @Produce json
// @Param class_id query string true "Class ID"
// @Param from query string false "First date, inclusive"
// @Param to query string false "Last date, inclusive"
// @Success 200 {array} models.AttendanceRecord
// @Router /attendance/records [get]
func (h *AttendanceHandler) ListRecords(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	records, err := h.attendanceService.ListByClass(c.Request.Context(), user, c.Query("class_id"), c.Query("from"), c.Query("to"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetRecord
// @Summary Get attendance record
// @Tags attendance
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} models.AttendanceRecord
// @Failure 404 {object} ErrorResponse
// @Router /attendance/records/{id} [get]
func (h *AttendanceHandler) GetRecord(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.requireParam(c, "id")
	if !ok {
		return
	}

	record, err := h.attendanceService.GetRecord(c.Request.Context(), user, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// MyAttendance returns the caller's history in one class
// @Summary My attendance
// @Tags attendance
// @Produce json
// @Param class_id query string true "Class ID"
// @Success 200 {object} services.StudentAttendanceView
// @Failure 403 {object} ErrorResponse
// @Router /attendance/me [get]
func (h *AttendanceHandler) MyAttendance(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	view, err := h.attendanceService.StudentView(c.Request.Context(), user, c.Query("class_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ExportAttendance downloads a class's records
// @Summary Export attendance
// @Tags attendance
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param class_id query string true "Class ID"
// @Param from query string false "First date, inclusive"
// @Param to query string false "Last date, inclusive"
// @Param format query string false "csv or xlsx (default: csv)"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /attendance/export [get]
func (h *AttendanceHandler) ExportAttendance(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req services.AttendanceExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Exporting attendance", "class_id", req.ClassID, "format", req.Format)

	file, err := h.attendanceService.Export(c.Request.Context(), user, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.sendFile(c, file)
}

// Live upgrades to a websocket streaming attendance events the caller may see
// @Summary Live attendance feed
// @Tags attendance
// @Param class_id query string false "Limit the feed to one class"
// @Param access_token query string false "Bearer token for clients that cannot set headers"
// @Success 101
// @Failure 403 {object} ErrorResponse
// @Router /attendance/live [get]
func (h *AttendanceHandler) Live(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	sub := realtime.Subscription{
		UserID:  user.ID,
		Role:    user.Role,
		ClassID: c.Query("class_id"),
	}

	if sub.ClassID != "" {
		// access check only
		if _, err := h.classService.Get(c.Request.Context(), user, sub.ClassID); err != nil {
			h.handleServiceError(c, err)
			return
		}
	}

	if !user.Role.IsStaff() {
		classes, err := h.classService.AccessibleClasses(c.Request.Context(), user)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		sub.VisibleClasses = make(map[string]bool, len(classes))
		for _, class := range classes {
			sub.VisibleClasses[class.ID] = true
		}
	}

	conn, err := realtime.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the response
		h.LogError(c, err, "Websocket upgrade failed")
		return
	}

	h.LogRequest(c, "Live feed connected", "class_id", sub.ClassID)
	h.hub.Attach(conn, sub)
}
