package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/realtime"
	"github.com/SAP-F-2025/attendance-service/internal/services"
	"github.com/SAP-F-2025/attendance-service/internal/utils"
)

// CacheReporter is implemented by storage backends that keep a Redis cache
type CacheReporter interface {
	CacheStats(ctx context.Context) map[string]interface{}
}

type HandlerManager struct {
	serviceManager    services.ServiceManager
	cacheReporter     CacheReporter
	hub               *realtime.Hub
	serviceName       string
	authHandler       *AuthHandler
	studentHandler    *UserHandler
	teacherHandler    *UserHandler
	departmentHandler *DepartmentHandler
	classHandler      *ClassHandler
	attendanceHandler *AttendanceHandler
	reportHandler     *ReportHandler
	dashboardHandler  *DashboardHandler
	settingsHandler   *SettingsHandler
	authMiddleware    *AuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	hub *realtime.Hub,
	logger utils.Logger,
	serviceName string,
) *HandlerManager {
	return &HandlerManager{
		serviceManager:    serviceManager,
		hub:               hub,
		serviceName:       serviceName,
		authHandler:       NewAuthHandler(serviceManager.Auth(), logger),
		studentHandler:    NewUserHandler(serviceManager.User(), models.RoleStudent, logger),
		teacherHandler:    NewUserHandler(serviceManager.User(), models.RoleTeacher, logger),
		departmentHandler: NewDepartmentHandler(serviceManager.Department(), logger),
		classHandler:      NewClassHandler(serviceManager.Class(), logger),
		attendanceHandler: NewAttendanceHandler(serviceManager.Attendance(), serviceManager.Class(), hub, logger),
		reportHandler:     NewReportHandler(serviceManager.Report(), logger),
		dashboardHandler:  NewDashboardHandler(serviceManager.Dashboard(), logger),
		settingsHandler:   NewSettingsHandler(serviceManager.Settings(), logger),
		authMiddleware:    NewAuthMiddleware(serviceManager.Auth()),
	}
}

// SetCacheReporter adds cache key counts to the health response
func (hm *HandlerManager) SetCacheReporter(reporter CacheReporter) {
	hm.cacheReporter = reporter
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	{
		auth.POST("/login", hm.authHandler.Login)
		auth.POST("/signup", hm.authHandler.Signup)
		auth.GET("/quick-login", hm.authHandler.QuickLogin)
	}

	protected := v1.Group("")
	protected.Use(hm.authMiddleware.Authenticate())
	{
		protected.POST("/auth/logout", hm.authHandler.Logout)
		protected.GET("/auth/me", hm.authHandler.Me)
		protected.GET("/navigation", hm.authHandler.Navigation)
		protected.GET("/dashboard", hm.dashboardHandler.GetDashboard)

		staff := hm.authMiddleware.RequireRoleMiddleware(models.RoleManagement)
		adminOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin)

		// Students - listed by staff and teachers, managed by staff
		students := protected.Group("/students")
		{
			students.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleManagement, models.RoleTeacher), hm.studentHandler.ListUsers)
			students.GET("/search", hm.authMiddleware.RequireRoleMiddleware(models.RoleManagement, models.RoleTeacher), hm.studentHandler.SearchUsers)
			students.GET("/:id", hm.studentHandler.GetUser)
			students.POST("", staff, hm.studentHandler.CreateUser)
			students.PUT("/:id", staff, hm.studentHandler.UpdateUser)
			students.DELETE("/:id", staff, hm.studentHandler.DeleteUser)
		}

		// Teachers - listed by staff, managed by administrators
		teachers := protected.Group("/teachers")
		{
			teachers.GET("", staff, hm.teacherHandler.ListUsers)
			teachers.GET("/search", staff, hm.teacherHandler.SearchUsers)
			teachers.GET("/:id", hm.teacherHandler.GetUser)
			teachers.POST("", adminOnly, hm.teacherHandler.CreateUser)
			teachers.PUT("/:id", adminOnly, hm.teacherHandler.UpdateUser)
			teachers.DELETE("/:id", adminOnly, hm.teacherHandler.DeleteUser)
		}

		departments := protected.Group("/departments")
		{
			departments.GET("", hm.departmentHandler.ListDepartments)
			departments.GET("/:id", hm.departmentHandler.GetDepartment)
			departments.POST("", adminOnly, hm.departmentHandler.CreateDepartment)
			departments.PUT("/:id", adminOnly, hm.departmentHandler.UpdateDepartment)
			departments.DELETE("/:id", adminOnly, hm.departmentHandler.DeleteDepartment)
		}

		classes := protected.Group("/classes")
		{
			classes.GET("", hm.classHandler.ListClasses)
			classes.GET("/search", hm.classHandler.SearchClasses)
			classes.GET("/today", hm.classHandler.TodaysClasses)
			classes.GET("/:id", hm.classHandler.GetClass)
			classes.POST("", staff, hm.classHandler.CreateClass)
			classes.PUT("/:id", staff, hm.classHandler.UpdateClass)
			classes.DELETE("/:id", staff, hm.classHandler.DeleteClass)
			classes.POST("/:id/students", staff, hm.classHandler.EnrollStudents)
			classes.DELETE("/:id/students/:student_id", staff, hm.classHandler.UnenrollStudent)
		}

		attendance := protected.Group("/attendance")
		{
			attendance.GET("/sheet", hm.attendanceHandler.GetSheet)
			attendance.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleManagement, models.RoleTeacher), hm.attendanceHandler.MarkAttendance)
			attendance.GET("/records", hm.attendanceHandler.ListRecords)
			attendance.GET("/records/:id", hm.attendanceHandler.GetRecord)
			attendance.GET("/me", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.attendanceHandler.MyAttendance)
			attendance.GET("/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleManagement, models.RoleTeacher), hm.attendanceHandler.ExportAttendance)
			attendance.GET("/live", hm.attendanceHandler.Live)
		}

		reports := protected.Group("/reports")
		{
			reports.GET("/classes/:id", hm.reportHandler.ClassReport)
			reports.GET("/classes/:id/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleManagement, models.RoleTeacher), hm.reportHandler.ExportClassReport)
			reports.GET("/students/:id", hm.reportHandler.StudentReport)
			reports.GET("/me", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.reportHandler.MyReport)
			reports.GET("/departments/:id", staff, hm.reportHandler.DepartmentReport)
		}

		settings := protected.Group("/settings")
		{
			settings.GET("/profile", hm.settingsHandler.GetProfile)
			settings.PUT("/profile", hm.settingsHandler.UpdateProfile)
			settings.GET("/notifications", hm.settingsHandler.GetNotificationSettings)
			settings.PUT("/notifications", hm.settingsHandler.UpdateNotificationSettings)
		}
	}
}

// HealthCheck reports service and storage health
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status":       "healthy",
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"service":      hm.serviceName,
		"live_clients": hm.hub.ClientCount(),
	}
	if hm.cacheReporter != nil {
		body["cache"] = hm.cacheReporter.CacheStats(c.Request.Context())
	}

	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		body["status"] = "unhealthy"
		body["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	c.JSON(http.StatusOK, body)
}
