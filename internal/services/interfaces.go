package services

import (
	"context"

	"github.com/SAP-F-2025/attendance-service/internal/models"
)

// ===== REQUEST DTOs =====

type UserListRequest struct {
	Query      string  `form:"q"`
	Department *string `form:"department"`
	Page       int     `form:"page"`
	Size       int     `form:"size"`
}

type ClassListRequest struct {
	Query      string  `form:"q"`
	Department *string `form:"department"`
	TeacherID  *string `form:"teacher_id"`
	Page       int     `form:"page"`
	Size       int     `form:"size"`
}

type AttendanceExportRequest struct {
	ClassID string `form:"class_id"`
	From    string `form:"from"`
	To      string `form:"to"`
	Format  string `form:"format"`
}

// ===== RESPONSE DTOs =====

type UserListResponse struct {
	Users []*models.User `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

type ClassResponse struct {
	*models.Class
	TeacherName    string `json:"teacher_name"`
	DepartmentName string `json:"department_name"`
	StudentCount   int    `json:"student_count"`
}

type ClassListResponse struct {
	Classes []*ClassResponse `json:"classes"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Size    int              `json:"size"`
}

// AttendanceSheet is a stored record, or a draft with every enrolled student absent
type AttendanceSheet struct {
	Record  *models.AttendanceRecord `json:"record"`
	Exists  bool                     `json:"exists"`
	CanEdit bool                     `json:"can_edit"`
	Roster  []*models.User           `json:"roster"`
}

type StudentAttendanceRow struct {
	Date    string                  `json:"date"`
	Status  models.AttendanceStatus `json:"status"`
	Remarks string                  `json:"remarks,omitempty"`
}

type StudentAttendanceView struct {
	ClassID    string                 `json:"class_id"`
	ClassName  string                 `json:"class_name"`
	Rows       []StudentAttendanceRow `json:"rows"`
	Total      int                    `json:"total"`
	Present    int                    `json:"present"`
	Late       int                    `json:"late"`
	Absent     int                    `json:"absent"`
	Excused    int                    `json:"excused"`
	Percentage float64                `json:"percentage"`
}

// ExportFile is a rendered download
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	Signup(ctx context.Context, req *models.SignupRequest) (*models.User, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*models.User, error)
	QuickLoginOptions() []models.QuickLoginOption
}

// UserService manages students and teachers; role selects which directory is addressed
type UserService interface {
	List(ctx context.Context, actor *models.User, role models.UserRole, req UserListRequest) (*UserListResponse, error)
	Search(ctx context.Context, actor *models.User, role models.UserRole, query string) ([]*models.User, error)
	Get(ctx context.Context, actor *models.User, role models.UserRole, id string) (*models.User, error)
	Create(ctx context.Context, actor *models.User, role models.UserRole, req *models.UserCreateRequest) (*models.User, error)
	Update(ctx context.Context, actor *models.User, role models.UserRole, id string, req *models.UserUpdateRequest) (*models.User, error)
	Delete(ctx context.Context, actor *models.User, role models.UserRole, id string) error
}

type DepartmentService interface {
	List(ctx context.Context) ([]*models.Department, error)
	Get(ctx context.Context, id string) (*models.Department, error)
	Create(ctx context.Context, actor *models.User, req *models.DepartmentCreateRequest) (*models.Department, error)
	Update(ctx context.Context, actor *models.User, id string, req *models.DepartmentUpdateRequest) (*models.Department, error)
	Delete(ctx context.Context, actor *models.User, id string) error
}

type ClassService interface {
	List(ctx context.Context, actor *models.User, req ClassListRequest) (*ClassListResponse, error)
	Search(ctx context.Context, actor *models.User, query string) ([]*ClassResponse, error)
	Get(ctx context.Context, actor *models.User, id string) (*ClassResponse, error)
	Create(ctx context.Context, actor *models.User, req *models.ClassCreateRequest) (*ClassResponse, error)
	Update(ctx context.Context, actor *models.User, id string, req *models.ClassUpdateRequest) (*ClassResponse, error)
	Delete(ctx context.Context, actor *models.User, id string) error

	// Roster management
	EnrollStudents(ctx context.Context, actor *models.User, id string, req *models.EnrollStudentsRequest) (*ClassResponse, error)
	UnenrollStudent(ctx context.Context, actor *models.User, id, studentID string) (*ClassResponse, error)

	TodaysClasses(ctx context.Context, actor *models.User) ([]*ClassResponse, error)
	AccessibleClasses(ctx context.Context, actor *models.User) ([]*models.Class, error)
}

type AttendanceService interface {
	GetSheet(ctx context.Context, actor *models.User, classID, date string) (*AttendanceSheet, error)
	Mark(ctx context.Context, actor *models.User, req *models.MarkAttendanceRequest) (*models.AttendanceRecord, error)
	ListByClass(ctx context.Context, actor *models.User, classID, from, to string) ([]*models.AttendanceRecord, error)
	GetRecord(ctx context.Context, actor *models.User, id string) (*models.AttendanceRecord, error)
	StudentView(ctx context.Context, student *models.User, classID string) (*StudentAttendanceView, error)
	Export(ctx context.Context, actor *models.User, req AttendanceExportRequest) (*ExportFile, error)
}

type ReportService interface {
	ClassReport(ctx context.Context, actor *models.User, classID string, timeframe Timeframe) (*ClassReport, error)
	StudentReport(ctx context.Context, actor *models.User, studentID string, timeframe Timeframe) (*StudentReport, error)
	DepartmentReport(ctx context.Context, actor *models.User, departmentID string, timeframe Timeframe) (*DepartmentReport, error)
	ExportClassReport(ctx context.Context, actor *models.User, classID string, timeframe Timeframe, format string) (*ExportFile, error)
}

type DashboardService interface {
	Get(ctx context.Context, actor *models.User) (*DashboardResponse, error)
}

type SettingsService interface {
	GetProfile(ctx context.Context, actor *models.User) (*models.User, error)
	UpdateProfile(ctx context.Context, actor *models.User, req *models.ProfileUpdateRequest) (*models.User, error)
	GetNotificationSettings(ctx context.Context, actor *models.User) (*models.NotificationSettings, error)
	UpdateNotificationSettings(ctx context.Context, actor *models.User, req *models.NotificationSettingsRequest) (*models.NotificationSettings, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Auth() AuthService
	User() UserService
	Department() DepartmentService
	Class() ClassService
	Attendance() AttendanceService
	Report() ReportService
	Dashboard() DashboardService
	Settings() SettingsService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
