package models

import "time"

// ===== AUTH =====

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupRequest struct {
	FullName        string `json:"full_name" validate:"required,min=2,max=100"`
	Email           string `json:"email" validate:"required,email,max=255"`
	StudentID       string `json:"student_id" validate:"required,max=50"`
	Department      string `json:"department" validate:"omitempty,max=255"`
	Password        string `json:"password" validate:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

type QuickLoginOption struct {
	Role     UserRole `json:"role"`
	Label    string   `json:"label"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
}

type NavigationItem struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// ===== USERS =====

type UserCreateRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=100"`
	Email        string  `json:"email" validate:"required,email,max=255"`
	Password     string  `json:"password" validate:"omitempty,min=6,max=128"`
	Department   *string `json:"department" validate:"omitempty,max=255"`
	Code         *string `json:"code" validate:"omitempty,max=50"`
	ProfileImage *string `json:"profile_image" validate:"omitempty,url,max=500"`
}

type UserUpdateRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email        *string `json:"email" validate:"omitempty,email,max=255"`
	Department   *string `json:"department" validate:"omitempty,max=255"`
	Code         *string `json:"code" validate:"omitempty,max=50"`
	ProfileImage *string `json:"profile_image" validate:"omitempty,url,max=500"`
}

// ===== DEPARTMENTS =====

type DepartmentCreateRequest struct {
	Name string `json:"name" validate:"required,min=2,max=150"`
	Head string `json:"head" validate:"omitempty,max=255"`
}

type DepartmentUpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,min=2,max=150"`
	Head *string `json:"head" validate:"omitempty,max=255"`
}

// ===== CLASSES =====

type ClassCreateRequest struct {
	Name       string         `json:"name" validate:"required,min=2,max=200"`
	TeacherID  string         `json:"teacher_id" validate:"required"`
	Department string         `json:"department" validate:"required"`
	Schedule   []ScheduleSlot `json:"schedule" validate:"dive"`
	Students   []string       `json:"students" validate:"omitempty,unique,dive,required"`
}

type ClassUpdateRequest struct {
	Name       *string         `json:"name" validate:"omitempty,min=2,max=200"`
	TeacherID  *string         `json:"teacher_id" validate:"omitempty"`
	Department *string         `json:"department" validate:"omitempty"`
	Schedule   *[]ScheduleSlot `json:"schedule" validate:"omitempty,dive"`
	Students   *[]string       `json:"students" validate:"omitempty,unique,dive,required"`
}

type EnrollStudentsRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,unique,dive,required"`
}

// ===== ATTENDANCE =====

type MarkAttendanceRequest struct {
	ClassID   string            `json:"class_id" validate:"required"`
	Date      string            `json:"date" validate:"required,iso_date"`
	Attendees []AttendanceEntry `json:"attendees" validate:"dive"`
}

// ===== SETTINGS =====

type ProfileUpdateRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email           *string `json:"email" validate:"omitempty,email,max=255"`
	ProfileImage    *string `json:"profile_image" validate:"omitempty,url,max=500"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password" validate:"omitempty,min=6,max=128"`
	ConfirmPassword string  `json:"confirm_password"`
}

type NotificationSettingsRequest struct {
	EmailNotifications *bool `json:"email_notifications"`
	AttendanceAlerts   *bool `json:"attendance_alerts"`
	ReportGeneration   *bool `json:"report_generation"`
	SystemUpdates      *bool `json:"system_updates"`
}

// ===== RESPONSES =====

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
