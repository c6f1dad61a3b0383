package repositories

import (
	"context"

	"github.com/SAP-F-2025/attendance-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Role       *models.UserRole `json:"role"`
	Department *string          `json:"department"`
	IDs        []string         `json:"ids"`
	Query      string           `json:"query"` // name, email or role code
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}

type ClassFilters struct {
	TeacherID  *string `json:"teacher_id"`
	StudentID  *string `json:"student_id"`
	Department *string `json:"department"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
}

type AttendanceFilters struct {
	ClassID   *string  `json:"class_id"`
	ClassIDs  []string `json:"class_ids"`
	StudentID *string  `json:"student_id"`
	DateFrom  string   `json:"date_from"` // inclusive YYYY-MM-DD
	DateTo    string   `json:"date_to"`   // inclusive YYYY-MM-DD
	Limit     int      `json:"limit"`
	Offset    int      `json:"offset"`
	Newest    bool     `json:"newest"` // order by date descending
}

// ===== DOMAIN REPOSITORIES =====

type DepartmentRepository interface {
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Department, error)
	List(ctx context.Context) ([]*models.Department, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
}

type ClassRepository interface {
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Class, error)
	List(ctx context.Context, filters ClassFilters) ([]*models.Class, error)
	Count(ctx context.Context, filters ClassFilters) (int64, error)

	// RemoveStudent drops the student from every roster
	RemoveStudent(ctx context.Context, studentID string) error
}

type AttendanceRepository interface {
	// Upsert stores the record for (class_id, date), reusing the existing id when one exists
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
	GetByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	GetByClassAndDate(ctx context.Context, classID, date string) (*models.AttendanceRecord, error)
	List(ctx context.Context, filters AttendanceFilters) ([]*models.AttendanceRecord, error)
	DeleteByClass(ctx context.Context, classID string) error
}

type SettingsRepository interface {
	GetNotificationSettings(ctx context.Context, userID string) (*models.NotificationSettings, error)
	SaveNotificationSettings(ctx context.Context, settings *models.NotificationSettings) error
	DeleteByUser(ctx context.Context, userID string) error
}
