package models

import (
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleManagement UserRole = "management"
	RoleTeacher    UserRole = "teacher"
	RoleStudent    UserRole = "student"
)

var AllRoles = []UserRole{RoleAdmin, RoleManagement, RoleTeacher, RoleStudent}

func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManagement, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// IsStaff reports whether the role may see every class
func (r UserRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleManagement
}

type User struct {
	ID           string   `json:"id" gorm:"primaryKey;size:255"`
	Name         string   `json:"name" gorm:"not null;size:100"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role         UserRole `json:"role" gorm:"not null;size:20;index"`
	PasswordHash string   `json:"-" gorm:"size:255"`

	Department   *string `json:"department,omitempty" gorm:"size:255;index"`
	StudentID    *string `json:"student_id,omitempty" gorm:"size:50;index"`
	TeacherID    *string `json:"teacher_id,omitempty" gorm:"size:50;index"`
	ProfileImage *string `json:"profile_image,omitempty" gorm:"size:500"`

	// Subject in the external identity provider, when it differs from ID
	ExternalID *string `json:"-" gorm:"size:255;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// DepartmentID returns the department id or ""
func (u *User) DepartmentID() string {
	if u.Department == nil {
		return ""
	}
	return *u.Department
}

// RoleCode returns the student or teacher number, depending on role
func (u *User) RoleCode() string {
	switch {
	case u.Role == RoleStudent && u.StudentID != nil:
		return *u.StudentID
	case u.Role == RoleTeacher && u.TeacherID != nil:
		return *u.TeacherID
	}
	return ""
}

// avatar background colours per role
var avatarBackgrounds = map[UserRole]string{
	RoleAdmin:      "0D8ABC",
	RoleManagement: "16A085",
	RoleTeacher:    "3498DB",
	RoleStudent:    "9B59B6",
}

// DefaultProfileImage builds the ui-avatars URL used for new accounts
func DefaultProfileImage(name string, role UserRole) string {
	background, ok := avatarBackgrounds[role]
	if !ok {
		background = avatarBackgrounds[RoleStudent]
	}
	encoded := url.QueryEscape(strings.Join(strings.Fields(name), " "))
	return "https://ui-avatars.com/api/?name=" + encoded + "&background=" + background + "&color=fff"
}
