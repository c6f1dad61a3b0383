package models

import (
	"slices"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ScheduleSlot struct {
	Day       string `json:"day" validate:"required,weekday"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
}

type Class struct {
	ID         string                            `json:"id" gorm:"primaryKey;size:255"`
	Name       string                            `json:"name" gorm:"not null;size:200"`
	TeacherID  string                            `json:"teacher_id" gorm:"not null;size:255;index"`
	Department string                            `json:"department" gorm:"size:255;index"`
	Schedule   datatypes.JSONSlice[ScheduleSlot] `json:"schedule" gorm:"type:jsonb"`
	Students   datatypes.JSONSlice[string]       `json:"students" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Class) TableName() string {
	return "classes"
}

func (c *Class) HasStudent(studentID string) bool {
	return slices.Contains(c.Students, studentID)
}

// MeetsOn reports whether any schedule slot falls on the given weekday
func (c *Class) MeetsOn(day time.Weekday) bool {
	for _, slot := range c.Schedule {
		if d, ok := ParseWeekday(slot.Day); ok && d == day {
			return true
		}
	}
	return false
}

// ParseWeekday maps "Monday", "monday" or "Mon" to a time.Weekday
func ParseWeekday(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) < 3 {
		return 0, false
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, true
		}
	}
	return 0, false
}
