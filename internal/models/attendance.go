package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLate    AttendanceStatus = "late"
	StatusExcused AttendanceStatus = "excused"
)

// DateLayout is the wire and storage format of attendance dates
const DateLayout = "2006-01-02"

func (s AttendanceStatus) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// Attended reports whether the status counts towards attendance
func (s AttendanceStatus) Attended() bool {
	return s == StatusPresent || s == StatusLate
}

type AttendanceEntry struct {
	StudentID string           `json:"student_id" validate:"required"`
	Status    AttendanceStatus `json:"status" validate:"required,attendance_status"`
	Remarks   string           `json:"remarks,omitempty" validate:"max=500"`
}

type AttendanceRecord struct {
	ID        string                               `json:"id" gorm:"primaryKey;size:255"`
	ClassID   string                               `json:"class_id" gorm:"not null;size:255;uniqueIndex:idx_attendance_class_date"`
	Date      string                               `json:"date" gorm:"not null;size:10;uniqueIndex:idx_attendance_class_date;index"`
	Attendees datatypes.JSONSlice[AttendanceEntry] `json:"attendees" gorm:"type:jsonb"`
	MarkedBy  string                               `json:"marked_by,omitempty" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// EntryFor returns the attendee entry of a student, if present
func (r *AttendanceRecord) EntryFor(studentID string) (AttendanceEntry, bool) {
	for _, entry := range r.Attendees {
		if entry.StudentID == studentID {
			return entry, true
		}
	}
	return AttendanceEntry{}, false
}

// ParseDate parses a YYYY-MM-DD date in the local timezone
func ParseDate(date string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, time.Local)
}
