package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventUserRegistered   EventType = "user.registered"
	EventAttendanceMarked EventType = "attendance.marked"
	EventLowAttendance    EventType = "attendance.low_attendance"
	EventClassCreated     EventType = "class.created"
	EventClassUpdated     EventType = "class.updated"
	EventClassDeleted     EventType = "class.deleted"
)

const eventVersion = "1.0"

// Event is the envelope published for every domain change
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent builds an event with a JSON-encoded payload
func NewEvent(eventType EventType, source string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// Decode unmarshals the payload into dest
func (e *Event) Decode(dest interface{}) error {
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return nil
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// Handler consumes one event
type Handler func(ctx context.Context, event *Event) error

// ===== PAYLOADS =====

type UserRegisteredData struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	StudentID string `json:"student_id,omitempty"`
}

type AttendanceCounts struct {
	Present int `json:"present"`
	Late    int `json:"late"`
	Absent  int `json:"absent"`
	Excused int `json:"excused"`
}

type AttendanceMarkedData struct {
	RecordID  string           `json:"record_id"`
	ClassID   string           `json:"class_id"`
	ClassName string           `json:"class_name"`
	Date      string           `json:"date"`
	MarkedBy  string           `json:"marked_by"`
	Counts    AttendanceCounts `json:"counts"`
	Record    interface{}      `json:"record"`
}

type LowAttendanceData struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	ClassID     string  `json:"class_id"`
	ClassName   string  `json:"class_name"`
	Percentage  float64 `json:"percentage"`
	Threshold   float64 `json:"threshold"`
}

type ClassChangedData struct {
	ClassID   string `json:"class_id"`
	Name      string `json:"name"`
	TeacherID string `json:"teacher_id"`
	ChangedBy string `json:"changed_by"`
}

// Audience is the routing part of any payload
type Audience struct {
	ClassID   string `json:"class_id"`
	StudentID string `json:"student_id"`
}
