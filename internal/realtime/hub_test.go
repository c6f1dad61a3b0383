package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SAP-F-2025/attendance-service/internal/events"
	"github.com/SAP-F-2025/attendance-service/internal/models"
)

func TestReceives(t *testing.T) {
	teacherSub := Subscription{UserID: "teacher1", Role: models.RoleTeacher, VisibleClasses: map[string]bool{"class1": true, "class2": true}}
	studentSub := Subscription{UserID: "student1", Role: models.RoleStudent, VisibleClasses: map[string]bool{"class1": true}}
	adminSub := Subscription{UserID: "admin1", Role: models.RoleAdmin}

	tests := []struct {
		name     string
		sub      Subscription
		audience events.Audience
		want     bool
	}{
		{name: "staff sees any class", sub: adminSub, audience: events.Audience{ClassID: "class3"}, want: true},
		{name: "staff sees global events", sub: adminSub, audience: events.Audience{}, want: true},
		{name: "teacher sees own class", sub: teacherSub, audience: events.Audience{ClassID: "class2"}, want: true},
		{name: "teacher misses other class", sub: teacherSub, audience: events.Audience{ClassID: "class3"}, want: false},
		{name: "teacher misses global events", sub: teacherSub, audience: events.Audience{}, want: false},
		{name: "class filter narrows", sub: Subscription{Role: models.RoleAdmin, ClassID: "class1"}, audience: events.Audience{ClassID: "class2"}, want: false},
		{name: "student sees own alert", sub: studentSub, audience: events.Audience{ClassID: "class1", StudentID: "student1"}, want: true},
		{name: "student misses peer alert", sub: studentSub, audience: events.Audience{ClassID: "class1", StudentID: "student2"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Receives(tt.sub, tt.audience); got != tt.want {
				t.Errorf("Receives() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHub_BroadcastsToMatchingClients(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn, Subscription{UserID: "teacher1", Role: models.RoleTeacher, ClassID: r.URL.Query().Get("class_id")})
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?class_id=class1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	other, _ := events.NewEvent(events.EventAttendanceMarked, "test", events.AttendanceMarkedData{ClassID: "class2"})
	mine, _ := events.NewEvent(events.EventAttendanceMarked, "test", events.AttendanceMarkedData{ClassID: "class1", Date: "2023-04-10"})
	for _, event := range []*events.Event{other, mine} {
		if err := hub.HandleEvent(ctx, event); err != nil {
			t.Fatalf("HandleEvent() error = %v", err)
		}
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var got events.Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if got.ID != mine.ID {
		t.Errorf("received event %s, want %s", got.ID, mine.ID)
	}
}

func markedEvent(t *testing.T) *events.Event {
	t.Helper()
	record := &models.AttendanceRecord{
		ID:      "att9",
		ClassID: "class1",
		Date:    "2023-04-10",
		Attendees: []models.AttendanceEntry{
			{StudentID: "student1", Status: models.StatusPresent},
			{StudentID: "student2", Status: models.StatusAbsent, Remarks: "Sick leave"},
		},
	}
	event, err := events.NewEvent(events.EventAttendanceMarked, "test", events.AttendanceMarkedData{
		RecordID: record.ID,
		ClassID:  record.ClassID,
		Date:     record.Date,
		Counts:   events.AttendanceCounts{Present: 1, Absent: 1},
		Record:   record,
	})
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}
	return event
}

func decodeMarked(t *testing.T, data []byte) (events.Event, models.AttendanceRecord) {
	t.Helper()
	var event events.Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("unmarshal event error = %v", err)
	}
	var payload struct {
		ClassID string                  `json:"class_id"`
		Record  models.AttendanceRecord `json:"record"`
	}
	if err := event.Decode(&payload); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if payload.ClassID != "class1" {
		t.Errorf("class_id = %q, want class1", payload.ClassID)
	}
	return event, payload.Record
}

func TestRedactForStudent(t *testing.T) {
	event := markedEvent(t)

	tests := []struct {
		name      string
		studentID string
		want      []string
	}{
		{name: "keeps own entry", studentID: "student2", want: []string{"student2"}},
		{name: "not on roster", studentID: "student3", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := RedactForStudent(event, tt.studentID)
			if err != nil {
				t.Fatalf("RedactForStudent() error = %v", err)
			}
			got, record := decodeMarked(t, data)
			if got.ID != event.ID || got.Type != event.Type {
				t.Errorf("envelope = %s %s, want %s %s", got.ID, got.Type, event.ID, event.Type)
			}
			if len(record.Attendees) != len(tt.want) {
				t.Fatalf("attendees = %+v, want %v", record.Attendees, tt.want)
			}
			for i, id := range tt.want {
				if record.Attendees[i].StudentID != id {
					t.Errorf("attendee %d = %s, want %s", i, record.Attendees[i].StudentID, id)
				}
			}
		})
	}
}

func TestHub_StudentSeesOnlyOwnEntry(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn, Subscription{
			UserID:         "student1",
			Role:           models.RoleStudent,
			VisibleClasses: map[string]bool{"class1": true},
		})
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if err := hub.HandleEvent(ctx, markedEvent(t)); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if strings.Contains(string(data), "Sick leave") {
		t.Errorf("student feed leaked a classmate's remarks: %s", data)
	}
	_, record := decodeMarked(t, data)
	if len(record.Attendees) != 1 || record.Attendees[0].StudentID != "student1" {
		t.Errorf("attendees = %+v, want only student1", record.Attendees)
	}
}
