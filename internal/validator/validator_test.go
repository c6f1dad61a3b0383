package validator

import (
	"errors"
	"testing"

	"github.com/SAP-F-2025/attendance-service/internal/models"
)

func TestValidator_MarkAttendanceRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		req       models.MarkAttendanceRequest
		wantErr   bool
		wantField string
	}{
		{
			name: "ok",
			req: models.MarkAttendanceRequest{
				ClassID: "class1",
				Date:    "2023-04-10",
				Attendees: []models.AttendanceEntry{
					{StudentID: "student1", Status: models.StatusPresent},
					{StudentID: "student2", Status: models.StatusExcused, Remarks: "Doctor"},
				},
			},
		},
		{
			name: "bad date",
			req: models.MarkAttendanceRequest{
				ClassID: "class1",
				Date:    "10/04/2023",
			},
			wantErr:   true,
			wantField: "date",
		},
		{
			name: "bad status",
			req: models.MarkAttendanceRequest{
				ClassID: "class1",
				Date:    "2023-04-10",
				Attendees: []models.AttendanceEntry{
					{StudentID: "student1", Status: "sleeping"},
				},
			},
			wantErr:   true,
			wantField: "status",
		},
		{
			name:      "missing class",
			req:       models.MarkAttendanceRequest{Date: "2023-04-10"},
			wantErr:   true,
			wantField: "class_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			found := false
			for _, fe := range verrs {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %q, got %+v", tt.wantField, verrs)
			}
		})
	}
}

func TestValidator_ClassSchedule(t *testing.T) {
	v := New()

	req := models.ClassCreateRequest{
		Name:       "Operating Systems",
		TeacherID:  "teacher1",
		Department: "dept1",
		Schedule: []models.ScheduleSlot{
			{Day: "Funday", StartTime: "09:00", EndTime: "11:00"},
			{Day: "Monday", StartTime: "9am", EndTime: "11:00"},
		},
	}

	err := v.ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected schedule validation errors")
	}
	verrs := err.(ValidationErrors)
	if len(verrs) != 2 {
		t.Errorf("expected 2 errors, got %d: %+v", len(verrs), verrs)
	}
}

func TestBusinessValidator_ValidateSchedule(t *testing.T) {
	bv := New().GetBusinessValidator()

	tests := []struct {
		name  string
		slots []models.ScheduleSlot
		want  int
	}{
		{
			name: "ok",
			slots: []models.ScheduleSlot{
				{Day: "Monday", StartTime: "09:00", EndTime: "11:00"},
				{Day: "Wednesday", StartTime: "09:00", EndTime: "11:00"},
			},
			want: 0,
		},
		{
			name:  "end before start",
			slots: []models.ScheduleSlot{{Day: "Monday", StartTime: "11:00", EndTime: "09:00"}},
			want:  1,
		},
		{
			name: "overlap across spellings",
			slots: []models.ScheduleSlot{
				{Day: "Monday", StartTime: "09:00", EndTime: "11:00"},
				{Day: "mon", StartTime: "10:00", EndTime: "12:00"},
			},
			want: 1,
		},
		{
			name: "touching slots",
			slots: []models.ScheduleSlot{
				{Day: "Friday", StartTime: "09:00", EndTime: "11:00"},
				{Day: "Friday", StartTime: "11:00", EndTime: "12:00"},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bv.ValidateSchedule(tt.slots); len(got) != tt.want {
				t.Errorf("ValidateSchedule() = %+v, want %d errors", got, tt.want)
			}
		})
	}
}

func TestBusinessValidator_ValidateRoster(t *testing.T) {
	bv := New().GetBusinessValidator()
	class := &models.Class{ID: "class1", Students: []string{"student1", "student2"}}

	tests := []struct {
		name      string
		attendees []models.AttendanceEntry
		want      int
	}{
		{
			name: "ok",
			attendees: []models.AttendanceEntry{
				{StudentID: "student1", Status: models.StatusPresent},
				{StudentID: "student2", Status: models.StatusLate},
			},
			want: 0,
		},
		{
			name: "not enrolled",
			attendees: []models.AttendanceEntry{
				{StudentID: "student3", Status: models.StatusPresent},
			},
			want: 1,
		},
		{
			name: "duplicate",
			attendees: []models.AttendanceEntry{
				{StudentID: "student1", Status: models.StatusPresent},
				{StudentID: "student1", Status: models.StatusAbsent},
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bv.ValidateRoster(class, tt.attendees); len(got) != tt.want {
				t.Errorf("ValidateRoster() = %+v, want %d errors", got, tt.want)
			}
		})
	}
}

func TestBusinessValidator_ValidatePasswordChange(t *testing.T) {
	bv := New().GetBusinessValidator()

	if errs := bv.ValidatePasswordChange("", "", ""); len(errs) != 0 {
		t.Errorf("no change should pass, got %+v", errs)
	}

	errs := bv.ValidatePasswordChange("old", "newpass", "different")
	if len(errs) != 1 || errs[0].Message != "New passwords don't match" {
		t.Errorf("mismatch should fail, got %+v", errs)
	}

	if errs := bv.ValidatePasswordChange("", "newpass", "newpass"); len(errs) != 1 {
		t.Errorf("missing current password should fail, got %+v", errs)
	}
}
