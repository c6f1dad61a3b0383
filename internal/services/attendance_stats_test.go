package services

import (
	"math"
	"testing"

	"github.com/SAP-F-2025/attendance-service/internal/models"
)

func record(classID, date string, entries ...models.AttendanceEntry) *models.AttendanceRecord {
	return &models.AttendanceRecord{ClassID: classID, Date: date, Attendees: entries}
}

func entry(studentID string, status models.AttendanceStatus) models.AttendanceEntry {
	return models.AttendanceEntry{StudentID: studentID, Status: status}
}

func TestAttendancePercentage(t *testing.T) {
	records := []*models.AttendanceRecord{
		record("c1", "2023-04-10", entry("s1", models.StatusPresent), entry("s2", models.StatusAbsent)),
		record("c1", "2023-04-12", entry("s1", models.StatusLate)),
		record("c1", "2023-04-14", entry("s1", models.StatusExcused), entry("s2", models.StatusPresent)),
		record("c2", "2023-04-11", entry("s1", models.StatusAbsent)),
	}

	tests := []struct {
		name      string
		studentID string
		classID   string
		want      float64
	}{
		{name: "late counts as attended", studentID: "s1", classID: "c1", want: 200.0 / 3},
		{name: "missing entry counts against", studentID: "s2", classID: "c1", want: 100.0 / 3},
		{name: "other class", studentID: "s1", classID: "c2", want: 0},
		{name: "no records", studentID: "s1", classID: "c3", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AttendancePercentage(records, tt.studentID, tt.classID)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AttendancePercentage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverallRate(t *testing.T) {
	tests := []struct {
		name    string
		records []*models.AttendanceRecord
		want    int
	}{
		{name: "empty", want: 0},
		{
			name: "rounds half up",
			records: []*models.AttendanceRecord{
				record("c1", "d1", entry("s1", models.StatusPresent), entry("s2", models.StatusPresent)),
				record("c1", "d2", entry("s1", models.StatusPresent), entry("s2", models.StatusAbsent)),
				record("c2", "d1", entry("s1", models.StatusLate), entry("s3", models.StatusPresent)),
				record("c3", "d1", entry("s2", models.StatusPresent), entry("s3", models.StatusPresent)),
			},
			want: 88,
		},
		{
			name:    "excused is not attended",
			records: []*models.AttendanceRecord{record("c1", "d1", entry("s1", models.StatusExcused), entry("s2", models.StatusPresent))},
			want:    50,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverallRate(tt.records); got != tt.want {
				t.Errorf("OverallRate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClassRate(t *testing.T) {
	records := []*models.AttendanceRecord{
		record("c1", "d1", entry("s1", models.StatusPresent), entry("s2", models.StatusAbsent)),
		record("c2", "d1", entry("s1", models.StatusPresent)),
	}
	if got := ClassRate(records, "c1"); got != 50 {
		t.Errorf("ClassRate(c1) = %d, want 50", got)
	}
	if got := ClassRate(records, "c2"); got != 100 {
		t.Errorf("ClassRate(c2) = %d, want 100", got)
	}
}

func TestBreakdown(t *testing.T) {
	records := []*models.AttendanceRecord{
		record("c1", "d1", entry("s1", models.StatusPresent), entry("s2", models.StatusLate), entry("s3", models.StatusExcused)),
	}
	got := Breakdown(records)
	want := AttendanceBreakdown{Present: 33, Late: 33, Absent: 33}
	if got != want {
		t.Errorf("Breakdown() = %+v, want %+v", got, want)
	}

	if got := Breakdown(nil); got != (AttendanceBreakdown{}) {
		t.Errorf("Breakdown(nil) = %+v, want zero", got)
	}
}

func TestStudentCounts(t *testing.T) {
	records := []*models.AttendanceRecord{
		record("c1", "d1", entry("s1", models.StatusPresent)),
		record("c1", "d2", entry("s1", models.StatusLate)),
		record("c1", "d3", entry("s1", models.StatusExcused)),
		record("c1", "d4", entry("s2", models.StatusPresent)),
	}
	got := StudentCounts(records, "s1")
	want := AttendanceTally{Present: 1, Late: 1, Absent: 1}
	if got != want {
		t.Errorf("StudentCounts() = %+v, want %+v", got, want)
	}
}

func TestStanding(t *testing.T) {
	tests := []struct {
		pct   float64
		want  AttendanceStanding
		label string
	}{
		{pct: 100, want: StandingGood, label: "Good"},
		{pct: 75, want: StandingGood, label: "Good"},
		{pct: 74.9, want: StandingWarning, label: "At Risk"},
		{pct: 60, want: StandingWarning, label: "At Risk"},
		{pct: 59.9, want: StandingAtRisk, label: "At Risk"},
		{pct: 0, want: StandingAtRisk, label: "At Risk"},
	}
	for _, tt := range tests {
		if got := Standing(tt.pct); got != tt.want {
			t.Errorf("Standing(%v) = %s, want %s", tt.pct, got, tt.want)
		}
		if got := StatusLabel(tt.pct); got != tt.label {
			t.Errorf("StatusLabel(%v) = %s, want %s", tt.pct, got, tt.label)
		}
	}
}

func TestMeanRounded(t *testing.T) {
	if got := meanRounded([]int{75, 100}); got != 88 {
		t.Errorf("meanRounded(75, 100) = %d, want 88", got)
	}
	if got := meanRounded([]float64{50, 100}); got != 75 {
		t.Errorf("meanRounded(50, 100) = %d, want 75", got)
	}
	if got := meanRounded([]int(nil)); got != 0 {
		t.Errorf("meanRounded(nil) = %d, want 0", got)
	}
}
