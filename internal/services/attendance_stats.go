package services

import (
	"math"

	"github.com/SAP-F-2025/attendance-service/internal/models"
)

// Percentage boundaries of the attendance standings
const (
	GoodStandingThreshold    = 75.0
	WarningStandingThreshold = 60.0
)

type AttendanceStanding string

const (
	StandingGood    AttendanceStanding = "good"
	StandingWarning AttendanceStanding = "warning"
	StandingAtRisk  AttendanceStanding = "at_risk"
)

// AttendanceBreakdown holds rounded shares of all attendee entries
type AttendanceBreakdown struct {
	Present int `json:"present"`
	Late    int `json:"late"`
	Absent  int `json:"absent"`
}

// AttendanceTally counts the records a student appears in, per status group
type AttendanceTally struct {
	Present int `json:"present"`
	Late    int `json:"late"`
	Absent  int `json:"absent"`
}

// roundHalfUp rounds .5 away from zero for non-negative input
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// AttendancePercentage is the share of the class's records in which the
// student was present or late. Unrounded; 0 without records.
func AttendancePercentage(records []*models.AttendanceRecord, studentID, classID string) float64 {
	var total, attended int
	for _, record := range records {
		if record.ClassID != classID {
			continue
		}
		total++
		if entry, ok := record.EntryFor(studentID); ok && entry.Status.Attended() {
			attended++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(attended) / float64(total) * 100
}

// OverallRate is the rounded share of present or late entries across records
func OverallRate(records []*models.AttendanceRecord) int {
	var total, attended int
	for _, record := range records {
		for _, entry := range record.Attendees {
			total++
			if entry.Status.Attended() {
				attended++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return roundHalfUp(float64(attended) / float64(total) * 100)
}

// ClassRate is OverallRate restricted to one class
func ClassRate(records []*models.AttendanceRecord, classID string) int {
	return OverallRate(filterByClass(records, classID))
}

func Breakdown(records []*models.AttendanceRecord) AttendanceBreakdown {
	var total, present, late, absent int
	for _, record := range records {
		for _, entry := range record.Attendees {
			total++
			switch entry.Status {
			case models.StatusPresent:
				present++
			case models.StatusLate:
				late++
			case models.StatusAbsent, models.StatusExcused:
				absent++
			}
		}
	}
	denominator := float64(max(total, 1))
	return AttendanceBreakdown{
		Present: roundHalfUp(float64(present) / denominator * 100),
		Late:    roundHalfUp(float64(late) / denominator * 100),
		Absent:  roundHalfUp(float64(absent) / denominator * 100),
	}
}

// StudentCounts tallies records holding an entry for the student. Excused counts as absent.
func StudentCounts(records []*models.AttendanceRecord, studentID string) AttendanceTally {
	var tally AttendanceTally
	for _, record := range records {
		entry, ok := record.EntryFor(studentID)
		if !ok {
			continue
		}
		switch entry.Status {
		case models.StatusPresent:
			tally.Present++
		case models.StatusLate:
			tally.Late++
		case models.StatusAbsent, models.StatusExcused:
			tally.Absent++
		}
	}
	return tally
}

func Standing(pct float64) AttendanceStanding {
	switch {
	case pct >= GoodStandingThreshold:
		return StandingGood
	case pct >= WarningStandingThreshold:
		return StandingWarning
	}
	return StandingAtRisk
}

func StatusLabel(pct float64) string {
	if pct >= GoodStandingThreshold {
		return "Good"
	}
	return "At Risk"
}

// meanRounded averages values, 0 for none
func meanRounded[T int | float64](values []T) int {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return roundHalfUp(sum / float64(len(values)))
}

func filterByClass(records []*models.AttendanceRecord, classID string) []*models.AttendanceRecord {
	out := make([]*models.AttendanceRecord, 0, len(records))
	for _, record := range records {
		if record.ClassID == classID {
			out = append(out, record)
		}
	}
	return out
}

// countStatuses counts the entries of one record
func countStatuses(record *models.AttendanceRecord) (present, late, absent, excused int) {
	for _, entry := range record.Attendees {
		switch entry.Status {
		case models.StatusPresent:
			present++
		case models.StatusLate:
			late++
		case models.StatusAbsent:
			absent++
		case models.StatusExcused:
			excused++
		}
	}
	return
}
