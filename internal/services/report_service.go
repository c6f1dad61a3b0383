package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

// Timeframe limits report records to a window ending today
type Timeframe string

const (
	TimeframeAll      Timeframe = ""
	TimeframeWeek     Timeframe = "week"
	TimeframeMonth    Timeframe = "month"
	TimeframeSemester Timeframe = "semester"
	TimeframeYear     Timeframe = "year"
)

func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToLower(strings.TrimSpace(s)))
	switch tf {
	case TimeframeAll, TimeframeWeek, TimeframeMonth, TimeframeSemester, TimeframeYear:
		return tf, nil
	case "all":
		return TimeframeAll, nil
	}
	return "", fieldError("timeframe", "must be one of week, month, semester, year", "oneof")
}

// Since returns the first date inside the window, or "" for all time.
// Weeks start on Monday; semesters are the last six months.
func (tf Timeframe) Since(now time.Time) string {
	y, m, d := now.Date()
	var start time.Time
	switch tf {
	case TimeframeWeek:
		offset := (int(now.Weekday()) + 6) % 7
		start = time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location())
	case TimeframeMonth:
		start = time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	case TimeframeSemester:
		// clamp to the target month's last day so Aug 31 maps to Feb 28/29
		first := time.Date(y, m-6, 1, 0, 0, 0, 0, now.Location())
		lastDay := first.AddDate(0, 1, -1).Day()
		start = first.AddDate(0, 0, min(d, lastDay)-1)
	case TimeframeYear:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return ""
	}
	return start.Format(models.DateLayout)
}

// ===== REPORT DTOs =====

type StudentReportRow struct {
	StudentID   string             `json:"student_id"`
	StudentCode string             `json:"student_code,omitempty"`
	Name        string             `json:"name"`
	Percentage  float64            `json:"percentage"`
	Present     int                `json:"present"`
	Late        int                `json:"late"`
	Absent      int                `json:"absent"`
	Standing    AttendanceStanding `json:"standing"`
}

type ClassReport struct {
	ClassID      string              `json:"class_id"`
	ClassName    string              `json:"class_name"`
	Timeframe    Timeframe           `json:"timeframe"`
	Since        string              `json:"since,omitempty"`
	Sessions     int                 `json:"sessions"`
	Breakdown    AttendanceBreakdown `json:"breakdown"`
	Rate         int                 `json:"rate"`
	ClassAverage int                 `json:"class_average"`
	Students     []StudentReportRow  `json:"students"`
}

type StudentClassSummary struct {
	ClassID      string             `json:"class_id"`
	ClassName    string             `json:"class_name"`
	Percentage   float64            `json:"percentage"`
	Present      int                `json:"present"`
	Late         int                `json:"late"`
	Absent       int                `json:"absent"`
	Standing     AttendanceStanding `json:"standing"`
	ClassAverage int                `json:"class_average"`
}

type StudentReport struct {
	StudentID string                `json:"student_id"`
	Name      string                `json:"name"`
	Timeframe Timeframe             `json:"timeframe"`
	Overall   int                   `json:"overall"`
	Status    string                `json:"status"`
	Classes   []StudentClassSummary `json:"classes"`
}

type ClassRateEntry struct {
	ClassID   string `json:"class_id"`
	ClassName string `json:"class_name"`
	Rate      int    `json:"rate"`
}

type DepartmentReport struct {
	DepartmentID      string           `json:"department_id"`
	DepartmentName    string           `json:"department_name"`
	Timeframe         Timeframe        `json:"timeframe"`
	AverageAttendance int              `json:"average_attendance"`
	ClassCount        int              `json:"class_count"`
	StudentCount      int              `json:"student_count"`
	TopClasses        []ClassRateEntry `json:"top_classes"`
}

// ===== SERVICE =====

const topClassLimit = 5

type reportService struct {
	serviceBase
}

func NewReportService(base serviceBase) ReportService {
	return &reportService{serviceBase: base}
}

// ClassReport summarises one class. Students only see their own row.
func (s *reportService) ClassReport(ctx context.Context, actor *models.User, classID string, timeframe Timeframe) (*ClassReport, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	class, err := loadAccessibleClass(ctx, s.repo, actor, classID)
	if err != nil {
		return nil, err
	}

	since := timeframe.Since(s.now())
	records, err := s.records(ctx, []string{class.ID}, since)
	if err != nil {
		return nil, err
	}

	students, err := s.usersByID(ctx, class.Students)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}

	report := &ClassReport{
		ClassID:   class.ID,
		ClassName: class.Name,
		Timeframe: timeframe,
		Since:     since,
		Sessions:  len(records),
		Breakdown: Breakdown(records),
		Rate:      ClassRate(records, class.ID),
		Students:  make([]StudentReportRow, 0, len(class.Students)),
	}

	percentages := make([]float64, 0, len(class.Students))
	for _, studentID := range class.Students {
		row := studentRow(records, class.ID, studentID, students[studentID])
		percentages = append(percentages, row.Percentage)
		if actor.Role == models.RoleStudent && studentID != actor.ID {
			continue
		}
		report.Students = append(report.Students, row)
	}
	report.ClassAverage = meanRounded(percentages)

	sort.SliceStable(report.Students, func(i, j int) bool {
		return report.Students[i].Name < report.Students[j].Name
	})
	return report, nil
}

// StudentReport covers every class of the student that actor can see
func (s *reportService) StudentReport(ctx context.Context, actor *models.User, studentID string, timeframe Timeframe) (*StudentReport, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if actor.Role == models.RoleStudent && actor.ID != studentID {
		return nil, NewPermissionError(actor.ID, "report", "view", "students can only view their own report")
	}

	student, err := s.repo.User().GetByID(ctx, studentID)
	if err != nil {
		return nil, translateRepoError(err, "student", studentID)
	}
	if student.Role != models.RoleStudent {
		return nil, notFound("student", studentID)
	}

	classes, err := s.repo.Class().List(ctx, repositories.ClassFilters{StudentID: &studentID})
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	visible := classes[:0]
	for _, class := range classes {
		if canAccessClass(actor, class) {
			visible = append(visible, class)
		}
	}
	if actor.Role == models.RoleTeacher && len(visible) == 0 {
		return nil, NewPermissionError(actor.ID, "report", "view", "student is not enrolled in any of your classes")
	}

	ids := make([]string, 0, len(visible))
	for _, class := range visible {
		ids = append(ids, class.ID)
	}
	records, err := s.records(ctx, ids, timeframe.Since(s.now()))
	if err != nil {
		return nil, err
	}

	report := &StudentReport{
		StudentID: student.ID,
		Name:      student.Name,
		Timeframe: timeframe,
		Classes:   make([]StudentClassSummary, 0, len(visible)),
	}
	percentages := make([]float64, 0, len(visible))
	for _, class := range visible {
		classRecords := filterByClass(records, class.ID)
		pct := AttendancePercentage(classRecords, student.ID, class.ID)
		tally := StudentCounts(classRecords, student.ID)

		classmates := make([]float64, 0, len(class.Students))
		for _, id := range class.Students {
			classmates = append(classmates, AttendancePercentage(classRecords, id, class.ID))
		}

		report.Classes = append(report.Classes, StudentClassSummary{
			ClassID:      class.ID,
			ClassName:    class.Name,
			Percentage:   pct,
			Present:      tally.Present,
			Late:         tally.Late,
			Absent:       tally.Absent,
			Standing:     Standing(pct),
			ClassAverage: meanRounded(classmates),
		})
		percentages = append(percentages, pct)
	}
	report.Overall = meanRounded(percentages)
	report.Status = StatusLabel(float64(report.Overall))

	return report, nil
}

func (s *reportService) DepartmentReport(ctx context.Context, actor *models.User, departmentID string, timeframe Timeframe) (*DepartmentReport, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if !actor.Role.IsStaff() {
		return nil, NewPermissionError(actor.ID, "report", "view", "department reports are limited to administrators and management")
	}

	department, err := s.repo.Department().GetByID(ctx, departmentID)
	if err != nil {
		return nil, translateRepoError(err, "department", departmentID)
	}
	classes, err := s.repo.Class().List(ctx, repositories.ClassFilters{Department: &departmentID})
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}

	ids := make([]string, 0, len(classes))
	for _, class := range classes {
		ids = append(ids, class.ID)
	}
	records, err := s.records(ctx, ids, timeframe.Since(s.now()))
	if err != nil {
		return nil, err
	}

	report := &DepartmentReport{
		DepartmentID:   department.ID,
		DepartmentName: department.Name,
		Timeframe:      timeframe,
		ClassCount:     len(classes),
		StudentCount:   len(uniqueStudents(classes)),
		TopClasses:     make([]ClassRateEntry, 0, len(classes)),
	}
	rates := make([]int, 0, len(classes))
	for _, class := range classes {
		rate := ClassRate(records, class.ID)
		rates = append(rates, rate)
		report.TopClasses = append(report.TopClasses, ClassRateEntry{ClassID: class.ID, ClassName: class.Name, Rate: rate})
	}
	report.AverageAttendance = meanRounded(rates)

	sort.SliceStable(report.TopClasses, func(i, j int) bool {
		return report.TopClasses[i].Rate > report.TopClasses[j].Rate
	})
	if len(report.TopClasses) > topClassLimit {
		report.TopClasses = report.TopClasses[:topClassLimit]
	}
	return report, nil
}

func (s *reportService) ExportClassReport(ctx context.Context, actor *models.User, classID string, timeframe Timeframe, format string) (*ExportFile, error) {
	if _, err := normalizeExportFormat(format); err != nil {
		return nil, err
	}
	report, err := s.ClassReport(ctx, actor, classID, timeframe)
	if err != nil {
		return nil, err
	}

	t := table{
		sheet:  "Report",
		header: []string{"Student ID", "Student Name", "Attendance %", "Present", "Late", "Absent", "Standing"},
	}
	for _, row := range report.Students {
		code := row.StudentCode
		if code == "" {
			code = row.StudentID
		}
		t.rows = append(t.rows, []string{
			code,
			row.Name,
			strconv.FormatFloat(row.Percentage, 'f', 1, 64),
			strconv.Itoa(row.Present),
			strconv.Itoa(row.Late),
			strconv.Itoa(row.Absent),
			string(row.Standing),
		})
	}

	period := string(timeframe)
	if period == "" {
		period = "all"
	}
	return renderExport(t, exportName("report", report.ClassName, period), format)
}

// records loads attendance of the given classes on or after since
func (s *reportService) records(ctx context.Context, classIDs []string, since string) ([]*models.AttendanceRecord, error) {
	records, err := s.repo.Attendance().List(ctx, repositories.AttendanceFilters{
		ClassIDs: classIDs,
		DateFrom: since,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

func studentRow(records []*models.AttendanceRecord, classID, studentID string, student *models.User) StudentReportRow {
	pct := AttendancePercentage(records, studentID, classID)
	tally := StudentCounts(records, studentID)
	row := StudentReportRow{
		StudentID:  studentID,
		Percentage: pct,
		Present:    tally.Present,
		Late:       tally.Late,
		Absent:     tally.Absent,
		Standing:   Standing(pct),
	}
	if student != nil {
		row.Name = student.Name
		row.StudentCode = student.RoleCode()
	}
	return row
}
