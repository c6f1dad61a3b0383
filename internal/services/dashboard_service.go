package services

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

// ===== RESPONSE DTOs =====

// DashboardResponse carries exactly one role-specific section
type DashboardResponse struct {
	Role    models.UserRole   `json:"role"`
	Admin   *AdminDashboard   `json:"admin,omitempty"`
	Teacher *TeacherDashboard `json:"teacher,omitempty"`
	Student *StudentDashboard `json:"student,omitempty"`
}

type DashboardOverview struct {
	TotalStudents    int64 `json:"total_students"`
	TotalTeachers    int64 `json:"total_teachers"`
	TotalClasses     int64 `json:"total_classes"`
	TotalDepartments int64 `json:"total_departments"`
	AttendanceRate   int   `json:"attendance_rate"`
}

type TodayClass struct {
	ClassID      string `json:"class_id"`
	Name         string `json:"name"`
	TeacherName  string `json:"teacher_name"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	StudentCount int    `json:"student_count"`
}

type RecentRecord struct {
	RecordID  string `json:"record_id"`
	ClassID   string `json:"class_id"`
	ClassName string `json:"class_name"`
	Date      string `json:"date"`
	Present   int    `json:"present"`
	Total     int    `json:"total"`
}

type AdminDashboard struct {
	Overview      DashboardOverview `json:"overview"`
	TodaysClasses []TodayClass      `json:"todays_classes"`
	RecentRecords []RecentRecord    `json:"recent_records"`
}

type TeacherDashboard struct {
	TotalClasses  int              `json:"total_classes"`
	TotalStudents int              `json:"total_students"`
	AverageRate   int              `json:"average_rate"`
	TodaysClasses []TodayClass     `json:"todays_classes"`
	ClassRates    []ClassRateEntry `json:"class_rates"`
	Classes       []*ClassResponse `json:"classes"`
}

type StudentClassProgress struct {
	ClassID    string             `json:"class_id"`
	ClassName  string             `json:"class_name"`
	Percentage float64            `json:"percentage"`
	Standing   AttendanceStanding `json:"standing"`
}

type StudentDashboard struct {
	TotalClasses  int                    `json:"total_classes"`
	OverallRate   int                    `json:"overall_rate"`
	Status        string                 `json:"status"`
	TodaysClasses []TodayClass           `json:"todays_classes"`
	Classes       []StudentClassProgress `json:"classes"`
}

// ===== SERVICE =====

const recentRecordLimit = 5

type dashboardService struct {
	serviceBase
	classes *classService
}

func NewDashboardService(base serviceBase) DashboardService {
	return &dashboardService{
		serviceBase: base,
		classes:     &classService{serviceBase: base},
	}
}

func (s *dashboardService) Get(ctx context.Context, actor *models.User) (*DashboardResponse, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	response := &DashboardResponse{Role: actor.Role}
	var err error
	switch actor.Role {
	case models.RoleAdmin, models.RoleManagement:
		response.Admin, err = s.adminDashboard(ctx)
	case models.RoleTeacher:
		response.Teacher, err = s.teacherDashboard(ctx, actor)
	case models.RoleStudent:
		response.Student, err = s.studentDashboard(ctx, actor)
	default:
		return nil, NewPermissionError(actor.ID, "dashboard", "view", "unknown role")
	}
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (s *dashboardService) adminDashboard(ctx context.Context) (*AdminDashboard, error) {
	var overview DashboardOverview
	var err error

	if overview.TotalStudents, err = s.repo.User().CountByRole(ctx, models.RoleStudent); err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}
	if overview.TotalTeachers, err = s.repo.User().CountByRole(ctx, models.RoleTeacher); err != nil {
		return nil, fmt.Errorf("failed to count teachers: %w", err)
	}
	if overview.TotalClasses, err = s.repo.Class().Count(ctx, repositories.ClassFilters{}); err != nil {
		return nil, fmt.Errorf("failed to count classes: %w", err)
	}
	departments, err := s.repo.Department().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	overview.TotalDepartments = int64(len(departments))

	records, err := s.repo.Attendance().List(ctx, repositories.AttendanceFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	overview.AttendanceRate = OverallRate(records)

	classes, err := s.repo.Class().List(ctx, repositories.ClassFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	today, err := s.todaysClasses(ctx, classes)
	if err != nil {
		return nil, err
	}

	recent, err := s.recentRecords(ctx, classes)
	if err != nil {
		return nil, err
	}

	return &AdminDashboard{
		Overview:      overview,
		TodaysClasses: today,
		RecentRecords: recent,
	}, nil
}

func (s *dashboardService) teacherDashboard(ctx context.Context, teacher *models.User) (*TeacherDashboard, error) {
	classes, err := accessibleClasses(ctx, s.repo, teacher)
	if err != nil {
		return nil, err
	}
	records, err := s.classRecords(ctx, classes)
	if err != nil {
		return nil, err
	}
	today, err := s.todaysClasses(ctx, classes)
	if err != nil {
		return nil, err
	}
	responses, err := s.classes.toResponses(ctx, classes)
	if err != nil {
		return nil, err
	}

	dashboard := &TeacherDashboard{
		TotalClasses:  len(classes),
		TotalStudents: len(uniqueStudents(classes)),
		TodaysClasses: today,
		ClassRates:    make([]ClassRateEntry, 0, len(classes)),
		Classes:       responses,
	}
	rates := make([]int, 0, len(classes))
	for _, class := range classes {
		rate := ClassRate(records, class.ID)
		rates = append(rates, rate)
		dashboard.ClassRates = append(dashboard.ClassRates, ClassRateEntry{ClassID: class.ID, ClassName: class.Name, Rate: rate})
	}
	dashboard.AverageRate = meanRounded(rates)

	return dashboard, nil
}

func (s *dashboardService) studentDashboard(ctx context.Context, student *models.User) (*StudentDashboard, error) {
	classes, err := accessibleClasses(ctx, s.repo, student)
	if err != nil {
		return nil, err
	}
	records, err := s.classRecords(ctx, classes)
	if err != nil {
		return nil, err
	}
	today, err := s.todaysClasses(ctx, classes)
	if err != nil {
		return nil, err
	}

	dashboard := &StudentDashboard{
		TotalClasses:  len(classes),
		TodaysClasses: today,
		Classes:       make([]StudentClassProgress, 0, len(classes)),
	}
	percentages := make([]float64, 0, len(classes))
	for _, class := range classes {
		pct := AttendancePercentage(records, student.ID, class.ID)
		percentages = append(percentages, pct)
		dashboard.Classes = append(dashboard.Classes, StudentClassProgress{
			ClassID:    class.ID,
			ClassName:  class.Name,
			Percentage: pct,
			Standing:   Standing(pct),
		})
	}
	dashboard.OverallRate = meanRounded(percentages)
	dashboard.Status = StatusLabel(float64(dashboard.OverallRate))

	return dashboard, nil
}

// classRecords loads every record of the given classes
func (s *dashboardService) classRecords(ctx context.Context, classes []*models.Class) ([]*models.AttendanceRecord, error) {
	ids := make([]string, 0, len(classes))
	for _, class := range classes {
		ids = append(ids, class.ID)
	}
	records, err := s.repo.Attendance().List(ctx, repositories.AttendanceFilters{ClassIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

// todaysClasses keeps classes meeting today, with today's slot times
func (s *dashboardService) todaysClasses(ctx context.Context, classes []*models.Class) ([]TodayClass, error) {
	weekday := s.now().Weekday()

	var meeting []*models.Class
	for _, class := range classes {
		if class.MeetsOn(weekday) {
			meeting = append(meeting, class)
		}
	}
	responses, err := s.classes.toResponses(ctx, meeting)
	if err != nil {
		return nil, err
	}

	today := make([]TodayClass, 0, len(responses))
	for _, response := range responses {
		entry := TodayClass{
			ClassID:      response.ID,
			Name:         response.Name,
			TeacherName:  response.TeacherName,
			StudentCount: response.StudentCount,
		}
		if slot, ok := slotOn(response.Class, weekday); ok {
			entry.StartTime = slot.StartTime
			entry.EndTime = slot.EndTime
		}
		today = append(today, entry)
	}
	return today, nil
}

func (s *dashboardService) recentRecords(ctx context.Context, classes []*models.Class) ([]RecentRecord, error) {
	records, err := s.repo.Attendance().List(ctx, repositories.AttendanceFilters{
		Newest: true,
		Limit:  recentRecordLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent attendance: %w", err)
	}

	names := make(map[string]string, len(classes))
	for _, class := range classes {
		names[class.ID] = class.Name
	}

	recent := make([]RecentRecord, 0, len(records))
	for _, record := range records {
		present, late, _, _ := countStatuses(record)
		recent = append(recent, RecentRecord{
			RecordID:  record.ID,
			ClassID:   record.ClassID,
			ClassName: names[record.ClassID],
			Date:      record.Date,
			Present:   present + late,
			Total:     len(record.Attendees),
		})
	}
	return recent, nil
}

func slotOn(class *models.Class, day time.Weekday) (models.ScheduleSlot, bool) {
	for _, slot := range class.Schedule {
		if d, ok := models.ParseWeekday(slot.Day); ok && d == day {
			return slot, true
		}
	}
	return models.ScheduleSlot{}, false
}
