package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/attendance-service/internal/events"
	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

type attendanceService struct {
	serviceBase
}

func NewAttendanceService(base serviceBase) AttendanceService {
	return &attendanceService{serviceBase: base}
}

// GetSheet returns the stored record for (class, date) or a draft marking
// every enrolled student absent.
func (s *attendanceService) GetSheet(ctx context.Context, actor *models.User, classID, date string) (*AttendanceSheet, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if date == "" {
		date = s.today()
	}
	if err := checkDate("date", date); err != nil {
		return nil, err
	}

	class, err := loadAccessibleClass(ctx, s.repo, actor, classID)
	if err != nil {
		return nil, err
	}

	sheet := &AttendanceSheet{CanEdit: s.canEdit(actor, class, date)}

	record, err := s.repo.Attendance().GetByClassAndDate(ctx, classID, date)
	switch {
	case err == nil:
		sheet.Record = record
		sheet.Exists = true
	case repositories.IsNotFoundError(err):
		sheet.Record = draftRecord(class, date)
	default:
		return nil, fmt.Errorf("failed to load attendance record: %w", err)
	}

	if actor.Role == models.RoleStudent {
		sheet.Record = onlyStudent(sheet.Record, actor.ID)
		return sheet, nil
	}

	roster, err := s.repo.User().GetByIDs(ctx, class.Students)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	sortUsersByName(roster)
	sheet.Roster = roster

	return sheet, nil
}

// Mark stores the roster for (class, date). Enrolled students missing from
// the request are recorded absent.
func (s *attendanceService) Mark(ctx context.Context, actor *models.User, req *models.MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	class, err := s.repo.Class().GetByID(ctx, req.ClassID)
	if err != nil {
		return nil, translateRepoError(err, "class", req.ClassID)
	}
	if !canMarkClass(actor, class) {
		return nil, NewPermissionError(actor.ID, "attendance", "mark", "only administrators, management and the class teacher can mark attendance")
	}
	if req.Date != s.today() && actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: %s", ErrPastDateLocked, req.Date)
	}
	if errs := s.validator.GetBusinessValidator().ValidateRoster(class, req.Attendees); len(errs) > 0 {
		return nil, validationError(errs)
	}

	submitted := make(map[string]models.AttendanceEntry, len(req.Attendees))
	for _, entry := range req.Attendees {
		submitted[entry.StudentID] = entry
	}
	attendees := make([]models.AttendanceEntry, 0, len(class.Students))
	for _, studentID := range class.Students {
		entry, ok := submitted[studentID]
		if !ok {
			entry = models.AttendanceEntry{StudentID: studentID, Status: models.StatusAbsent}
		}
		attendees = append(attendees, entry)
	}

	record := &models.AttendanceRecord{
		ID:        uuid.NewString(),
		ClassID:   class.ID,
		Date:      req.Date,
		Attendees: attendees,
		MarkedBy:  actor.ID,
	}
	if err := s.repo.Attendance().Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save attendance: %w", err)
	}

	present, late, absent, excused := countStatuses(record)
	s.logger.InfoContext(ctx, "Attendance marked",
		"record_id", record.ID,
		"class_id", class.ID,
		"date", record.Date,
		"actor_id", actor.ID,
		"present", present,
		"late", late,
		"absent", absent,
		"excused", excused,
	)

	s.publish(ctx, events.EventAttendanceMarked, events.AttendanceMarkedData{
		RecordID:  record.ID,
		ClassID:   class.ID,
		ClassName: class.Name,
		Date:      record.Date,
		MarkedBy:  actor.ID,
		Counts:    events.AttendanceCounts{Present: present, Late: late, Absent: absent, Excused: excused},
		Record:    record,
	})
	s.notifyLowAttendance(ctx, class)

	return record, nil
}

// notifyLowAttendance publishes an event for every enrolled student under the threshold
func (s *attendanceService) notifyLowAttendance(ctx context.Context, class *models.Class) {
	records, err := s.repo.Attendance().List(ctx, repositories.AttendanceFilters{ClassID: &class.ID})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load records for low attendance check", "class_id", class.ID, "error", err)
		return
	}

	var names map[string]*models.User
	for _, studentID := range class.Students {
		pct := AttendancePercentage(records, studentID, class.ID)
		if pct >= s.config.LowAttendanceThreshold {
			continue
		}
		if names == nil {
			if names, err = s.usersByID(ctx, class.Students); err != nil {
				s.logger.WarnContext(ctx, "Failed to resolve student names", "class_id", class.ID, "error", err)
				names = map[string]*models.User{}
			}
		}

		data := events.LowAttendanceData{
			StudentID:  studentID,
			ClassID:    class.ID,
			ClassName:  class.Name,
			Percentage: pct,
			Threshold:  s.config.LowAttendanceThreshold,
		}
		if student, ok := names[studentID]; ok {
			data.StudentName = student.Name
		}
		s.publish(ctx, events.EventLowAttendance, data)
	}
}

func (s *attendanceService) ListByClass(ctx context.Context, actor *models.User, classID, from, to string) ([]*models.AttendanceRecord, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if err := checkDateRange(from, to); err != nil {
		return nil, err
	}
	if _, err := loadAccessibleClass(ctx, s.repo, actor, classID); err != nil {
		return nil, err
	}

	records, err := s.repo.Attendance().List(ctx, repositories.AttendanceFilters{
		ClassID:  &classID,
		DateFrom: from,
		DateTo:   to,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	if actor.Role == models.RoleStudent {
		for i, record := range records {
			records[i] = onlyStudent(record, actor.ID)
		}
	}
	return records, nil
}

func (s *attendanceService) GetRecord(ctx context.Context, actor *models.User, id string) (*models.AttendanceRecord, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	record, err := s.repo.Attendance().GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "attendance record", id)
	}
	if _, err := loadAccessibleClass(ctx, s.repo, actor, record.ClassID); err != nil {
		return nil, err
	}

	if actor.Role == models.RoleStudent {
		return onlyStudent(record, actor.ID), nil
	}
	return record, nil
}

// StudentView lists the student's status on every recorded date of the class; missing entries count as absent
func (s *attendanceService) StudentView(ctx context.Context, student *models.User, classID string) (*StudentAttendanceView, error) {
	if student == nil {
		return nil, ErrUnauthorized
	}
	class, err := s.repo.Class().GetByID(ctx, classID)
	if err != nil {
		return nil, translateRepoError(err, "class", classID)
	}
	if !class.HasStudent(student.ID) {
		return nil, NewPermissionError(student.ID, "class", "view", "not enrolled in this class")
	}

	records, err := s.repo.Attendance().List(ctx, repositories.AttendanceFilters{ClassID: &classID})
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	view := &StudentAttendanceView{
		ClassID:    class.ID,
		ClassName:  class.Name,
		Rows:       make([]StudentAttendanceRow, 0, len(records)),
		Total:      len(records),
		Percentage: AttendancePercentage(records, student.ID, class.ID),
	}
	for _, record := range records {
		row := StudentAttendanceRow{Date: record.Date, Status: models.StatusAbsent}
		if entry, ok := record.EntryFor(student.ID); ok {
			row.Status = entry.Status
			row.Remarks = entry.Remarks
		}
		view.Rows = append(view.Rows, row)

		switch row.Status {
		case models.StatusPresent:
			view.Present++
		case models.StatusLate:
			view.Late++
		case models.StatusAbsent:
			view.Absent++
		case models.StatusExcused:
			view.Excused++
		}
	}
	return view, nil
}

// Export renders one row per (date, student) of the class's records
func (s *attendanceService) Export(ctx context.Context, actor *models.User, req AttendanceExportRequest) (*ExportFile, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if actor.Role == models.RoleStudent {
		return nil, NewPermissionError(actor.ID, "attendance", "export", "students cannot export class attendance")
	}
	if _, err := normalizeExportFormat(req.Format); err != nil {
		return nil, err
	}

	records, err := s.ListByClass(ctx, actor, req.ClassID, req.From, req.To)
	if err != nil {
		return nil, err
	}
	class, err := s.repo.Class().GetByID(ctx, req.ClassID)
	if err != nil {
		return nil, translateRepoError(err, "class", req.ClassID)
	}

	var ids []string
	for _, record := range records {
		for _, entry := range record.Attendees {
			ids = append(ids, entry.StudentID)
		}
	}
	students, err := s.usersByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}

	t := table{
		sheet:  "Attendance",
		header: []string{"Date", "Student ID", "Student Name", "Status", "Remarks"},
	}
	for _, record := range records {
		for _, entry := range record.Attendees {
			code, name := entry.StudentID, ""
			if student, ok := students[entry.StudentID]; ok {
				name = student.Name
				if c := student.RoleCode(); c != "" {
					code = c
				}
			}
			t.rows = append(t.rows, []string{record.Date, code, name, string(entry.Status), entry.Remarks})
		}
	}

	s.logger.InfoContext(ctx, "Attendance exported", "class_id", class.ID, "format", req.Format, "rows", len(t.rows), "actor_id", actor.ID)
	return renderExport(t, exportName("attendance", class.Name, req.From, req.To), req.Format)
}

// canEdit applies the marking rules: class teacher or staff, today only unless admin
func (s *attendanceService) canEdit(actor *models.User, class *models.Class, date string) bool {
	if !canMarkClass(actor, class) {
		return false
	}
	return actor.Role == models.RoleAdmin || date == s.today()
}

func draftRecord(class *models.Class, date string) *models.AttendanceRecord {
	attendees := make([]models.AttendanceEntry, 0, len(class.Students))
	for _, studentID := range class.Students {
		attendees = append(attendees, models.AttendanceEntry{StudentID: studentID, Status: models.StatusAbsent})
	}
	return &models.AttendanceRecord{
		ClassID:   class.ID,
		Date:      date,
		Attendees: attendees,
	}
}

// onlyStudent hides classmates' entries from a student
func onlyStudent(record *models.AttendanceRecord, studentID string) *models.AttendanceRecord {
	redacted := *record
	redacted.Attendees = nil
	if entry, ok := record.EntryFor(studentID); ok {
		redacted.Attendees = []models.AttendanceEntry{entry}
	}
	return &redacted
}

func checkDate(field, date string) error {
	if _, err := models.ParseDate(date); err != nil {
		return fieldError(field, "must be a date in YYYY-MM-DD format", "iso_date")
	}
	return nil
}

func checkDateRange(from, to string) error {
	if from != "" {
		if err := checkDate("from", from); err != nil {
			return err
		}
	}
	if to != "" {
		if err := checkDate("to", to); err != nil {
			return err
		}
	}
	if from != "" && to != "" && from > to {
		return fieldError("to", "must not be before from", "gtefield")
	}
	return nil
}
