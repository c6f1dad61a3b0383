package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
	"github.com/SAP-F-2025/attendance-service/internal/repositories/local"
)

// DemoAccounts are offered on the login screen in demo mode
var DemoAccounts = []models.QuickLoginOption{
	{Role: models.RoleAdmin, Label: "Login as Admin", Email: "admin@example.com", Password: "admin123"},
	{Role: models.RoleManagement, Label: "Login as Management", Email: "management@example.com", Password: "mgmt123"},
	{Role: models.RoleTeacher, Label: "Login as Teacher", Email: "john.smith@example.com", Password: "teacher123"},
}

type demoUser struct {
	user     models.User
	password string
}

func demoUsers() []demoUser {
	person := func(id, name, email string, role models.UserRole, password, department, code string) demoUser {
		u := models.User{
			ID:           id,
			Name:         name,
			Email:        email,
			Role:         role,
			ProfileImage: ptr(models.DefaultProfileImage(name, role)),
		}
		if department != "" {
			u.Department = ptr(department)
		}
		switch role {
		case models.RoleStudent:
			u.StudentID = ptr(code)
		case models.RoleTeacher:
			u.TeacherID = ptr(code)
		}
		return demoUser{user: u, password: password}
	}

	return []demoUser{
		person("admin1", "Admin User", "admin@example.com", models.RoleAdmin, "admin123", "", ""),
		person("mgmt1", "Management User", "management@example.com", models.RoleManagement, "mgmt123", "dept1", ""),
		person("teacher1", "John Smith", "john.smith@example.com", models.RoleTeacher, "teacher123", "dept1", "TCH001"),
		person("teacher2", "Emma Davis", "emma.davis@example.com", models.RoleTeacher, "teacher123", "dept2", "TCH002"),
		person("student1", "Alice Johnson", "alice.j@example.com", models.RoleStudent, "student123", "dept1", "STU001"),
		person("student2", "Bob Williams", "bob.w@example.com", models.RoleStudent, "student123", "dept1", "STU002"),
		person("student3", "Charlie Brown", "charlie.b@example.com", models.RoleStudent, "student123", "dept2", "STU003"),
	}
}

func demoDepartments() []models.Department {
	return []models.Department{
		{ID: "dept1", Name: "Computer Science", Head: "teacher1"},
		{ID: "dept2", Name: "Electrical Engineering", Head: "teacher2"},
	}
}

func demoClasses() []models.Class {
	slots := func(first, second, start, end string) []models.ScheduleSlot {
		return []models.ScheduleSlot{
			{Day: first, StartTime: start, EndTime: end},
			{Day: second, StartTime: start, EndTime: end},
		}
	}

	return []models.Class{
		{
			ID:         "class1",
			Name:       "Introduction to Programming",
			TeacherID:  "teacher1",
			Department: "dept1",
			Schedule:   slots("Monday", "Wednesday", "09:00", "11:00"),
			Students:   []string{"student1", "student2"},
		},
		{
			ID:         "class2",
			Name:       "Data Structures",
			TeacherID:  "teacher1",
			Department: "dept1",
			Schedule:   slots("Tuesday", "Thursday", "13:00", "15:00"),
			Students:   []string{"student1", "student3"},
		},
		{
			ID:         "class3",
			Name:       "Circuit Theory",
			TeacherID:  "teacher2",
			Department: "dept2",
			Schedule:   slots("Monday", "Friday", "14:00", "16:00"),
			Students:   []string{"student2", "student3"},
		},
	}
}

func demoAttendance() []models.AttendanceRecord {
	entry := func(studentID string, status models.AttendanceStatus, remarks string) models.AttendanceEntry {
		return models.AttendanceEntry{StudentID: studentID, Status: status, Remarks: remarks}
	}

	return []models.AttendanceRecord{
		{ID: "att1", ClassID: "class1", Date: "2023-04-10", MarkedBy: "teacher1", Attendees: []models.AttendanceEntry{
			entry("student1", models.StatusPresent, ""),
			entry("student2", models.StatusPresent, ""),
		}},
		{ID: "att2", ClassID: "class1", Date: "2023-04-12", MarkedBy: "teacher1", Attendees: []models.AttendanceEntry{
			entry("student1", models.StatusPresent, ""),
			entry("student2", models.StatusAbsent, "Sick leave"),
		}},
		{ID: "att3", ClassID: "class2", Date: "2023-04-11", MarkedBy: "teacher1", Attendees: []models.AttendanceEntry{
			entry("student1", models.StatusLate, "10 minutes late"),
			entry("student3", models.StatusPresent, ""),
		}},
		{ID: "att4", ClassID: "class3", Date: "2023-04-10", MarkedBy: "teacher2", Attendees: []models.AttendanceEntry{
			entry("student2", models.StatusPresent, ""),
			entry("student3", models.StatusPresent, ""),
		}},
	}
}

// PasswordHasher hashes a demo password before it is stored
type PasswordHasher func(password string) (string, error)

type options struct {
	hash PasswordHasher
}

type Option func(*options)

// WithPasswordHasher replaces the bcrypt hasher, e.g. with a cheaper cost in tests
func WithPasswordHasher(hash PasswordHasher) Option {
	return func(o *options) {
		o.hash = hash
	}
}

// Load stores the demo dataset. Entities that already exist are left untouched,
// so running it on every start is safe.
func Load(ctx context.Context, repo repositories.Repository, logger *slog.Logger, opts ...Option) error {
	o := options{hash: local.HashPassword}
	for _, opt := range opts {
		opt(&o)
	}

	var created int
	err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		n, err := loadUsers(ctx, tx, o.hash)
		if err != nil {
			return err
		}
		created += n

		for _, department := range demoDepartments() {
			d := department
			ok, err := createIfMissing(ctx, func() error { _, err := tx.Department().GetByID(ctx, d.ID); return err },
				func() error { return tx.Department().Create(ctx, &d) })
			if err != nil {
				return fmt.Errorf("failed to seed department %s: %w", d.ID, err)
			}
			if ok {
				created++
			}
		}

		for _, class := range demoClasses() {
			c := class
			ok, err := createIfMissing(ctx, func() error { _, err := tx.Class().GetByID(ctx, c.ID); return err },
				func() error { return tx.Class().Create(ctx, &c) })
			if err != nil {
				return fmt.Errorf("failed to seed class %s: %w", c.ID, err)
			}
			if ok {
				created++
			}
		}

		for _, record := range demoAttendance() {
			r := record
			ok, err := createIfMissing(ctx, func() error { _, err := tx.Attendance().GetByClassAndDate(ctx, r.ClassID, r.Date); return err },
				func() error { return tx.Attendance().Upsert(ctx, &r) })
			if err != nil {
				return fmt.Errorf("failed to seed attendance %s: %w", r.ID, err)
			}
			if ok {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Demo data loaded", "created", created)
	return nil
}

func loadUsers(ctx context.Context, repo repositories.Repository, hash PasswordHasher) (int, error) {
	var created int
	for _, demo := range demoUsers() {
		u := demo.user
		_, err := repo.User().GetByID(ctx, u.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return created, fmt.Errorf("failed to look up user %s: %w", u.ID, err)
		}

		hashed, err := hash(demo.password)
		if err != nil {
			return created, err
		}
		u.PasswordHash = hashed
		if err := repo.User().Create(ctx, &u); err != nil {
			return created, fmt.Errorf("failed to seed user %s: %w", u.ID, err)
		}
		created++
	}
	return created, nil
}

// createIfMissing runs create when lookup reports ErrNotFound
func createIfMissing(ctx context.Context, lookup, create func() error) (bool, error) {
	err := lookup()
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return false, err
	}
	if err := create(); err != nil {
		return false, err
	}
	return true, nil
}

func ptr(s string) *string {
	return &s
}
