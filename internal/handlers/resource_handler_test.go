package handlers

import (
	"net/http"
	"testing"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/services"
)

func TestUserHandler_StudentDirectory(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, adminEmail)

	rec := s.do(t, http.MethodGet, "/api/v1/students?page=1&size=2", admin, nil)
	assertStatus(t, rec, http.StatusOK)
	list := decode[services.UserListResponse](t, rec)
	if list.Total != 3 || len(list.Users) != 2 || list.Size != 2 {
		t.Errorf("student list = total %d users %d size %d", list.Total, len(list.Users), list.Size)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/students/search?q=bob", admin, nil)
	assertStatus(t, rec, http.StatusOK)
	if found := decode[[]models.User](t, rec); len(found) != 1 || found[0].ID != "student2" {
		t.Errorf("search = %+v", found)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/students/search", admin, nil)
	assertStatus(t, rec, http.StatusBadRequest)

	rec = s.do(t, http.MethodPost, "/api/v1/students", admin, models.UserCreateRequest{
		Name:       "Dana Scott",
		Email:      "dana@example.com",
		Department: ptr("dept1"),
	})
	assertStatus(t, rec, http.StatusCreated)
	created := decode[models.User](t, rec)
	if created.Role != models.RoleStudent || created.StudentID == nil || *created.StudentID != "STU004" {
		t.Errorf("created = %+v", created)
	}

	rec = s.do(t, http.MethodPut, "/api/v1/students/"+created.ID, admin, models.UserUpdateRequest{Name: ptr("Dana K. Scott")})
	assertStatus(t, rec, http.StatusOK)
	if updated := decode[models.User](t, rec); updated.Name != "Dana K. Scott" {
		t.Errorf("updated name = %s", updated.Name)
	}

	rec = s.do(t, http.MethodDelete, "/api/v1/students/"+created.ID, admin, nil)
	assertStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/api/v1/students/"+created.ID, admin, nil)
	assertStatus(t, rec, http.StatusNotFound)
}

func TestUserHandler_TeacherConflicts(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, adminEmail)

	rec := s.do(t, http.MethodDelete, "/api/v1/teachers/teacher1", admin, nil)
	assertStatus(t, rec, http.StatusConflict)

	rec = s.do(t, http.MethodPost, "/api/v1/teachers", admin, models.UserCreateRequest{
		Name:  "Duplicate",
		Email: teacherEmail,
	})
	assertStatus(t, rec, http.StatusConflict)

	// teacher IDs are not part of the student directory
	rec = s.do(t, http.MethodGet, "/api/v1/students/teacher1", admin, nil)
	assertStatus(t, rec, http.StatusNotFound)
}

func TestDepartmentHandler_CRUD(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, adminEmail)

	rec := s.do(t, http.MethodGet, "/api/v1/departments", s.login(t, student1), nil)
	assertStatus(t, rec, http.StatusOK)
	if departments := decode[[]models.Department](t, rec); len(departments) != 2 {
		t.Errorf("departments = %d, want 2", len(departments))
	}

	rec = s.do(t, http.MethodPost, "/api/v1/departments", admin, models.DepartmentCreateRequest{Name: "Mathematics"})
	assertStatus(t, rec, http.StatusCreated)
	department := decode[models.Department](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/departments", admin, models.DepartmentCreateRequest{Name: "Mathematics"})
	assertStatus(t, rec, http.StatusConflict)

	rec = s.do(t, http.MethodPut, "/api/v1/departments/"+department.ID, admin, models.DepartmentUpdateRequest{Head: ptr("teacher2")})
	assertStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodDelete, "/api/v1/departments/"+department.ID, admin, nil)
	assertStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/api/v1/departments/"+department.ID, admin, nil)
	assertStatus(t, rec, http.StatusNotFound)
}

func TestClassHandler_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	mgmt := s.login(t, mgmtEmail)

	rec := s.do(t, http.MethodPost, "/api/v1/classes", mgmt, models.ClassCreateRequest{
		Name:       "Algorithms",
		TeacherID:  "teacher1",
		Department: "dept1",
		Schedule:   []models.ScheduleSlot{{Day: "Monday", StartTime: "11:00", EndTime: "12:30"}},
		Students:   []string{"student1"},
	})
	assertStatus(t, rec, http.StatusCreated)
	class := decode[services.ClassResponse](t, rec)
	if class.TeacherName != "John Smith" || class.StudentCount != 1 {
		t.Errorf("created class = %+v", class)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/classes/"+class.ID+"/students", mgmt, models.EnrollStudentsRequest{StudentIDs: []string{"student2"}})
	assertStatus(t, rec, http.StatusOK)
	if enrolled := decode[services.ClassResponse](t, rec); enrolled.StudentCount != 2 {
		t.Errorf("after enroll = %d students", enrolled.StudentCount)
	}

	rec = s.do(t, http.MethodDelete, "/api/v1/classes/"+class.ID+"/students/student1", mgmt, nil)
	assertStatus(t, rec, http.StatusOK)
	if remaining := decode[services.ClassResponse](t, rec); remaining.StudentCount != 1 {
		t.Errorf("after unenroll = %d students", remaining.StudentCount)
	}

	teacher := s.login(t, teacherEmail)
	rec = s.do(t, http.MethodGet, "/api/v1/classes/today", teacher, nil)
	assertStatus(t, rec, http.StatusOK)
	if today := decode[[]services.ClassResponse](t, rec); len(today) != 2 {
		t.Errorf("teacher's classes today = %d, want 2", len(today))
	}

	rec = s.do(t, http.MethodPut, "/api/v1/classes/"+class.ID, teacher, models.ClassUpdateRequest{Name: ptr("Renamed")})
	assertStatus(t, rec, http.StatusForbidden)

	rec = s.do(t, http.MethodDelete, "/api/v1/classes/"+class.ID, mgmt, nil)
	assertStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/api/v1/classes/"+class.ID, mgmt, nil)
	assertStatus(t, rec, http.StatusNotFound)
}

func TestClassHandler_StudentVisibility(t *testing.T) {
	s := newTestServer(t)
	student := s.login(t, student1)

	rec := s.do(t, http.MethodGet, "/api/v1/classes", student, nil)
	assertStatus(t, rec, http.StatusOK)
	if list := decode[services.ClassListResponse](t, rec); list.Total != 2 {
		t.Errorf("student classes = %d, want 2", list.Total)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/classes/class3", student, nil)
	assertStatus(t, rec, http.StatusForbidden)
}

func TestReportHandler(t *testing.T) {
	s := newTestServer(t)
	teacher := s.login(t, teacherEmail)

	rec := s.do(t, http.MethodGet, "/api/v1/reports/classes/class1?timeframe=all", teacher, nil)
	assertStatus(t, rec, http.StatusOK)
	if report := decode[services.ClassReport](t, rec); report.Rate != 75 || len(report.Students) != 2 {
		t.Errorf("class report = %+v", report)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/reports/classes/class1?timeframe=decade", teacher, nil)
	assertStatus(t, rec, http.StatusBadRequest)

	rec = s.do(t, http.MethodGet, "/api/v1/reports/classes/class1/export?format=csv", teacher, nil)
	assertStatus(t, rec, http.StatusOK)
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="report_introduction-to-programming_all.csv"` {
		t.Errorf("Content-Disposition = %s", cd)
	}

	student := s.login(t, student2)
	rec = s.do(t, http.MethodGet, "/api/v1/reports/me", student, nil)
	assertStatus(t, rec, http.StatusOK)
	if report := decode[services.StudentReport](t, rec); report.StudentID != "student2" || report.Overall != 75 {
		t.Errorf("my report = %+v", report)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/reports/students/student1", student, nil)
	assertStatus(t, rec, http.StatusForbidden)

	rec = s.do(t, http.MethodGet, "/api/v1/reports/departments/dept1", s.login(t, mgmtEmail), nil)
	assertStatus(t, rec, http.StatusOK)
	if report := decode[services.DepartmentReport](t, rec); report.AverageAttendance != 88 {
		t.Errorf("department report = %+v", report)
	}
}

func TestDashboardHandler(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		email string
		role  models.UserRole
	}{
		{email: adminEmail, role: models.RoleAdmin},
		{email: teacherEmail, role: models.RoleTeacher},
		{email: student2, role: models.RoleStudent},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/v1/dashboard", s.login(t, tt.email), nil)
			assertStatus(t, rec, http.StatusOK)

			resp := decode[services.DashboardResponse](t, rec)
			if resp.Role != tt.role {
				t.Errorf("dashboard role = %s, want %s", resp.Role, tt.role)
			}
			switch tt.role {
			case models.RoleAdmin:
				if resp.Admin == nil || resp.Admin.Overview.TotalClasses != 3 {
					t.Errorf("admin dashboard = %+v", resp.Admin)
				}
			case models.RoleTeacher:
				if resp.Teacher == nil || resp.Teacher.TotalClasses != 2 {
					t.Errorf("teacher dashboard = %+v", resp.Teacher)
				}
			case models.RoleStudent:
				if resp.Student == nil || resp.Student.OverallRate != 75 {
					t.Errorf("student dashboard = %+v", resp.Student)
				}
			}
		})
	}
}

func TestSettingsHandler(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, student1)

	rec := s.do(t, http.MethodPut, "/api/v1/settings/profile", token, models.ProfileUpdateRequest{Name: ptr("Alice J. Johnson")})
	assertStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/api/v1/settings/profile", token, nil)
	assertStatus(t, rec, http.StatusOK)
	if profile := decode[models.User](t, rec); profile.Name != "Alice J. Johnson" {
		t.Errorf("profile name = %s", profile.Name)
	}

	rec = s.do(t, http.MethodPut, "/api/v1/settings/profile", token, models.ProfileUpdateRequest{
		CurrentPassword: "student123",
		NewPassword:     "newpass1",
		ConfirmPassword: "newpass2",
	})
	assertStatus(t, rec, http.StatusBadRequest)

	rec = s.do(t, http.MethodPut, "/api/v1/settings/notifications", token, models.NotificationSettingsRequest{SystemUpdates: ptr(false)})
	assertStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/api/v1/settings/notifications", token, nil)
	assertStatus(t, rec, http.StatusOK)
	if settings := decode[models.NotificationSettings](t, rec); settings.SystemUpdates || !settings.EmailNotifications {
		t.Errorf("notification settings = %+v", settings)
	}
}

func ptr[T any](v T) *T {
	return &v
}
