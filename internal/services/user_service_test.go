package services

import (
	"slices"
	"testing"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

func userIDs(users []*models.User) []string {
	ids := make([]string, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	slices.Sort(ids)
	return ids
}

func TestUserService_List(t *testing.T) {
	f := newFixture(t)
	users := f.manager.User()

	tests := []struct {
		name    string
		actorID string
		role    models.UserRole
		req     UserListRequest
		want    []string
		wantErr error
	}{
		{name: "admin sees every student", actorID: "admin1", role: models.RoleStudent, want: []string{"student1", "student2", "student3"}},
		{name: "department filter", actorID: "mgmt1", role: models.RoleStudent, req: UserListRequest{Department: ptr("dept2")}, want: []string{"student3"}},
		{name: "query by code", actorID: "admin1", role: models.RoleStudent, req: UserListRequest{Query: "stu002"}, want: []string{"student2"}},
		{name: "teacher sees own students", actorID: "teacher2", role: models.RoleStudent, want: []string{"student2", "student3"}},
		{name: "management sees teachers", actorID: "mgmt1", role: models.RoleTeacher, want: []string{"teacher1", "teacher2"}},
		{name: "teacher cannot list teachers", actorID: "teacher1", role: models.RoleTeacher, wantErr: ErrForbidden},
		{name: "student cannot list students", actorID: "student1", role: models.RoleStudent, wantErr: ErrForbidden},
		{name: "admins are not a directory", actorID: "admin1", role: models.RoleAdmin, wantErr: ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := users.List(f.ctx, f.user(t, tt.actorID), tt.role, tt.req)
			if tt.wantErr != nil {
				assertErrorIs(t, err, tt.wantErr)
				return
			}
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got := userIDs(resp.Users); !slices.Equal(got, tt.want) {
				t.Errorf("List() = %v, want %v", got, tt.want)
			}
			if resp.Total != int64(len(tt.want)) || resp.Page != 1 || resp.Size != 20 {
				t.Errorf("List() paging = total %d page %d size %d", resp.Total, resp.Page, resp.Size)
			}
		})
	}
}

func TestUserService_ListPaging(t *testing.T) {
	f := newFixture(t)

	resp, err := f.manager.User().List(f.ctx, f.user(t, "admin1"), models.RoleStudent, UserListRequest{Page: 2, Size: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if resp.Total != 3 || len(resp.Users) != 1 || resp.Page != 2 || resp.Size != 2 {
		t.Errorf("List() = total %d, %d users, page %d, size %d", resp.Total, len(resp.Users), resp.Page, resp.Size)
	}
}

func TestUserService_Search(t *testing.T) {
	f := newFixture(t)

	got, err := f.manager.User().Search(f.ctx, f.user(t, "teacher1"), models.RoleStudent, "charlie")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if ids := userIDs(got); !slices.Equal(ids, []string{"student3"}) {
		t.Errorf("Search() = %v", ids)
	}

	got, err = f.manager.User().Search(f.ctx, f.user(t, "teacher2"), models.RoleStudent, "alice")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Search() outside own classes = %v", userIDs(got))
	}
}

func TestUserService_Get(t *testing.T) {
	f := newFixture(t)
	users := f.manager.User()

	tests := []struct {
		name    string
		actorID string
		role    models.UserRole
		id      string
		wantErr error
	}{
		{name: "self", actorID: "student1", role: models.RoleStudent, id: "student1"},
		{name: "teacher of student", actorID: "teacher1", role: models.RoleStudent, id: "student3"},
		{name: "teacher not teaching student", actorID: "teacher2", role: models.RoleStudent, id: "student1", wantErr: ErrForbidden},
		{name: "student viewing classmate", actorID: "student1", role: models.RoleStudent, id: "student2", wantErr: ErrForbidden},
		{name: "wrong directory", actorID: "admin1", role: models.RoleTeacher, id: "student1", wantErr: ErrNotFound},
		{name: "missing", actorID: "admin1", role: models.RoleStudent, id: "nobody", wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := users.Get(f.ctx, f.user(t, tt.actorID), tt.role, tt.id)
			if tt.wantErr != nil {
				assertErrorIs(t, err, tt.wantErr)
				return
			}
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if user.ID != tt.id {
				t.Errorf("Get() = %s, want %s", user.ID, tt.id)
			}
		})
	}
}

func TestUserService_Create(t *testing.T) {
	f := newFixture(t)
	users := f.manager.User()
	mgmt := f.user(t, "mgmt1")

	student, err := users.Create(f.ctx, mgmt, models.RoleStudent, &models.UserCreateRequest{
		Name:       "Dana Lee",
		Email:      "dana.lee@example.com",
		Department: ptr("dept2"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if student.Role != models.RoleStudent || student.RoleCode() != "STU004" {
		t.Errorf("Create() = role %s code %s, want student STU004", student.Role, student.RoleCode())
	}
	if _, err := f.repo.User().GetByEmail(f.ctx, "dana.lee@example.com"); err != nil {
		t.Errorf("created user not stored: %v", err)
	}

	admin := f.user(t, "admin1")
	teacher, err := users.Create(f.ctx, admin, models.RoleTeacher, &models.UserCreateRequest{
		Name:     "Frank Moore",
		Email:    "frank.moore@example.com",
		Password: "teacher123",
		Code:     ptr("tch050"),
	})
	if err != nil {
		t.Fatalf("Create() teacher error = %v", err)
	}
	if teacher.RoleCode() != "TCH050" {
		t.Errorf("teacher code = %s, want TCH050", teacher.RoleCode())
	}
}

func TestUserService_CreateRejects(t *testing.T) {
	f := newFixture(t)
	users := f.manager.User()

	tests := []struct {
		name    string
		actorID string
		role    models.UserRole
		req     *models.UserCreateRequest
		want    error
	}{
		{name: "management cannot add teachers", actorID: "mgmt1", role: models.RoleTeacher, req: &models.UserCreateRequest{Name: "New Teacher", Email: "t@example.com"}, want: ErrForbidden},
		{name: "teacher cannot add students", actorID: "teacher1", role: models.RoleStudent, req: &models.UserCreateRequest{Name: "New Student", Email: "s@example.com"}, want: ErrForbidden},
		{name: "duplicate email", actorID: "admin1", role: models.RoleStudent, req: &models.UserCreateRequest{Name: "Alice Again", Email: "alice.j@example.com"}, want: ErrConflict},
		{name: "duplicate code", actorID: "admin1", role: models.RoleStudent, req: &models.UserCreateRequest{Name: "New Student", Email: "s@example.com", Code: ptr("STU001")}, want: ErrConflict},
		{name: "unknown department", actorID: "admin1", role: models.RoleStudent, req: &models.UserCreateRequest{Name: "New Student", Email: "s@example.com", Department: ptr("dept9")}, want: ErrValidationFailed},
		{name: "missing name", actorID: "admin1", role: models.RoleStudent, req: &models.UserCreateRequest{Email: "s@example.com"}, want: ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.Create(f.ctx, f.user(t, tt.actorID), tt.role, tt.req)
			assertErrorIs(t, err, tt.want)
		})
	}
}

func TestUserService_Update(t *testing.T) {
	f := newFixture(t)
	users := f.manager.User()
	admin := f.user(t, "admin1")

	updated, err := users.Update(f.ctx, admin, models.RoleStudent, "student1", &models.UserUpdateRequest{
		Name:       ptr("Alice Cooper"),
		Department: ptr(""),
		Code:       ptr("STU099"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "Alice Cooper" || updated.Department != nil || updated.RoleCode() != "STU099" {
		t.Errorf("Update() = %+v", updated)
	}

	_, err = users.Update(f.ctx, admin, models.RoleStudent, "student1", &models.UserUpdateRequest{Email: ptr("bob.w@example.com")})
	assertErrorIs(t, err, ErrConflict)

	_, err = users.Update(f.ctx, f.user(t, "teacher1"), models.RoleStudent, "student1", &models.UserUpdateRequest{Name: ptr("Nope")})
	assertErrorIs(t, err, ErrForbidden)
}

func TestUserService_Delete(t *testing.T) {
	f := newFixture(t)
	users := f.manager.User()
	admin := f.user(t, "admin1")

	assertErrorIs(t, users.Delete(f.ctx, admin, models.RoleTeacher, "teacher1"), ErrConflict)
	assertErrorIs(t, users.Delete(f.ctx, f.user(t, "mgmt1"), models.RoleTeacher, "teacher1"), ErrForbidden)
	assertErrorIs(t, users.Delete(f.ctx, admin, models.RoleStudent, "nobody"), ErrNotFound)

	if err := users.Delete(f.ctx, admin, models.RoleStudent, "student1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := f.repo.User().GetByID(f.ctx, "student1"); !repositories.IsNotFoundError(err) {
		t.Errorf("student1 still stored: %v", err)
	}
	for _, id := range []string{"class1", "class2"} {
		class, err := f.repo.Class().GetByID(f.ctx, id)
		if err != nil {
			t.Fatalf("GetByID(%s) error = %v", id, err)
		}
		if class.HasStudent("student1") {
			t.Errorf("%s still lists student1", id)
		}
	}
}

func TestUserService_DeleteTeacherWithoutClasses(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin1")

	teacher, err := f.manager.User().Create(f.ctx, admin, models.RoleTeacher, &models.UserCreateRequest{
		Name:     "Frank Moore",
		Email:    "frank.moore@example.com",
		Password: "teacher123",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if teacher.RoleCode() != "TCH003" {
		t.Errorf("generated code = %s, want TCH003", teacher.RoleCode())
	}
	if err := f.manager.User().Delete(f.ctx, admin, models.RoleTeacher, teacher.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	assertErrorIs(t, f.manager.User().Delete(f.ctx, admin, models.RoleAdmin, "admin1"), ErrValidationFailed)
}

func TestUserService_DeleteDepartmentHead(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin1")
	users := f.manager.User()

	teacher, err := users.Create(f.ctx, admin, models.RoleTeacher, &models.UserCreateRequest{
		Name:     "Grace Hall",
		Email:    "grace.hall@example.com",
		Password: "teacher123",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.manager.Department().Update(f.ctx, admin, "dept1", &models.DepartmentUpdateRequest{Head: ptr(teacher.ID)}); err != nil {
		t.Fatalf("Department().Update() error = %v", err)
	}

	assertErrorIs(t, users.Delete(f.ctx, admin, models.RoleTeacher, teacher.ID), ErrConflict)
	if _, err := f.repo.User().GetByID(f.ctx, teacher.ID); err != nil {
		t.Errorf("department head was removed: %v", err)
	}

	if _, err := f.manager.Department().Update(f.ctx, admin, "dept1", &models.DepartmentUpdateRequest{Head: ptr("teacher1")}); err != nil {
		t.Fatalf("Department().Update() error = %v", err)
	}
	if err := users.Delete(f.ctx, admin, models.RoleTeacher, teacher.ID); err != nil {
		t.Fatalf("Delete() after head change error = %v", err)
	}
}
