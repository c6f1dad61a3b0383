package services

import (
	"errors"
	"reflect"
	"testing"

	"github.com/SAP-F-2025/attendance-service/internal/models"
)

func TestNavigationFor(t *testing.T) {
	tests := []struct {
		role models.UserRole
		want []string
	}{
		{role: models.RoleAdmin, want: []string{"dashboard", "students", "teachers", "classes", "attendance", "reports", "settings"}},
		{role: models.RoleManagement, want: []string{"dashboard", "students", "teachers", "classes", "attendance", "reports", "settings"}},
		{role: models.RoleTeacher, want: []string{"dashboard", "students", "classes", "attendance", "reports", "settings"}},
		{role: models.RoleStudent, want: []string{"dashboard", "attendance", "reports", "settings"}},
		{role: models.UserRole("guest"), want: []string{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			items := NavigationFor(tt.role)
			got := make([]string, 0, len(items))
			for _, item := range items {
				got = append(got, item.Key)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NavigationFor(%s) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestCanViewAndManage(t *testing.T) {
	tests := []struct {
		role     models.UserRole
		resource Resource
		view     bool
		manage   bool
	}{
		{role: models.RoleAdmin, resource: ResourceTeachers, view: true, manage: true},
		{role: models.RoleManagement, resource: ResourceTeachers, view: true, manage: false},
		{role: models.RoleManagement, resource: ResourceStudents, view: true, manage: true},
		{role: models.RoleTeacher, resource: ResourceStudents, view: true, manage: false},
		{role: models.RoleTeacher, resource: ResourceTeachers, view: false, manage: false},
		{role: models.RoleTeacher, resource: ResourceClasses, view: true, manage: false},
		{role: models.RoleStudent, resource: ResourceClasses, view: false, manage: false},
		{role: models.RoleStudent, resource: ResourceDepartments, view: true, manage: false},
		{role: models.RoleManagement, resource: ResourceDepartments, view: true, manage: false},
		{role: models.RoleAdmin, resource: ResourceDepartments, view: true, manage: true},
	}
	for _, tt := range tests {
		if got := CanView(tt.role, tt.resource); got != tt.view {
			t.Errorf("CanView(%s, %s) = %v, want %v", tt.role, tt.resource, got, tt.view)
		}
		if got := CanManage(tt.role, tt.resource); got != tt.manage {
			t.Errorf("CanManage(%s, %s) = %v, want %v", tt.role, tt.resource, got, tt.manage)
		}
	}
}

func TestCanAccessClass(t *testing.T) {
	class := &models.Class{ID: "c1", TeacherID: "t1", Students: []string{"s1"}}

	tests := []struct {
		name   string
		actor  *models.User
		access bool
		mark   bool
	}{
		{name: "admin", actor: &models.User{ID: "a", Role: models.RoleAdmin}, access: true, mark: true},
		{name: "management", actor: &models.User{ID: "m", Role: models.RoleManagement}, access: true, mark: true},
		{name: "own teacher", actor: &models.User{ID: "t1", Role: models.RoleTeacher}, access: true, mark: true},
		{name: "other teacher", actor: &models.User{ID: "t2", Role: models.RoleTeacher}},
		{name: "enrolled student", actor: &models.User{ID: "s1", Role: models.RoleStudent}, access: true},
		{name: "other student", actor: &models.User{ID: "s2", Role: models.RoleStudent}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canAccessClass(tt.actor, class); got != tt.access {
				t.Errorf("canAccessClass() = %v, want %v", got, tt.access)
			}
			if got := canMarkClass(tt.actor, class); got != tt.mark {
				t.Errorf("canMarkClass() = %v, want %v", got, tt.mark)
			}
		})
	}
}

func TestPermissionErrorUnwrapsToForbidden(t *testing.T) {
	err := NewPermissionError("u1", "class", "view", "not yours")
	assertErrorIs(t, err, ErrForbidden)

	var permErr *PermissionError
	if !errors.As(err, &permErr) || permErr.Resource != "class" {
		t.Errorf("errors.As() = %+v", permErr)
	}
}
