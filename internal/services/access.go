package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

// Resource names a permission-checked entity
type Resource string

const (
	ResourceStudents    Resource = "students"
	ResourceTeachers    Resource = "teachers"
	ResourceClasses     Resource = "classes"
	ResourceDepartments Resource = "departments"
)

type navigationEntry struct {
	item  models.NavigationItem
	roles []models.UserRole
}

var navigation = []navigationEntry{
	{item: models.NavigationItem{Key: "dashboard", Title: "Dashboard", Path: "/dashboard"}, roles: models.AllRoles},
	{item: models.NavigationItem{Key: "students", Title: "Students", Path: "/students"}, roles: []models.UserRole{models.RoleAdmin, models.RoleManagement, models.RoleTeacher}},
	{item: models.NavigationItem{Key: "teachers", Title: "Teachers", Path: "/teachers"}, roles: []models.UserRole{models.RoleAdmin, models.RoleManagement}},
	{item: models.NavigationItem{Key: "classes", Title: "Classes", Path: "/classes"}, roles: []models.UserRole{models.RoleAdmin, models.RoleManagement, models.RoleTeacher}},
	{item: models.NavigationItem{Key: "attendance", Title: "Attendance", Path: "/attendance"}, roles: models.AllRoles},
	{item: models.NavigationItem{Key: "reports", Title: "Reports", Path: "/reports"}, roles: models.AllRoles},
	{item: models.NavigationItem{Key: "settings", Title: "Settings", Path: "/settings"}, roles: models.AllRoles},
}

// NavigationFor returns the sidebar entries visible to role, in menu order
func NavigationFor(role models.UserRole) []models.NavigationItem {
	items := make([]models.NavigationItem, 0, len(navigation))
	for _, entry := range navigation {
		if slices.Contains(entry.roles, role) {
			items = append(items, entry.item)
		}
	}
	return items
}

// CanView reports whether role may open the listing of resource
func CanView(role models.UserRole, resource Resource) bool {
	for _, entry := range navigation {
		if entry.item.Key == string(resource) {
			return slices.Contains(entry.roles, role)
		}
	}
	return resource == ResourceDepartments
}

// CanManage reports whether role may create, update or delete resource
func CanManage(role models.UserRole, resource Resource) bool {
	switch resource {
	case ResourceStudents, ResourceClasses:
		return role.IsStaff()
	case ResourceTeachers, ResourceDepartments:
		return role == models.RoleAdmin
	}
	return false
}

func requireManage(actor *models.User, resource Resource, action string) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if !CanManage(actor.Role, resource) {
		return NewPermissionError(actor.ID, string(resource), action, fmt.Sprintf("role %s cannot manage %s", actor.Role, resource))
	}
	return nil
}

func requireView(actor *models.User, resource Resource) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if !CanView(actor.Role, resource) {
		return NewPermissionError(actor.ID, string(resource), "view", fmt.Sprintf("role %s cannot view %s", actor.Role, resource))
	}
	return nil
}

// resourceForRole maps a user directory role onto its resource
func resourceForRole(role models.UserRole) (Resource, error) {
	switch role {
	case models.RoleStudent:
		return ResourceStudents, nil
	case models.RoleTeacher:
		return ResourceTeachers, nil
	}
	return "", fieldError("role", "must be student or teacher", "oneof")
}

// accessibleClasses lists the classes actor may see: enrolled for students,
// taught for teachers, every class for staff.
func accessibleClasses(ctx context.Context, repo repositories.Repository, actor *models.User) ([]*models.Class, error) {
	var filters repositories.ClassFilters
	switch actor.Role {
	case models.RoleStudent:
		filters.StudentID = &actor.ID
	case models.RoleTeacher:
		filters.TeacherID = &actor.ID
	case models.RoleAdmin, models.RoleManagement:
	default:
		return nil, nil
	}

	classes, err := repo.Class().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	return classes, nil
}

// canAccessClass reports whether actor may see class
func canAccessClass(actor *models.User, class *models.Class) bool {
	switch actor.Role {
	case models.RoleAdmin, models.RoleManagement:
		return true
	case models.RoleTeacher:
		return class.TeacherID == actor.ID
	case models.RoleStudent:
		return class.HasStudent(actor.ID)
	}
	return false
}

// canMarkClass reports whether actor may record attendance for class
func canMarkClass(actor *models.User, class *models.Class) bool {
	return actor.Role.IsStaff() || (actor.Role == models.RoleTeacher && class.TeacherID == actor.ID)
}

// loadAccessibleClass fetches a class, hiding ones actor may not see
func loadAccessibleClass(ctx context.Context, repo repositories.Repository, actor *models.User, classID string) (*models.Class, error) {
	class, err := repo.Class().GetByID(ctx, classID)
	if err != nil {
		return nil, translateRepoError(err, "class", classID)
	}
	if !canAccessClass(actor, class) {
		return nil, NewPermissionError(actor.ID, "class", "view", "class is not visible to this user")
	}
	return class, nil
}
