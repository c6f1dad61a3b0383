package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

// Prefixes of generated student and teacher numbers
var codePrefixes = map[models.UserRole]string{
	models.RoleStudent: "STU",
	models.RoleTeacher: "TCH",
}

type userService struct {
	serviceBase
	identity repositories.IdentityProvider
}

func NewUserService(base serviceBase, identity repositories.IdentityProvider) UserService {
	return &userService{
		serviceBase: base,
		identity:    identity,
	}
}

// ===== QUERIES =====

func (s *userService) List(ctx context.Context, actor *models.User, role models.UserRole, req UserListRequest) (*UserListResponse, error) {
	limit, offset, page := s.pageBounds(req.Page, req.Size)

	filters, err := s.directoryFilters(ctx, actor, role)
	if err != nil {
		return nil, err
	}
	filters.Department = req.Department
	filters.Limit = limit
	filters.Offset = offset

	users, total, err := s.repo.User().Search(ctx, strings.TrimSpace(req.Query), filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", role, err)
	}

	return &UserListResponse{
		Users: users,
		Total: total,
		Page:  page,
		Size:  limit,
	}, nil
}

// Search matches name, email and student or teacher number, case-insensitively
func (s *userService) Search(ctx context.Context, actor *models.User, role models.UserRole, query string) ([]*models.User, error) {
	filters, err := s.directoryFilters(ctx, actor, role)
	if err != nil {
		return nil, err
	}

	users, _, err := s.repo.User().Search(ctx, strings.TrimSpace(query), filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search %ss: %w", role, err)
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, actor *models.User, role models.UserRole, id string) (*models.User, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	resource, err := resourceForRole(role)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, string(role), id)
	}
	if user.Role != role {
		return nil, notFound(string(role), id)
	}

	if actor.ID == id {
		return user, nil
	}
	if err := requireView(actor, resource); err != nil {
		return nil, err
	}
	if actor.Role == models.RoleTeacher {
		visible, err := s.teachesStudent(ctx, actor.ID, id)
		if err != nil {
			return nil, err
		}
		if !visible {
			return nil, NewPermissionError(actor.ID, string(resource), "view", "student is not enrolled in any of your classes")
		}
	}
	return user, nil
}

// directoryFilters scopes a listing to what actor may see
func (s *userService) directoryFilters(ctx context.Context, actor *models.User, role models.UserRole) (repositories.UserFilters, error) {
	resource, err := resourceForRole(role)
	if err != nil {
		return repositories.UserFilters{}, err
	}
	if err := requireView(actor, resource); err != nil {
		return repositories.UserFilters{}, err
	}

	filters := repositories.UserFilters{Role: &role}

	// Teachers see only the students enrolled in their classes
	if actor.Role == models.RoleTeacher && role == models.RoleStudent {
		classes, err := s.repo.Class().List(ctx, repositories.ClassFilters{TeacherID: &actor.ID})
		if err != nil {
			return filters, fmt.Errorf("failed to list teacher classes: %w", err)
		}
		filters.IDs = uniqueStudents(classes)
	}
	return filters, nil
}

func (s *userService) teachesStudent(ctx context.Context, teacherID, studentID string) (bool, error) {
	count, err := s.repo.Class().Count(ctx, repositories.ClassFilters{TeacherID: &teacherID, StudentID: &studentID})
	if err != nil {
		return false, fmt.Errorf("failed to check enrolment: %w", err)
	}
	return count > 0, nil
}

// ===== MUTATIONS =====

func (s *userService) Create(ctx context.Context, actor *models.User, role models.UserRole, req *models.UserCreateRequest) (*models.User, error) {
	resource, err := resourceForRole(role)
	if err != nil {
		return nil, err
	}
	if err := requireManage(actor, resource, "create"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Creating user", "role", role, "email", req.Email, "actor_id", actor.ID)

	email := strings.TrimSpace(req.Email)
	exists, err := s.repo.User().ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email %s is already registered", ErrConflict, email)
	}

	if req.Department != nil {
		if err := s.checkDepartment(ctx, "department", *req.Department); err != nil {
			return nil, err
		}
	}

	code, err := s.resolveCode(ctx, role, req.Code)
	if err != nil {
		return nil, err
	}

	password := req.Password
	if password == "" {
		password = generatePassword()
	}

	profileImage := models.DefaultProfileImage(req.Name, role)
	if req.ProfileImage != nil && *req.ProfileImage != "" {
		profileImage = *req.ProfileImage
	}

	params := repositories.SignUpParams{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Password:     password,
		Role:         role,
		Department:   req.Department,
		ProfileImage: profileImage,
	}
	switch role {
	case models.RoleStudent:
		params.StudentID = &code
	case models.RoleTeacher:
		params.TeacherID = &code
	}

	user, err := s.identity.SignUp(ctx, params)
	if err != nil {
		if errors.Is(err, repositories.ErrEmailExists) {
			return nil, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return nil, fmt.Errorf("failed to create %s: %w", role, err)
	}

	s.logger.InfoContext(ctx, "User created", "user_id", user.ID, "role", role, "code", code)
	return user, nil
}

func (s *userService) Update(ctx context.Context, actor *models.User, role models.UserRole, id string, req *models.UserUpdateRequest) (*models.User, error) {
	resource, err := resourceForRole(role)
	if err != nil {
		return nil, err
	}
	if err := requireManage(actor, resource, "update"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, string(role), id)
	}
	if user.Role != role {
		return nil, notFound(string(role), id)
	}
	previousEmail := user.Email

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil && !strings.EqualFold(*req.Email, user.Email) {
		email := strings.TrimSpace(*req.Email)
		exists, err := s.repo.User().ExistsByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("%w: email %s is already registered", ErrConflict, email)
		}
		user.Email = email
	}
	if req.Department != nil {
		if err := s.checkDepartment(ctx, "department", *req.Department); err != nil {
			return nil, err
		}
		if *req.Department == "" {
			user.Department = nil
		} else {
			user.Department = stringPtr(*req.Department)
		}
	}
	if req.Code != nil && !strings.EqualFold(*req.Code, user.RoleCode()) {
		code, err := s.resolveCode(ctx, role, req.Code)
		if err != nil {
			return nil, err
		}
		switch role {
		case models.RoleStudent:
			user.StudentID = &code
		case models.RoleTeacher:
			user.TeacherID = &code
		}
	}
	if req.ProfileImage != nil {
		user.ProfileImage = stringPtr(*req.ProfileImage)
	}

	if err := s.repo.User().Update(ctx, user); err != nil {
		return nil, translateRepoError(err, string(role), id)
	}
	if err := s.identity.UpdateProfile(ctx, previousEmail, user); err != nil {
		s.logger.WarnContext(ctx, "Failed to sync profile to identity provider", "user_id", user.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "User updated", "user_id", user.ID, "role", role, "actor_id", actor.ID)
	return user, nil
}

// Delete removes a user. Students leave every roster; teachers still
// assigned to classes or heading a department are refused.
func (s *userService) Delete(ctx context.Context, actor *models.User, role models.UserRole, id string) error {
	resource, err := resourceForRole(role)
	if err != nil {
		return err
	}
	if err := requireManage(actor, resource, "delete"); err != nil {
		return err
	}
	if actor.ID == id {
		return fmt.Errorf("%w: you cannot delete your own account", ErrConflict)
	}

	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		return translateRepoError(err, string(role), id)
	}
	if user.Role != role {
		return notFound(string(role), id)
	}

	if role == models.RoleTeacher {
		count, err := s.repo.Class().Count(ctx, repositories.ClassFilters{TeacherID: &id})
		if err != nil {
			return fmt.Errorf("failed to count teacher classes: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: teacher is assigned to %d classes", ErrConflict, count)
		}

		departments, err := s.repo.Department().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list departments: %w", err)
		}
		for _, department := range departments {
			if department.Head == id {
				return fmt.Errorf("%w: teacher heads department %s", ErrConflict, department.Name)
			}
		}
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if role == models.RoleStudent {
			if err := tx.Class().RemoveStudent(ctx, id); err != nil {
				return fmt.Errorf("failed to remove student from classes: %w", err)
			}
		}
		if err := tx.Settings().DeleteByUser(ctx, id); err != nil {
			return fmt.Errorf("failed to delete settings: %w", err)
		}
		return tx.User().Delete(ctx, id)
	})
	if err != nil {
		return translateRepoError(err, string(role), id)
	}

	if err := s.identity.DeleteAccount(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "Failed to delete identity provider account", "user_id", id, "error", err)
	}

	s.logger.InfoContext(ctx, "User deleted", "user_id", id, "role", role, "actor_id", actor.ID)
	return nil
}

// resolveCode validates a requested student or teacher number, or generates the next free one
func (s *userService) resolveCode(ctx context.Context, role models.UserRole, requested *string) (string, error) {
	if requested != nil && strings.TrimSpace(*requested) != "" {
		code := strings.ToUpper(strings.TrimSpace(*requested))
		taken, err := s.repo.User().ExistsByCode(ctx, role, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code: %w", err)
		}
		if taken {
			return "", fmt.Errorf("%w: %s %s is already in use", ErrConflict, role, code)
		}
		return code, nil
	}

	count, err := s.repo.User().CountByRole(ctx, role)
	if err != nil {
		return "", fmt.Errorf("failed to count %ss: %w", role, err)
	}
	for n := count + 1; ; n++ {
		code := fmt.Sprintf("%s%03d", codePrefixes[role], n)
		taken, err := s.repo.User().ExistsByCode(ctx, role, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
}

// generatePassword is used when an administrator creates an account without one
func generatePassword() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// uniqueStudents collects the enrolled student ids of classes, non-nil even when empty
func uniqueStudents(classes []*models.Class) []string {
	seen := make(map[string]bool)
	ids := []string{}
	for _, class := range classes {
		for _, id := range class.Students {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
