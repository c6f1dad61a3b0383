package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

type departmentService struct {
	serviceBase
}

func NewDepartmentService(base serviceBase) DepartmentService {
	return &departmentService{serviceBase: base}
}

func (s *departmentService) List(ctx context.Context) ([]*models.Department, error) {
	departments, err := s.repo.Department().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return departments, nil
}

func (s *departmentService) Get(ctx context.Context, id string) (*models.Department, error) {
	department, err := s.repo.Department().GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "department", id)
	}
	return department, nil
}

func (s *departmentService) Create(ctx context.Context, actor *models.User, req *models.DepartmentCreateRequest) (*models.Department, error) {
	if err := requireManage(actor, ResourceDepartments, "create"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if err := s.checkName(ctx, name, ""); err != nil {
		return nil, err
	}
	if err := s.checkHead(ctx, req.Head); err != nil {
		return nil, err
	}

	department := &models.Department{
		ID:   uuid.NewString(),
		Name: name,
		Head: req.Head,
	}
	if err := s.repo.Department().Create(ctx, department); err != nil {
		return nil, translateRepoError(err, "department", department.ID)
	}

	s.logger.InfoContext(ctx, "Department created", "department_id", department.ID, "actor_id", actor.ID)
	return department, nil
}

func (s *departmentService) Update(ctx context.Context, actor *models.User, id string, req *models.DepartmentUpdateRequest) (*models.Department, error) {
	if err := requireManage(actor, ResourceDepartments, "update"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	department, err := s.repo.Department().GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "department", id)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := s.checkName(ctx, name, id); err != nil {
			return nil, err
		}
		department.Name = name
	}
	if req.Head != nil {
		if err := s.checkHead(ctx, *req.Head); err != nil {
			return nil, err
		}
		department.Head = *req.Head
	}

	if err := s.repo.Department().Update(ctx, department); err != nil {
		return nil, translateRepoError(err, "department", id)
	}

	s.logger.InfoContext(ctx, "Department updated", "department_id", id, "actor_id", actor.ID)
	return department, nil
}

// Delete refuses while users or classes still reference the department
func (s *departmentService) Delete(ctx context.Context, actor *models.User, id string) error {
	if err := requireManage(actor, ResourceDepartments, "delete"); err != nil {
		return err
	}

	if _, err := s.repo.Department().GetByID(ctx, id); err != nil {
		return translateRepoError(err, "department", id)
	}

	users, err := s.repo.User().CountByDepartment(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count department users: %w", err)
	}
	classes, err := s.repo.Class().Count(ctx, repositories.ClassFilters{Department: &id})
	if err != nil {
		return fmt.Errorf("failed to count department classes: %w", err)
	}
	if users > 0 || classes > 0 {
		return fmt.Errorf("%w: department still has %d users and %d classes", ErrConflict, users, classes)
	}

	if err := s.repo.Department().Delete(ctx, id); err != nil {
		return translateRepoError(err, "department", id)
	}

	s.logger.InfoContext(ctx, "Department deleted", "department_id", id, "actor_id", actor.ID)
	return nil
}

func (s *departmentService) checkName(ctx context.Context, name, excludeID string) error {
	exists, err := s.repo.Department().ExistsByName(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check department name: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: department %q already exists", ErrConflict, name)
	}
	return nil
}

// checkHead requires the head to be a teacher or management user
func (s *departmentService) checkHead(ctx context.Context, head string) error {
	if head == "" {
		return nil
	}
	user, err := s.repo.User().GetByID(ctx, head)
	if repositories.IsNotFoundError(err) {
		return fieldError("head", "user does not exist", "exists")
	}
	if err != nil {
		return fmt.Errorf("failed to load department head: %w", err)
	}
	if user.Role != models.RoleTeacher && user.Role != models.RoleManagement {
		return fieldError("head", "must be a teacher or management user", "role")
	}
	return nil
}
