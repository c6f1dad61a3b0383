package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/attendance-service/internal/events"
	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

type classService struct {
	serviceBase
}

func NewClassService(base serviceBase) ClassService {
	return &classService{serviceBase: base}
}

// ===== QUERIES =====

func (s *classService) List(ctx context.Context, actor *models.User, req ClassListRequest) (*ClassListResponse, error) {
	limit, offset, page := s.pageBounds(req.Page, req.Size)

	responses, err := s.visible(ctx, actor, req)
	if err != nil {
		return nil, err
	}

	total := int64(len(responses))
	if offset >= len(responses) {
		responses = []*ClassResponse{}
	} else {
		responses = responses[offset:min(offset+limit, len(responses))]
	}

	return &ClassListResponse{
		Classes: responses,
		Total:   total,
		Page:    page,
		Size:    limit,
	}, nil
}

// Search matches class name, department name and teacher name
func (s *classService) Search(ctx context.Context, actor *models.User, query string) ([]*ClassResponse, error) {
	return s.visible(ctx, actor, ClassListRequest{Query: query})
}

func (s *classService) Get(ctx context.Context, actor *models.User, id string) (*ClassResponse, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	class, err := loadAccessibleClass(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, class)
}

func (s *classService) AccessibleClasses(ctx context.Context, actor *models.User) ([]*models.Class, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	return accessibleClasses(ctx, s.repo, actor)
}

// TodaysClasses returns visible classes with a schedule slot on today's weekday
func (s *classService) TodaysClasses(ctx context.Context, actor *models.User) ([]*ClassResponse, error) {
	classes, err := s.AccessibleClasses(ctx, actor)
	if err != nil {
		return nil, err
	}

	weekday := s.now().Weekday()
	today := make([]*models.Class, 0, len(classes))
	for _, class := range classes {
		if class.MeetsOn(weekday) {
			today = append(today, class)
		}
	}
	return s.toResponses(ctx, today)
}

// visible lists the classes actor may see, narrowed by req's filters and query
func (s *classService) visible(ctx context.Context, actor *models.User, req ClassListRequest) ([]*ClassResponse, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	filters := repositories.ClassFilters{
		Department: req.Department,
		TeacherID:  req.TeacherID,
	}
	switch actor.Role {
	case models.RoleStudent:
		filters.StudentID = &actor.ID
	case models.RoleTeacher:
		if req.TeacherID != nil && *req.TeacherID != actor.ID {
			return []*ClassResponse{}, nil
		}
		filters.TeacherID = &actor.ID
	}

	classes, err := s.repo.Class().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}

	responses, err := s.toResponses(ctx, classes)
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return responses, nil
	}
	matched := make([]*ClassResponse, 0, len(responses))
	for _, response := range responses {
		if containsFold(response.Name, query) || containsFold(response.DepartmentName, query) || containsFold(response.TeacherName, query) {
			matched = append(matched, response)
		}
	}
	return matched, nil
}

// ===== MUTATIONS =====

func (s *classService) Create(ctx context.Context, actor *models.User, req *models.ClassCreateRequest) (*ClassResponse, error) {
	if err := requireManage(actor, ResourceClasses, "create"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateSchedule(req.Schedule); len(errs) > 0 {
		return nil, validationError(errs)
	}
	if err := s.checkTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}
	if err := s.checkDepartment(ctx, "department", req.Department); err != nil {
		return nil, err
	}
	if err := s.checkStudents(ctx, "students", req.Students); err != nil {
		return nil, err
	}

	class := &models.Class{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(req.Name),
		TeacherID:  req.TeacherID,
		Department: req.Department,
		Schedule:   append([]models.ScheduleSlot{}, req.Schedule...),
		Students:   append([]string{}, req.Students...),
	}
	if err := s.repo.Class().Create(ctx, class); err != nil {
		return nil, translateRepoError(err, "class", class.ID)
	}

	s.logger.InfoContext(ctx, "Class created", "class_id", class.ID, "teacher_id", class.TeacherID, "actor_id", actor.ID)
	s.publishChange(ctx, events.EventClassCreated, class, actor)

	return s.toResponse(ctx, class)
}

func (s *classService) Update(ctx context.Context, actor *models.User, id string, req *models.ClassUpdateRequest) (*ClassResponse, error) {
	if err := requireManage(actor, ResourceClasses, "update"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	class, err := s.repo.Class().GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "class", id)
	}

	if req.Name != nil {
		class.Name = strings.TrimSpace(*req.Name)
	}
	if req.TeacherID != nil {
		if err := s.checkTeacher(ctx, *req.TeacherID); err != nil {
			return nil, err
		}
		class.TeacherID = *req.TeacherID
	}
	if req.Department != nil {
		if err := s.checkDepartment(ctx, "department", *req.Department); err != nil {
			return nil, err
		}
		class.Department = *req.Department
	}
	if req.Schedule != nil {
		if errs := s.validator.GetBusinessValidator().ValidateSchedule(*req.Schedule); len(errs) > 0 {
			return nil, validationError(errs)
		}
		class.Schedule = append([]models.ScheduleSlot{}, *req.Schedule...)
	}
	if req.Students != nil {
		if err := s.checkStudents(ctx, "students", *req.Students); err != nil {
			return nil, err
		}
		class.Students = append([]string{}, *req.Students...)
	}

	if err := s.repo.Class().Update(ctx, class); err != nil {
		return nil, translateRepoError(err, "class", id)
	}

	s.logger.InfoContext(ctx, "Class updated", "class_id", id, "actor_id", actor.ID)
	s.publishChange(ctx, events.EventClassUpdated, class, actor)

	return s.toResponse(ctx, class)
}

// Delete removes the class together with its attendance records
func (s *classService) Delete(ctx context.Context, actor *models.User, id string) error {
	if err := requireManage(actor, ResourceClasses, "delete"); err != nil {
		return err
	}

	class, err := s.repo.Class().GetByID(ctx, id)
	if err != nil {
		return translateRepoError(err, "class", id)
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Attendance().DeleteByClass(ctx, id); err != nil {
			return fmt.Errorf("failed to delete attendance records: %w", err)
		}
		return tx.Class().Delete(ctx, id)
	})
	if err != nil {
		return translateRepoError(err, "class", id)
	}

	s.logger.InfoContext(ctx, "Class deleted", "class_id", id, "actor_id", actor.ID)
	s.publishChange(ctx, events.EventClassDeleted, class, actor)
	return nil
}

func (s *classService) EnrollStudents(ctx context.Context, actor *models.User, id string, req *models.EnrollStudentsRequest) (*ClassResponse, error) {
	if err := requireManage(actor, ResourceClasses, "update"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	class, err := s.repo.Class().GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "class", id)
	}
	if err := s.checkStudents(ctx, "student_ids", req.StudentIDs); err != nil {
		return nil, err
	}

	var added int
	for _, studentID := range req.StudentIDs {
		if !class.HasStudent(studentID) {
			class.Students = append(class.Students, studentID)
			added++
		}
	}
	if added > 0 {
		if err := s.repo.Class().Update(ctx, class); err != nil {
			return nil, translateRepoError(err, "class", id)
		}
		s.logger.InfoContext(ctx, "Students enrolled", "class_id", id, "added", added, "actor_id", actor.ID)
		s.publishChange(ctx, events.EventClassUpdated, class, actor)
	}

	return s.toResponse(ctx, class)
}

func (s *classService) UnenrollStudent(ctx context.Context, actor *models.User, id, studentID string) (*ClassResponse, error) {
	if err := requireManage(actor, ResourceClasses, "update"); err != nil {
		return nil, err
	}

	class, err := s.repo.Class().GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "class", id)
	}

	index := slices.Index(class.Students, studentID)
	if index < 0 {
		return nil, notFound("enrolment", studentID)
	}
	class.Students = slices.Delete(class.Students, index, index+1)

	if err := s.repo.Class().Update(ctx, class); err != nil {
		return nil, translateRepoError(err, "class", id)
	}

	s.logger.InfoContext(ctx, "Student unenrolled", "class_id", id, "student_id", studentID, "actor_id", actor.ID)
	s.publishChange(ctx, events.EventClassUpdated, class, actor)

	return s.toResponse(ctx, class)
}

// ===== HELPERS =====

func (s *classService) checkTeacher(ctx context.Context, teacherID string) error {
	teacher, err := s.repo.User().GetByID(ctx, teacherID)
	if repositories.IsNotFoundError(err) {
		return fieldError("teacher_id", "teacher does not exist", "exists")
	}
	if err != nil {
		return fmt.Errorf("failed to load teacher: %w", err)
	}
	if teacher.Role != models.RoleTeacher {
		return fieldError("teacher_id", "user is not a teacher", "role")
	}
	return nil
}

func (s *classService) publishChange(ctx context.Context, eventType events.EventType, class *models.Class, actor *models.User) {
	s.publish(ctx, eventType, events.ClassChangedData{
		ClassID:   class.ID,
		Name:      class.Name,
		TeacherID: class.TeacherID,
		ChangedBy: actor.ID,
	})
}

func (s *classService) toResponse(ctx context.Context, class *models.Class) (*ClassResponse, error) {
	responses, err := s.toResponses(ctx, []*models.Class{class})
	if err != nil {
		return nil, err
	}
	return responses[0], nil
}

// toResponses resolves teacher and department names for a batch of classes
func (s *classService) toResponses(ctx context.Context, classes []*models.Class) ([]*ClassResponse, error) {
	responses := make([]*ClassResponse, 0, len(classes))
	if len(classes) == 0 {
		return responses, nil
	}

	teacherIDs := make([]string, 0, len(classes))
	for _, class := range classes {
		teacherIDs = append(teacherIDs, class.TeacherID)
	}
	teachers, err := s.usersByID(ctx, teacherIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load teachers: %w", err)
	}
	departments, err := s.departmentNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load departments: %w", err)
	}

	for _, class := range classes {
		response := &ClassResponse{
			Class:          class,
			DepartmentName: departments[class.Department],
			StudentCount:   len(class.Students),
		}
		if teacher, ok := teachers[class.TeacherID]; ok {
			response.TeacherName = teacher.Name
		}
		responses = append(responses, response)
	}
	return responses, nil
}
