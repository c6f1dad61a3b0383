package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/SAP-F-2025/attendance-service/internal/events"
	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
	"github.com/SAP-F-2025/attendance-service/internal/validator"
)

// serviceBase bundles the dependencies every service shares
type serviceBase struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig
}

func (b serviceBase) now() time.Time {
	return b.config.Now()
}

// today is the server-local date in storage format
func (b serviceBase) today() string {
	return b.now().Format(models.DateLayout)
}

// validate runs struct tag validation, tagging failures with ErrValidationFailed
func (b serviceBase) validate(req interface{}) error {
	if err := b.validator.ValidateStruct(req); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			return validationError(errs)
		}
		return err
	}
	return nil
}

// publish emits a domain event. Failures are logged, never returned: the write already happened.
func (b serviceBase) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
	if b.publisher == nil {
		return
	}

	event, err := events.NewEvent(eventType, b.config.ServiceName, payload)
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to build event", "event_type", eventType, "error", err)
		return
	}
	if err := b.publisher.Publish(ctx, event); err != nil {
		b.logger.ErrorContext(ctx, "Failed to publish event", "event_type", eventType, "event_id", event.ID, "error", err)
		return
	}
	b.logger.DebugContext(ctx, "Event published", "event_type", eventType, "event_id", event.ID)
}

// pageBounds turns 1-based page and size into limit and offset
func (b serviceBase) pageBounds(page, size int) (limit, offset, normalizedPage int) {
	if size <= 0 {
		size = b.config.DefaultPageSize
	}
	if size > b.config.MaxPageSize {
		size = b.config.MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return size, (page - 1) * size, page
}

// usersByID loads users keyed by id, skipping unknown ids
func (b serviceBase) usersByID(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users, err := b.repo.User().GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*models.User, len(users))
	for _, user := range users {
		out[user.ID] = user
	}
	return out, nil
}

// departmentNames maps department ids to names
func (b serviceBase) departmentNames(ctx context.Context) (map[string]string, error) {
	departments, err := b.repo.Department().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(departments))
	for _, department := range departments {
		out[department.ID] = department.Name
	}
	return out, nil
}

// checkDepartment verifies that a department id refers to a stored department
func (b serviceBase) checkDepartment(ctx context.Context, field, id string) error {
	if id == "" {
		return nil
	}
	_, err := b.repo.Department().GetByID(ctx, id)
	if repositories.IsNotFoundError(err) {
		return fieldError(field, "department does not exist", "exists")
	}
	return err
}

// checkStudents verifies that every id is an existing student
func (b serviceBase) checkStudents(ctx context.Context, field string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	users, err := b.usersByID(ctx, ids)
	if err != nil {
		return err
	}

	var errs validator.ValidationErrors
	for _, id := range ids {
		user, ok := users[id]
		if !ok || user.Role != models.RoleStudent {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: "is not an existing student",
				Value:   id,
				Rule:    "exists",
			})
		}
	}
	if len(errs) > 0 {
		return validationError(errs)
	}
	return nil
}

// sortUsersByName orders users by name, then id
func sortUsersByName(users []*models.User) {
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func stringPtr(s string) *string {
	return &s
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
