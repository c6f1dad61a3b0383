package memory

import (
	"context"
	"slices"
	"time"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

type classMemory struct {
	s *store
}

func (m *classMemory) Create(ctx context.Context, class *models.Class) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, exists := m.s.classes[class.ID]; exists {
		return repositories.ErrDuplicate
	}

	now := time.Now()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	m.s.classes[class.ID] = cloneClass(class)
	return nil
}

func (m *classMemory) Update(ctx context.Context, class *models.Class) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	current, ok := m.s.classes[class.ID]
	if !ok {
		return repositories.ErrNotFound
	}

	class.CreatedAt = current.CreatedAt
	class.UpdatedAt = time.Now()
	m.s.classes[class.ID] = cloneClass(class)
	return nil
}

func (m *classMemory) Delete(ctx context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.classes[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.s.classes, id)
	return nil
}

func (m *classMemory) GetByID(ctx context.Context, id string) (*models.Class, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	class, ok := m.s.classes[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneClass(class), nil
}

func (m *classMemory) List(ctx context.Context, filters repositories.ClassFilters) ([]*models.Class, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	classes := m.matchLocked(filters)
	sortByName(classes, func(c *models.Class) string { return c.Name }, func(c *models.Class) string { return c.ID })
	return paginate(classes, filters.Limit, filters.Offset), nil
}

func (m *classMemory) Count(ctx context.Context, filters repositories.ClassFilters) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return int64(len(m.matchLocked(filters))), nil
}

func (m *classMemory) RemoveStudent(ctx context.Context, studentID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, class := range m.s.classes {
		if idx := slices.Index(class.Students, studentID); idx >= 0 {
			class.Students = slices.Delete(class.Students, idx, idx+1)
			class.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (m *classMemory) matchLocked(filters repositories.ClassFilters) []*models.Class {
	var classes []*models.Class
	for _, class := range m.s.classes {
		if filters.TeacherID != nil && class.TeacherID != *filters.TeacherID {
			continue
		}
		if filters.Department != nil && class.Department != *filters.Department {
			continue
		}
		if filters.StudentID != nil && !class.HasStudent(*filters.StudentID) {
			continue
		}
		classes = append(classes, cloneClass(class))
	}
	return classes
}
