package memory

import (
	"context"
	"strings"
	"time"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

type departmentMemory struct {
	s *store
}

func (m *departmentMemory) Create(ctx context.Context, department *models.Department) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, exists := m.s.departments[department.ID]; exists {
		return repositories.ErrDuplicate
	}
	if m.nameTakenLocked(department.Name, "") {
		return repositories.ErrDuplicate
	}

	now := time.Now()
	if department.CreatedAt.IsZero() {
		department.CreatedAt = now
	}
	department.UpdatedAt = now
	d := *department
	m.s.departments[d.ID] = &d
	return nil
}

func (m *departmentMemory) Update(ctx context.Context, department *models.Department) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	current, ok := m.s.departments[department.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if m.nameTakenLocked(department.Name, department.ID) {
		return repositories.ErrDuplicate
	}

	department.CreatedAt = current.CreatedAt
	department.UpdatedAt = time.Now()
	d := *department
	m.s.departments[d.ID] = &d
	return nil
}

func (m *departmentMemory) Delete(ctx context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.departments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.s.departments, id)
	return nil
}

func (m *departmentMemory) GetByID(ctx context.Context, id string) (*models.Department, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	department, ok := m.s.departments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	d := *department
	return &d, nil
}

func (m *departmentMemory) List(ctx context.Context) ([]*models.Department, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	departments := make([]*models.Department, 0, len(m.s.departments))
	for _, department := range m.s.departments {
		d := *department
		departments = append(departments, &d)
	}
	sortByName(departments, func(d *models.Department) string { return d.Name }, func(d *models.Department) string { return d.ID })
	return departments, nil
}

func (m *departmentMemory) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return m.nameTakenLocked(name, excludeID), nil
}

func (m *departmentMemory) nameTakenLocked(name, excludeID string) bool {
	for id, department := range m.s.departments {
		if id != excludeID && strings.EqualFold(department.Name, name) {
			return true
		}
	}
	return false
}
