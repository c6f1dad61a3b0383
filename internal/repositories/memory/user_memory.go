package memory

import (
	"context"
	"strings"
	"time"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

type userMemory struct {
	s *store
}

func (m *userMemory) Create(ctx context.Context, user *models.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, exists := m.s.users[user.ID]; exists {
		return repositories.ErrDuplicate
	}
	if m.emailTakenLocked(user.Email, "") {
		return repositories.ErrDuplicate
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	m.s.users[user.ID] = cloneUser(user)
	return nil
}

func (m *userMemory) Update(ctx context.Context, user *models.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	current, ok := m.s.users[user.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if m.emailTakenLocked(user.Email, user.ID) {
		return repositories.ErrDuplicate
	}

	user.CreatedAt = current.CreatedAt
	user.UpdatedAt = time.Now()
	stored := cloneUser(user)
	stored.PasswordHash = current.PasswordHash
	m.s.users[user.ID] = stored
	return nil
}

func (m *userMemory) GetPasswordHash(ctx context.Context, id string) (string, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	user, ok := m.s.users[id]
	if !ok {
		return "", repositories.ErrNotFound
	}
	return user.PasswordHash, nil
}

func (m *userMemory) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	user, ok := m.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now()
	return nil
}

func (m *userMemory) Delete(ctx context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.s.users, id)
	return nil
}

func (m *userMemory) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	user, ok := m.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneUser(user), nil
}

func (m *userMemory) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, user := range m.s.users {
		if strings.EqualFold(user.Email, email) {
			return cloneUser(user), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *userMemory) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, user := range m.s.users {
		if user.ExternalID != nil && *user.ExternalID == externalID {
			return cloneUser(user), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *userMemory) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := m.s.users[id]; ok {
			users = append(users, cloneUser(user))
		}
	}
	return users, nil
}

func (m *userMemory) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	return m.Search(ctx, filters.Query, filters)
}

func (m *userMemory) Search(ctx context.Context, query string, filters repositories.UserFilters) ([]*models.User, int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var ids map[string]bool
	if filters.IDs != nil {
		ids = make(map[string]bool, len(filters.IDs))
		for _, id := range filters.IDs {
			ids[id] = true
		}
	}

	query = strings.ToLower(strings.TrimSpace(query))
	var matched []*models.User
	for _, user := range m.s.users {
		if filters.Role != nil && user.Role != *filters.Role {
			continue
		}
		if filters.Department != nil && user.DepartmentID() != *filters.Department {
			continue
		}
		if ids != nil && !ids[user.ID] {
			continue
		}
		if query != "" && !matchesUserQuery(user, query) {
			continue
		}
		matched = append(matched, cloneUser(user))
	}

	sortByName(matched, func(u *models.User) string { return u.Name }, func(u *models.User) string { return u.ID })
	return paginate(matched, filters.Limit, filters.Offset), int64(len(matched)), nil
}

// matchesUserQuery is a case-insensitive substring match over name, email and role code
func matchesUserQuery(user *models.User, query string) bool {
	return strings.Contains(strings.ToLower(user.Name), query) ||
		strings.Contains(strings.ToLower(user.Email), query) ||
		strings.Contains(strings.ToLower(user.RoleCode()), query)
}

func (m *userMemory) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return m.emailTakenLocked(email, ""), nil
}

func (m *userMemory) ExistsByCode(ctx context.Context, role models.UserRole, code string) (bool, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, user := range m.s.users {
		if user.Role == role && strings.EqualFold(user.RoleCode(), code) {
			return true, nil
		}
	}
	return false, nil
}

func (m *userMemory) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var count int64
	for _, user := range m.s.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

func (m *userMemory) CountByDepartment(ctx context.Context, departmentID string) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var count int64
	for _, user := range m.s.users {
		if user.DepartmentID() == departmentID {
			count++
		}
	}
	return count, nil
}

func (m *userMemory) emailTakenLocked(email, excludeID string) bool {
	for id, user := range m.s.users {
		if id != excludeID && strings.EqualFold(user.Email, email) {
			return true
		}
	}
	return false
}
