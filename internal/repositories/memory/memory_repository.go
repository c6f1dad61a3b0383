package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

// store is the shared in-process dataset behind every memory repository
type store struct {
	mu          sync.RWMutex
	users       map[string]*models.User
	departments map[string]*models.Department
	classes     map[string]*models.Class
	attendance  map[string]*models.AttendanceRecord
	settings    map[string]*models.NotificationSettings
}

func newStore() *store {
	return &store{
		users:       make(map[string]*models.User),
		departments: make(map[string]*models.Department),
		classes:     make(map[string]*models.Class),
		attendance:  make(map[string]*models.AttendanceRecord),
		settings:    make(map[string]*models.NotificationSettings),
	}
}

// MemoryRepository keeps all data in process memory. Used for demo mode and tests.
type MemoryRepository struct {
	s    *store
	txMu *sync.Mutex

	user       repositories.UserRepository
	department repositories.DepartmentRepository
	class      repositories.ClassRepository
	attendance repositories.AttendanceRepository
	settings   repositories.SettingsRepository
}

func NewMemoryRepository() *MemoryRepository {
	s := newStore()
	return &MemoryRepository{
		s:          s,
		txMu:       &sync.Mutex{},
		user:       &userMemory{s: s},
		department: &departmentMemory{s: s},
		class:      &classMemory{s: s},
		attendance: &attendanceMemory{s: s},
		settings:   &settingsMemory{s: s},
	}
}

func (r *MemoryRepository) User() repositories.UserRepository             { return r.user }
func (r *MemoryRepository) Department() repositories.DepartmentRepository { return r.department }
func (r *MemoryRepository) Class() repositories.ClassRepository           { return r.class }
func (r *MemoryRepository) Attendance() repositories.AttendanceRepository { return r.attendance }
func (r *MemoryRepository) Settings() repositories.SettingsRepository     { return r.settings }

// WithTransaction runs fn serialised against other transactions and restores
// the previous state when fn fails.
func (r *MemoryRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	snapshot := r.s.snapshot()
	if err := fn(r); err != nil {
		r.s.restore(snapshot)
		return err
	}
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryRepository) Close() error {
	return nil
}

func (s *store) snapshot() *store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := newStore()
	for k, v := range s.users {
		out.users[k] = cloneUser(v)
	}
	for k, v := range s.departments {
		d := *v
		out.departments[k] = &d
	}
	for k, v := range s.classes {
		out.classes[k] = cloneClass(v)
	}
	for k, v := range s.attendance {
		out.attendance[k] = cloneRecord(v)
	}
	for k, v := range s.settings {
		st := *v
		out.settings[k] = &st
	}
	return out
}

func (s *store) restore(from *store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = from.users
	s.departments = from.departments
	s.classes = from.classes
	s.attendance = from.attendance
	s.settings = from.settings
}

// RepositoryManager mirrors the postgres manager for the memory backend
type RepositoryManager struct {
	repo *MemoryRepository
}

func NewRepositoryManager() repositories.RepositoryManager {
	return &RepositoryManager{}
}

func (rm *RepositoryManager) Initialize() error {
	if rm.repo == nil {
		rm.repo = NewMemoryRepository()
	}
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	return rm.repo.Close()
}

// ===== CLONING =====

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Department = cloneString(u.Department)
	c.StudentID = cloneString(u.StudentID)
	c.TeacherID = cloneString(u.TeacherID)
	c.ProfileImage = cloneString(u.ProfileImage)
	c.ExternalID = cloneString(u.ExternalID)
	return &c
}

func cloneClass(cl *models.Class) *models.Class {
	c := *cl
	c.Schedule = append([]models.ScheduleSlot(nil), cl.Schedule...)
	c.Students = append([]string(nil), cl.Students...)
	return &c
}

func cloneRecord(r *models.AttendanceRecord) *models.AttendanceRecord {
	c := *r
	c.Attendees = append([]models.AttendanceEntry(nil), r.Attendees...)
	return &c
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sortByName[T any](items []T, name func(T) string, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		if name(items[i]) != name(items[j]) {
			return name(items[i]) < name(items[j])
		}
		return id(items[i]) < id(items[j])
	})
}
