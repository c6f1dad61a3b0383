package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/attendance-service/internal/cache"
	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

type ClassPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewClassPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ClassRepository {
	return &ClassPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// ===== BASIC CRUD OPERATIONS =====

func (c *ClassPostgreSQL) Create(ctx context.Context, class *models.Class) error {
	if err := c.db.WithContext(ctx).Create(class).Error; err != nil {
		return translateError(err, "create class")
	}

	cache.InvalidateClassCache(ctx, c.cacheManager, class.ID)
	return nil
}

func (c *ClassPostgreSQL) Update(ctx context.Context, class *models.Class) error {
	result := c.db.WithContext(ctx).Model(&models.Class{ID: class.ID}).
		Select("name", "teacher_id", "department", "schedule", "students", "updated_at").
		Updates(class)
	if result.Error != nil {
		return translateError(result.Error, "update class")
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.InvalidateClassCache(ctx, c.cacheManager, class.ID)
	return nil
}

// Delete soft deletes a class
func (c *ClassPostgreSQL) Delete(ctx context.Context, id string) error {
	result := c.db.WithContext(ctx).Delete(&models.Class{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "delete class")
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.InvalidateClassCache(ctx, c.cacheManager, id)
	return nil
}

func (c *ClassPostgreSQL) GetByID(ctx context.Context, id string) (*models.Class, error) {
	var class models.Class
	err := c.cacheManager.Class.CacheOrExecute(ctx, "id:"+id, &class, cache.ClassCacheConfig.TTL, func() (interface{}, error) {
		var dbClass models.Class
		if err := c.db.WithContext(ctx).First(&dbClass, "id = ?", id).Error; err != nil {
			return nil, translateError(err, "get class")
		}
		return &dbClass, nil
	})
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// ===== LIST OPERATIONS =====

func (c *ClassPostgreSQL) List(ctx context.Context, filters repositories.ClassFilters) ([]*models.Class, error) {
	key := "list:" + cacheKey(filters.TeacherID, filters.StudentID, filters.Department, filters.Limit, filters.Offset)

	var classes []*models.Class
	err := c.cacheManager.Class.CacheOrExecute(ctx, key, &classes, cache.ClassCacheConfig.TTL, func() (interface{}, error) {
		var dbClasses []*models.Class
		query := applyPagination(c.applyFilters(c.db.WithContext(ctx), filters).Order("name ASC, id ASC"), filters.Limit, filters.Offset)
		if err := query.Find(&dbClasses).Error; err != nil {
			return nil, translateError(err, "list classes")
		}
		return dbClasses, nil
	})
	if err != nil {
		return nil, err
	}
	if classes == nil {
		classes = []*models.Class{}
	}
	return classes, nil
}

func (c *ClassPostgreSQL) Count(ctx context.Context, filters repositories.ClassFilters) (int64, error) {
	var count int64
	if err := c.applyFilters(c.db.WithContext(ctx).Model(&models.Class{}), filters).Count(&count).Error; err != nil {
		return 0, translateError(err, "count classes")
	}
	return count, nil
}

// RemoveStudent drops the student from every roster that lists them
func (c *ClassPostgreSQL) RemoveStudent(ctx context.Context, studentID string) error {
	err := c.db.WithContext(ctx).Exec(
		"UPDATE classes SET students = students - ?, updated_at = NOW() WHERE students @> ?::jsonb AND deleted_at IS NULL",
		studentID, jsonContains([]string{studentID}),
	).Error
	if err != nil {
		return translateError(err, "remove student from classes")
	}

	cache.SafeInvalidatePattern(ctx, c.cacheManager.Class, "*")
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Stats, "*")
	return nil
}

func (c *ClassPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ClassFilters) *gorm.DB {
	if filters.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filters.TeacherID)
	}
	if filters.Department != nil {
		query = query.Where("department = ?", *filters.Department)
	}
	if filters.StudentID != nil {
		query = query.Where("students @> ?::jsonb", jsonContains([]string{*filters.StudentID}))
	}
	return query
}
