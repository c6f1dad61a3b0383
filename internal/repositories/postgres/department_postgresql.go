package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/attendance-service/internal/cache"
	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

type DepartmentPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewDepartmentPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.DepartmentRepository {
	return &DepartmentPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (d *DepartmentPostgreSQL) Create(ctx context.Context, department *models.Department) error {
	if err := d.db.WithContext(ctx).Create(department).Error; err != nil {
		return translateError(err, "create department")
	}

	cache.InvalidateDepartmentCache(ctx, d.cacheManager, department.ID)
	return nil
}

func (d *DepartmentPostgreSQL) Update(ctx context.Context, department *models.Department) error {
	result := d.db.WithContext(ctx).Model(&models.Department{ID: department.ID}).
		Select("name", "head", "updated_at").
		Updates(department)
	if result.Error != nil {
		return translateError(result.Error, "update department")
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.InvalidateDepartmentCache(ctx, d.cacheManager, department.ID)
	return nil
}

func (d *DepartmentPostgreSQL) Delete(ctx context.Context, id string) error {
	result := d.db.WithContext(ctx).Delete(&models.Department{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "delete department")
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.InvalidateDepartmentCache(ctx, d.cacheManager, id)
	return nil
}

func (d *DepartmentPostgreSQL) GetByID(ctx context.Context, id string) (*models.Department, error) {
	var department models.Department
	err := d.cacheManager.Department.CacheOrExecute(ctx, "id:"+id, &department, cache.DepartmentCacheConfig.TTL, func() (interface{}, error) {
		var dbDepartment models.Department
		if err := d.db.WithContext(ctx).First(&dbDepartment, "id = ?", id).Error; err != nil {
			return nil, translateError(err, "get department")
		}
		return &dbDepartment, nil
	})
	if err != nil {
		return nil, err
	}
	return &department, nil
}

func (d *DepartmentPostgreSQL) List(ctx context.Context) ([]*models.Department, error) {
	var departments []*models.Department
	err := d.cacheManager.Department.CacheOrExecute(ctx, "list", &departments, cache.DepartmentCacheConfig.TTL, func() (interface{}, error) {
		var dbDepartments []*models.Department
		if err := d.db.WithContext(ctx).Order("name ASC, id ASC").Find(&dbDepartments).Error; err != nil {
			return nil, translateError(err, "list departments")
		}
		return dbDepartments, nil
	})
	if err != nil {
		return nil, err
	}
	if departments == nil {
		departments = []*models.Department{}
	}
	return departments, nil
}

func (d *DepartmentPostgreSQL) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	query := d.db.WithContext(ctx).Model(&models.Department{}).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, translateError(err, "check department name")
	}
	return count > 0, nil
}
