package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/attendance-service/internal/cache"
	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

type UserPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// ===== BASIC CRUD OPERATIONS =====

func (u *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	if err := u.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateError(err, "create user")
	}

	cache.InvalidateUserCache(ctx, u.cacheManager, user.ID)
	return nil
}

func (u *UserPostgreSQL) Update(ctx context.Context, user *models.User) error {
	result := u.db.WithContext(ctx).Model(&models.User{ID: user.ID}).Select("*").Omit("created_at", "password_hash").Updates(user)
	if result.Error != nil {
		return translateError(result.Error, "update user")
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.InvalidateUserCache(ctx, u.cacheManager, user.ID)
	return nil
}

func (u *UserPostgreSQL) GetPasswordHash(ctx context.Context, id string) (string, error) {
	var user models.User
	if err := u.db.WithContext(ctx).Select("id", "password_hash").First(&user, "id = ?", id).Error; err != nil {
		return "", translateError(err, "get password hash")
	}
	return user.PasswordHash, nil
}

func (u *UserPostgreSQL) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	result := u.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash)
	if result.Error != nil {
		return translateError(result.Error, "update password hash")
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Delete soft deletes a user
func (u *UserPostgreSQL) Delete(ctx context.Context, id string) error {
	result := u.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "delete user")
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.InvalidateUserCache(ctx, u.cacheManager, id)
	return nil
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := u.cacheManager.User.CacheOrExecute(ctx, "id:"+id, &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		var dbUser models.User
		if err := u.db.WithContext(ctx).First(&dbUser, "id = ?", id).Error; err != nil {
			return nil, translateError(err, "get user")
		}
		return &dbUser, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := u.cacheManager.User.CacheOrExecute(ctx, "email:"+email, &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		var dbUser models.User
		if err := u.db.WithContext(ctx).Where("LOWER(email) = ?", email).First(&dbUser).Error; err != nil {
			return nil, translateError(err, "get user by email")
		}
		return &dbUser, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error; err != nil {
		return nil, translateError(err, "get user by external id")
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}

	var users []*models.User
	if err := u.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translateError(err, "get users by ids")
	}
	return users, nil
}

// ===== LIST AND SEARCH =====

func (u *UserPostgreSQL) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	return u.Search(ctx, filters.Query, filters)
}

// Search matches name, email and role code case-insensitively
func (u *UserPostgreSQL) Search(ctx context.Context, query string, filters repositories.UserFilters) ([]*models.User, int64, error) {
	if filters.IDs != nil && len(filters.IDs) == 0 {
		return []*models.User{}, 0, nil
	}

	var role *string
	if filters.Role != nil {
		r := string(*filters.Role)
		role = &r
	}

	type page struct {
		Users []*models.User `json:"users"`
		Total int64          `json:"total"`
	}
	key := "list:" + cacheKey(role, filters.Department, filters.IDs, strings.ToLower(query), filters.Limit, filters.Offset)

	var result page
	err := u.cacheManager.User.CacheOrExecute(ctx, key, &result, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		db := u.applyFilters(u.db.WithContext(ctx).Model(&models.User{}), query, filters)

		var total int64
		if err := db.Count(&total).Error; err != nil {
			return nil, translateError(err, "count users")
		}

		var users []*models.User
		if err := applyPagination(db.Order("name ASC, id ASC"), filters.Limit, filters.Offset).Find(&users).Error; err != nil {
			return nil, translateError(err, "list users")
		}
		return &page{Users: users, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	if result.Users == nil {
		result.Users = []*models.User{}
	}
	return result.Users, result.Total, nil
}

func (u *UserPostgreSQL) applyFilters(db *gorm.DB, query string, filters repositories.UserFilters) *gorm.DB {
	if filters.Role != nil {
		db = db.Where("role = ?", *filters.Role)
	}
	if filters.Department != nil {
		db = db.Where("department = ?", *filters.Department)
	}
	if filters.IDs != nil {
		db = db.Where("id IN ?", filters.IDs)
	}
	if strings.TrimSpace(query) != "" {
		pattern := likePattern(query)
		db = db.Where("name ILIKE ? OR email ILIKE ? OR student_id ILIKE ? OR teacher_id ILIKE ?",
			pattern, pattern, pattern, pattern)
	}
	return db
}

// ===== VALIDATION AND CHECKS =====

func (u *UserPostgreSQL) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := u.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error; err != nil {
		return false, translateError(err, "check email")
	}
	return count > 0, nil
}

func (u *UserPostgreSQL) ExistsByCode(ctx context.Context, role models.UserRole, code string) (bool, error) {
	column := "student_id"
	if role == models.RoleTeacher {
		column = "teacher_id"
	}

	var count int64
	if err := u.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", role).
		Where(fmt.Sprintf("LOWER(%s) = ?", column), strings.ToLower(code)).
		Count(&count).Error; err != nil {
		return false, translateError(err, "check role code")
	}
	return count > 0, nil
}

func (u *UserPostgreSQL) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	var count int64
	if err := u.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&count).Error; err != nil {
		return 0, translateError(err, "count users by role")
	}
	return count, nil
}

func (u *UserPostgreSQL) CountByDepartment(ctx context.Context, departmentID string) (int64, error) {
	var count int64
	if err := u.db.WithContext(ctx).Model(&models.User{}).Where("department = ?", departmentID).Count(&count).Error; err != nil {
		return 0, translateError(err, "count users by department")
	}
	return count, nil
}
