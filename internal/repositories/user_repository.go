package repositories

import (
	"context"

	"github.com/SAP-F-2025/attendance-service/internal/models"
)

// UserRepository stores the local user directory, including mirrored identity-provider accounts
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error

	// Password hashes never pass through Update or the cache
	GetPasswordHash(ctx context.Context, id string) (string, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error

	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)

	// List and search operations
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	Search(ctx context.Context, query string, filters UserFilters) ([]*models.User, int64, error)

	// Validation and checks
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByCode(ctx context.Context, role models.UserRole, code string) (bool, error)
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
	CountByDepartment(ctx context.Context, departmentID string) (int64, error)
}
