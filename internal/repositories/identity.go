package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/attendance-service/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Session is a signed-in identity
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// SignUpParams carries the account fields and metadata sent to the provider
type SignUpParams struct {
	Name         string
	Email        string
	Password     string
	Role         models.UserRole
	Department   *string
	StudentID    *string
	TeacherID    *string
	ProfileImage string
}

// IdentityProvider is the external sign-in backend. Accounts it creates are
// mirrored into the UserRepository so the attendance data can reference them.
type IdentityProvider interface {
	Name() string

	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, params SignUpParams) (*models.User, error)
	// Session resolves a bearer token to its user and expiry
	Session(ctx context.Context, token string) (*models.User, time.Time, error)
	SignOut(ctx context.Context, token string) error

	ChangePassword(ctx context.Context, user *models.User, currentPassword, newPassword string) error
	// UpdateProfile pushes profile fields; previousEmail locates the account when the email changed
	UpdateProfile(ctx context.Context, previousEmail string, user *models.User) error
	DeleteAccount(ctx context.Context, user *models.User) error
}
