package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/SAP-F-2025/attendance-service/internal/cache"
	"github.com/SAP-F-2025/attendance-service/internal/config"
	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

const bcryptCost = 12

// Claims are the registered claims plus the user's role
type Claims struct {
	Role  models.UserRole `json:"role"`
	Email string          `json:"email"`
	jwt.RegisteredClaims
}

// IdentityLocal authenticates against password hashes in the user directory
// and issues HS256 tokens.
type IdentityLocal struct {
	users    repositories.UserRepository
	denylist *cache.TokenDenylist
	secret   []byte
	issuer   string
	ttl      time.Duration
	now      func() time.Time
}

func NewIdentityLocal(cfg config.AuthConfig, users repositories.UserRepository, denylist *cache.TokenDenylist) *IdentityLocal {
	return &IdentityLocal{
		users:    users,
		denylist: denylist,
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		ttl:      cfg.TokenTTL,
		now:      time.Now,
	}
}

func (p *IdentityLocal) Name() string {
	return config.AuthProviderLocal
}

// HashPassword hashes a plain password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// ===== SESSION OPERATIONS =====

func (p *IdentityLocal) SignIn(ctx context.Context, email, password string) (*repositories.Session, error) {
	user, err := p.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, repositories.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := p.checkPassword(ctx, user.ID, password); err != nil {
		return nil, err
	}

	token, expiresAt, err := p.issue(user)
	if err != nil {
		return nil, err
	}
	return &repositories.Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (p *IdentityLocal) Session(ctx context.Context, token string) (*models.User, time.Time, error) {
	claims, err := p.parse(token)
	if err != nil {
		return nil, time.Time{}, repositories.ErrInvalidToken
	}

	revoked, err := p.denylist.IsRevoked(ctx, token)
	if err != nil {
		return nil, time.Time{}, err
	}
	if revoked {
		return nil, time.Time{}, repositories.ErrInvalidToken
	}

	user, err := p.users.GetByID(ctx, claims.Subject)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, time.Time{}, repositories.ErrInvalidToken
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	return user, claims.ExpiresAt.Time, nil
}

func (p *IdentityLocal) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		return nil
	}
	return p.denylist.Revoke(ctx, token, claims.ExpiresAt.Time)
}

// ===== ACCOUNT OPERATIONS =====

func (p *IdentityLocal) SignUp(ctx context.Context, params repositories.SignUpParams) (*models.User, error) {
	exists, err := p.users.ExistsByEmail(ctx, params.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, repositories.ErrEmailExists
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         params.Name,
		Email:        params.Email,
		Role:         params.Role,
		PasswordHash: hash,
		Department:   params.Department,
		StudentID:    params.StudentID,
		TeacherID:    params.TeacherID,
	}
	if params.ProfileImage != "" {
		image := params.ProfileImage
		user.ProfileImage = &image
	}

	if err := p.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, repositories.ErrEmailExists
		}
		return nil, err
	}
	return user, nil
}

func (p *IdentityLocal) ChangePassword(ctx context.Context, user *models.User, currentPassword, newPassword string) error {
	if err := p.checkPassword(ctx, user.ID, currentPassword); err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return p.users.UpdatePasswordHash(ctx, user.ID, hash)
}

// UpdateProfile is a no-op; the user directory is the source of truth
func (p *IdentityLocal) UpdateProfile(ctx context.Context, previousEmail string, user *models.User) error {
	return nil
}

func (p *IdentityLocal) DeleteAccount(ctx context.Context, user *models.User) error {
	return nil
}

// ===== TOKENS =====

func (p *IdentityLocal) issue(user *models.User) (string, time.Time, error) {
	now := p.now()
	expiresAt := now.Add(p.ttl)

	claims := Claims{
		Role:  user.Role,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (p *IdentityLocal) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, repositories.ErrInvalidToken
	}
	return claims, nil
}

func (p *IdentityLocal) checkPassword(ctx context.Context, userID, password string) error {
	hash, err := p.users.GetPasswordHash(ctx, userID)
	if err != nil {
		return err
	}
	if hash == "" {
		return repositories.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return repositories.ErrInvalidCredentials
	}
	return nil
}
