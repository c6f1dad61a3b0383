package casdoor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/SAP-F-2025/attendance-service/internal/cache"
	"github.com/SAP-F-2025/attendance-service/internal/config"
	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

// Casdoor user properties carrying attendance metadata
const (
	propertyStudentID  = "student_id"
	propertyTeacherID  = "teacher_id"
	propertyDepartment = "department"
)

// client is the subset of the Casdoor SDK used by the identity provider
type client interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
	GetUserByEmail(email string) (*casdoorsdk.User, error)
	AddUser(user *casdoorsdk.User) (bool, error)
	UpdateUser(user *casdoorsdk.User) (bool, error)
	DeleteUser(user *casdoorsdk.User) (bool, error)
	SetPassword(owner, name, oldPassword, newPassword string) (bool, error)
}

// passwordGrant exchanges credentials for an access token
type passwordGrant func(ctx context.Context, username, password string) (*oauth2.Token, error)

// IdentityCasdoor signs users in against Casdoor and mirrors every account
// into the local user directory.
type IdentityCasdoor struct {
	client       client
	grant        passwordGrant
	organization string
	users        repositories.UserRepository
	denylist     *cache.TokenDenylist
	logger       *slog.Logger
}

func NewIdentityCasdoor(cfg config.CasdoorConfig, users repositories.UserRepository, denylist *cache.TokenDenylist, logger *slog.Logger) repositories.IdentityProvider {
	sdk := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  strings.TrimRight(cfg.Endpoint, "/") + "/login/oauth/authorize",
			TokenURL: strings.TrimRight(cfg.Endpoint, "/") + "/api/login/oauth/access_token",
		},
		Scopes: []string{"openid", "profile", "email"},
	}

	return newIdentityCasdoor(sdk, oauthConfig.PasswordCredentialsToken, cfg.Organization, users, denylist, logger)
}

func newIdentityCasdoor(c client, grant passwordGrant, organization string, users repositories.UserRepository, denylist *cache.TokenDenylist, logger *slog.Logger) *IdentityCasdoor {
	return &IdentityCasdoor{
		client:       c,
		grant:        grant,
		organization: organization,
		users:        users,
		denylist:     denylist,
		logger:       logger,
	}
}

func (p *IdentityCasdoor) Name() string {
	return config.AuthProviderCasdoor
}

// ===== SESSION OPERATIONS =====

func (p *IdentityCasdoor) SignIn(ctx context.Context, email, password string) (*repositories.Session, error) {
	token, err := p.grant(ctx, email, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, repositories.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("casdoor token request failed: %w", err)
	}

	claims, err := p.client.ParseJwtToken(token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("casdoor returned an unparsable token: %w", err)
	}

	user, err := p.mirror(ctx, &claims.User)
	if err != nil {
		return nil, err
	}

	return &repositories.Session{
		Token:     token.AccessToken,
		ExpiresAt: claimsExpiry(claims, token.Expiry),
		User:      user,
	}, nil
}

func (p *IdentityCasdoor) Session(ctx context.Context, token string) (*models.User, time.Time, error) {
	claims, err := p.client.ParseJwtToken(token)
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

	user, err := p.mirror(ctx, &claims.User)
	if err != nil {
		return nil, time.Time{}, err
	}
	return user, claimsExpiry(claims, time.Time{}), nil
}

func (p *IdentityCasdoor) SignOut(ctx context.Context, token string) error {
	claims, err := p.client.ParseJwtToken(token)
	if err != nil {
		// an unparsable token is already unusable
		return nil
	}
	return p.denylist.Revoke(ctx, token, claimsExpiry(claims, time.Now().Add(24*time.Hour)))
}

// ===== ACCOUNT OPERATIONS =====

func (p *IdentityCasdoor) SignUp(ctx context.Context, params repositories.SignUpParams) (*models.User, error) {
	existing, err := p.client.GetUserByEmail(params.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence by email: %w", err)
	}
	if existing != nil {
		return nil, repositories.ErrEmailExists
	}

	account := p.toCasdoorUser(&models.User{
		Name:         params.Name,
		Email:        params.Email,
		Role:         params.Role,
		Department:   params.Department,
		StudentID:    params.StudentID,
		TeacherID:    params.TeacherID,
		ProfileImage: &params.ProfileImage,
	})
	account.Password = params.Password

	ok, err := p.client.AddUser(account)
	if err != nil {
		return nil, fmt.Errorf("failed to add user to Casdoor: %w", err)
	}
	if !ok {
		return nil, errors.New("casdoor rejected the new user")
	}

	created, err := p.client.GetUserByEmail(params.Email)
	if err != nil || created == nil {
		created = account
	}
	return p.mirror(ctx, created)
}

func (p *IdentityCasdoor) ChangePassword(ctx context.Context, user *models.User, currentPassword, newPassword string) error {
	account, err := p.lookup(user)
	if err != nil {
		return err
	}

	ok, err := p.client.SetPassword(account.Owner, account.Name, currentPassword, newPassword)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "password") {
			return repositories.ErrInvalidCredentials
		}
		return fmt.Errorf("failed to set password in Casdoor: %w", err)
	}
	if !ok {
		return repositories.ErrInvalidCredentials
	}
	return nil
}

func (p *IdentityCasdoor) UpdateProfile(ctx context.Context, previousEmail string, user *models.User) error {
	if previousEmail == "" {
		previousEmail = user.Email
	}
	account, err := p.lookupEmail(previousEmail)
	if err != nil {
		return err
	}

	update := p.toCasdoorUser(user)
	account.DisplayName = update.DisplayName
	account.Email = update.Email
	account.Avatar = update.Avatar
	account.Type = update.Type
	account.Properties = update.Properties

	if _, err := p.client.UpdateUser(account); err != nil {
		return fmt.Errorf("failed to update user in Casdoor: %w", err)
	}
	return nil
}

func (p *IdentityCasdoor) DeleteAccount(ctx context.Context, user *models.User) error {
	account, err := p.lookup(user)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return err
	}

	if _, err := p.client.DeleteUser(account); err != nil {
		return fmt.Errorf("failed to delete user from Casdoor: %w", err)
	}
	return nil
}

// lookup finds the Casdoor account behind a local user
func (p *IdentityCasdoor) lookup(user *models.User) (*casdoorsdk.User, error) {
	return p.lookupEmail(user.Email)
}

func (p *IdentityCasdoor) lookupEmail(email string) (*casdoorsdk.User, error) {
	account, err := p.client.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email from Casdoor: %w", err)
	}
	if account == nil {
		return nil, repositories.ErrNotFound
	}
	return account, nil
}

// ===== MIRRORING =====

// mirror creates or refreshes the local copy of a Casdoor account
func (p *IdentityCasdoor) mirror(ctx context.Context, account *casdoorsdk.User) (*models.User, error) {
	incoming := convertCasdoorUser(account)
	if incoming == nil {
		return nil, repositories.ErrInvalidToken
	}

	local, err := p.users.GetByExternalID(ctx, account.Id)
	if errors.Is(err, repositories.ErrNotFound) {
		local, err = p.users.GetByEmail(ctx, incoming.Email)
	}

	switch {
	case errors.Is(err, repositories.ErrNotFound):
		incoming.ID = uuid.NewString()
		if err := p.users.Create(ctx, incoming); err != nil {
			return nil, fmt.Errorf("failed to mirror casdoor user: %w", err)
		}
		p.logger.InfoContext(ctx, "Mirrored casdoor account", "user_id", incoming.ID, "role", incoming.Role)
		return incoming, nil
	case err != nil:
		return nil, err
	}

	if !mirrorChanged(local, incoming) {
		return local, nil
	}

	local.Name = incoming.Name
	local.Email = incoming.Email
	local.Role = incoming.Role
	local.ExternalID = incoming.ExternalID
	if incoming.Department != nil {
		local.Department = incoming.Department
	}
	if incoming.StudentID != nil {
		local.StudentID = incoming.StudentID
	}
	if incoming.TeacherID != nil {
		local.TeacherID = incoming.TeacherID
	}
	if incoming.ProfileImage != nil {
		local.ProfileImage = incoming.ProfileImage
	}
	if err := p.users.Update(ctx, local); err != nil {
		return nil, fmt.Errorf("failed to refresh mirrored user: %w", err)
	}
	return local, nil
}

func mirrorChanged(local, incoming *models.User) bool {
	if local.ExternalID == nil || incoming.ExternalID == nil || *local.ExternalID != *incoming.ExternalID {
		return true
	}
	return local.Name != incoming.Name || local.Email != incoming.Email || local.Role != incoming.Role
}

// ===== CONVERSION METHODS =====

// convertCasdoorUser converts a Casdoor account to the local user model
func convertCasdoorUser(account *casdoorsdk.User) *models.User {
	if account == nil || account.Email == "" {
		return nil
	}

	var createdAt, updatedAt time.Time
	if account.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, account.CreatedTime)
	}
	if account.UpdatedTime != "" {
		updatedAt, _ = time.Parse(time.RFC3339, account.UpdatedTime)
	}

	name := account.DisplayName
	if name == "" {
		name = account.Name
	}

	user := &models.User{
		Name:      name,
		Email:     account.Email,
		Role:      resolveRole(account),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	if account.Id != "" {
		id := account.Id
		user.ExternalID = &id
	}
	if account.Avatar != "" {
		avatar := account.Avatar
		user.ProfileImage = &avatar
	}
	user.Department = property(account.Properties, propertyDepartment)
	switch user.Role {
	case models.RoleStudent:
		user.StudentID = property(account.Properties, propertyStudentID)
	case models.RoleTeacher:
		user.TeacherID = property(account.Properties, propertyTeacherID)
	}
	return user
}

func (p *IdentityCasdoor) toCasdoorUser(user *models.User) *casdoorsdk.User {
	properties := map[string]string{}
	if user.Department != nil {
		properties[propertyDepartment] = *user.Department
	}
	if user.StudentID != nil {
		properties[propertyStudentID] = *user.StudentID
	}
	if user.TeacherID != nil {
		properties[propertyTeacherID] = *user.TeacherID
	}

	account := &casdoorsdk.User{
		Owner:       p.organization,
		Name:        casdoorUsername(user.Email),
		DisplayName: user.Name,
		Email:       user.Email,
		Type:        string(user.Role),
		Properties:  properties,
		IsAdmin:     user.Role == models.RoleAdmin,
		CreatedTime: time.Now().Format(time.RFC3339),
	}
	if user.ProfileImage != nil {
		account.Avatar = *user.ProfileImage
	}
	return account
}

// resolveRole prefers assigned Casdoor roles over the account type
func resolveRole(account *casdoorsdk.User) models.UserRole {
	if account.IsAdmin {
		return models.RoleAdmin
	}

	var roles []models.UserRole
	for _, role := range account.Roles {
		if role == nil {
			continue
		}
		if mapped, ok := mapCasdoorRole(role.Name); ok && !slices.Contains(roles, mapped) {
			roles = append(roles, mapped)
		}
	}

	// highest privilege wins
	for _, candidate := range []models.UserRole{models.RoleAdmin, models.RoleManagement, models.RoleTeacher, models.RoleStudent} {
		if slices.Contains(roles, candidate) {
			return candidate
		}
	}

	if mapped, ok := mapCasdoorRole(account.Type); ok {
		return mapped
	}
	return models.RoleStudent
}

func mapCasdoorRole(name string) (models.UserRole, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "admin", "administrator":
		return models.RoleAdmin, true
	case "management", "manager":
		return models.RoleManagement, true
	case "teacher", "instructor", "educator":
		return models.RoleTeacher, true
	case "student", "learner":
		return models.RoleStudent, true
	}
	return "", false
}

func property(properties map[string]string, key string) *string {
	value, ok := properties[key]
	if !ok || value == "" {
		return nil
	}
	return &value
}

// casdoorUsername derives a Casdoor account name from an email address
func casdoorUsername(email string) string {
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	replacer := strings.NewReplacer(".", "_", "+", "_")
	return replacer.Replace(local)
}

func claimsExpiry(claims *casdoorsdk.Claims, fallback time.Time) time.Time {
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return fallback
}
