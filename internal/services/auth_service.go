package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/attendance-service/internal/events"
	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
	"github.com/SAP-F-2025/attendance-service/internal/seed"
)

type authService struct {
	serviceBase
	identity repositories.IdentityProvider
}

func NewAuthService(base serviceBase, identity repositories.IdentityProvider) AuthService {
	return &authService{
		serviceBase: base,
		identity:    identity,
	}
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	session, err := s.identity.SignIn(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidCredentials) {
			s.logger.WarnContext(ctx, "Failed login attempt", "email", req.Email, "provider", s.identity.Name())
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		s.logger.ErrorContext(ctx, "Identity provider sign in failed", "email", req.Email, "error", err)
		return nil, fmt.Errorf("sign in failed: %w", err)
	}

	s.logger.InfoContext(ctx, "User logged in", "user_id", session.User.ID, "role", session.User.Role)

	return &models.AuthResponse{
		Token:     session.Token,
		TokenType: "Bearer",
		ExpiresAt: session.ExpiresAt,
		User:      session.User,
	}, nil
}

// Signup registers a student account
func (s *authService) Signup(ctx context.Context, req *models.SignupRequest) (*models.User, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(req.Email)
	studentID := strings.TrimSpace(req.StudentID)

	if err := s.checkDepartment(ctx, "department", req.Department); err != nil {
		return nil, err
	}

	taken, err := s.repo.User().ExistsByCode(ctx, models.RoleStudent, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check student id: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: student id %s is already registered", ErrConflict, studentID)
	}

	params := repositories.SignUpParams{
		Name:         strings.TrimSpace(req.FullName),
		Email:        email,
		Password:     req.Password,
		Role:         models.RoleStudent,
		StudentID:    &studentID,
		ProfileImage: models.DefaultProfileImage(req.FullName, models.RoleStudent),
	}
	if req.Department != "" {
		params.Department = &req.Department
	}

	user, err := s.identity.SignUp(ctx, params)
	if err != nil {
		if errors.Is(err, repositories.ErrEmailExists) {
			return nil, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return nil, fmt.Errorf("sign up failed: %w", err)
	}

	s.logger.InfoContext(ctx, "Student registered", "user_id", user.ID, "student_id", studentID)

	s.publish(ctx, events.EventUserRegistered, events.UserRegisteredData{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		StudentID: studentID,
	})

	return user, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrUnauthorized
	}
	if err := s.identity.SignOut(ctx, token); err != nil {
		return fmt.Errorf("sign out failed: %w", err)
	}
	return nil
}

func (s *authService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	user, _, err := s.identity.Session(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidToken) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("session lookup failed: %w", err)
	}
	return user, nil
}

// QuickLoginOptions lists the demo accounts, empty outside demo mode
func (s *authService) QuickLoginOptions() []models.QuickLoginOption {
	if !s.config.DemoMode {
		return []models.QuickLoginOption{}
	}
	return append([]models.QuickLoginOption(nil), seed.DemoAccounts...)
}
