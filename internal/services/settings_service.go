package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

type settingsService struct {
	serviceBase
	identity repositories.IdentityProvider
}

func NewSettingsService(base serviceBase, identity repositories.IdentityProvider) SettingsService {
	return &settingsService{
		serviceBase: base,
		identity:    identity,
	}
}

func (s *settingsService) GetProfile(ctx context.Context, actor *models.User) (*models.User, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	user, err := s.repo.User().GetByID(ctx, actor.ID)
	if err != nil {
		return nil, translateRepoError(err, "user", actor.ID)
	}
	return user, nil
}

// UpdateProfile changes name, email and image, and the password when a new one is given
func (s *settingsService) UpdateProfile(ctx context.Context, actor *models.User, req *models.ProfileUpdateRequest) (*models.User, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidatePasswordChange(req.CurrentPassword, req.NewPassword, req.ConfirmPassword); len(errs) > 0 {
		return nil, validationError(errs)
	}

	user, err := s.repo.User().GetByID(ctx, actor.ID)
	if err != nil {
		return nil, translateRepoError(err, "user", actor.ID)
	}
	previousEmail := user.Email

	// field changes are checked before the password rotates
	updated := *user
	changed := false
	if req.Name != nil && strings.TrimSpace(*req.Name) != updated.Name {
		updated.Name = strings.TrimSpace(*req.Name)
		changed = true
	}
	if req.Email != nil && !strings.EqualFold(strings.TrimSpace(*req.Email), updated.Email) {
		email := strings.TrimSpace(*req.Email)
		exists, err := s.repo.User().ExistsByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("%w: email %s is already registered", ErrConflict, email)
		}
		updated.Email = email
		changed = true
	}
	if req.ProfileImage != nil && *req.ProfileImage != derefString(updated.ProfileImage) {
		updated.ProfileImage = stringPtr(*req.ProfileImage)
		changed = true
	}

	if req.NewPassword != "" {
		if err := s.identity.ChangePassword(ctx, user, req.CurrentPassword, req.NewPassword); err != nil {
			if errors.Is(err, repositories.ErrInvalidCredentials) {
				return nil, fieldError("current_password", "is incorrect", "password")
			}
			return nil, fmt.Errorf("failed to change password: %w", err)
		}
		s.logger.InfoContext(ctx, "Password changed", "user_id", user.ID)
	}

	if !changed {
		return user, nil
	}

	if err := s.repo.User().Update(ctx, &updated); err != nil {
		return nil, translateRepoError(err, "user", updated.ID)
	}
	if err := s.identity.UpdateProfile(ctx, previousEmail, &updated); err != nil {
		s.logger.WarnContext(ctx, "Failed to sync profile to identity provider", "user_id", updated.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "Profile updated", "user_id", updated.ID)
	return &updated, nil
}

// GetNotificationSettings falls back to the defaults when nothing is stored
func (s *settingsService) GetNotificationSettings(ctx context.Context, actor *models.User) (*models.NotificationSettings, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	settings, err := s.repo.Settings().GetNotificationSettings(ctx, actor.ID)
	if repositories.IsNotFoundError(err) {
		return models.DefaultNotificationSettings(actor.ID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notification settings: %w", err)
	}
	return settings, nil
}

func (s *settingsService) UpdateNotificationSettings(ctx context.Context, actor *models.User, req *models.NotificationSettingsRequest) (*models.NotificationSettings, error) {
	settings, err := s.GetNotificationSettings(ctx, actor)
	if err != nil {
		return nil, err
	}

	if req.EmailNotifications != nil {
		settings.EmailNotifications = *req.EmailNotifications
	}
	if req.AttendanceAlerts != nil {
		settings.AttendanceAlerts = *req.AttendanceAlerts
	}
	if req.ReportGeneration != nil {
		settings.ReportGeneration = *req.ReportGeneration
	}
	if req.SystemUpdates != nil {
		settings.SystemUpdates = *req.SystemUpdates
	}

	if err := s.repo.Settings().SaveNotificationSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save notification settings: %w", err)
	}

	s.logger.InfoContext(ctx, "Notification settings updated", "user_id", actor.ID)
	return settings, nil
}
