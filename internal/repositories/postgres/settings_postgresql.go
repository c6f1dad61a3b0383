package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

type SettingsPostgreSQL struct {
	db *gorm.DB
}

func NewSettingsPostgreSQL(db *gorm.DB) repositories.SettingsRepository {
	return &SettingsPostgreSQL{db: db}
}

func (s *SettingsPostgreSQL) GetNotificationSettings(ctx context.Context, userID string) (*models.NotificationSettings, error) {
	var settings models.NotificationSettings
	if err := s.db.WithContext(ctx).First(&settings, "user_id = ?", userID).Error; err != nil {
		return nil, translateError(err, "get notification settings")
	}
	return &settings, nil
}

func (s *SettingsPostgreSQL) SaveNotificationSettings(ctx context.Context, settings *models.NotificationSettings) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(settings).Error
	if err != nil {
		return translateError(err, "save notification settings")
	}
	return nil
}

func (s *SettingsPostgreSQL) DeleteByUser(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).Delete(&models.NotificationSettings{}, "user_id = ?", userID).Error; err != nil {
		return translateError(err, "delete notification settings")
	}
	return nil
}
