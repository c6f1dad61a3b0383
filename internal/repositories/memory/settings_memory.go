package memory

import (
	"context"
	"time"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
)

type settingsMemory struct {
	s *store
}

func (m *settingsMemory) GetNotificationSettings(ctx context.Context, userID string) (*models.NotificationSettings, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	settings, ok := m.s.settings[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	st := *settings
	return &st, nil
}

func (m *settingsMemory) SaveNotificationSettings(ctx context.Context, settings *models.NotificationSettings) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	settings.UpdatedAt = time.Now()
	st := *settings
	m.s.settings[st.UserID] = &st
	return nil
}

func (m *settingsMemory) DeleteByUser(ctx context.Context, userID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.settings, userID)
	return nil
}
