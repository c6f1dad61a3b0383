package models

import "time"

// NotificationSettings are per-user alert preferences
type NotificationSettings struct {
	UserID             string `json:"user_id" gorm:"primaryKey;size:255"`
	EmailNotifications bool   `json:"email_notifications"`
	AttendanceAlerts   bool   `json:"attendance_alerts"`
	ReportGeneration   bool   `json:"report_generation"`
	SystemUpdates      bool   `json:"system_updates"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (NotificationSettings) TableName() string {
	return "notification_settings"
}

func DefaultNotificationSettings(userID string) *NotificationSettings {
	return &NotificationSettings{
		UserID:             userID,
		EmailNotifications: true,
		AttendanceAlerts:   true,
		ReportGeneration:   false,
		SystemUpdates:      true,
	}
}
