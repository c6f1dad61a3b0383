package services

import (
	"errors"
	"testing"

	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/validator"
)

func TestSettingsService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	settings := f.manager.Settings()
	student := f.user(t, "student1")

	updated, err := settings.UpdateProfile(f.ctx, student, &models.ProfileUpdateRequest{
		Name:  ptr("Alice J. Johnson"),
		Email: ptr("alice.johnson@example.com"),
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Name != "Alice J. Johnson" || updated.Email != "alice.johnson@example.com" {
		t.Errorf("UpdateProfile() = %+v", updated)
	}

	profile, err := settings.GetProfile(f.ctx, student)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if profile.Email != "alice.johnson@example.com" {
		t.Errorf("stored email = %s", profile.Email)
	}

	_, err = settings.UpdateProfile(f.ctx, student, &models.ProfileUpdateRequest{Email: ptr("bob.w@example.com")})
	assertErrorIs(t, err, ErrConflict)
}

func TestSettingsService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	settings := f.manager.Settings()
	teacher := f.user(t, "teacher1")

	_, err := settings.UpdateProfile(f.ctx, teacher, &models.ProfileUpdateRequest{
		CurrentPassword: "teacher123",
		NewPassword:     "newpass1",
		ConfirmPassword: "different",
	})
	assertErrorIs(t, err, ErrValidationFailed)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || fieldErrs[0].Message != "New passwords don't match" {
		t.Errorf("mismatch errors = %v", fieldErrs)
	}

	_, err = settings.UpdateProfile(f.ctx, teacher, &models.ProfileUpdateRequest{
		CurrentPassword: "wrong",
		NewPassword:     "newpass1",
		ConfirmPassword: "newpass1",
	})
	assertErrorIs(t, err, ErrValidationFailed)

	_, err = settings.UpdateProfile(f.ctx, teacher, &models.ProfileUpdateRequest{
		NewPassword:     "newpass1",
		ConfirmPassword: "newpass1",
	})
	assertErrorIs(t, err, ErrValidationFailed)

	if _, err := settings.UpdateProfile(f.ctx, teacher, &models.ProfileUpdateRequest{
		CurrentPassword: "teacher123",
		NewPassword:     "newpass1",
		ConfirmPassword: "newpass1",
	}); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	auth := f.manager.Auth()
	if _, err := auth.Login(f.ctx, &models.LoginRequest{Email: "john.smith@example.com", Password: "newpass1"}); err != nil {
		t.Errorf("Login() with new password error = %v", err)
	}
	_, err = auth.Login(f.ctx, &models.LoginRequest{Email: "john.smith@example.com", Password: "teacher123"})
	assertErrorIs(t, err, ErrUnauthorized)
}

func TestSettingsService_RejectedProfileKeepsPassword(t *testing.T) {
	f := newFixture(t)
	settings := f.manager.Settings()
	teacher := f.user(t, "teacher1")

	_, err := settings.UpdateProfile(f.ctx, teacher, &models.ProfileUpdateRequest{
		Email:           ptr("bob.w@example.com"),
		CurrentPassword: "teacher123",
		NewPassword:     "newpass1",
		ConfirmPassword: "newpass1",
	})
	assertErrorIs(t, err, ErrConflict)

	auth := f.manager.Auth()
	if _, err := auth.Login(f.ctx, &models.LoginRequest{Email: "john.smith@example.com", Password: "teacher123"}); err != nil {
		t.Errorf("Login() with old password error = %v", err)
	}
	_, err = auth.Login(f.ctx, &models.LoginRequest{Email: "john.smith@example.com", Password: "newpass1"})
	assertErrorIs(t, err, ErrUnauthorized)

	if stored := f.user(t, "teacher1"); stored.Email != "john.smith@example.com" {
		t.Errorf("stored email = %s", stored.Email)
	}
}

func TestSettingsService_NotificationSettings(t *testing.T) {
	f := newFixture(t)
	settings := f.manager.Settings()
	student := f.user(t, "student2")

	got, err := settings.GetNotificationSettings(f.ctx, student)
	if err != nil {
		t.Fatalf("GetNotificationSettings() error = %v", err)
	}
	if *got != *models.DefaultNotificationSettings("student2") {
		t.Errorf("defaults = %+v", got)
	}

	updated, err := settings.UpdateNotificationSettings(f.ctx, student, &models.NotificationSettingsRequest{
		AttendanceAlerts: ptr(false),
		ReportGeneration: ptr(true),
	})
	if err != nil {
		t.Fatalf("UpdateNotificationSettings() error = %v", err)
	}
	if updated.AttendanceAlerts || !updated.ReportGeneration || !updated.EmailNotifications || !updated.SystemUpdates {
		t.Errorf("UpdateNotificationSettings() = %+v", updated)
	}

	stored, err := settings.GetNotificationSettings(f.ctx, student)
	if err != nil {
		t.Fatalf("GetNotificationSettings() error = %v", err)
	}
	if stored.AttendanceAlerts || !stored.ReportGeneration {
		t.Errorf("stored = %+v", stored)
	}

	_, err = settings.GetNotificationSettings(f.ctx, nil)
	assertErrorIs(t, err, ErrUnauthorized)
}
