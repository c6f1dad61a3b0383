package services

import (
	"testing"

	"github.com/SAP-F-2025/attendance-service/internal/events"
	"github.com/SAP-F-2025/attendance-service/internal/models"
)

func TestAuthService_LoginAndSession(t *testing.T) {
	f := newFixture(t)
	auth := f.manager.Auth()

	resp, err := auth.Login(f.ctx, &models.LoginRequest{Email: "admin@example.com", Password: "admin123"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.TokenType != "Bearer" || resp.Token == "" {
		t.Errorf("Login() = %+v", resp)
	}
	if resp.User.ID != "admin1" || resp.User.Role != models.RoleAdmin {
		t.Errorf("Login() user = %+v", resp.User)
	}

	user, err := auth.CurrentUser(f.ctx, resp.Token)
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if user.ID != "admin1" {
		t.Errorf("CurrentUser() = %s, want admin1", user.ID)
	}

	if err := auth.Logout(f.ctx, resp.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	_, err = auth.CurrentUser(f.ctx, resp.Token)
	assertErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_LoginFailures(t *testing.T) {
	f := newFixture(t)
	auth := f.manager.Auth()

	tests := []struct {
		name string
		req  *models.LoginRequest
		want error
	}{
		{name: "wrong password", req: &models.LoginRequest{Email: "admin@example.com", Password: "nope"}, want: ErrUnauthorized},
		{name: "unknown email", req: &models.LoginRequest{Email: "ghost@example.com", Password: "admin123"}, want: ErrUnauthorized},
		{name: "invalid email", req: &models.LoginRequest{Email: "admin", Password: "admin123"}, want: ErrValidationFailed},
		{name: "missing password", req: &models.LoginRequest{Email: "admin@example.com"}, want: ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Login(f.ctx, tt.req)
			assertErrorIs(t, err, tt.want)
		})
	}

	_, err := auth.CurrentUser(f.ctx, "")
	assertErrorIs(t, err, ErrUnauthorized)
	_, err = auth.CurrentUser(f.ctx, "not-a-token")
	assertErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_Signup(t *testing.T) {
	f := newFixture(t)
	auth := f.manager.Auth()

	req := &models.SignupRequest{
		FullName:        "Dana Lee",
		Email:           "dana.lee@example.com",
		StudentID:       "STU100",
		Department:      "dept1",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
	user, err := auth.Signup(f.ctx, req)
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if user.Role != models.RoleStudent || user.RoleCode() != "STU100" || user.DepartmentID() != "dept1" {
		t.Errorf("Signup() = %+v", user)
	}
	if user.ProfileImage == nil || *user.ProfileImage != models.DefaultProfileImage("Dana Lee", models.RoleStudent) {
		t.Errorf("ProfileImage = %v", user.ProfileImage)
	}

	registered := f.publisher.EventsOfType(events.EventUserRegistered)
	if len(registered) != 1 {
		t.Fatalf("user.registered events = %d, want 1", len(registered))
	}
	var data events.UserRegisteredData
	if err := registered[0].Decode(&data); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if data.UserID != user.ID || data.StudentID != "STU100" {
		t.Errorf("event data = %+v", data)
	}

	if _, err := auth.Login(f.ctx, &models.LoginRequest{Email: req.Email, Password: req.Password}); err != nil {
		t.Errorf("Login() after signup error = %v", err)
	}
}

func TestAuthService_SignupRejects(t *testing.T) {
	f := newFixture(t)
	auth := f.manager.Auth()

	valid := func() *models.SignupRequest {
		return &models.SignupRequest{
			FullName:        "Dana Lee",
			Email:           "dana.lee@example.com",
			StudentID:       "STU100",
			Password:        "secret1",
			ConfirmPassword: "secret1",
		}
	}

	tests := []struct {
		name   string
		mutate func(*models.SignupRequest)
		want   error
	}{
		{name: "password mismatch", mutate: func(r *models.SignupRequest) { r.ConfirmPassword = "other" }, want: ErrValidationFailed},
		{name: "short password", mutate: func(r *models.SignupRequest) { r.Password, r.ConfirmPassword = "abc", "abc" }, want: ErrValidationFailed},
		{name: "taken email", mutate: func(r *models.SignupRequest) { r.Email = "alice.j@example.com" }, want: ErrConflict},
		{name: "taken student id", mutate: func(r *models.SignupRequest) { r.StudentID = "STU001" }, want: ErrConflict},
		{name: "unknown department", mutate: func(r *models.SignupRequest) { r.Department = "dept9" }, want: ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			_, err := auth.Signup(f.ctx, req)
			assertErrorIs(t, err, tt.want)
		})
	}

	if n := len(f.publisher.EventsOfType(events.EventUserRegistered)); n != 0 {
		t.Errorf("user.registered events = %d, want 0", n)
	}
}

func TestAuthService_QuickLoginOptions(t *testing.T) {
	f := newFixture(t)

	options := f.manager.Auth().QuickLoginOptions()
	if len(options) != 3 {
		t.Fatalf("QuickLoginOptions() = %d, want 3", len(options))
	}
	for _, option := range options {
		if _, err := f.manager.Auth().Login(f.ctx, &models.LoginRequest{Email: option.Email, Password: option.Password}); err != nil {
			t.Errorf("Login(%s) error = %v", option.Email, err)
		}
	}

	base := serviceBase{repo: f.repo, logger: discardLogger(), config: ServiceManagerConfig{}}
	if got := NewAuthService(base, nil).QuickLoginOptions(); len(got) != 0 {
		t.Errorf("QuickLoginOptions() outside demo mode = %d, want 0", len(got))
	}
}
