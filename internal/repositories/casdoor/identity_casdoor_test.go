package casdoor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/oauth2"

	"github.com/SAP-F-2025/attendance-service/internal/cache"
	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
	"github.com/SAP-F-2025/attendance-service/internal/repositories/memory"
)

type fakeClient struct {
	claims   map[string]*casdoorsdk.Claims
	accounts map[string]*casdoorsdk.User
	added    []*casdoorsdk.User
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		claims:   map[string]*casdoorsdk.Claims{},
		accounts: map[string]*casdoorsdk.User{},
	}
}

func (f *fakeClient) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	claims, ok := f.claims[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return claims, nil
}

func (f *fakeClient) GetUserByEmail(email string) (*casdoorsdk.User, error) {
	return f.accounts[email], nil
}

func (f *fakeClient) AddUser(user *casdoorsdk.User) (bool, error) {
	user.Id = "cd-" + user.Name
	f.accounts[user.Email] = user
	f.added = append(f.added, user)
	return true, nil
}

func (f *fakeClient) UpdateUser(user *casdoorsdk.User) (bool, error) {
	f.accounts[user.Email] = user
	return true, nil
}

func (f *fakeClient) DeleteUser(user *casdoorsdk.User) (bool, error) {
	delete(f.accounts, user.Email)
	return true, nil
}

func (f *fakeClient) SetPassword(owner, name, oldPassword, newPassword string) (bool, error) {
	if oldPassword != "old-secret" {
		return false, errors.New("old password is wrong")
	}
	return true, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveRole(t *testing.T) {
	tests := []struct {
		name    string
		account *casdoorsdk.User
		want    models.UserRole
	}{
		{name: "admin flag", account: &casdoorsdk.User{IsAdmin: true, Type: "student"}, want: models.RoleAdmin},
		{name: "type management", account: &casdoorsdk.User{Type: "management"}, want: models.RoleManagement},
		{name: "roles beat type", account: &casdoorsdk.User{Type: "student", Roles: []*casdoorsdk.Role{{Name: "teacher"}}}, want: models.RoleTeacher},
		{name: "highest role wins", account: &casdoorsdk.User{Roles: []*casdoorsdk.Role{{Name: "teacher"}, {Name: "manager"}}}, want: models.RoleManagement},
		{name: "unknown defaults to student", account: &casdoorsdk.User{Type: "normal-user"}, want: models.RoleStudent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveRole(tt.account); got != tt.want {
				t.Errorf("resolveRole() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvertCasdoorUser(t *testing.T) {
	account := &casdoorsdk.User{
		Id:          "cd-1",
		Name:        "alice_j",
		DisplayName: "Alice Johnson",
		Email:       "alice.j@example.com",
		Type:        "student",
		Avatar:      "https://example.com/a.png",
		Properties:  map[string]string{"student_id": "STU001", "department": "dept1", "teacher_id": "ignored"},
	}

	user := convertCasdoorUser(account)
	if user == nil {
		t.Fatal("convertCasdoorUser() returned nil")
	}
	if user.Name != "Alice Johnson" || user.Role != models.RoleStudent {
		t.Errorf("unexpected user %+v", user)
	}
	if user.StudentID == nil || *user.StudentID != "STU001" {
		t.Errorf("StudentID = %v, want STU001", user.StudentID)
	}
	if user.TeacherID != nil {
		t.Errorf("TeacherID should be empty for students, got %v", *user.TeacherID)
	}
	if user.ExternalID == nil || *user.ExternalID != "cd-1" {
		t.Errorf("ExternalID = %v, want cd-1", user.ExternalID)
	}

	if convertCasdoorUser(&casdoorsdk.User{Id: "x"}) != nil {
		t.Error("accounts without email should not convert")
	}
}

func TestIdentityCasdoor_SignInMirrorsAndLinks(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMemoryRepository()
	seeded := &models.User{ID: "teacher1", Name: "John Smith", Email: "john.smith@example.com", Role: models.RoleTeacher}
	if err := repo.User().Create(ctx, seeded); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	fake := newFakeClient()
	fake.claims["tok"] = &casdoorsdk.Claims{
		User: casdoorsdk.User{Id: "cd-42", DisplayName: "John Smith", Email: "john.smith@example.com", Type: "teacher"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	grant := func(ctx context.Context, username, password string) (*oauth2.Token, error) {
		if password != "teacher123" {
			return nil, &oauth2.RetrieveError{}
		}
		return &oauth2.Token{AccessToken: "tok"}, nil
	}

	provider := newIdentityCasdoor(fake, grant, "org", repo.User(), cache.NewTokenDenylist(nil), testLogger())

	if _, err := provider.SignIn(ctx, "john.smith@example.com", "wrong"); !errors.Is(err, repositories.ErrInvalidCredentials) {
		t.Fatalf("SignIn(wrong) error = %v, want ErrInvalidCredentials", err)
	}

	session, err := provider.SignIn(ctx, "john.smith@example.com", "teacher123")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if session.User.ID != "teacher1" {
		t.Errorf("signed-in user = %s, want the seeded teacher1", session.User.ID)
	}

	linked, err := repo.User().GetByExternalID(ctx, "cd-42")
	if err != nil || linked.ID != "teacher1" {
		t.Errorf("account not linked: %v, %v", linked, err)
	}

	if err := provider.SignOut(ctx, "tok"); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if _, _, err := provider.Session(ctx, "tok"); !errors.Is(err, repositories.ErrInvalidToken) {
		t.Errorf("Session() after sign-out error = %v, want ErrInvalidToken", err)
	}
}

func TestIdentityCasdoor_SignUpAndChangePassword(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMemoryRepository()
	fake := newFakeClient()
	provider := newIdentityCasdoor(fake, nil, "org", repo.User(), cache.NewTokenDenylist(nil), testLogger())

	code := "STU010"
	user, err := provider.SignUp(ctx, repositories.SignUpParams{
		Name:         "Dana Lee",
		Email:        "dana@example.com",
		Password:     "secret1",
		Role:         models.RoleStudent,
		StudentID:    &code,
		ProfileImage: models.DefaultProfileImage("Dana Lee", models.RoleStudent),
	})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if user.StudentID == nil || *user.StudentID != code {
		t.Errorf("StudentID not carried through properties: %v", user.StudentID)
	}
	if len(fake.added) != 1 || fake.added[0].Name != "dana" {
		t.Errorf("unexpected casdoor accounts %+v", fake.added)
	}

	if _, err := provider.SignUp(ctx, repositories.SignUpParams{Email: "dana@example.com"}); !errors.Is(err, repositories.ErrEmailExists) {
		t.Errorf("duplicate SignUp() error = %v, want ErrEmailExists", err)
	}

	if err := provider.ChangePassword(ctx, user, "nope", "next-secret"); !errors.Is(err, repositories.ErrInvalidCredentials) {
		t.Errorf("ChangePassword(wrong) error = %v", err)
	}
	if err := provider.ChangePassword(ctx, user, "old-secret", "next-secret"); err != nil {
		t.Errorf("ChangePassword() error = %v", err)
	}
}
