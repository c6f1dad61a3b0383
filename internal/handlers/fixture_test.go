package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/SAP-F-2025/attendance-service/internal/cache"
	"github.com/SAP-F-2025/attendance-service/internal/config"
	"github.com/SAP-F-2025/attendance-service/internal/events"
	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/realtime"
	"github.com/SAP-F-2025/attendance-service/internal/repositories/local"
	"github.com/SAP-F-2025/attendance-service/internal/repositories/memory"
	"github.com/SAP-F-2025/attendance-service/internal/seed"
	"github.com/SAP-F-2025/attendance-service/internal/services"
	"github.com/SAP-F-2025/attendance-service/internal/utils"
	"github.com/SAP-F-2025/attendance-service/internal/validator"
)

// Monday, so class1 and class3 meet "today"
var fixedNow = time.Date(2023, time.April, 10, 10, 0, 0, 0, time.Local)

const (
	adminEmail   = "admin@example.com"
	mgmtEmail    = "management@example.com"
	teacherEmail = "john.smith@example.com"
	student1     = "alice.j@example.com"
	student2     = "bob.w@example.com"
)

var demoPasswords = map[string]string{
	adminEmail:   "admin123",
	mgmtEmail:    "mgmt123",
	teacherEmail: "teacher123",
}

type testServer struct {
	ctx       context.Context
	router    *gin.Engine
	repo      *memory.MemoryRepository
	publisher *events.MockEventPublisher
	hub       *realtime.Hub
	handlers  *HandlerManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := memory.NewMemoryRepository()
	cheapHash := func(password string) (string, error) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		return string(hash), err
	}
	if err := seed.Load(ctx, repo, slogger, seed.WithPasswordHasher(cheapHash)); err != nil {
		t.Fatalf("seed.Load() error = %v", err)
	}

	identity := local.NewIdentityLocal(config.AuthConfig{
		Provider:  config.AuthProviderLocal,
		JWTSecret: "handler-secret",
		TokenTTL:  time.Hour,
		Issuer:    "attendance-test",
	}, repo.User(), cache.NewTokenDenylist(nil))

	publisher := events.NewMockEventPublisher(slogger)
	manager := services.NewServiceManager(repo, identity, publisher, slogger, validator.New(), services.ServiceManagerConfig{
		LowAttendanceThreshold: services.GoodStandingThreshold,
		DemoMode:               true,
		Now:                    func() time.Time { return fixedNow },
	})
	if err := manager.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	hub := realtime.NewHub(slogger)
	logger := utils.NewSlogLogger(slogger)

	router := gin.New()
	SetupMiddleware(router, logger)
	handlerManager := NewHandlerManager(manager, hub, logger, "attendance-test")
	handlerManager.SetupRoutes(router)

	return &testServer{
		ctx:       ctx,
		router:    router,
		repo:      repo,
		publisher: publisher,
		hub:       hub,
		handlers:  handlerManager,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json.Marshal() error = %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// login signs in a seeded account; students share their demo password pattern
func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()

	password, ok := demoPasswords[email]
	if !ok {
		password = "student123"
	}

	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: email, Password: password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	resp := decode[models.AuthResponse](t, rec)
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, want, rec.Body.String())
	}
}
