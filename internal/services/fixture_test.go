package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/SAP-F-2025/attendance-service/internal/cache"
	"github.com/SAP-F-2025/attendance-service/internal/config"
	"github.com/SAP-F-2025/attendance-service/internal/events"
	"github.com/SAP-F-2025/attendance-service/internal/models"
	"github.com/SAP-F-2025/attendance-service/internal/repositories/local"
	"github.com/SAP-F-2025/attendance-service/internal/repositories/memory"
	"github.com/SAP-F-2025/attendance-service/internal/seed"
	"github.com/SAP-F-2025/attendance-service/internal/validator"
)

// Monday, so class1 and class3 meet "today"
var fixedNow = time.Date(2023, time.April, 10, 10, 0, 0, 0, time.Local)

const fixedToday = "2023-04-10"

var errPublish = errors.New("broker unavailable")

type fixture struct {
	ctx       context.Context
	repo      *memory.MemoryRepository
	publisher *events.MockEventPublisher
	manager   ServiceManager
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cheapHash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(hash), err
}

// newFixture wires every service over the seeded demo dataset
func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	logger := discardLogger()
	repo := memory.NewMemoryRepository()
	if err := seed.Load(ctx, repo, logger, seed.WithPasswordHasher(cheapHash)); err != nil {
		t.Fatalf("seed.Load() error = %v", err)
	}

	identity := local.NewIdentityLocal(config.AuthConfig{
		Provider:  config.AuthProviderLocal,
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
		Issuer:    "attendance-test",
	}, repo.User(), cache.NewTokenDenylist(nil))

	publisher := events.NewMockEventPublisher(logger)
	manager := NewServiceManager(repo, identity, publisher, logger, validator.New(), ServiceManagerConfig{
		LowAttendanceThreshold: GoodStandingThreshold,
		DemoMode:               true,
		Now:                    func() time.Time { return fixedNow },
	})
	if err := manager.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	return &fixture{
		ctx:       ctx,
		repo:      repo,
		publisher: publisher,
		manager:   manager,
	}
}

func (f *fixture) user(t *testing.T, id string) *models.User {
	t.Helper()
	user, err := f.repo.User().GetByID(f.ctx, id)
	if err != nil {
		t.Fatalf("GetByID(%s) error = %v", id, err)
	}
	return user
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

func ptr[T any](v T) *T {
	return &v
}
