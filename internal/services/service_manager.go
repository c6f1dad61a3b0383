package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/attendance-service/internal/events"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
	"github.com/SAP-F-2025/attendance-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// Event source stamped on published events
	ServiceName string

	// Students below this percentage in a class trigger a low attendance event
	LowAttendanceThreshold float64

	// DemoMode exposes the quick login accounts
	DemoMode bool

	DefaultPageSize int
	MaxPageSize     int

	// Now is the clock used for "today"; defaults to time.Now
	Now func() time.Time
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	identity  repositories.IdentityProvider
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	// Service instances
	authService       AuthService
	userService       UserService
	departmentService DepartmentService
	classService      ClassService
	attendanceService AttendanceService
	reportService     ReportService
	dashboardService  DashboardService
	settingsService   SettingsService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(repo repositories.Repository, identity repositories.IdentityProvider, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = 20
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = 100
	}
	if config.ServiceName == "" {
		config.ServiceName = "attendance-service"
	}

	return &serviceManager{
		repo:      repo,
		identity:  identity,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(repo repositories.Repository, identity repositories.IdentityProvider, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ServiceManager {
	config := ServiceManagerConfig{
		ServiceName:            "attendance-service",
		LowAttendanceThreshold: GoodStandingThreshold,
		DefaultPageSize:        20,
		MaxPageSize:            100,
		Now:                    time.Now,
	}

	return NewServiceManager(repo, identity, publisher, logger, validator, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.initializeServices(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices(ctx context.Context) error {
	if sm.repo == nil {
		return fmt.Errorf("repository is required")
	}
	if sm.identity == nil {
		return fmt.Errorf("identity provider is required")
	}

	base := serviceBase{
		repo:      sm.repo,
		publisher: sm.publisher,
		logger:    sm.logger,
		validator: sm.validator,
		config:    sm.config,
	}

	sm.authService = NewAuthService(base, sm.identity)
	sm.logger.Info("Auth service initialized", "provider", sm.identity.Name())

	sm.userService = NewUserService(base, sm.identity)
	sm.logger.Info("User service initialized")

	sm.departmentService = NewDepartmentService(base)
	sm.logger.Info("Department service initialized")

	sm.classService = NewClassService(base)
	sm.logger.Info("Class service initialized")

	sm.attendanceService = NewAttendanceService(base)
	sm.logger.Info("Attendance service initialized", "low_attendance_threshold", sm.config.LowAttendanceThreshold)

	sm.reportService = NewReportService(base)
	sm.logger.Info("Report service initialized")

	sm.dashboardService = NewDashboardService(base)
	sm.logger.Info("Dashboard service initialized")

	sm.settingsService = NewSettingsService(base, sm.identity)
	sm.logger.Info("Settings service initialized")

	return nil
}

// Service getters
func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.authService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.userService
}

func (sm *serviceManager) Department() DepartmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.departmentService
}

func (sm *serviceManager) Class() ClassService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.classService
}

func (sm *serviceManager) Attendance() AttendanceService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.attendanceService
}

func (sm *serviceManager) Report() ReportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.reportService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.dashboardService
}

func (sm *serviceManager) Settings() SettingsService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.settingsService
}

func (sm *serviceManager) mustBeInitialized() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down successfully")

	return nil
}

// IsInitialized reports whether Initialize has completed
func (sm *serviceManager) IsInitialized() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.initialized
}
