package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/events"
	"github.com/spec-kit/identity-service/internal/persistence"
	"github.com/spec-kit/identity-service/internal/repository"
)

type testEnv struct {
	svc        *AuthService
	users      repository.UserRepository
	roles      repository.RoleAdminRepository
	loginLogs  repository.LoginLogRepository
	auditLogs  repository.AuditLogRepository
	dispatcher events.Dispatcher
}

func newTestEnv(t *testing.T, overrides ...func(*AuthDependencies)) *testEnv {
	t.Helper()

	db, err := persistence.NewSQLite(persistence.MemoryDSN, false)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, persistence.RunMigrations(context.Background(), db.DB, zap.NewNop()))

	hasher, err := auth.NewPasswordHasher("bcrypt", bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret:          "service-test-secret",
		Issuer:          "IdentityService",
		Audience:        "IdentityServiceClient",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)

	env := &testEnv{
		users:      repository.NewUserRepository(db.DB),
		roles:      repository.NewRoleRepository(db.DB),
		loginLogs:  repository.NewLoginLogRepository(db.DB),
		auditLogs:  repository.NewAuditLogRepository(db.DB),
		dispatcher: events.NewInMemoryDispatcher(nil),
	}
	NewAuditRecorder(env.dispatcher, env.auditLogs, nil).RegisterHandlers()

	deps := AuthDependencies{
		UserRepo:     env.users,
		RoleRepo:     env.roles,
		LoginLogRepo: env.loginLogs,
		AuditLogRepo: env.auditLogs,
		Hasher:       hasher,
		Tokens:       tokens,
		Dispatcher:   env.dispatcher,
	}
	for _, o := range overrides {
		o(&deps)
	}
	env.svc = NewAuthService(deps)
	return env
}

func aliceInput() RegisterInput {
	return RegisterInput{
		FullName:        "Alice",
		Email:           "a@x.com",
		Phone:           "0912345678",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func (e *testEnv) register(t *testing.T, in RegisterInput) string {
	t.Helper()
	res, err := e.svc.Register(context.Background(), in)
	require.NoError(t, err)
	return res.UserID
}

func (e *testEnv) loginLogsFor(t *testing.T, userID string) []domain.LoginLog {
	t.Helper()
	logs, err := e.loginLogs.ListByUser(context.Background(), userID, 0)
	require.NoError(t, err)
	return logs
}

type mockLoginLogRepository struct {
	mock.Mock
}

func (m *mockLoginLogRepository) Create(ctx context.Context, entry *domain.LoginLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockLoginLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.LoginLog, error) {
	args := m.Called(ctx, userID, limit)
	logs, _ := args.Get(0).([]domain.LoginLog)
	return logs, args.Error(1)
}

func (m *mockLoginLogRepository) RecentFailed(ctx context.Context, userID string, since time.Time) ([]domain.LoginLog, error) {
	args := m.Called(ctx, userID, since)
	logs, _ := args.Get(0).([]domain.LoginLog)
	return logs, args.Error(1)
}

type mockAuditLogRepository struct {
	mock.Mock
}

func (m *mockAuditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockAuditLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.AuditLog, error) {
	args := m.Called(ctx, userID, limit)
	logs, _ := args.Get(0).([]domain.AuditLog)
	return logs, args.Error(1)
}

func (m *mockAuditLogRepository) ListByPerformer(ctx context.Context, performerID string, limit int) ([]domain.AuditLog, error) {
	args := m.Called(ctx, performerID, limit)
	logs, _ := args.Get(0).([]domain.AuditLog)
	return logs, args.Error(1)
}

func (m *mockAuditLogRepository) ListByAction(ctx context.Context, action domain.AuditAction, limit int) ([]domain.AuditLog, error) {
	args := m.Called(ctx, action, limit)
	logs, _ := args.Get(0).([]domain.AuditLog)
	return logs, args.Error(1)
}
