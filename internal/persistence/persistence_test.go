package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/config"
	"github.com/spec-kit/identity-service/internal/domain"
)

func TestRunMigrationsSeedsRolesIdempotently(t *testing.T) {
	db, err := NewSQLite(MemoryDSN, false)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	ctx := context.Background()
	require.NoError(t, RunMigrations(ctx, db.DB, zap.NewNop()))
	require.NoError(t, RunMigrations(ctx, db.DB, zap.NewNop()))

	var roles []domain.Role
	require.NoError(t, db.DB.Order("id").Find(&roles).Error)
	require.Len(t, roles, len(domain.SystemRoles()))
	assert.Equal(t, domain.RoleNameAdmin, roles[0].Name)
	assert.Equal(t, domain.RoleIDCustomer, roles[4].ID)
	assert.Equal(t, domain.RoleNameCustomer, roles[4].Name)

	for _, table := range []string{"users", "roles", "user_login_logs", "user_audit_logs"} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}
}

func TestOpenSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "identity.db")
	db, err := Open(context.Background(), config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: path}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	assert.NoError(t, db.Ping(context.Background()))
	assert.FileExists(t, path)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}

func TestDisabledRedis(t *testing.T) {
	r := NewRedis(config.RedisConfig{}, zap.NewNop())
	assert.False(t, r.Enabled())
	assert.Error(t, r.Ping(context.Background()))
	r.Close()
}

func TestNilDatabasePing(t *testing.T) {
	var db *Database
	assert.Error(t, db.Ping(context.Background()))
	db.Close()
}
