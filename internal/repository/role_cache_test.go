package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/identity-service/internal/domain"
)

type mockRoleRepository struct {
	mock.Mock
}

func (m *mockRoleRepository) GetByID(ctx context.Context, id int) (*domain.Role, error) {
	args := m.Called(ctx, id)
	role, _ := args.Get(0).(*domain.Role)
	return role, args.Error(1)
}

func (m *mockRoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	args := m.Called(ctx, name)
	role, _ := args.Get(0).(*domain.Role)
	return role, args.Error(1)
}

func (m *mockRoleRepository) GetAll(ctx context.Context) ([]domain.Role, error) {
	args := m.Called(ctx)
	roles, _ := args.Get(0).([]domain.Role)
	return roles, args.Error(1)
}

func (m *mockRoleRepository) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

// unreachableRedis fails every command quickly.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCachedRoleRepositoryFallsBackWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	inner := &mockRoleRepository{}
	customer := &domain.Role{ID: domain.RoleIDCustomer, Name: domain.RoleNameCustomer}
	inner.On("GetByID", ctx, domain.RoleIDCustomer).Return(customer, nil).Twice()
	inner.On("GetByName", ctx, "Wizard").Return(nil, ErrNotFound).Once()
	inner.On("GetAll", ctx).Return([]domain.Role{*customer}, nil).Once()

	cache := NewCachedRoleRepository(inner, unreachableRedis(t), time.Minute, nil)

	for i := 0; i < 2; i++ {
		role, err := cache.GetByID(ctx, domain.RoleIDCustomer)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleNameCustomer, role.Name)
	}

	_, err := cache.GetByName(ctx, "Wizard")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := cache.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.Error(t, cache.Invalidate(ctx))
	inner.AssertExpectations(t)
}

func TestCachedRoleRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	inner := &mockRoleRepository{}
	inner.On("Delete", ctx, domain.RoleIDSupport).Return(nil).Once()
	inner.On("Delete", ctx, domain.RoleIDCustomer).Return(ErrRoleInUse).Once()

	cache := NewCachedRoleRepository(inner, unreachableRedis(t), time.Minute, nil)

	assert.NoError(t, cache.Delete(ctx, domain.RoleIDSupport), "invalidation failure does not fail the delete")
	assert.ErrorIs(t, cache.Delete(ctx, domain.RoleIDCustomer), ErrRoleInUse)
	inner.AssertExpectations(t)
}
