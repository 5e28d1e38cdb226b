package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/identity-service/internal/domain"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

const adminID = "99999999-9999-9999-9999-999999999999"

var admin = Actor{UserID: adminID, IPAddress: "192.168.1.10"}

func strPtr(s string) *string { return &s }

func staffInput() CreateUserInput {
	return CreateUserInput{
		FullName: "Sam Staff",
		Email:    "sam@x.com",
		Password: "staffpass",
		RoleName: "Staff",
		Phone:    strPtr("0911111111"),
	}
}

func TestAdminCreateUserValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		field  string
		mutate func(*CreateUserInput)
	}{
		{"full_name", func(in *CreateUserInput) { in.FullName = " " }},
		{"email", func(in *CreateUserInput) { in.Email = "" }},
		{"password", func(in *CreateUserInput) { in.Password = "" }},
		{"role_name", func(in *CreateUserInput) { in.RoleName = "\t" }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			in := staffInput()
			tt.mutate(&in)
			_, err := env.svc.AdminCreateUser(context.Background(), admin, in)
			require.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
			assert.Equal(t, tt.field, apperrors.ToDomainError(err).Details["field"])
		})
	}
}

func TestAdminCreateUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	profile, err := env.svc.AdminCreateUser(ctx, admin, staffInput())
	require.NoError(t, err)
	assert.Equal(t, "sam@x.com", profile.Email)
	assert.Equal(t, domain.UserStatusActive, profile.Status)
	assert.False(t, profile.EmailVerified)
	assert.Equal(t, domain.RoleIDStaff, profile.Role.ID)
	assert.Equal(t, "Staff", profile.Role.Name)
	require.NotNil(t, profile.Phone)

	login, err := env.svc.Login(ctx, LoginInput{Email: "sam@x.com", Password: "staffpass"})
	require.NoError(t, err)
	assert.Equal(t, profile.ID, login.User.ID)

	trail, err := env.auditLogs.ListByUser(ctx, profile.ID, 0)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, domain.AuditActionCreate, trail[0].Action)
	assert.Equal(t, adminID, trail[0].PerformedBy)
	assert.Equal(t, domain.AuditEntityUser, trail[0].EntityType)
	assert.Nil(t, trail[0].OldValues)
	require.NotNil(t, trail[0].NewValues)
	require.NotNil(t, trail[0].IPAddress)
	assert.Equal(t, "192.168.1.10", *trail[0].IPAddress)

	var snap domain.UserProfile
	require.NoError(t, json.Unmarshal([]byte(*trail[0].NewValues), &snap))
	assert.Equal(t, "sam@x.com", snap.Email)
}

func TestAdminCreateUserConflicts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, aliceInput())

	in := staffInput()
	in.Email = "a@x.com"
	_, err := env.svc.AdminCreateUser(ctx, admin, in)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateEmail))

	in = staffInput()
	in.RoleName = "Wizard"
	_, err = env.svc.AdminCreateUser(ctx, admin, in)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRoleNotFound))
}

func TestAdminUpdateUserNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.AdminUpdateUser(context.Background(), admin, "00000000-0000-0000-0000-000000000001", UpdateUserInput{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUserNotFound))
}

func TestAdminUpdateUserEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	aliceID := env.register(t, aliceInput())
	bob := aliceInput()
	bob.Email = "b@x.com"
	bobID := env.register(t, bob)

	_, err := env.svc.AdminUpdateUser(ctx, admin, bobID, UpdateUserInput{Email: strPtr("a@x.com")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateEmail))

	profile, err := env.svc.AdminUpdateUser(ctx, admin, aliceID, UpdateUserInput{Email: strPtr(" a@x.com ")})
	require.NoError(t, err, "keeping your own email is not a conflict")
	assert.Equal(t, "a@x.com", profile.Email)

	_, err = env.svc.AdminUpdateUser(ctx, admin, aliceID, UpdateUserInput{Email: strPtr("  ")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	profile, err = env.svc.AdminUpdateUser(ctx, admin, bobID, UpdateUserInput{Email: strPtr("bob@x.com")})
	require.NoError(t, err)
	assert.Equal(t, "bob@x.com", profile.Email)
}

func TestAdminUpdateUserFields(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.register(t, aliceInput())

	profile, err := env.svc.AdminUpdateUser(ctx, admin, id, UpdateUserInput{
		FullName: strPtr(""),
		Phone:    strPtr("0999999999"),
	})
	require.NoError(t, err)
	require.NotNil(t, profile.FullName)
	assert.Equal(t, "Alice", *profile.FullName, "empty name leaves the current one")
	assert.Equal(t, "0999999999", *profile.Phone)

	_, err = env.svc.AdminUpdateUser(ctx, admin, id, UpdateUserInput{Password: strPtr(" ")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = env.svc.AdminUpdateUser(ctx, admin, id, UpdateUserInput{Password: strPtr("newsecret")})
	require.NoError(t, err)

	_, err = env.svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "secret1"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))
	_, err = env.svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "newsecret"})
	assert.NoError(t, err)

	trail, err := env.auditLogs.ListByAction(ctx, domain.AuditActionResetPassword, 0)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, id, trail[0].UserID)
}

func TestAdminUpdateUserStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.register(t, aliceInput())

	bogus := domain.UserStatus("DELETED")
	_, err := env.svc.AdminUpdateUser(ctx, admin, id, UpdateUserInput{Status: &bogus})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	suspended := domain.UserStatus("suspended")
	profile, err := env.svc.AdminUpdateUser(ctx, admin, id, UpdateUserInput{Status: &suspended})
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusSuspended, profile.Status)

	_, err = env.svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "secret1"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAccountNotActive))

	trail, err := env.auditLogs.ListByUser(ctx, id, 0)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, domain.AuditActionSuspend, trail[0].Action)
	require.NotNil(t, trail[0].OldValues)

	var before domain.UserProfile
	require.NoError(t, json.Unmarshal([]byte(*trail[0].OldValues), &before))
	assert.Equal(t, domain.UserStatusActive, before.Status)
}

func TestUpdateAction(t *testing.T) {
	tests := []struct {
		name     string
		status   domain.UserStatus
		statusCh bool
		pwCh     bool
		fields   int
		want     domain.AuditAction
	}{
		{"activate", domain.UserStatusActive, true, false, 1, domain.AuditActionActivate},
		{"deactivate", domain.UserStatusInactive, true, true, 2, domain.AuditActionDeactivate},
		{"suspend", domain.UserStatusSuspended, true, false, 3, domain.AuditActionSuspend},
		{"password only", domain.UserStatusActive, false, true, 1, domain.AuditActionResetPassword},
		{"password and email", domain.UserStatusActive, false, true, 2, domain.AuditActionUpdate},
		{"nothing", domain.UserStatusActive, false, false, 0, domain.AuditActionUpdate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, updateAction(tt.status, tt.statusCh, tt.pwCh, tt.fields))
		})
	}
}

func TestListUsersAndRoleFallback(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	aliceID := env.register(t, aliceInput())

	orphan := &domain.User{Email: "orphan@x.com", PasswordHash: "x", RoleID: 42, Status: domain.UserStatusActive}
	require.NoError(t, env.users.Create(ctx, orphan))

	profiles, err := env.svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	byID := map[string]domain.UserProfile{}
	for _, p := range profiles {
		byID[p.ID] = p
	}
	assert.Equal(t, domain.RoleNameCustomer, byID[aliceID].Role.Name)
	require.NotNil(t, byID[aliceID].Role.Description)
	assert.Equal(t, 0, byID[orphan.ID].Role.ID)
	assert.Equal(t, domain.RoleNameUnknown, byID[orphan.ID].Role.Name)

	single, err := env.svc.GetUserByID(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleNameUnknown, single.Role.Name)
}

func TestGetUserByIDNotFound(t *testing.T) {
	env := newTestEnv(t)
	for _, id := range []string{"00000000-0000-0000-0000-000000000002", "abc"} {
		_, err := env.svc.GetUserByID(context.Background(), id)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeUserNotFound), id)

		_, err = env.svc.AdminUpdateUser(context.Background(), admin, id, UpdateUserInput{FullName: strPtr("Ghost")})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeUserNotFound), id)
	}
}

func TestLoginHistory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.register(t, aliceInput())

	for i := 0; i < 3; i++ {
		_, _ = env.svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "bad"})
	}
	_, err := env.svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	history, err := env.svc.ListLoginHistory(ctx, id, 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	failed, err := env.svc.RecentFailedLogins(ctx, id, time.Hour)
	require.NoError(t, err)
	assert.Len(t, failed, 3)

	_, err = env.svc.ListLoginHistory(ctx, "00000000-0000-0000-0000-000000000003", 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUserNotFound))
}

func TestListAuditTrailAndRoles(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	profile, err := env.svc.AdminCreateUser(ctx, admin, staffInput())
	require.NoError(t, err)
	_, err = env.svc.AdminUpdateUser(ctx, admin, profile.ID, UpdateUserInput{FullName: strPtr("Samantha")})
	require.NoError(t, err)

	trail, err := env.svc.ListAuditTrail(ctx, profile.ID, 0)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	actions := []domain.AuditAction{trail[0].Action, trail[1].Action}
	assert.ElementsMatch(t, []domain.AuditAction{domain.AuditActionCreate, domain.AuditActionUpdate}, actions)

	roles, err := env.svc.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, len(domain.SystemRoles()))
}

func TestDeleteRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, aliceInput())

	err := env.svc.DeleteRole(ctx, admin, domain.RoleIDCustomer)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "got %v", err)

	require.NoError(t, env.svc.DeleteRole(ctx, admin, domain.RoleIDSupport))

	err = env.svc.DeleteRole(ctx, admin, domain.RoleIDSupport)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), "got %v", err)

	roles, err := env.svc.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, len(domain.SystemRoles())-1)
}
