package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Create_TenantAccount(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	tenant := env.newTenant("Portal User")

	user := &models.User{Email: " Portal@Example.com ", FullName: "Portal User", Role: models.RoleTenant, TenantID: &tenant.ID}
	require.NoError(t, env.svcs.User.Create(env.ctx, SystemActor, user, ""))
	assert.NotZero(t, user.ID)
	assert.Equal(t, "portal@example.com", user.Email)
	assert.NotEmpty(t, user.EncryptedPassword)

	linked, err := env.repos.User.FindByTenant(env.ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, linked.ID)

	second := &models.User{Email: "second@example.com", Role: models.RoleTenant, TenantID: &tenant.ID}
	err = env.svcs.User.Create(env.ctx, SystemActor, second, "")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserService_Create_Validation(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	missing := uint(9999)

	tests := []struct {
		name     string
		user     models.User
		password string
		want     error
	}{
		{"no email", models.User{FullName: "x"}, "", ErrValidation},
		{"bad email", models.User{Email: "nobody"}, "", ErrValidation},
		{"unknown role", models.User{Email: "a@example.com", Role: "owner"}, "", ErrValidation},
		{"tenant without link", models.User{Email: "b@example.com", Role: models.RoleTenant}, "", ErrValidation},
		{"tenant missing", models.User{Email: "c@example.com", Role: models.RoleTenant, TenantID: &missing}, "", ErrNotFound},
		{"short password", models.User{Email: "d@example.com"}, "short", ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := tt.user
			err := env.svcs.User.Create(env.ctx, SystemActor, &user, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUserService_Create_StaffDropsTenantLink(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	tenant := env.newTenant("Not Linked")

	user := &models.User{Email: "manager@example.com", TenantID: &tenant.ID}
	require.NoError(t, env.svcs.User.Create(env.ctx, SystemActor, user, "longenough"))
	assert.Equal(t, models.RoleManager, user.Role)
	assert.Nil(t, user.TenantID)

	err := env.svcs.User.Create(env.ctx, SystemActor, &models.User{Email: "MANAGER@example.com"}, "longenough")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserService_ChangePasswordAndDelete(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	user := &models.User{Email: "acct@example.com", Role: models.RoleAccountant}
	require.NoError(t, env.svcs.User.Create(env.ctx, SystemActor, user, "first-password"))
	self := Actor{UserID: user.ID, Role: user.Role}

	err := env.svcs.User.ChangePassword(env.ctx, self, "wrong-password", "second-password")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	require.NoError(t, env.svcs.User.ChangePassword(env.ctx, self, "first-password", "second-password"))

	reloaded, err := env.svcs.User.FindByID(env.ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, VerifyPassword("second-password", reloaded.EncryptedPassword))

	assert.ErrorIs(t, env.svcs.User.Delete(env.ctx, self, user.ID), ErrPrecondition)
	require.NoError(t, env.svcs.User.Delete(env.ctx, SystemActor, user.ID))
	_, err = env.svcs.User.FindByID(env.ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, env.svcs.User.Restore(env.ctx, SystemActor, user.ID))
	_, err = env.svcs.User.FindByID(env.ctx, user.ID)
	assert.NoError(t, err)
}

func TestAmountInWords(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "ZERO AED AND 00/100"},
		{"15", "FIFTEEN AED AND 00/100"},
		{"1500.50", "ONE THOUSAND FIVE HUNDRED AED AND 50/100"},
		{"21", "TWENTY-ONE AED AND 00/100"},
		{"1000000", "ONE MILLION AED AND 00/100"},
		{"2345678.09", "TWO MILLION THREE HUNDRED FORTY-FIVE THOUSAND SIX HUNDRED SEVENTY-EIGHT AED AND 09/100"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, AmountInWords(decimal.RequireFromString(tt.amount), "aed"))
		})
	}
}
