package services

import (
	"testing"
	"time"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantService_Create_LinksContact(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	idNumber := " 784-1990-1234567-1 "
	tenant := &models.Tenant{
		Name:     "  Amira Haddad ",
		Mobile:   "+971501112233",
		Email:    "amira@example.com",
		IDNumber: &idNumber,
		Status:   models.TenantStatusActive,
	}
	require.NoError(t, env.svcs.Tenant.Create(env.ctx, SystemActor, tenant))

	assert.Equal(t, "Amira Haddad", tenant.Name)
	assert.Equal(t, models.TenantStatusProspect, tenant.Status)
	assert.Equal(t, models.IDTypeEmiratesID, tenant.IDType)
	require.NotNil(t, tenant.IDNumber)
	assert.Equal(t, "784-1990-1234567-1", *tenant.IDNumber)
	require.NotZero(t, tenant.ContactID)

	contact, err := env.repos.Contact.FindByID(env.ctx, tenant.ContactID)
	require.NoError(t, err)
	assert.Equal(t, "Amira Haddad", contact.Name)
	assert.Equal(t, "+971501112233", contact.Mobile)
	assert.Equal(t, "amira@example.com", contact.Email)
}

func TestTenantService_Update_PropagatesToContact(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	tenant := env.newTenant("Omar Saleh")

	input := *tenant
	input.Name = "Omar K. Saleh"
	input.Mobile = "+971509998877"
	input.Email = "omar@example.com"
	updated, err := env.svcs.Tenant.Update(env.ctx, SystemActor, &input)
	require.NoError(t, err)
	assert.Equal(t, "Omar K. Saleh", updated.Name)

	contact, err := env.repos.Contact.FindByID(env.ctx, tenant.ContactID)
	require.NoError(t, err)
	assert.Equal(t, "Omar K. Saleh", contact.Name)
	assert.Equal(t, "+971509998877", contact.Mobile)
	assert.Equal(t, "omar@example.com", contact.Email)

	changes, err := env.svcs.Audit.ChangeLog(env.ctx, models.EntityTenant, tenant.ID)
	require.NoError(t, err)
	assert.Len(t, changes, 3)
}

func TestTenantService_RejectsDuplicateIdentity(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	idNumber := "P1234567"
	existing := &models.Tenant{Name: "First", Mobile: "+971555000001", IDNumber: &idNumber}
	require.NoError(t, env.svcs.Tenant.Create(env.ctx, SystemActor, existing))

	otherID := "P7654321"
	sameID := " P1234567"
	tests := []struct {
		name   string
		tenant *models.Tenant
	}{
		{"same mobile", &models.Tenant{Name: "Second", Mobile: " +971555000001 ", IDNumber: &otherID}},
		{"same id number", &models.Tenant{Name: "Third", Mobile: "+971555000003", IDNumber: &sameID}},
		{"missing mobile", &models.Tenant{Name: "Fourth"}},
		{"unknown id type", &models.Tenant{Name: "Fifth", Mobile: "+971555000005", IDType: "library_card"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.svcs.Tenant.Create(env.ctx, SystemActor, tt.tenant)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Equal(t, int64(1), env.count(&models.Tenant{}, "1 = 1"))
	assert.Equal(t, int64(1), env.count(&models.Contact{}, "1 = 1"))

	second := env.newTenant("Second")
	input := *second
	input.Mobile = existing.Mobile
	_, err := env.svcs.Tenant.Update(env.ctx, SystemActor, &input)
	assert.ErrorIs(t, err, ErrValidation)

	input = *existing
	input.Email = "first@example.com"
	_, err = env.svcs.Tenant.Update(env.ctx, SystemActor, &input)
	assert.NoError(t, err, "a tenant keeps its own mobile and id number")
}

func TestTenantService_ChangeStatus(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)

	_, err := env.svcs.Tenant.ChangeStatus(env.ctx, SystemActor, agreement.TenantID, TenantActionDeactivate, "")
	assert.ErrorIs(t, err, ErrPrecondition)

	blacklisted, err := env.svcs.Tenant.ChangeStatus(env.ctx, SystemActor, agreement.TenantID, TenantActionBlacklist, "bounced cheques")
	require.NoError(t, err)
	assert.Equal(t, models.TenantStatusBlacklisted, blacklisted.Status)

	reactivated, err := env.svcs.Tenant.ChangeStatus(env.ctx, SystemActor, agreement.TenantID, TenantActionReactivate, "")
	require.NoError(t, err)
	assert.Equal(t, models.TenantStatusActive, reactivated.Status)

	_, err = env.svcs.Tenant.ChangeStatus(env.ctx, SystemActor, agreement.TenantID, "promote", "")
	assert.ErrorIs(t, err, ErrValidation)

	err = env.svcs.Tenant.Delete(env.ctx, SystemActor, agreement.TenantID)
	assert.ErrorIs(t, err, ErrPrecondition)
}
