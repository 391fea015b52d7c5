package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenantActor(tenantID uint) Actor {
	return Actor{UserID: 99, Role: models.RoleTenant, TenantID: &tenantID}
}

func TestPortalService_ScopesToOwnTenant(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 5))
	mine := env.activeAgreement(models.Date(2026, time.March, 1), nil)
	theirs := env.activeAgreement(models.Date(2026, time.March, 1), nil)

	myInvoice := env.postedInvoice(mine, 1500)
	theirInvoice := env.postedInvoice(theirs, 1500)
	draft := &models.Invoice{
		TenantID: mine.TenantID,
		Lines:    []models.InvoiceLine{{Description: "Pending", PriceUnit: decimal.NewFromInt(10)}},
	}
	require.NoError(t, env.svcs.Invoice.Create(env.ctx, SystemActor, draft))

	actor := tenantActor(mine.TenantID)

	query := repository.NewListQuery()
	query.Filters["tenant_id"] = "0"
	invoices, total, err := env.svcs.Portal.Invoices(env.ctx, actor, query)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, invoices, 1)
	assert.Equal(t, myInvoice.ID, invoices[0].ID)

	got, err := env.svcs.Portal.Invoice(env.ctx, actor, myInvoice.ID)
	require.NoError(t, err)
	assert.Equal(t, myInvoice.Name, got.Name)

	_, err = env.svcs.Portal.Invoice(env.ctx, actor, theirInvoice.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svcs.Portal.Invoice(env.ctx, actor, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	agreements, total, err := env.svcs.Portal.Agreements(env.ctx, actor, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, agreements, 1)
	assert.Equal(t, mine.ID, agreements[0].ID)

	_, err = env.svcs.Portal.Agreement(env.ctx, actor, theirs.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPortalService_SeesOwnCollectionsAndDues(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	mine := env.activeAgreement(models.Date(2026, time.February, 1), nil)
	env.activeAgreement(models.Date(2026, time.February, 1), nil)

	_, err := env.svcs.Billing.Run(env.ctx, SweepDues, env.today)
	require.NoError(t, err)
	invoice := env.postedInvoice(mine, 1500)
	_, _, err = env.svcs.Payment.RegisterPayment(env.ctx, SystemActor, invoice.ID, RegisterPaymentInput{Amount: decimal.NewFromInt(1500)})
	require.NoError(t, err)

	actor := tenantActor(mine.TenantID)

	dues, total, err := env.svcs.Portal.Dues(env.ctx, actor, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, dues, 1)
	assert.Equal(t, mine.TenantID, dues[0].TenantID)

	collections, total, err := env.svcs.Portal.Collections(env.ctx, actor, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, collections, 1)
	assert.Equal(t, mine.TenantID, collections[0].TenantID)
}

func TestPortalService_RejectsStaffAndUnlinkedAccounts(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))

	actors := map[string]Actor{
		"admin":          {UserID: 1, Role: models.RoleAdmin},
		"manager":        {UserID: 2, Role: models.RoleManager},
		"unlinked tenant": {UserID: 3, Role: models.RoleTenant},
	}
	for name, actor := range actors {
		t.Run(name, func(t *testing.T) {
			_, _, err := env.svcs.Portal.Invoices(env.ctx, actor, nil)
			assert.ErrorIs(t, err, ErrForbidden)
			_, _, err = env.svcs.Portal.Dues(env.ctx, actor, nil)
			assert.ErrorIs(t, err, ErrForbidden)
			_, err = env.svcs.Portal.Agreement(env.ctx, actor, 1)
			assert.ErrorIs(t, err, ErrForbidden)
		})
	}
}

func TestPortalService_HidesDrafts(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 5))
	active := env.activeAgreement(models.Date(2026, time.March, 1), nil)
	tenant, err := env.svcs.Tenant.FindByID(env.ctx, active.TenantID)
	require.NoError(t, err)

	draft := env.draftAgreement(tenant, env.newRoom(1200, 2400),
		models.Date(2026, time.April, 1), models.Date(2027, time.March, 31))
	agreementID := active.ID
	pending := &models.Collection{AgreementID: &agreementID, AmountCollected: decimal.NewFromInt(500)}
	require.NoError(t, env.svcs.Collection.Create(env.ctx, SystemActor, pending))
	received := &models.Collection{AgreementID: &agreementID, AmountCollected: decimal.NewFromInt(700)}
	require.NoError(t, env.svcs.Collection.Create(env.ctx, SystemActor, received))
	_, err = env.svcs.Collection.Collect(env.ctx, SystemActor, received.ID)
	require.NoError(t, err)

	actor := tenantActor(tenant.ID)

	agreements, total, err := env.svcs.Portal.Agreements(env.ctx, actor, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, agreements, 1)
	assert.Equal(t, active.ID, agreements[0].ID)

	_, err = env.svcs.Portal.Agreement(env.ctx, actor, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	collections, total, err := env.svcs.Portal.Collections(env.ctx, actor, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, collections, 1)
	assert.Equal(t, received.ID, collections[0].ID)
}
