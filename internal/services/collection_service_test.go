package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) draftCollection(a *models.Agreement, amount int64) *models.Collection {
	e.t.Helper()
	agreementID := a.ID
	collection := &models.Collection{AgreementID: &agreementID, AmountCollected: decimal.NewFromInt(amount)}
	require.NoError(e.t, e.svcs.Collection.Create(e.ctx, SystemActor, collection))
	return collection
}

func TestCollectionService_Create_FillsFromAgreement(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 7))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)
	collection := env.draftCollection(agreement, 1500)

	assert.Equal(t, models.CollectionStatusDraft, collection.Status)
	assert.Equal(t, agreement.TenantID, collection.TenantID)
	assert.Equal(t, agreement.RoomID, collection.RoomID)
	assert.NotZero(t, collection.PropertyID)
	assert.Equal(t, models.CollectionTypeRent, collection.CollectionType)
	assert.Equal(t, "2026-03-07", collection.Date.Format(models.DateLayout))
	assert.Contains(t, collection.Name, "COL/20260307/")
	assert.Nil(t, collection.ReceiptNumber)

	err := env.svcs.Collection.Create(env.ctx, SystemActor, &models.Collection{
		TenantID:        agreement.TenantID,
		RoomID:          agreement.RoomID,
		AmountCollected: decimal.Zero,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCollectionService_CollectVerifyDeposit(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 7))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)
	collection := env.draftCollection(agreement, 1500)

	_, err := env.svcs.Collection.Verify(env.ctx, SystemActor, collection.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	collected, err := env.svcs.Collection.Collect(env.ctx, SystemActor, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectionStatusCollected, collected.Status)
	require.NotNil(t, collected.ReceiptNumber)
	assert.Equal(t, "RCP/2026/00001", *collected.ReceiptNumber)

	verified, err := env.svcs.Collection.Verify(env.ctx, SystemActor, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectionStatusVerified, verified.Status)
	require.NotNil(t, verified.VerificationDate)
	assert.True(t, env.today.Equal(*verified.VerificationDate))

	deposited, err := env.svcs.Collection.Deposit(env.ctx, SystemActor, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectionStatusDeposited, deposited.Status)
	assert.Equal(t, "RCP/2026/00001", *deposited.ReceiptNumber)

	_, err = env.svcs.Collection.Cancel(env.ctx, SystemActor, collection.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	err = env.svcs.Collection.Delete(env.ctx, SystemActor, collection.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	changes, err := env.svcs.Audit.ChangeLog(env.ctx, models.EntityCollection, collection.ID)
	require.NoError(t, err)
	assert.Len(t, changes, 3)
}

func TestCollectionService_ReceiptNumbersAreSequential(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 7))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)

	first := env.draftCollection(agreement, 500)
	second := env.draftCollection(agreement, 700)

	collected, err := env.svcs.Collection.Collect(env.ctx, SystemActor, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "RCP/2026/00001", *collected.ReceiptNumber)
	collected, err = env.svcs.Collection.Collect(env.ctx, SystemActor, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "RCP/2026/00002", *collected.ReceiptNumber)

	_, err = env.svcs.Collection.Collect(env.ctx, SystemActor, first.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCollectionService_CancelAndDelete(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 7))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)
	collection := env.draftCollection(agreement, 500)

	_, err := env.svcs.Collection.Collect(env.ctx, SystemActor, collection.ID)
	require.NoError(t, err)
	err = env.svcs.Collection.Delete(env.ctx, SystemActor, collection.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	cancelled, err := env.svcs.Collection.Cancel(env.ctx, SystemActor, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectionStatusCancelled, cancelled.Status)

	require.NoError(t, env.svcs.Collection.Delete(env.ctx, SystemActor, collection.ID))
	_, err = env.svcs.Collection.FindByID(env.ctx, collection.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(1), env.count(&models.AuditLog{}, "entity = ? AND entity_id = ? AND action = ?",
		models.EntityCollection, collection.ID, "DELETE"))
}
