package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceService_Create_TotalsAndNumbering(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)

	agreementID := agreement.ID
	invoice := &models.Invoice{
		AgreementID: &agreementID,
		Lines: []models.InvoiceLine{
			{Description: "Rent", Quantity: decimal.NewFromInt(2), PriceUnit: decimal.NewFromInt(500)},
			{Description: " Parking ", PriceUnit: decimal.RequireFromString("250.50")},
		},
	}
	require.NoError(t, env.svcs.Invoice.Create(env.ctx, SystemActor, invoice))

	assert.Equal(t, "INV/2026/00001", invoice.Name)
	assert.Equal(t, models.InvoiceStateDraft, invoice.State)
	assert.Equal(t, agreement.TenantID, invoice.TenantID)
	require.NotNil(t, invoice.RoomID)
	assert.Equal(t, agreement.RoomID, *invoice.RoomID)
	assert.Equal(t, "2026-03-31", invoice.DueDate.Format(models.DateLayout))
	assert.Equal(t, "Parking", invoice.Lines[1].Description)
	requireMoney(t, "1.00", invoice.Lines[1].Quantity)
	requireMoney(t, "1250.50", invoice.AmountTotal)
	requireMoney(t, "1250.50", invoice.AmountResidual)

	second := env.postedInvoice(agreement, 100)
	assert.Equal(t, "INV/2026/00002", second.Name)
}

func TestInvoiceService_Create_BackdatedAcrossYearEnd(t *testing.T) {
	env := newTestEnv(t, models.Date(2025, time.January, 2))
	tenant := env.newTenant("Year End")

	dates := []struct {
		day  time.Time
		want string
	}{
		{models.Date(2024, time.December, 30), "INV/2024/00001"},
		{models.Date(2025, time.January, 2), "INV/2025/00001"},
		{models.Date(2024, time.December, 31), "INV/2024/00002"},
		{models.Date(2025, time.January, 3), "INV/2025/00002"},
	}
	for _, d := range dates {
		invoice := &models.Invoice{
			TenantID:    tenant.ID,
			InvoiceDate: d.day,
			Lines:       []models.InvoiceLine{{Description: "Rent", PriceUnit: decimal.NewFromInt(100)}},
		}
		require.NoError(t, env.svcs.Invoice.Create(env.ctx, SystemActor, invoice))
		assert.Equal(t, d.want, invoice.Name)
	}
}

func TestInvoiceService_Create_Validation(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)
	other := env.newTenant("Someone Else")
	agreementID := agreement.ID

	tests := []struct {
		name    string
		invoice models.Invoice
		want    error
	}{
		{"no tenant", models.Invoice{}, ErrValidation},
		{"unknown tenant", models.Invoice{TenantID: 9999}, ErrNotFound},
		{"tenant mismatch", models.Invoice{AgreementID: &agreementID, TenantID: other.ID}, ErrValidation},
		{"bad type", models.Invoice{TenantID: other.ID, InvoiceType: "gift"}, ErrValidation},
		{"due before date", models.Invoice{
			TenantID:    other.ID,
			InvoiceDate: models.Date(2026, time.March, 10),
			DueDate:     models.Date(2026, time.March, 1),
		}, ErrValidation},
		{"blank line", models.Invoice{
			TenantID: other.ID,
			Lines:    []models.InvoiceLine{{Description: "  ", PriceUnit: decimal.NewFromInt(1)}},
		}, ErrValidation},
		{"negative price", models.Invoice{
			TenantID: other.ID,
			Lines:    []models.InvoiceLine{{Description: "Refund", PriceUnit: decimal.NewFromInt(-1)}},
		}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoice := tt.invoice
			err := env.svcs.Invoice.Create(env.ctx, SystemActor, &invoice)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInvoiceService_Post_RequiresLines(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	tenant := env.newTenant("Empty")

	invoice := &models.Invoice{TenantID: tenant.ID}
	require.NoError(t, env.svcs.Invoice.Create(env.ctx, SystemActor, invoice))

	_, err := env.svcs.Invoice.Post(env.ctx, SystemActor, invoice.ID)
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestInvoiceService_Update_OnlyDraft(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)
	posted := env.postedInvoice(agreement, 1500)

	input := *posted
	input.Lines = []models.InvoiceLine{{Description: "Changed", PriceUnit: decimal.NewFromInt(1)}}
	_, err := env.svcs.Invoice.Update(env.ctx, SystemActor, &input)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestInvoiceService_Update_ReplacesLines(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	tenant := env.newTenant("Lines")
	invoice := &models.Invoice{
		TenantID: tenant.ID,
		Lines: []models.InvoiceLine{
			{Description: "A", PriceUnit: decimal.NewFromInt(10)},
			{Description: "B", PriceUnit: decimal.NewFromInt(20)},
		},
	}
	require.NoError(t, env.svcs.Invoice.Create(env.ctx, SystemActor, invoice))

	input := *invoice
	input.Lines = []models.InvoiceLine{{Description: "C", Quantity: decimal.NewFromInt(3), PriceUnit: decimal.NewFromInt(7)}}
	_, err := env.svcs.Invoice.Update(env.ctx, SystemActor, &input)
	require.NoError(t, err)

	reloaded, err := env.svcs.Invoice.FindByID(env.ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Lines, 1)
	assert.Equal(t, "C", reloaded.Lines[0].Description)
	requireMoney(t, "21.00", reloaded.AmountTotal)
}

func TestInvoiceService_CancelAndDelete(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)
	invoice := env.postedInvoice(agreement, 1500)

	err := env.svcs.Invoice.Delete(env.ctx, SystemActor, invoice.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	cancelled, err := env.svcs.Invoice.Cancel(env.ctx, SystemActor, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStateCancelled, cancelled.State)

	_, err = env.svcs.Invoice.Post(env.ctx, SystemActor, invoice.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	reset, err := env.svcs.Invoice.ResetToDraft(env.ctx, SystemActor, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStateDraft, reset.State)

	require.NoError(t, env.svcs.Invoice.Delete(env.ctx, SystemActor, invoice.ID))
	_, err = env.svcs.Invoice.FindByID(env.ctx, invoice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaymentService_RegisterPayment_PartialThenFull(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 5))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)
	invoice := env.postedInvoice(agreement, 1500)

	payment, collection, err := env.svcs.Payment.RegisterPayment(env.ctx, SystemActor, invoice.ID, RegisterPaymentInput{
		Amount: decimal.NewFromInt(600),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatePosted, payment.State)
	assert.Equal(t, "PAY/2026/00001", payment.Name)
	assert.Equal(t, "2026-03-05", payment.PaymentDate.Format(models.DateLayout))
	require.NotNil(t, payment.PostedAt)
	assert.True(t, env.today.Equal(*payment.PostedAt))
	assert.Equal(t, models.CollectionStatusCollected, collection.Status)
	require.NotNil(t, payment.CollectionID)
	assert.Equal(t, collection.ID, *payment.CollectionID)
	require.NotNil(t, collection.InvoiceID)
	assert.Equal(t, invoice.ID, *collection.InvoiceID)
	requireMoney(t, "600.00", collection.AmountCollected)

	partial, err := env.svcs.Invoice.FindByID(env.ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatePartial, partial.State)
	requireMoney(t, "600.00", partial.AmountPaid)
	requireMoney(t, "900.00", partial.AmountResidual)

	_, _, err = env.svcs.Payment.RegisterPayment(env.ctx, SystemActor, invoice.ID, RegisterPaymentInput{
		Amount: decimal.NewFromInt(901),
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = env.svcs.Payment.RegisterPayment(env.ctx, SystemActor, invoice.ID, RegisterPaymentInput{
		Amount:        decimal.NewFromInt(900),
		PaymentMethod: models.PaymentMethodBankTransfer,
	})
	require.NoError(t, err)

	paid, err := env.svcs.Invoice.FindByID(env.ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatePaid, paid.State)
	requireMoney(t, "0.00", paid.AmountResidual)

	_, _, err = env.svcs.Payment.RegisterPayment(env.ctx, SystemActor, invoice.ID, RegisterPaymentInput{
		Amount: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestPaymentService_RegisterPayment_Validation(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 5))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)
	invoice := env.postedInvoice(agreement, 1500)

	tests := []struct {
		name string
		in   RegisterPaymentInput
	}{
		{"zero", RegisterPaymentInput{Amount: decimal.Zero}},
		{"negative", RegisterPaymentInput{Amount: decimal.NewFromInt(-10)}},
		{"unknown method", RegisterPaymentInput{Amount: decimal.NewFromInt(10), PaymentMethod: "barter"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.svcs.Payment.RegisterPayment(env.ctx, SystemActor, invoice.ID, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	draft := &models.Invoice{TenantID: agreement.TenantID, Lines: []models.InvoiceLine{{Description: "x", PriceUnit: decimal.NewFromInt(5)}}}
	require.NoError(t, env.svcs.Invoice.Create(env.ctx, SystemActor, draft))
	_, _, err := env.svcs.Payment.RegisterPayment(env.ctx, SystemActor, draft.ID, RegisterPaymentInput{Amount: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestPaymentService_Post_RefusesOverpayment(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 5))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)
	invoice := env.postedInvoice(agreement, 1000)

	first, err := env.svcs.Payment.Create(env.ctx, SystemActor, invoice.ID, RegisterPaymentInput{Amount: decimal.NewFromInt(600)})
	require.NoError(t, err)
	second, err := env.svcs.Payment.Create(env.ctx, SystemActor, invoice.ID, RegisterPaymentInput{Amount: decimal.NewFromInt(600)})
	require.NoError(t, err)

	_, err = env.svcs.Payment.Post(env.ctx, SystemActor, first.ID)
	require.NoError(t, err)
	_, err = env.svcs.Payment.Post(env.ctx, SystemActor, second.ID)
	assert.ErrorIs(t, err, ErrValidation)

	reloaded, err := env.svcs.Invoice.FindByID(env.ctx, invoice.ID)
	require.NoError(t, err)
	requireMoney(t, "600.00", reloaded.AmountPaid)
	requireMoney(t, "400.00", reloaded.AmountResidual)
	assert.Equal(t, models.InvoiceStatePartial, reloaded.State)

	stillDraft, err := env.svcs.Payment.FindByID(env.ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStateDraft, stillDraft.State)

	// a cancelled payment reopened as draft is checked again on re-post
	_, err = env.svcs.Payment.Cancel(env.ctx, SystemActor, first.ID)
	require.NoError(t, err)
	_, err = env.svcs.Payment.ResetToDraft(env.ctx, SystemActor, first.ID)
	require.NoError(t, err)
	_, err = env.svcs.Payment.Post(env.ctx, SystemActor, second.ID)
	require.NoError(t, err)
	_, err = env.svcs.Payment.Post(env.ctx, SystemActor, first.ID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPaymentService_Cancel_RevertsInvoiceAndCollection(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 5))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)
	invoice := env.postedInvoice(agreement, 1500)

	payment, collection, err := env.svcs.Payment.RegisterPayment(env.ctx, SystemActor, invoice.ID, RegisterPaymentInput{
		Amount: decimal.NewFromInt(1500),
	})
	require.NoError(t, err)

	_, err = env.svcs.Invoice.Cancel(env.ctx, SystemActor, invoice.ID)
	assert.ErrorIs(t, err, ErrPrecondition)

	cancelled, err := env.svcs.Payment.Cancel(env.ctx, SystemActor, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStateCancelled, cancelled.State)

	reloaded, err := env.svcs.Invoice.FindByID(env.ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatePosted, reloaded.State)
	requireMoney(t, "0.00", reloaded.AmountPaid)
	requireMoney(t, "1500.00", reloaded.AmountResidual)

	coll, err := env.svcs.Collection.FindByID(env.ctx, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectionStatusCancelled, coll.Status)

	_, err = env.svcs.Invoice.Cancel(env.ctx, SystemActor, invoice.ID)
	assert.NoError(t, err)
}

func TestCollectionService_Create_RejectsZeroAmount(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 5))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)
	agreementID := agreement.ID

	err := env.svcs.Collection.Create(env.ctx, SystemActor, &models.Collection{
		AgreementID:     &agreementID,
		AmountCollected: decimal.Zero,
	})
	assert.ErrorIs(t, err, ErrValidation)

	collection := &models.Collection{
		AgreementID:     &agreementID,
		AmountCollected: decimal.NewFromInt(1500),
	}
	require.NoError(t, env.svcs.Collection.Create(env.ctx, SystemActor, collection))
	assert.Equal(t, models.CollectionStatusDraft, collection.Status)
	assert.Equal(t, agreement.TenantID, collection.TenantID)
	assert.Equal(t, agreement.RoomID, collection.RoomID)
	assert.Equal(t, models.CollectionTypeRent, collection.CollectionType)

	collected, err := env.svcs.Collection.Collect(env.ctx, SystemActor, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectionStatusCollected, collected.Status)
	assert.NotEmpty(t, collected.ReceiptNumber)

	_, err = env.svcs.Collection.Deposit(env.ctx, SystemActor, collection.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}
