package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestWithDay_ClampsToMonthEnd(t *testing.T) {
	assert.Equal(t, Date(2024, 2, 29), WithDay(Date(2024, 2, 10), 31))
	assert.Equal(t, Date(2023, 2, 28), WithDay(Date(2023, 2, 10), 30))
	assert.Equal(t, Date(2024, 4, 1), WithDay(Date(2024, 4, 20), 0))
	assert.Equal(t, Date(2024, 4, 15), WithDay(Date(2024, 4, 20), 15))
}

func TestStartOfWeek_IsMonday(t *testing.T) {
	// 2024-02-04 is a Sunday
	assert.Equal(t, Date(2024, 1, 29), StartOfWeek(Date(2024, 2, 4)))
	assert.Equal(t, Date(2024, 1, 29), StartOfWeek(Date(2024, 1, 29)))
}

func TestAgreement_Overlaps(t *testing.T) {
	a := &Agreement{StartDate: Date(2024, 1, 1), EndDate: Date(2024, 12, 31)}

	tests := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"inside", "2024-03-01", "2024-06-30", true},
		{"covers", "2023-06-01", "2025-06-01", true},
		{"touches end", "2024-12-31", "2025-06-30", true},
		{"touches start", "2023-06-01", "2024-01-01", true},
		{"after", "2025-01-01", "2025-12-31", false},
		{"before", "2023-01-01", "2023-12-31", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, err := ParseDate(tt.start)
			require.NoError(t, err)
			end, err := ParseDate(tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Overlaps(start, end))
		})
	}
}

func TestAgreement_DerivedFields(t *testing.T) {
	a := &Agreement{
		State:      AgreementStateActive,
		StartDate:  Date(2024, 1, 1),
		EndDate:    Date(2024, 12, 31),
		RentAmount: d("1000"),
	}

	assert.True(t, a.DatesValid())
	assert.Equal(t, 12, a.DurationMonths())
	assert.Equal(t, 30, a.DaysRemaining(Date(2024, 12, 1)))
	assert.Equal(t, 0, a.DaysRemaining(Date(2025, 2, 1)))

	// 60 days elapsed, 2000 expected
	assert.True(t, d("500").Equal(a.PendingAmount(Date(2024, 3, 1), d("1500"))))
	assert.True(t, a.PendingAmount(Date(2024, 3, 1), d("5000")).IsZero())

	a.State = AgreementStateTerminated
	assert.Equal(t, 0, a.DaysRemaining(Date(2024, 12, 1)))

	bad := &Agreement{StartDate: Date(2024, 1, 1), EndDate: Date(2023, 12, 31)}
	assert.False(t, bad.DatesValid())
	same := &Agreement{StartDate: Date(2024, 1, 1), EndDate: Date(2024, 1, 1)}
	assert.False(t, same.DatesValid())
}

func TestAgreement_Renewal(t *testing.T) {
	a := &Agreement{
		TenantID:   3,
		RoomID:     4,
		State:      AgreementStateActive,
		StartDate:  Date(2024, 1, 1),
		EndDate:    Date(2024, 12, 31),
		RentAmount: d("1000"),
	}

	r := a.Renewal()
	assert.Zero(t, r.ID)
	assert.Equal(t, AgreementStateDraft, r.State)
	assert.Equal(t, Date(2025, 1, 1), r.StartDate)
	assert.Equal(t, Date(2025, 12, 31), r.EndDate)
	assert.Equal(t, a.TenantID, r.TenantID)
	assert.True(t, r.RentAmount.Equal(a.RentAmount))
}

func TestInvoice_RecomputeTotals(t *testing.T) {
	inv := &Invoice{
		State: InvoiceStateDraft,
		Lines: []InvoiceLine{
			{Quantity: d("2"), PriceUnit: d("150.50")},
			{Quantity: d("1"), PriceUnit: d("1000")},
		},
		AmountPaid: d("300"),
	}

	inv.RecomputeTotals()
	assert.True(t, d("1301").Equal(inv.AmountTotal))
	assert.True(t, d("1001").Equal(inv.AmountResidual))
	assert.True(t, d("301").Equal(inv.Lines[0].Subtotal))
	assert.Equal(t, PaymentStatePartial, inv.PaymentState)
}

func TestInvoice_ApplyPaidAmountRoundTrip(t *testing.T) {
	inv := &Invoice{State: InvoiceStatePosted, Lines: []InvoiceLine{{Quantity: d("1"), PriceUnit: d("1000")}}}
	inv.RecomputeTotals()
	before := *inv

	inv.ApplyPaidAmount(d("400"))
	assert.Equal(t, InvoiceStatePartial, inv.State)
	assert.Equal(t, PaymentStatePartial, inv.PaymentState)

	inv.ApplyPaidAmount(d("1000"))
	assert.Equal(t, InvoiceStatePaid, inv.State)
	assert.True(t, inv.AmountResidual.IsZero())

	inv.ApplyPaidAmount(decimal.Zero)
	assert.Equal(t, before.State, inv.State)
	assert.Equal(t, before.PaymentState, inv.PaymentState)
	assert.True(t, before.AmountPaid.Equal(inv.AmountPaid))
	assert.True(t, before.AmountResidual.Equal(inv.AmountResidual))
}

func TestMonthlyRentDescription(t *testing.T) {
	assert.Equal(t, "Monthly Rent - P1-101-A (February 2024)", MonthlyRentDescription("P1-101-A", Date(2024, 2, 1)))
}

func TestFlat_State(t *testing.T) {
	tests := []struct {
		name  string
		flat  Flat
		state string
	}{
		{"no rooms", Flat{}, FlatStateAvailable},
		{"all vacant", Flat{Rooms: []Room{{Status: RoomStatusVacant}, {Status: RoomStatusVacant}}}, FlatStateAvailable},
		{"all occupied", Flat{Rooms: []Room{{Status: RoomStatusOccupied}}}, FlatStateFullyOccupied},
		{"mixed", Flat{Rooms: []Room{{Status: RoomStatusOccupied}, {Status: RoomStatusVacant}}}, FlatStatePartiallyOccupied},
		{"booked only", Flat{Rooms: []Room{{Status: RoomStatusBooked}}}, FlatStatePartiallyOccupied},
		{"flagged", Flat{UnderMaintenance: true, Rooms: []Room{{Status: RoomStatusOccupied}}}, FlatStateMaintenance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.state, tt.flat.State())
		})
	}
}

func TestComputePropertyStats(t *testing.T) {
	rooms := []Room{
		{Status: RoomStatusOccupied, RentAmount: d("1000")},
		{Status: RoomStatusOccupied, RentAmount: d("1500")},
		{Status: RoomStatusVacant, RentAmount: d("900")},
		{Status: RoomStatusMaintenance, RentAmount: d("900")},
	}

	stats := ComputePropertyStats(2, rooms, d("12000"))
	assert.Equal(t, 4, stats.TotalRooms)
	assert.Equal(t, 2, stats.OccupiedRooms)
	assert.Equal(t, 1, stats.VacantRooms)
	assert.InDelta(t, 0.5, stats.OccupancyRate, 0.0001)
	assert.True(t, d("2500").Equal(stats.MonthlyRentIncome))
	assert.True(t, d("1000").Equal(stats.MonthlyExpenses))
	assert.True(t, d("1500").Equal(stats.MonthlyProfit))

	empty := ComputePropertyStats(0, nil, decimal.Zero)
	assert.Zero(t, empty.OccupancyRate)
}

func TestRoom_OccupancyInvariant(t *testing.T) {
	r := &Room{Status: RoomStatusVacant}
	assert.True(t, r.OccupancyConsistent())

	r.Occupy(1, 2)
	assert.True(t, r.OccupancyConsistent())

	r.CurrentAgreementID = nil
	assert.False(t, r.OccupancyConsistent())

	r.Vacate()
	assert.True(t, r.OccupancyConsistent())
}

func TestRoom_ApplyRoomType(t *testing.T) {
	rt := &RoomType{DefaultRent: d("1200"), DefaultDeposit: d("500")}

	r := &Room{}
	r.ApplyRoomType(rt)
	assert.True(t, d("1200").Equal(r.RentAmount))
	assert.True(t, d("500").Equal(r.DepositAmount))

	custom := &Room{RentAmount: d("900")}
	custom.ApplyRoomType(rt)
	assert.True(t, d("900").Equal(custom.RentAmount))
}

func TestCollection_NameAndDaysLate(t *testing.T) {
	assert.Equal(t, "COL/20240201/Alexandrin/A", CollectionName(Date(2024, 2, 1), "Alexandrina Smith", "A"))

	due := Date(2024, 2, 1)
	c := &Collection{Date: Date(2024, 2, 6), DueDate: &due}
	assert.Equal(t, 5, c.DaysLate())

	early := &Collection{Date: Date(2024, 1, 28), DueDate: &due}
	assert.Equal(t, 0, early.DaysLate())
}

func TestDeriveDueStatus_Priority(t *testing.T) {
	today := Date(2024, 3, 10)
	past := Date(2024, 3, 1)
	future := Date(2024, 3, 20)

	assert.Equal(t, DueStatusPaid, DeriveDueStatus(d("100"), d("100"), past, today))
	assert.Equal(t, DueStatusPartiallyPaid, DeriveDueStatus(d("100"), d("40"), past, today))
	assert.Equal(t, DueStatusOverdue, DeriveDueStatus(d("100"), decimal.Zero, past, today))
	assert.Equal(t, DueStatusPending, DeriveDueStatus(d("100"), decimal.Zero, future, today))

	due := &DueTracker{AmountDue: d("100"), DueDate: past, Status: DueStatusWaived}
	due.RefreshStatus(today)
	assert.Equal(t, DueStatusWaived, due.Status)
	assert.Equal(t, 0, due.DaysOverdue(today))
}

func TestTenantExit_Settlement(t *testing.T) {
	exit := &TenantExit{DepositRefund: d("2000"), PendingDues: d("500"), DamagesDeduction: d("300")}
	exit.ComputeSettlement()
	assert.True(t, d("1200").Equal(exit.FinalSettlement))
	assert.Equal(t, "EXIT/John/20241231", ExitName("John", Date(2024, 12, 31)))
}

func TestDeposit_Settle(t *testing.T) {
	dep := &Deposit{Amount: d("1000"), Status: DepositStatusHeld}
	dep.Settle(d("1500"), Date(2024, 12, 31), "")
	assert.Equal(t, DepositStatusRefunded, dep.Status)
	assert.True(t, d("1000").Equal(dep.RefundAmount))

	partial := &Deposit{Amount: d("1000"), Status: DepositStatusHeld}
	partial.Settle(d("400"), Date(2024, 12, 31), "damages")
	assert.Equal(t, DepositStatusPartiallyRefunded, partial.Status)
	require.NotNil(t, partial.RefundReason)

	forfeit := &Deposit{Amount: d("1000"), Status: DepositStatusHeld}
	forfeit.Settle(decimal.Zero, Date(2024, 12, 31), "absconded")
	assert.Equal(t, DepositStatusForfeited, forfeit.Status)
}

func TestBillReferenceFor(t *testing.T) {
	assert.Equal(t, "BILL/Dubai Elec/20240315", BillReferenceFor("Dubai Electricity", Date(2024, 3, 15)))
}

func TestRecentActivityPlaceholders(t *testing.T) {
	assert.Equal(t, "No recent collections", FormatRecentCollections(nil))
	assert.Equal(t, "No recent tenants", FormatRecentTenants(nil))

	c := Collection{Date: Date(2024, 2, 1), AmountCollected: d("1000"), Currency: "AED", Tenant: Tenant{Name: "T1"}}
	assert.Equal(t, "• 2024-02-01 - T1 - 1000.00 AED", FormatRecentCollections([]Collection{c}))
}
