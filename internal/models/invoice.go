package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a billing document for a tenant and room over a period
type Invoice struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"size:30;uniqueIndex" json:"name"`
	TenantID       uint            `gorm:"not null;index" json:"tenant_id"`
	RoomID         *uint           `gorm:"index" json:"room_id"`
	PropertyID     *uint           `gorm:"index" json:"property_id"`
	AgreementID    *uint           `gorm:"index:idx_invoices_agreement_type_date" json:"agreement_id"`
	InvoiceType    string          `gorm:"size:20;not null;default:rent;index:idx_invoices_agreement_type_date" json:"invoice_type"`
	InvoiceDate    time.Time       `gorm:"type:date;not null;index:idx_invoices_agreement_type_date" json:"invoice_date"`
	DueDate        time.Time       `gorm:"type:date;not null;index" json:"due_date"`
	PeriodFrom     *time.Time      `gorm:"type:date" json:"period_from"`
	PeriodTo       *time.Time      `gorm:"type:date" json:"period_to"`
	Currency       string          `gorm:"size:3;not null;default:AED" json:"currency"`
	AmountUntaxed  decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"amount_untaxed"`
	AmountTotal    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"amount_total"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"amount_paid"`
	AmountResidual decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"amount_residual"`
	PaymentState   string          `gorm:"size:20;not null;default:not_paid" json:"payment_state"`
	State          string          `gorm:"size:20;not null;default:draft;index" json:"state"`
	PostedAt       *time.Time      `json:"posted_at"`
	SentAt         *time.Time      `json:"sent_at"`
	Notes          *string         `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Associations
	Tenant    Tenant        `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Room      *Room         `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Agreement *Agreement    `gorm:"foreignKey:AgreementID" json:"-"`
	Lines     []InvoiceLine `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
	Payments  []Payment     `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

// TableName specifies the table name for Invoice
func (Invoice) TableName() string {
	return "invoices"
}

// Invoice state constants
const (
	InvoiceStateDraft     = "draft"
	InvoiceStatePosted    = "posted"
	InvoiceStatePaid      = "paid"
	InvoiceStatePartial   = "partial"
	InvoiceStateCancelled = "cancelled"
)

// Invoice payment state constants
const (
	PaymentStateNotPaid = "not_paid"
	PaymentStatePartial = "partial"
	PaymentStatePaid    = "paid"
)

// Invoice type constants
const (
	InvoiceTypeRent        = "rent"
	InvoiceTypeDeposit     = "deposit"
	InvoiceTypeMaintenance = "maintenance"
	InvoiceTypeUtility     = "utility"
	InvoiceTypePenalty     = "penalty"
	InvoiceTypeOther       = "other"
)

// ValidInvoiceType reports whether t is a known invoice type
func ValidInvoiceType(t string) bool {
	switch t {
	case InvoiceTypeRent, InvoiceTypeDeposit, InvoiceTypeMaintenance, InvoiceTypeUtility, InvoiceTypePenalty, InvoiceTypeOther:
		return true
	}
	return false
}

// InvoiceLine is one billed item
type InvoiceLine struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	InvoiceID   uint            `gorm:"not null;index" json:"invoice_id"`
	Description string          `gorm:"not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:1" json:"quantity"`
	PriceUnit   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"price_unit"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"subtotal"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName specifies the table name for InvoiceLine
func (InvoiceLine) TableName() string {
	return "invoice_lines"
}

// ComputeSubtotal sets subtotal = price_unit × quantity
func (l *InvoiceLine) ComputeSubtotal() {
	l.Subtotal = l.PriceUnit.Mul(l.Quantity).Round(2)
}

// MonthlyRentDescription builds "Monthly Rent - {room} ({Month YYYY})"
func MonthlyRentDescription(roomName string, period time.Time) string {
	return fmt.Sprintf("Monthly Rent - %s (%s)", roomName, period.Format("January 2006"))
}

// MayPost returns true if the invoice can be posted
func (i *Invoice) MayPost() bool {
	return i.State == InvoiceStateDraft
}

// MayCancel returns true if the invoice can be cancelled
func (i *Invoice) MayCancel() bool {
	return i.State == InvoiceStateDraft || i.State == InvoiceStatePosted
}

// MayResetToDraft returns true if a cancelled invoice can be reopened
func (i *Invoice) MayResetToDraft() bool {
	return i.State == InvoiceStateCancelled
}

// AcceptsPayments returns true while payments may be registered
func (i *Invoice) AcceptsPayments() bool {
	return i.State == InvoiceStatePosted || i.State == InvoiceStatePartial
}

// IsEditable returns true while lines may change
func (i *Invoice) IsEditable() bool {
	return i.State == InvoiceStateDraft
}

// RecomputeTotals recalculates line subtotals, totals and the residual
func (i *Invoice) RecomputeTotals() {
	total := decimal.Zero
	for idx := range i.Lines {
		i.Lines[idx].ComputeSubtotal()
		total = total.Add(i.Lines[idx].Subtotal)
	}
	i.AmountUntaxed = total
	i.AmountTotal = total
	i.AmountResidual = i.AmountTotal.Sub(i.AmountPaid)
	i.PaymentState = DerivePaymentState(i.AmountPaid, i.AmountTotal)
}

// DerivePaymentState maps paid vs total onto not_paid, partial or paid
func DerivePaymentState(paid, total decimal.Decimal) string {
	switch {
	case !paid.IsPositive():
		return PaymentStateNotPaid
	case paid.GreaterThanOrEqual(total):
		return PaymentStatePaid
	default:
		return PaymentStatePartial
	}
}

// ApplyPaidAmount sets amount_paid from a full recompute and re-derives state.
// paid ≥ total gives paid, 0 < paid < total gives partial, and a zero
// paid amount returns a paid or partial invoice to posted.
func (i *Invoice) ApplyPaidAmount(paid decimal.Decimal) {
	i.AmountPaid = paid
	i.AmountResidual = i.AmountTotal.Sub(paid)
	i.PaymentState = DerivePaymentState(paid, i.AmountTotal)

	if i.State == InvoiceStateDraft || i.State == InvoiceStateCancelled {
		return
	}
	switch {
	case paid.IsPositive() && paid.GreaterThanOrEqual(i.AmountTotal):
		i.State = InvoiceStatePaid
	case paid.IsPositive():
		i.State = InvoiceStatePartial
	default:
		i.State = InvoiceStatePosted
	}
}

// InvoiceLineResponse is the JSON response format for invoice lines
type InvoiceLineResponse struct {
	ID          uint            `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	PriceUnit   decimal.Decimal `json:"price_unit"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// InvoiceResponse is the JSON response format for invoices
type InvoiceResponse struct {
	ID             uint                  `json:"id"`
	Name           string                `json:"name"`
	TenantID       uint                  `json:"tenant_id"`
	TenantName     string                `json:"tenant_name"`
	RoomID         *uint                 `json:"room_id"`
	AgreementID    *uint                 `json:"agreement_id"`
	InvoiceType    string                `json:"invoice_type"`
	InvoiceDate    string                `json:"invoice_date"`
	DueDate        string                `json:"due_date"`
	PeriodFrom     *time.Time            `json:"period_from"`
	PeriodTo       *time.Time            `json:"period_to"`
	Currency       string                `json:"currency"`
	AmountTotal    decimal.Decimal       `json:"amount_total"`
	AmountPaid     decimal.Decimal       `json:"amount_paid"`
	AmountResidual decimal.Decimal       `json:"amount_residual"`
	PaymentState   string                `json:"payment_state"`
	State          string                `json:"state"`
	Lines          []InvoiceLineResponse `json:"lines"`
	Notes          *string               `json:"notes"`
	CreatedAt      time.Time             `json:"created_at"`
}

// ToResponse converts Invoice to InvoiceResponse
func (i *Invoice) ToResponse() InvoiceResponse {
	lines := make([]InvoiceLineResponse, 0, len(i.Lines))
	for _, l := range i.Lines {
		lines = append(lines, InvoiceLineResponse{
			ID:          l.ID,
			Description: l.Description,
			Quantity:    l.Quantity,
			PriceUnit:   l.PriceUnit,
			Subtotal:    l.Subtotal,
		})
	}
	return InvoiceResponse{
		ID:             i.ID,
		Name:           i.Name,
		TenantID:       i.TenantID,
		TenantName:     i.Tenant.Name,
		RoomID:         i.RoomID,
		AgreementID:    i.AgreementID,
		InvoiceType:    i.InvoiceType,
		InvoiceDate:    i.InvoiceDate.Format(DateLayout),
		DueDate:        i.DueDate.Format(DateLayout),
		PeriodFrom:     i.PeriodFrom,
		PeriodTo:       i.PeriodTo,
		Currency:       i.Currency,
		AmountTotal:    i.AmountTotal,
		AmountPaid:     i.AmountPaid,
		AmountResidual: i.AmountResidual,
		PaymentState:   i.PaymentState,
		State:          i.State,
		Lines:          lines,
		Notes:          i.Notes,
		CreatedAt:      i.CreatedAt,
	}
}
