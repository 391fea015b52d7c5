package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment records money applied against one invoice
type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:30;uniqueIndex" json:"name"`
	InvoiceID     uint            `gorm:"not null;index" json:"invoice_id"`
	TenantID      uint            `gorm:"not null;index" json:"tenant_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	PaymentDate   time.Time       `gorm:"type:date;not null;index" json:"payment_date"`
	PaymentMethod string          `gorm:"size:20;not null;default:cash" json:"payment_method"`
	Reference     *string         `json:"reference"`
	State         string          `gorm:"size:20;not null;default:draft;index" json:"state"`
	CollectionID  *uint           `gorm:"index" json:"collection_id"`
	PostedByID    *uint           `json:"posted_by_id"`
	PostedAt      *time.Time      `json:"posted_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Associations
	Invoice Invoice `gorm:"foreignKey:InvoiceID" json:"-"`
	Tenant  Tenant  `gorm:"foreignKey:TenantID" json:"-"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// Payment state constants
const (
	PaymentStateDraft      = "draft"
	PaymentStatePosted     = "posted"
	PaymentStateReconciled = "reconciled"
	PaymentStateCancelled  = "cancelled"
)

// CountedPaymentStates are the payment states summed into an invoice's paid amount
var CountedPaymentStates = []string{PaymentStatePosted, PaymentStateReconciled}

// MayPost returns true if payment can be posted
func (p *Payment) MayPost() bool {
	return p.State == PaymentStateDraft
}

// MayReconcile returns true if payment can be reconciled
func (p *Payment) MayReconcile() bool {
	return p.State == PaymentStatePosted
}

// MayCancel returns true if payment can be cancelled
func (p *Payment) MayCancel() bool {
	return p.State == PaymentStateDraft || p.State == PaymentStatePosted
}

// MayResetToDraft returns true if a cancelled payment can be reopened
func (p *Payment) MayResetToDraft() bool {
	return p.State == PaymentStateCancelled
}

// SumCountedPayments adds the amounts of posted and reconciled payments
func SumCountedPayments(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.State == PaymentStatePosted || p.State == PaymentStateReconciled {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// PaymentResponse is the JSON response format for payments
type PaymentResponse struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	InvoiceID     uint            `json:"invoice_id"`
	TenantID      uint            `json:"tenant_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   string          `json:"payment_date"`
	PaymentMethod string          `json:"payment_method"`
	Reference     *string         `json:"reference"`
	State         string          `json:"state"`
	CollectionID  *uint           `json:"collection_id"`
	PostedAt      *time.Time      `json:"posted_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToResponse converts Payment to PaymentResponse
func (p *Payment) ToResponse() PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		Name:          p.Name,
		InvoiceID:     p.InvoiceID,
		TenantID:      p.TenantID,
		Amount:        p.Amount,
		PaymentDate:   p.PaymentDate.Format(DateLayout),
		PaymentMethod: p.PaymentMethod,
		Reference:     p.Reference,
		State:         p.State,
		CollectionID:  p.CollectionID,
		PostedAt:      p.PostedAt,
		CreatedAt:     p.CreatedAt,
	}
}
