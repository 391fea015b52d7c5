package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Deposit is a security deposit held against an agreement
type Deposit struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `json:"name"`
	TenantID     uint            `gorm:"not null;index" json:"tenant_id"`
	AgreementID  uint            `gorm:"not null;index" json:"agreement_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	DepositDate  time.Time       `gorm:"type:date;not null" json:"deposit_date"`
	RefundAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"refund_amount"`
	RefundDate   *time.Time      `gorm:"type:date" json:"refund_date"`
	RefundReason *string         `gorm:"type:text" json:"refund_reason"`
	Currency     string          `gorm:"size:3;not null;default:AED" json:"currency"`
	Status       string          `gorm:"size:20;not null;default:held;index" json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Deposit
func (Deposit) TableName() string {
	return "deposits"
}

// Deposit status constants
const (
	DepositStatusHeld              = "held"
	DepositStatusPartiallyRefunded = "partially_refunded"
	DepositStatusRefunded          = "refunded"
	DepositStatusForfeited         = "forfeited"
)

// DepositName builds "DEP/{tenant}/{YYYYMMDD}"
func DepositName(tenantName string, date time.Time) string {
	return fmt.Sprintf("DEP/%s/%s", tenantName, date.Format("20060102"))
}

// Settle records a refund of the given amount, capped to the deposit.
// A zero refund forfeits the deposit.
func (d *Deposit) Settle(refund decimal.Decimal, on time.Time, reason string) {
	if refund.GreaterThan(d.Amount) {
		refund = d.Amount
	}
	if refund.IsNegative() {
		refund = decimal.Zero
	}
	d.RefundAmount = refund
	d.RefundDate = &on
	if reason != "" {
		d.RefundReason = &reason
	}
	switch {
	case refund.IsZero():
		d.Status = DepositStatusForfeited
	case refund.Equal(d.Amount):
		d.Status = DepositStatusRefunded
	default:
		d.Status = DepositStatusPartiallyRefunded
	}
}

// DepositResponse is the JSON response format for deposits
type DepositResponse struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	TenantID     uint            `json:"tenant_id"`
	AgreementID  uint            `json:"agreement_id"`
	Amount       decimal.Decimal `json:"amount"`
	DepositDate  string          `json:"deposit_date"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	RefundDate   *time.Time      `json:"refund_date"`
	RefundReason *string         `json:"refund_reason"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
}

// ToResponse converts Deposit to DepositResponse
func (d *Deposit) ToResponse() DepositResponse {
	return DepositResponse{
		ID:           d.ID,
		Name:         d.Name,
		TenantID:     d.TenantID,
		AgreementID:  d.AgreementID,
		Amount:       d.Amount,
		DepositDate:  d.DepositDate.Format(DateLayout),
		RefundAmount: d.RefundAmount,
		RefundDate:   d.RefundDate,
		RefundReason: d.RefundReason,
		Currency:     d.Currency,
		Status:       d.Status,
	}
}
