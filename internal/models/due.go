package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DueTracker is a tracked payment obligation of a tenant
type DueTracker struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Name             string          `json:"name"`
	TenantID         uint            `gorm:"not null;index" json:"tenant_id"`
	RoomID           uint            `gorm:"not null;index" json:"room_id"`
	AgreementID      *uint           `gorm:"index:idx_dues_agreement_date" json:"agreement_id"`
	DueType          string          `gorm:"size:20;not null;default:rent" json:"due_type"`
	DueDate          time.Time       `gorm:"type:date;not null;index:idx_dues_agreement_date" json:"due_date"`
	AmountDue        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount_due"`
	AmountPaid       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"amount_paid"`
	Currency         string          `gorm:"size:3;not null;default:AED" json:"currency"`
	Priority         string          `gorm:"size:10;not null;default:medium" json:"priority"`
	Status           string          `gorm:"size:20;not null;default:pending;index" json:"status"`
	LastReminderDate *time.Time      `gorm:"type:date" json:"last_reminder_date"`
	ReminderCount    int             `gorm:"not null;default:0" json:"reminder_count"`
	Notes            *string         `gorm:"type:text" json:"notes"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Associations
	Tenant    Tenant     `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Room      Room       `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Agreement *Agreement `gorm:"foreignKey:AgreementID" json:"-"`
}

// TableName specifies the table name for DueTracker
func (DueTracker) TableName() string {
	return "due_trackers"
}

// Due status constants
const (
	DueStatusPending       = "pending"
	DueStatusOverdue       = "overdue"
	DueStatusPartiallyPaid = "partially_paid"
	DueStatusPaid          = "paid"
	DueStatusWaived        = "waived"
)

// OpenDueStatuses are the statuses with money still owed
var OpenDueStatuses = []string{DueStatusPending, DueStatusOverdue, DueStatusPartiallyPaid}

// Due type constants
const (
	DueTypeRent        = "rent"
	DueTypeDeposit     = "deposit"
	DueTypePenalty     = "penalty"
	DueTypeUtility     = "utility"
	DueTypeMaintenance = "maintenance"
	DueTypeOther       = "other"
)

// DueName builds "{Type} - {tenant} - {YYYY-MM-DD}"
func DueName(dueType, tenantName string, dueDate time.Time) string {
	title := dueType
	if title != "" {
		title = strings.ToUpper(title[:1]) + title[1:]
	}
	return fmt.Sprintf("%s - %s - %s", title, tenantName, dueDate.Format(DateLayout))
}

// DeriveDueStatus evaluates paid > partially_paid > overdue > pending in that order
func DeriveDueStatus(amountDue, amountPaid decimal.Decimal, dueDate, today time.Time) string {
	switch {
	case amountPaid.GreaterThanOrEqual(amountDue):
		return DueStatusPaid
	case amountPaid.IsPositive():
		return DueStatusPartiallyPaid
	case DateOf(dueDate).Before(DateOf(today)):
		return DueStatusOverdue
	default:
		return DueStatusPending
	}
}

// RefreshStatus re-derives status unless the due was waived
func (d *DueTracker) RefreshStatus(today time.Time) {
	if d.Status == DueStatusWaived {
		return
	}
	d.Status = DeriveDueStatus(d.AmountDue, d.AmountPaid, d.DueDate, today)
}

// Outstanding returns amount_due − amount_paid
func (d *DueTracker) Outstanding() decimal.Decimal {
	return d.AmountDue.Sub(d.AmountPaid)
}

// DaysOverdue returns the days past due_date while unpaid
func (d *DueTracker) DaysOverdue(today time.Time) int {
	if d.Status == DueStatusPaid || d.Status == DueStatusWaived {
		return 0
	}
	days := DaysBetween(d.DueDate, today)
	if days < 0 {
		return 0
	}
	return days
}

// IsOpen returns true while money is still owed
func (d *DueTracker) IsOpen() bool {
	return d.Status == DueStatusPending || d.Status == DueStatusOverdue || d.Status == DueStatusPartiallyPaid
}

// DueResponse is the JSON response format for dues
type DueResponse struct {
	ID               uint            `json:"id"`
	Name             string          `json:"name"`
	TenantID         uint            `json:"tenant_id"`
	TenantName       string          `json:"tenant_name"`
	RoomID           uint            `json:"room_id"`
	RoomName         string          `json:"room_name"`
	AgreementID      *uint           `json:"agreement_id"`
	DueType          string          `json:"due_type"`
	DueDate          string          `json:"due_date"`
	AmountDue        decimal.Decimal `json:"amount_due"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	Outstanding      decimal.Decimal `json:"outstanding_amount"`
	Currency         string          `json:"currency"`
	Priority         string          `json:"priority"`
	Status           string          `json:"status"`
	DaysOverdue      int             `json:"days_overdue"`
	LastReminderDate *time.Time      `json:"last_reminder_date"`
	ReminderCount    int             `json:"reminder_count"`
	Notes            *string         `json:"notes"`
}

// ToResponse converts DueTracker to DueResponse evaluated at today
func (d *DueTracker) ToResponse(today time.Time) DueResponse {
	return DueResponse{
		ID:               d.ID,
		Name:             d.Name,
		TenantID:         d.TenantID,
		TenantName:       d.Tenant.Name,
		RoomID:           d.RoomID,
		RoomName:         d.Room.Name,
		AgreementID:      d.AgreementID,
		DueType:          d.DueType,
		DueDate:          d.DueDate.Format(DateLayout),
		AmountDue:        d.AmountDue,
		AmountPaid:       d.AmountPaid,
		Outstanding:      d.Outstanding(),
		Currency:         d.Currency,
		Priority:         d.Priority,
		Status:           d.Status,
		DaysOverdue:      d.DaysOverdue(today),
		LastReminderDate: d.LastReminderDate,
		ReminderCount:    d.ReminderCount,
		Notes:            d.Notes,
	}
}
