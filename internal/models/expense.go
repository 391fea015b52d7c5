package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is an operating cost recorded against a property, flat or room
type Expense struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"not null" json:"name"`
	PropertyID      uint            `gorm:"not null;index" json:"property_id"`
	FlatID          *uint           `gorm:"index" json:"flat_id"`
	RoomID          *uint           `gorm:"index" json:"room_id"`
	ExpenseType     string          `gorm:"size:20;not null;default:maintenance;index" json:"expense_type"`
	Category        string          `gorm:"size:20;not null;default:operational" json:"category"`
	Urgency         string          `gorm:"size:10;not null;default:medium" json:"urgency"`
	Date            time.Time       `gorm:"type:date;not null;index" json:"date"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency        string          `gorm:"size:3;not null;default:AED" json:"currency"`
	PaymentMethod   string          `gorm:"size:20;not null;default:cash" json:"payment_method"`
	ReferenceNumber *string         `json:"reference_number"`
	Vendor          *string         `json:"vendor"`
	BillReference   *string         `json:"bill_reference"`
	State           string          `gorm:"size:20;not null;default:draft;index" json:"state"`
	SubmittedByID   *uint           `json:"submitted_by_id"`
	ApprovedByID    *uint           `json:"approved_by_id"`
	ApprovalDate    *time.Time      `json:"approval_date"`
	PaidByID        *uint           `json:"paid_by_id"`
	PaidAt          *time.Time      `json:"paid_at"`
	RejectionReason *string         `gorm:"type:text" json:"rejection_reason"`
	BillPath        *string         `json:"bill_path"`
	Notes           *string         `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Associations
	Property Property `gorm:"foreignKey:PropertyID" json:"-"`
}

// TableName specifies the table name for Expense
func (Expense) TableName() string {
	return "expenses"
}

// Expense state constants
const (
	ExpenseStateDraft     = "draft"
	ExpenseStateSubmitted = "submitted"
	ExpenseStateApproved  = "approved"
	ExpenseStatePaid      = "paid"
	ExpenseStateRejected  = "rejected"
)

// Expense category constants
const (
	ExpenseCategoryOperational = "operational"
	ExpenseCategoryCapital     = "capital"
	ExpenseCategoryEmergency   = "emergency"
)

// ExpenseTypes lists the accepted expense types
var ExpenseTypes = []string{
	"dewa", "maintenance", "plumbing", "electrical", "paint", "ac", "labor", "cleaning",
	"security", "staff_payment", "repair", "utility", "insurance", "tax", "commission",
	"legal", "other",
}

// ValidExpenseType reports whether t is a known expense type
func ValidExpenseType(t string) bool {
	for _, known := range ExpenseTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ValidExpenseCategory reports whether c is a known expense category
func ValidExpenseCategory(c string) bool {
	switch c {
	case ExpenseCategoryOperational, ExpenseCategoryCapital, ExpenseCategoryEmergency:
		return true
	}
	return false
}

// Priority levels shared by expenses and dues
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValidPriority reports whether p is a known priority
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// MaySubmit returns true if expense can be submitted
func (e *Expense) MaySubmit() bool {
	return e.State == ExpenseStateDraft
}

// MayApprove returns true if expense can be approved
func (e *Expense) MayApprove() bool {
	return e.State == ExpenseStateSubmitted
}

// MayReject returns true if expense can be rejected
func (e *Expense) MayReject() bool {
	return e.State == ExpenseStateSubmitted
}

// MayPay returns true if expense can be paid
func (e *Expense) MayPay() bool {
	return e.State == ExpenseStateApproved
}

// MayResetToDraft returns true if a rejected expense can be reopened
func (e *Expense) MayResetToDraft() bool {
	return e.State == ExpenseStateRejected
}

// IsEditable returns true while the expense is a draft
func (e *Expense) IsEditable() bool {
	return e.State == ExpenseStateDraft
}

// BillReferenceFor builds "BILL/{vendor[:10]}/{YYYYMMDD}"
func BillReferenceFor(vendor string, date time.Time) string {
	short := []rune(vendor)
	if len(short) > 10 {
		short = short[:10]
	}
	return fmt.Sprintf("BILL/%s/%s", string(short), date.Format("20060102"))
}

// ExpenseResponse is the JSON response format for expenses
type ExpenseResponse struct {
	ID              uint            `json:"id"`
	Name            string          `json:"name"`
	PropertyID      uint            `json:"property_id"`
	FlatID          *uint           `json:"flat_id"`
	RoomID          *uint           `json:"room_id"`
	ExpenseType     string          `json:"expense_type"`
	Category        string          `json:"category"`
	Urgency         string          `json:"urgency"`
	Date            string          `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	PaymentMethod   string          `json:"payment_method"`
	ReferenceNumber *string         `json:"reference_number"`
	Vendor          *string         `json:"vendor"`
	BillReference   *string         `json:"bill_reference"`
	State           string          `json:"state"`
	SubmittedByID   *uint           `json:"submitted_by_id"`
	ApprovedByID    *uint           `json:"approved_by_id"`
	ApprovalDate    *time.Time      `json:"approval_date"`
	PaidAt          *time.Time      `json:"paid_at"`
	RejectionReason *string         `json:"rejection_reason"`
	HasBill         bool            `json:"has_bill"`
	Notes           *string         `json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToResponse converts Expense to ExpenseResponse
func (e *Expense) ToResponse() ExpenseResponse {
	return ExpenseResponse{
		ID:              e.ID,
		Name:            e.Name,
		PropertyID:      e.PropertyID,
		FlatID:          e.FlatID,
		RoomID:          e.RoomID,
		ExpenseType:     e.ExpenseType,
		Category:        e.Category,
		Urgency:         e.Urgency,
		Date:            e.Date.Format(DateLayout),
		Amount:          e.Amount,
		Currency:        e.Currency,
		PaymentMethod:   e.PaymentMethod,
		ReferenceNumber: e.ReferenceNumber,
		Vendor:          e.Vendor,
		BillReference:   e.BillReference,
		State:           e.State,
		SubmittedByID:   e.SubmittedByID,
		ApprovedByID:    e.ApprovedByID,
		ApprovalDate:    e.ApprovalDate,
		PaidAt:          e.PaidAt,
		RejectionReason: e.RejectionReason,
		HasBill:         e.BillPath != nil,
		Notes:           e.Notes,
		CreatedAt:       e.CreatedAt,
	}
}
