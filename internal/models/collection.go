package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Collection is a recorded receipt of money from a tenant
type Collection struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Name             string          `gorm:"index" json:"name"`
	TenantID         uint            `gorm:"not null;index" json:"tenant_id"`
	RoomID           uint            `gorm:"not null;index" json:"room_id"`
	PropertyID       uint            `gorm:"not null;index" json:"property_id"`
	AgreementID      *uint           `gorm:"index" json:"agreement_id"`
	InvoiceID        *uint           `gorm:"index" json:"invoice_id"`
	CollectionType   string          `gorm:"size:20;not null;default:rent;index" json:"collection_type"`
	Date             time.Time       `gorm:"type:date;not null;index" json:"date"`
	DueDate          *time.Time      `gorm:"type:date" json:"due_date"`
	PeriodFrom       *time.Time      `gorm:"type:date" json:"period_from"`
	PeriodTo         *time.Time      `gorm:"type:date" json:"period_to"`
	AmountCollected  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount_collected"`
	LateFee          decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"late_fee"`
	Currency         string          `gorm:"size:3;not null;default:AED" json:"currency"`
	PaymentMethod    string          `gorm:"size:20;not null;default:cash" json:"payment_method"`
	ReferenceNumber  *string         `json:"reference_number"`
	ReceiptNumber    *string         `gorm:"size:30;uniqueIndex" json:"receipt_number"`
	Status           string          `gorm:"size:20;not null;default:draft;index" json:"status"`
	CollectedByID    *uint           `gorm:"index" json:"collected_by_id"`
	VerifiedByID     *uint           `json:"verified_by_id"`
	VerificationDate *time.Time      `json:"verification_date"`
	Notes            *string         `gorm:"type:text" json:"notes"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Associations
	Tenant Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Room   Room   `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}

// TableName specifies the table name for Collection
func (Collection) TableName() string {
	return "collections"
}

// Collection status constants
const (
	CollectionStatusDraft     = "draft"
	CollectionStatusCollected = "collected"
	CollectionStatusVerified  = "verified"
	CollectionStatusDeposited = "deposited"
	CollectionStatusCancelled = "cancelled"
)

// ReceivedCollectionStatuses are the statuses counting as money received
var ReceivedCollectionStatuses = []string{CollectionStatusCollected, CollectionStatusVerified, CollectionStatusDeposited}

// Collection type constants
const (
	CollectionTypeRent        = "rent"
	CollectionTypeDeposit     = "deposit"
	CollectionTypeToken       = "token"
	CollectionTypeExtra       = "extra"
	CollectionTypePenalty     = "penalty"
	CollectionTypeMaintenance = "maintenance"
	CollectionTypeUtility     = "utility"
	CollectionTypeOther       = "other"
)

// ValidCollectionType reports whether t is a known collection type
func ValidCollectionType(t string) bool {
	switch t {
	case CollectionTypeRent, CollectionTypeDeposit, CollectionTypeToken, CollectionTypeExtra,
		CollectionTypePenalty, CollectionTypeMaintenance, CollectionTypeUtility, CollectionTypeOther:
		return true
	}
	return false
}

// CollectionTypeForInvoice maps an invoice type onto the matching collection type
func CollectionTypeForInvoice(invoiceType string) string {
	if ValidCollectionType(invoiceType) {
		return invoiceType
	}
	return CollectionTypeOther
}

// CollectionName builds "COL/{YYYYMMDD}/{tenant[:10]}/{room_number}"
func CollectionName(date time.Time, tenantName, roomNumber string) string {
	short := []rune(tenantName)
	if len(short) > 10 {
		short = short[:10]
	}
	return fmt.Sprintf("COL/%s/%s/%s", date.Format("20060102"), string(short), roomNumber)
}

// DaysLate returns max(0, date − due_date)
func (c *Collection) DaysLate() int {
	if c.DueDate == nil {
		return 0
	}
	days := DaysBetween(*c.DueDate, c.Date)
	if days < 0 {
		return 0
	}
	return days
}

// MayCollect returns true if collection can be marked collected
func (c *Collection) MayCollect() bool {
	return c.Status == CollectionStatusDraft
}

// MayVerify returns true if collection can be verified
func (c *Collection) MayVerify() bool {
	return c.Status == CollectionStatusCollected
}

// MayDeposit returns true if collection can be deposited
func (c *Collection) MayDeposit() bool {
	return c.Status == CollectionStatusVerified
}

// MayCancel returns true until the money has been deposited
func (c *Collection) MayCancel() bool {
	return c.Status == CollectionStatusDraft ||
		c.Status == CollectionStatusCollected ||
		c.Status == CollectionStatusVerified
}

// IsEditable returns true while the record is a draft
func (c *Collection) IsEditable() bool {
	return c.Status == CollectionStatusDraft
}

// CollectionResponse is the JSON response format for collections
type CollectionResponse struct {
	ID               uint            `json:"id"`
	Name             string          `json:"name"`
	TenantID         uint            `json:"tenant_id"`
	TenantName       string          `json:"tenant_name"`
	RoomID           uint            `json:"room_id"`
	RoomName         string          `json:"room_name"`
	PropertyID       uint            `json:"property_id"`
	AgreementID      *uint           `json:"agreement_id"`
	InvoiceID        *uint           `json:"invoice_id"`
	CollectionType   string          `json:"collection_type"`
	Date             string          `json:"date"`
	DueDate          *time.Time      `json:"due_date"`
	DaysLate         int             `json:"days_late"`
	AmountCollected  decimal.Decimal `json:"amount_collected"`
	LateFee          decimal.Decimal `json:"late_fee"`
	Currency         string          `json:"currency"`
	PaymentMethod    string          `json:"payment_method"`
	ReferenceNumber  *string         `json:"reference_number"`
	ReceiptNumber    *string         `json:"receipt_number"`
	Status           string          `json:"status"`
	CollectedByID    *uint           `json:"collected_by_id"`
	VerifiedByID     *uint           `json:"verified_by_id"`
	VerificationDate *time.Time      `json:"verification_date"`
	Notes            *string         `json:"notes"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ToResponse converts Collection to CollectionResponse
func (c *Collection) ToResponse() CollectionResponse {
	return CollectionResponse{
		ID:               c.ID,
		Name:             c.Name,
		TenantID:         c.TenantID,
		TenantName:       c.Tenant.Name,
		RoomID:           c.RoomID,
		RoomName:         c.Room.Name,
		PropertyID:       c.PropertyID,
		AgreementID:      c.AgreementID,
		InvoiceID:        c.InvoiceID,
		CollectionType:   c.CollectionType,
		Date:             c.Date.Format(DateLayout),
		DueDate:          c.DueDate,
		DaysLate:         c.DaysLate(),
		AmountCollected:  c.AmountCollected,
		LateFee:          c.LateFee,
		Currency:         c.Currency,
		PaymentMethod:    c.PaymentMethod,
		ReferenceNumber:  c.ReferenceNumber,
		ReceiptNumber:    c.ReceiptNumber,
		Status:           c.Status,
		CollectedByID:    c.CollectedByID,
		VerifiedByID:     c.VerifiedByID,
		VerificationDate: c.VerificationDate,
		Notes:            c.Notes,
		CreatedAt:        c.CreatedAt,
	}
}
