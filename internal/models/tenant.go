package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contact is the generic identity record a tenant is linked to
type Contact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Mobile    string    `gorm:"size:30" json:"mobile"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Contact
func (Contact) TableName() string {
	return "contacts"
}

// Tenant is a person renting rooms
type Tenant struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	ContactID             uint            `gorm:"not null;uniqueIndex" json:"contact_id"`
	Name                  string          `gorm:"not null;index" json:"name"`
	Mobile                string          `gorm:"size:30;not null;uniqueIndex" json:"mobile"`
	Email                 string          `json:"email"`
	IDType                string          `gorm:"size:20;default:emirates_id" json:"id_type"`
	IDNumber              *string         `gorm:"size:50;uniqueIndex" json:"id_number"`
	IDExpiry              *time.Time      `gorm:"type:date" json:"id_expiry"`
	Nationality           string          `json:"nationality"`
	Company               string          `json:"company"`
	Occupation            string          `json:"occupation"`
	MonthlyIncome         decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"monthly_income"`
	EmergencyContactName  string          `json:"emergency_contact_name"`
	EmergencyContactPhone string          `json:"emergency_contact_phone"`
	PaymentMethod         string          `gorm:"size:20;default:cash" json:"payment_method"`
	Status                string          `gorm:"size:20;not null;default:prospect;index" json:"status"`
	CurrentRoomID         *uint           `gorm:"index" json:"current_room_id"`
	DocumentPath          *string         `json:"document_path"`
	PhotoPath             *string         `json:"photo_path"`
	PhotoThumbPath        *string         `json:"photo_thumb_path"`
	Notes                 *string         `gorm:"type:text" json:"notes"`
	CreatedAt             time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`

	// Associations
	Contact     Contact `gorm:"foreignKey:ContactID" json:"-"`
	CurrentRoom *Room   `gorm:"foreignKey:CurrentRoomID" json:"current_room,omitempty"`
}

// TableName specifies the table name for Tenant
func (Tenant) TableName() string {
	return "tenants"
}

// Tenant status constants
const (
	TenantStatusProspect    = "prospect"
	TenantStatusActive      = "active"
	TenantStatusInactive    = "inactive"
	TenantStatusBlacklisted = "blacklisted"
)

// Identity document types
const (
	IDTypeEmiratesID = "emirates_id"
	IDTypePassport   = "passport"
	IDTypeVisa       = "visa"
	IDTypeOther      = "other"
)

// Payment method constants shared by tenants, agreements, payments and collections
const (
	PaymentMethodCash         = "cash"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCheque       = "cheque"
	PaymentMethodCard         = "card"
	PaymentMethodOnline       = "online"
)

// ValidPaymentMethod reports whether m is a known payment method
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheque, PaymentMethodCard, PaymentMethodOnline:
		return true
	}
	return false
}

// SyncContact copies the fields mirrored on the contact record
func (t *Tenant) SyncContact(c *Contact) {
	c.Name = t.Name
	c.Mobile = t.Mobile
	c.Email = t.Email
}

// TenantStats holds derived figures for a tenant
type TenantStats struct {
	ActiveAgreements int             `json:"active_agreements"`
	TotalAgreements  int             `json:"total_agreements"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	LastPaymentDate  *time.Time      `json:"last_payment_date"`
}

// TenantResponse is the JSON response format for tenants
type TenantResponse struct {
	ID                    uint            `json:"id"`
	ContactID             uint            `json:"contact_id"`
	Name                  string          `json:"name"`
	Mobile                string          `json:"mobile"`
	Email                 string          `json:"email"`
	IDType                string          `json:"id_type"`
	IDNumber              *string         `json:"id_number"`
	IDExpiry              *time.Time      `json:"id_expiry"`
	Nationality           string          `json:"nationality"`
	Company               string          `json:"company"`
	Occupation            string          `json:"occupation"`
	MonthlyIncome         decimal.Decimal `json:"monthly_income"`
	EmergencyContactName  string          `json:"emergency_contact_name"`
	EmergencyContactPhone string          `json:"emergency_contact_phone"`
	PaymentMethod         string          `json:"payment_method"`
	Status                string          `json:"status"`
	CurrentRoomID         *uint           `json:"current_room_id"`
	CurrentRoomName       string          `json:"current_room_name,omitempty"`
	HasDocument           bool            `json:"has_document"`
	HasPhoto              bool            `json:"has_photo"`
	Notes                 *string         `json:"notes"`
	CreatedAt             time.Time       `json:"created_at"`
}

// ToResponse converts Tenant to TenantResponse
func (t *Tenant) ToResponse() TenantResponse {
	resp := TenantResponse{
		ID:                    t.ID,
		ContactID:             t.ContactID,
		Name:                  t.Name,
		Mobile:                t.Mobile,
		Email:                 t.Email,
		IDType:                t.IDType,
		IDNumber:              t.IDNumber,
		IDExpiry:              t.IDExpiry,
		Nationality:           t.Nationality,
		Company:               t.Company,
		Occupation:            t.Occupation,
		MonthlyIncome:         t.MonthlyIncome,
		EmergencyContactName:  t.EmergencyContactName,
		EmergencyContactPhone: t.EmergencyContactPhone,
		PaymentMethod:         t.PaymentMethod,
		Status:                t.Status,
		CurrentRoomID:         t.CurrentRoomID,
		HasDocument:           t.DocumentPath != nil,
		HasPhoto:              t.PhotoPath != nil,
		Notes:                 t.Notes,
		CreatedAt:             t.CreatedAt,
	}
	if t.CurrentRoom != nil {
		resp.CurrentRoomName = t.CurrentRoom.Name
	}
	return resp
}
