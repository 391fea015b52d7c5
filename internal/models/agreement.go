package models

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Agreement is a dated rental contract binding a tenant to a room
type Agreement struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	Name                 string          `gorm:"index" json:"name"`
	TenantID             uint            `gorm:"not null;index" json:"tenant_id"`
	RoomID               uint            `gorm:"not null;index:idx_agreements_room_state" json:"room_id"`
	FlatID               uint            `gorm:"not null;index" json:"flat_id"`
	PropertyID           uint            `gorm:"not null;index" json:"property_id"`
	AgreementType        string          `gorm:"size:20;not null;default:monthly" json:"agreement_type"`
	StartDate            time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate              time.Time       `gorm:"type:date;not null;index" json:"end_date"`
	NoticePeriodDays     int             `gorm:"not null;default:30" json:"notice_period_days"`
	RentAmount           decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"rent_amount"`
	DepositAmount        decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"deposit_amount"`
	TokenAmount          decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"token_amount"`
	ExtraCharges         decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"extra_charges"`
	Currency             string          `gorm:"size:3;not null;default:AED" json:"currency"`
	PaymentFrequency     string          `gorm:"size:20;not null;default:monthly;index" json:"payment_frequency"`
	PaymentDay           int             `gorm:"not null;default:1" json:"payment_day"`
	PaymentTermsDays     int             `gorm:"not null;default:30" json:"payment_terms_days"`
	PaymentMethod        string          `gorm:"size:20;default:cash" json:"payment_method"`
	AutoGenerateInvoices bool            `gorm:"not null" json:"auto_generate_invoices"`
	AutoPostInvoices     bool            `gorm:"not null;default:false" json:"auto_post_invoices"`
	InvoiceDay           int             `gorm:"not null;default:1" json:"invoice_day"`
	AdvanceInvoiceDays   int             `gorm:"not null;default:5" json:"advance_invoice_days"`
	ElectricityIncluded  bool            `gorm:"default:false" json:"electricity_included"`
	WaterIncluded        bool            `gorm:"default:false" json:"water_included"`
	InternetIncluded     bool            `gorm:"default:false" json:"internet_included"`
	State                string          `gorm:"size:20;not null;default:draft;index:idx_agreements_room_state" json:"state"`
	ActivatedAt          *time.Time      `json:"activated_at"`
	TerminatedAt         *time.Time      `json:"terminated_at"`
	Notes                *string         `gorm:"type:text" json:"notes"`
	CreatedByID          *uint           `gorm:"index" json:"created_by_id"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`

	// Associations
	Tenant   Tenant   `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Room     Room     `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Property Property `gorm:"foreignKey:PropertyID" json:"-"`
}

// TableName specifies the table name for Agreement
func (Agreement) TableName() string {
	return "agreements"
}

// Agreement state constants
const (
	AgreementStateDraft      = "draft"
	AgreementStateActive     = "active"
	AgreementStateExpired    = "expired"
	AgreementStateTerminated = "terminated"
	AgreementStateCancelled  = "cancelled"
)

// OverlapCheckedStates are the states taking part in the room overlap rule
var OverlapCheckedStates = []string{AgreementStateDraft, AgreementStateActive}

// Agreement type constants
const (
	AgreementTypeMonthly = "monthly"
	AgreementTypeYearly  = "yearly"
	AgreementTypeFixed   = "fixed"
)

// Payment frequency constants
const (
	FrequencyDaily     = "daily"
	FrequencyWeekly    = "weekly"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyYearly    = "yearly"
)

// ValidFrequency reports whether f is a known payment frequency
func ValidFrequency(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// MayActivate returns true if the agreement can be activated
func (a *Agreement) MayActivate() bool {
	return a.State == AgreementStateDraft
}

// MayTerminate returns true if the agreement can be terminated
func (a *Agreement) MayTerminate() bool {
	return a.State == AgreementStateActive
}

// MayExpire returns true if the agreement can expire
func (a *Agreement) MayExpire() bool {
	return a.State == AgreementStateActive
}

// MayCancel returns true if the agreement can be cancelled
func (a *Agreement) MayCancel() bool {
	return a.State == AgreementStateDraft
}

// IsEditable returns true while terms may still change
func (a *Agreement) IsEditable() bool {
	return a.State == AgreementStateDraft || a.State == AgreementStateActive
}

// AgreementName builds "AGR/{tenant}/{room}/{YYYYMMDD}"
func AgreementName(tenantName, roomName string, start time.Time) string {
	return fmt.Sprintf("AGR/%s/%s/%s", tenantName, roomName, start.Format("20060102"))
}

// DatesValid reports whether end_date is strictly after start_date
func (a *Agreement) DatesValid() bool {
	return DateOf(a.EndDate).After(DateOf(a.StartDate))
}

// Overlaps applies the inclusive interval test against another range
func (a *Agreement) Overlaps(start, end time.Time) bool {
	return !DateOf(a.StartDate).After(DateOf(end)) && !DateOf(a.EndDate).Before(DateOf(start))
}

// DurationMonths returns round(days/30)
func (a *Agreement) DurationMonths() int {
	days := DaysBetween(a.StartDate, a.EndDate)
	return int(math.Round(float64(days) / 30))
}

// DaysRemaining returns the days until end_date for active agreements, zero otherwise
func (a *Agreement) DaysRemaining(today time.Time) int {
	if a.State != AgreementStateActive {
		return 0
	}
	days := DaysBetween(today, a.EndDate)
	if days < 0 {
		return 0
	}
	return days
}

// PendingAmount estimates rent owed: max(0, rent × days_elapsed/30 − collected).
// Only active agreements carry a pending amount.
func (a *Agreement) PendingAmount(today time.Time, collected decimal.Decimal) decimal.Decimal {
	if a.State != AgreementStateActive {
		return decimal.Zero
	}
	elapsed := decimal.NewFromInt(int64(DaysBetween(a.StartDate, today)))
	expected := a.RentAmount.Mul(elapsed).Div(decimal.NewFromInt(30))
	pending := expected.Sub(collected).Round(2)
	if pending.IsNegative() {
		return decimal.Zero
	}
	return pending
}

// IsExpiringBy returns true if an active agreement ends on or before the given date
func (a *Agreement) IsExpiringBy(limit time.Time) bool {
	return a.State == AgreementStateActive && !DateOf(a.EndDate).After(DateOf(limit))
}

// Renewal returns an unsaved draft continuing this agreement for another year
func (a *Agreement) Renewal() *Agreement {
	start := DateOf(a.EndDate).AddDate(0, 0, 1)
	end := DateOf(a.EndDate).AddDate(0, 0, 365)
	return &Agreement{
		TenantID:             a.TenantID,
		RoomID:               a.RoomID,
		FlatID:               a.FlatID,
		PropertyID:           a.PropertyID,
		AgreementType:        a.AgreementType,
		StartDate:            start,
		EndDate:              end,
		NoticePeriodDays:     a.NoticePeriodDays,
		RentAmount:           a.RentAmount,
		DepositAmount:        a.DepositAmount,
		ExtraCharges:         a.ExtraCharges,
		Currency:             a.Currency,
		PaymentFrequency:     a.PaymentFrequency,
		PaymentDay:           a.PaymentDay,
		PaymentTermsDays:     a.PaymentTermsDays,
		PaymentMethod:        a.PaymentMethod,
		AutoGenerateInvoices: a.AutoGenerateInvoices,
		AutoPostInvoices:     a.AutoPostInvoices,
		InvoiceDay:           a.InvoiceDay,
		AdvanceInvoiceDays:   a.AdvanceInvoiceDays,
		ElectricityIncluded:  a.ElectricityIncluded,
		WaterIncluded:        a.WaterIncluded,
		InternetIncluded:     a.InternetIncluded,
		State:                AgreementStateDraft,
	}
}

// AgreementStats holds collection-derived figures for an agreement
type AgreementStats struct {
	TotalCollected  decimal.Decimal `json:"total_collected"`
	LastPaymentDate *time.Time      `json:"last_payment_date"`
	InvoiceCount    int64           `json:"invoice_count"`
}

// AgreementResponse is the JSON response format for agreements
type AgreementResponse struct {
	ID                   uint            `json:"id"`
	Name                 string          `json:"name"`
	TenantID             uint            `json:"tenant_id"`
	TenantName           string          `json:"tenant_name"`
	RoomID               uint            `json:"room_id"`
	RoomName             string          `json:"room_name"`
	FlatID               uint            `json:"flat_id"`
	PropertyID           uint            `json:"property_id"`
	AgreementType        string          `json:"agreement_type"`
	StartDate            string          `json:"start_date"`
	EndDate              string          `json:"end_date"`
	NoticePeriodDays     int             `json:"notice_period_days"`
	RentAmount           decimal.Decimal `json:"rent_amount"`
	DepositAmount        decimal.Decimal `json:"deposit_amount"`
	TokenAmount          decimal.Decimal `json:"token_amount"`
	ExtraCharges         decimal.Decimal `json:"extra_charges"`
	Currency             string          `json:"currency"`
	PaymentFrequency     string          `json:"payment_frequency"`
	PaymentDay           int             `json:"payment_day"`
	PaymentTermsDays     int             `json:"payment_terms_days"`
	PaymentMethod        string          `json:"payment_method"`
	AutoGenerateInvoices bool            `json:"auto_generate_invoices"`
	AutoPostInvoices     bool            `json:"auto_post_invoices"`
	InvoiceDay           int             `json:"invoice_day"`
	AdvanceInvoiceDays   int             `json:"advance_invoice_days"`
	ElectricityIncluded  bool            `json:"electricity_included"`
	WaterIncluded        bool            `json:"water_included"`
	InternetIncluded     bool            `json:"internet_included"`
	State                string          `json:"state"`
	DurationMonths       int             `json:"duration_months"`
	DaysRemaining        int             `json:"days_remaining"`
	TotalCollected       decimal.Decimal `json:"total_collected"`
	LastPaymentDate      *time.Time      `json:"last_payment_date"`
	PendingAmount        decimal.Decimal `json:"pending_amount"`
	InvoiceCount         int64           `json:"invoice_count"`
	Notes                *string         `json:"notes"`
	CreatedAt            time.Time       `json:"created_at"`
}

// ToResponse converts Agreement to AgreementResponse evaluated at today
func (a *Agreement) ToResponse(today time.Time, stats AgreementStats) AgreementResponse {
	return AgreementResponse{
		ID:                   a.ID,
		Name:                 a.Name,
		TenantID:             a.TenantID,
		TenantName:           a.Tenant.Name,
		RoomID:               a.RoomID,
		RoomName:             a.Room.Name,
		FlatID:               a.FlatID,
		PropertyID:           a.PropertyID,
		AgreementType:        a.AgreementType,
		StartDate:            a.StartDate.Format(DateLayout),
		EndDate:              a.EndDate.Format(DateLayout),
		NoticePeriodDays:     a.NoticePeriodDays,
		RentAmount:           a.RentAmount,
		DepositAmount:        a.DepositAmount,
		TokenAmount:          a.TokenAmount,
		ExtraCharges:         a.ExtraCharges,
		Currency:             a.Currency,
		PaymentFrequency:     a.PaymentFrequency,
		PaymentDay:           a.PaymentDay,
		PaymentTermsDays:     a.PaymentTermsDays,
		PaymentMethod:        a.PaymentMethod,
		AutoGenerateInvoices: a.AutoGenerateInvoices,
		AutoPostInvoices:     a.AutoPostInvoices,
		InvoiceDay:           a.InvoiceDay,
		AdvanceInvoiceDays:   a.AdvanceInvoiceDays,
		ElectricityIncluded:  a.ElectricityIncluded,
		WaterIncluded:        a.WaterIncluded,
		InternetIncluded:     a.InternetIncluded,
		State:                a.State,
		DurationMonths:       a.DurationMonths(),
		DaysRemaining:        a.DaysRemaining(today),
		TotalCollected:       stats.TotalCollected,
		LastPaymentDate:      stats.LastPaymentDate,
		PendingAmount:        a.PendingAmount(today, stats.TotalCollected),
		InvoiceCount:         stats.InvoiceCount,
		Notes:                a.Notes,
		CreatedAt:            a.CreatedAt,
	}
}
