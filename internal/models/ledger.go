package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LandlordPayment is rent paid out to the owner of a leased property
type LandlordPayment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"not null;index" json:"name"`
	LandlordID    uint            `gorm:"not null;index" json:"landlord_id"`
	PropertyID    uint            `gorm:"not null;index" json:"property_id"`
	PaymentDate   time.Time       `gorm:"type:date;not null;index" json:"payment_date"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	PeriodFrom    *time.Time      `gorm:"type:date" json:"period_from"`
	PeriodTo      *time.Time      `gorm:"type:date" json:"period_to"`
	PaymentMethod string          `gorm:"size:20;not null;default:bank_transfer" json:"payment_method"`
	Status        string          `gorm:"size:20;not null;default:draft;index" json:"status"`
	Currency      string          `gorm:"size:3;not null;default:AED" json:"currency"`
	Notes         *string         `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Associations
	Landlord Contact  `gorm:"foreignKey:LandlordID" json:"-"`
	Property Property `gorm:"foreignKey:PropertyID" json:"-"`
}

// TableName specifies the table name for LandlordPayment
func (LandlordPayment) TableName() string {
	return "landlord_payments"
}

// Landlord payment status constants
const (
	LandlordPaymentStatusDraft     = "draft"
	LandlordPaymentStatusPaid      = "paid"
	LandlordPaymentStatusCancelled = "cancelled"
)

// LandlordPaymentName builds "LLP/{property_code}/{YYYYMMDD}"
func LandlordPaymentName(propertyCode string, date time.Time) string {
	return fmt.Sprintf("LLP/%s/%s", propertyCode, date.Format("20060102"))
}

// MayPay returns true while the payment is a draft
func (p *LandlordPayment) MayPay() bool {
	return p.Status == LandlordPaymentStatusDraft
}

// MayCancel returns true while the payment is a draft
func (p *LandlordPayment) MayCancel() bool {
	return p.Status == LandlordPaymentStatusDraft
}

// LandlordPaymentResponse is the JSON response format for landlord payments
type LandlordPaymentResponse struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	LandlordID    uint            `json:"landlord_id"`
	LandlordName  string          `json:"landlord_name"`
	PropertyID    uint            `json:"property_id"`
	PaymentDate   string          `json:"payment_date"`
	Amount        decimal.Decimal `json:"amount"`
	PeriodFrom    *time.Time      `json:"period_from"`
	PeriodTo      *time.Time      `json:"period_to"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	Currency      string          `json:"currency"`
	Notes         *string         `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToResponse converts LandlordPayment to LandlordPaymentResponse
func (p *LandlordPayment) ToResponse() LandlordPaymentResponse {
	return LandlordPaymentResponse{
		ID:            p.ID,
		Name:          p.Name,
		LandlordID:    p.LandlordID,
		LandlordName:  p.Landlord.Name,
		PropertyID:    p.PropertyID,
		PaymentDate:   p.PaymentDate.Format(DateLayout),
		Amount:        p.Amount,
		PeriodFrom:    p.PeriodFrom,
		PeriodTo:      p.PeriodTo,
		PaymentMethod: p.PaymentMethod,
		Status:        p.Status,
		Currency:      p.Currency,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
	}
}

// StaffSalary is one pay period of a staff member, commission and bonus included
type StaffSalary struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"not null;index" json:"name"`
	EmployeeID   uint            `gorm:"not null;index" json:"employee_id"`
	PropertyID   *uint           `gorm:"index" json:"property_id"`
	PeriodFrom   time.Time       `gorm:"type:date;not null" json:"period_from"`
	PeriodTo     time.Time       `gorm:"type:date;not null" json:"period_to"`
	BasicSalary  decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"basic_salary"`
	Commission   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"commission"`
	Bonus        decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"bonus"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_amount"`
	Status       string          `gorm:"size:20;not null;default:draft;index" json:"status"`
	Currency     string          `gorm:"size:3;not null;default:AED" json:"currency"`
	ApprovedByID *uint           `json:"approved_by_id"`
	PaidAt       *time.Time      `json:"paid_at"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// Associations
	Employee User `gorm:"foreignKey:EmployeeID" json:"-"`
}

// TableName specifies the table name for StaffSalary
func (StaffSalary) TableName() string {
	return "staff_salaries"
}

// Staff salary status constants
const (
	StaffSalaryStatusDraft    = "draft"
	StaffSalaryStatusApproved = "approved"
	StaffSalaryStatusPaid     = "paid"
)

// StaffSalaryName builds "SAL/{employee}/{YYYYMM}" from the period start
func StaffSalaryName(employee string, periodFrom time.Time) string {
	return fmt.Sprintf("SAL/%s/%s", employee, periodFrom.Format("200601"))
}

// RecomputeTotal sets total = basic + commission + bonus
func (s *StaffSalary) RecomputeTotal() {
	s.TotalAmount = s.BasicSalary.Add(s.Commission).Add(s.Bonus)
}

// MayApprove returns true while the salary is a draft
func (s *StaffSalary) MayApprove() bool {
	return s.Status == StaffSalaryStatusDraft
}

// MayPay returns true once the salary is approved
func (s *StaffSalary) MayPay() bool {
	return s.Status == StaffSalaryStatusApproved
}

// StaffSalaryResponse is the JSON response format for staff salaries
type StaffSalaryResponse struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	EmployeeID   uint            `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
	PropertyID   *uint           `json:"property_id"`
	PeriodFrom   string          `json:"period_from"`
	PeriodTo     string          `json:"period_to"`
	BasicSalary  decimal.Decimal `json:"basic_salary"`
	Commission   decimal.Decimal `json:"commission"`
	Bonus        decimal.Decimal `json:"bonus"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       string          `json:"status"`
	Currency     string          `json:"currency"`
	ApprovedByID *uint           `json:"approved_by_id"`
	PaidAt       *time.Time      `json:"paid_at"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ToResponse converts StaffSalary to StaffSalaryResponse
func (s *StaffSalary) ToResponse() StaffSalaryResponse {
	return StaffSalaryResponse{
		ID:           s.ID,
		Name:         s.Name,
		EmployeeID:   s.EmployeeID,
		EmployeeName: s.Employee.FullName,
		PropertyID:   s.PropertyID,
		PeriodFrom:   s.PeriodFrom.Format(DateLayout),
		PeriodTo:     s.PeriodTo.Format(DateLayout),
		BasicSalary:  s.BasicSalary,
		Commission:   s.Commission,
		Bonus:        s.Bonus,
		TotalAmount:  s.TotalAmount,
		Status:       s.Status,
		Currency:     s.Currency,
		ApprovedByID: s.ApprovedByID,
		PaidAt:       s.PaidAt,
		CreatedAt:    s.CreatedAt,
	}
}

// BankTransfer is an incoming transfer seen on the bank statement
type BankTransfer struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"not null;index" json:"name"`
	Date          time.Time       `gorm:"type:date;not null;index" json:"date"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	TenantID      *uint           `gorm:"index" json:"tenant_id"`
	CollectionID  *uint           `gorm:"index" json:"collection_id"`
	BankName      string          `json:"bank_name"`
	AccountNumber string          `json:"account_number"`
	TransactionID *string         `gorm:"size:64;uniqueIndex" json:"transaction_id"`
	Status        string          `gorm:"size:20;not null;default:pending;index" json:"status"`
	Currency      string          `gorm:"size:3;not null;default:AED" json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for BankTransfer
func (BankTransfer) TableName() string {
	return "bank_transfers"
}

// Bank transfer status constants
const (
	BankTransferStatusPending    = "pending"
	BankTransferStatusVerified   = "verified"
	BankTransferStatusReconciled = "reconciled"
)

// BankTransferName builds "BT/{YYYYMMDD}/{reference}"
func BankTransferName(date time.Time, reference string) string {
	return fmt.Sprintf("BT/%s/%s", date.Format("20060102"), reference)
}

// MayVerify returns true while the transfer is pending
func (b *BankTransfer) MayVerify() bool {
	return b.Status == BankTransferStatusPending
}

// MayReconcile returns true once the transfer is verified
func (b *BankTransfer) MayReconcile() bool {
	return b.Status == BankTransferStatusVerified
}

// BankTransferResponse is the JSON response format for bank transfers
type BankTransferResponse struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	TenantID      *uint           `json:"tenant_id"`
	CollectionID  *uint           `json:"collection_id"`
	BankName      string          `json:"bank_name"`
	AccountNumber string          `json:"account_number"`
	TransactionID *string         `json:"transaction_id"`
	Status        string          `json:"status"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToResponse converts BankTransfer to BankTransferResponse
func (b *BankTransfer) ToResponse() BankTransferResponse {
	return BankTransferResponse{
		ID:            b.ID,
		Name:          b.Name,
		Date:          b.Date.Format(DateLayout),
		Amount:        b.Amount,
		TenantID:      b.TenantID,
		CollectionID:  b.CollectionID,
		BankName:      b.BankName,
		AccountNumber: b.AccountNumber,
		TransactionID: b.TransactionID,
		Status:        b.Status,
		Currency:      b.Currency,
		CreatedAt:     b.CreatedAt,
	}
}
