package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TenantExit settles a tenant's departure from an agreement
type TenantExit struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	Name               string          `json:"name"`
	TenantID           uint            `gorm:"not null;index" json:"tenant_id"`
	AgreementID        uint            `gorm:"not null;index" json:"agreement_id"`
	RoomID             uint            `gorm:"not null;index" json:"room_id"`
	NoticeDate         *time.Time      `gorm:"type:date" json:"notice_date"`
	ExitDate           time.Time       `gorm:"type:date;not null" json:"exit_date"`
	ExitReason         string          `gorm:"size:30;not null" json:"exit_reason"`
	ExitType           string          `gorm:"size:20;not null;default:normal" json:"exit_type"`
	DepositRefund      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"deposit_refund"`
	PendingDues        decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"pending_dues"`
	DamagesDeduction   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"damages_deduction"`
	FinalSettlement    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"final_settlement"`
	Currency           string          `gorm:"size:3;not null;default:AED" json:"currency"`
	Status             string          `gorm:"size:20;not null;default:notice_given;index" json:"status"`
	DamagesDescription *string         `gorm:"type:text" json:"damages_description"`
	Notes              *string         `gorm:"type:text" json:"notes"`
	CompletedByID      *uint           `json:"completed_by_id"`
	CompletedAt        *time.Time      `json:"completed_at"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	// Associations
	Tenant    Tenant    `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Agreement Agreement `gorm:"foreignKey:AgreementID" json:"-"`
}

// TableName specifies the table name for TenantExit
func (TenantExit) TableName() string {
	return "tenant_exits"
}

// Exit status constants
const (
	ExitStatusNoticeGiven = "notice_given"
	ExitStatusInProgress  = "in_progress"
	ExitStatusCompleted   = "completed"
	ExitStatusArchived    = "archived"
)

// Exit reason constants
const (
	ExitReasonEndOfTerm        = "end_of_term"
	ExitReasonEarlyTermination = "early_termination"
	ExitReasonEviction         = "eviction"
	ExitReasonTransfer         = "transfer"
	ExitReasonOther            = "other"
)

// Exit type constants
const (
	ExitTypeNormal     = "normal"
	ExitTypeEmergency  = "emergency"
	ExitTypeAbsconding = "absconding"
)

// ValidExitReason reports whether r is a known exit reason
func ValidExitReason(r string) bool {
	switch r {
	case ExitReasonEndOfTerm, ExitReasonEarlyTermination, ExitReasonEviction, ExitReasonTransfer, ExitReasonOther:
		return true
	}
	return false
}

// ValidExitType reports whether t is a known exit type
func ValidExitType(t string) bool {
	switch t {
	case ExitTypeNormal, ExitTypeEmergency, ExitTypeAbsconding:
		return true
	}
	return false
}

// ExitName builds "EXIT/{tenant}/{YYYYMMDD}"
func ExitName(tenantName string, exitDate time.Time) string {
	return fmt.Sprintf("EXIT/%s/%s", tenantName, exitDate.Format("20060102"))
}

// ComputeSettlement sets final_settlement = deposit_refund − pending_dues − damages_deduction
func (e *TenantExit) ComputeSettlement() {
	e.FinalSettlement = e.DepositRefund.Sub(e.PendingDues).Sub(e.DamagesDeduction)
}

// MayStart returns true if the exit can move to in_progress
func (e *TenantExit) MayStart() bool {
	return e.Status == ExitStatusNoticeGiven
}

// MayComplete returns true if the exit can be completed
func (e *TenantExit) MayComplete() bool {
	return e.Status == ExitStatusNoticeGiven || e.Status == ExitStatusInProgress
}

// MayArchive returns true if the exit can be archived
func (e *TenantExit) MayArchive() bool {
	return e.Status == ExitStatusCompleted
}

// TenantExitResponse is the JSON response format for exits
type TenantExitResponse struct {
	ID                 uint            `json:"id"`
	Name               string          `json:"name"`
	TenantID           uint            `json:"tenant_id"`
	TenantName         string          `json:"tenant_name"`
	AgreementID        uint            `json:"agreement_id"`
	RoomID             uint            `json:"room_id"`
	NoticeDate         *time.Time      `json:"notice_date"`
	ExitDate           string          `json:"exit_date"`
	ExitReason         string          `json:"exit_reason"`
	ExitType           string          `json:"exit_type"`
	DepositRefund      decimal.Decimal `json:"deposit_refund"`
	PendingDues        decimal.Decimal `json:"pending_dues"`
	DamagesDeduction   decimal.Decimal `json:"damages_deduction"`
	FinalSettlement    decimal.Decimal `json:"final_settlement"`
	Currency           string          `json:"currency"`
	Status             string          `json:"status"`
	DamagesDescription *string         `json:"damages_description"`
	Notes              *string         `json:"notes"`
	CompletedAt        *time.Time      `json:"completed_at"`
}

// ToResponse converts TenantExit to TenantExitResponse
func (e *TenantExit) ToResponse() TenantExitResponse {
	return TenantExitResponse{
		ID:                 e.ID,
		Name:               e.Name,
		TenantID:           e.TenantID,
		TenantName:         e.Tenant.Name,
		AgreementID:        e.AgreementID,
		RoomID:             e.RoomID,
		NoticeDate:         e.NoticeDate,
		ExitDate:           e.ExitDate.Format(DateLayout),
		ExitReason:         e.ExitReason,
		ExitType:           e.ExitType,
		DepositRefund:      e.DepositRefund,
		PendingDues:        e.PendingDues,
		DamagesDeduction:   e.DamagesDeduction,
		FinalSettlement:    e.FinalSettlement,
		Currency:           e.Currency,
		Status:             e.Status,
		DamagesDescription: e.DamagesDescription,
		Notes:              e.Notes,
		CompletedAt:        e.CompletedAt,
	}
}
