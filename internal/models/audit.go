package models

import (
	"time"
)

// AuditLog represents a system audit entry
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Action    string    `gorm:"size:50;not null" json:"action"` // CREATE, UPDATE, DELETE, ACTIVATE, POST ...
	Entity    string    `gorm:"size:50;not null" json:"entity"` // Agreement, Invoice, Collection, ...
	EntityID  uint      `json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// ChangeLog is one append-only row per changed field of a tracked record
type ChangeLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Entity    string    `gorm:"size:50;not null;index:idx_change_logs_entity" json:"entity"`
	EntityID  uint      `gorm:"not null;index:idx_change_logs_entity" json:"entity_id"`
	Field     string    `gorm:"size:50;not null" json:"field"`
	OldValue  string    `gorm:"type:text" json:"old_value"`
	NewValue  string    `gorm:"type:text" json:"new_value"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	ChangedAt time.Time `gorm:"not null;index" json:"changed_at"`
}

// TableName specifies the table name for ChangeLog
func (ChangeLog) TableName() string {
	return "change_logs"
}

// Activity is a follow-up task assigned to a staff user
type Activity struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Entity    string     `gorm:"size:50;not null;index:idx_activities_entity" json:"entity"`
	EntityID  uint       `gorm:"not null;index:idx_activities_entity" json:"entity_id"`
	Kind      string     `gorm:"size:30;not null;index" json:"kind"`
	Summary   string     `gorm:"not null" json:"summary"`
	Note      string     `gorm:"type:text" json:"note"`
	UserID    *uint      `gorm:"index" json:"user_id"`
	DueDate   *time.Time `gorm:"type:date" json:"due_date"`
	DoneAt    *time.Time `gorm:"index" json:"done_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for Activity
func (Activity) TableName() string {
	return "activities"
}

// Activity kinds
const (
	ActivityKindTodo              = "todo"
	ActivityKindAgreementExpiring = "agreement_expiring"
	ActivityKindCollectRent       = "collect_rent"
	ActivityKindDueReminder       = "due_reminder"
)

// IsDone returns true once the activity is completed
func (a *Activity) IsDone() bool {
	return a.DoneAt != nil
}

// ActivityResponse is the JSON response format for activities
type ActivityResponse struct {
	ID        uint       `json:"id"`
	Entity    string     `json:"entity"`
	EntityID  uint       `json:"entity_id"`
	Kind      string     `json:"kind"`
	Summary   string     `json:"summary"`
	Note      string     `json:"note"`
	UserID    *uint      `json:"user_id"`
	DueDate   *time.Time `json:"due_date"`
	Done      bool       `json:"done"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToResponse converts Activity to ActivityResponse
func (a *Activity) ToResponse() ActivityResponse {
	return ActivityResponse{
		ID:        a.ID,
		Entity:    a.Entity,
		EntityID:  a.EntityID,
		Kind:      a.Kind,
		Summary:   a.Summary,
		Note:      a.Note,
		UserID:    a.UserID,
		DueDate:   a.DueDate,
		Done:      a.IsDone(),
		CreatedAt: a.CreatedAt,
	}
}

// Entity names used by audit, change log and activity rows
const (
	EntityProperty        = "Property"
	EntityFlat            = "Flat"
	EntityRoom            = "Room"
	EntityRoomType        = "RoomType"
	EntityTenant          = "Tenant"
	EntityAgreement       = "Agreement"
	EntityInvoice         = "Invoice"
	EntityPayment         = "Payment"
	EntityCollection      = "Collection"
	EntityExpense         = "Expense"
	EntityDue             = "DueTracker"
	EntityTenantExit      = "TenantExit"
	EntityDeposit         = "Deposit"
	EntityUser            = "User"
	EntityLandlordPayment = "LandlordPayment"
	EntityStaffSalary     = "StaffSalary"
	EntityBankTransfer    = "BankTransfer"
)
