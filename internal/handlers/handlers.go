package handlers

import (
	"github.com/sjperalta/rentdesk-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	Property     *PropertyHandler
	Flat         *FlatHandler
	Room         *RoomHandler
	Tenant       *TenantHandler
	Agreement    *AgreementHandler
	Invoice      *InvoiceHandler
	Payment      *PaymentHandler
	Collection   *CollectionHandler
	Expense      *ExpenseHandler
	Ledger       *LedgerHandler
	Due          *DueHandler
	Exit         *ExitHandler
	Dashboard    *DashboardHandler
	Report       *ReportHandler
	Portal       *PortalHandler
	Activity     *ActivityHandler
	Notification *NotificationHandler
	Audit        *AuditHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Auth:         NewAuthHandler(svcs.Auth),
		User:         NewUserHandler(svcs.User),
		Property:     NewPropertyHandler(svcs.Property),
		Flat:         NewFlatHandler(svcs.Property),
		Room:         NewRoomHandler(svcs.Property),
		Tenant:       NewTenantHandler(svcs.Tenant),
		Agreement:    NewAgreementHandler(svcs.Agreement),
		Invoice:      NewInvoiceHandler(svcs.Invoice, svcs.Payment),
		Payment:      NewPaymentHandler(svcs.Payment),
		Collection:   NewCollectionHandler(svcs.Collection, svcs.Export),
		Expense:      NewExpenseHandler(svcs.Expense),
		Ledger:       NewLedgerHandler(svcs.Ledger),
		Due:          NewDueHandler(svcs.Due),
		Exit:         NewExitHandler(svcs.Exit),
		Dashboard:    NewDashboardHandler(svcs.Dashboard, svcs.Export),
		Report:       NewReportHandler(svcs.Report),
		Portal:       NewPortalHandler(svcs.Portal),
		Activity:     NewActivityHandler(svcs.Activity),
		Notification: NewNotificationHandler(svcs.Notification),
		Audit:        NewAuditHandler(svcs.Audit),
		Job:          NewJobHandler(svcs.Job),
	}
}
