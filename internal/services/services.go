package services

import (
	"context"
	"time"

	"github.com/sjperalta/rentdesk-api/internal/config"
	"github.com/sjperalta/rentdesk-api/internal/jobs"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/internal/storage"
	"github.com/sjperalta/rentdesk-api/pkg/logger"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	User         *UserService
	Property     *PropertyService
	Tenant       *TenantService
	Agreement    *AgreementService
	Invoice      *InvoiceService
	Payment      *PaymentService
	Collection   *CollectionService
	Due          *DueService
	Exit         *ExitService
	Expense      *ExpenseService
	Ledger       *LedgerService
	Billing      *BillingService
	Dashboard    *DashboardService
	Portal       *PortalService
	Activity     *ActivityService
	Notification *NotificationService
	Report       *ReportService
	Audit        *AuditService
	Email        *EmailService
	Export       *ExportService
	Job          *JobService
	Clock        Clock
	Location     *time.Location
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, store *storage.LocalStorage, cfg *config.Config) *Services {
	loc := loadLocation(cfg.Timezone)
	return newServices(repos, worker, store, cfg, NewClock(loc), loc)
}

func newServices(repos *repository.Repositories, worker *jobs.Worker, store *storage.LocalStorage, cfg *config.Config, clock Clock, loc *time.Location) *Services {
	notificationSvc := NewNotificationService(repos.Notification, repos.User)
	emailSvc := NewEmailService(cfg)
	auditSvc := NewAuditService(repos)
	activitySvc := NewActivityService(repos, clock)
	imageSvc := NewImageService(store)
	reportSvc := NewReportService(repos, clock, cfg.WkhtmltopdfPath)

	agreementSvc := NewAgreementService(repos, auditSvc, notificationSvc, worker, clock, cfg.Currency)
	invoiceSvc := NewInvoiceService(repos, auditSvc, notificationSvc, emailSvc, reportSvc, worker, clock, cfg.Currency)
	collectionSvc := NewCollectionService(repos, auditSvc, clock, cfg.Currency)
	dueSvc := NewDueService(repos, auditSvc, activitySvc, emailSvc, worker, clock, cfg.Currency)
	dashboardSvc := NewDashboardService(repos.Dashboard, clock, cfg.Currency)

	billingSvc := NewBillingService(repos, invoiceSvc, dueSvc, agreementSvc, activitySvc, notificationSvc, clock, cfg.ExpiryWarningDays)

	return &Services{
		Auth:         NewAuthService(repos.User, repos.RefreshToken, cfg),
		User:         NewUserService(repos, worker, emailSvc, auditSvc),
		Property:     NewPropertyService(repos, auditSvc, clock),
		Tenant:       NewTenantService(repos, auditSvc, store, imageSvc),
		Agreement:    agreementSvc,
		Invoice:      invoiceSvc,
		Payment:      NewPaymentService(repos, auditSvc, invoiceSvc, collectionSvc, notificationSvc, worker, clock),
		Collection:   collectionSvc,
		Due:          dueSvc,
		Exit:         NewExitService(repos, auditSvc, agreementSvc, notificationSvc, worker, clock),
		Expense:      NewExpenseService(repos, auditSvc, notificationSvc, store, worker, clock, cfg.Currency),
		Ledger:       NewLedgerService(repos, auditSvc, notificationSvc, worker, clock, cfg.Currency),
		Billing:      billingSvc,
		Dashboard:    dashboardSvc,
		Portal:       NewPortalService(repos, clock),
		Activity:     activitySvc,
		Notification: notificationSvc,
		Report:       reportSvc,
		Audit:        auditSvc,
		Email:        emailSvc,
		Export:       NewExportService(dashboardSvc, repos),
		Job:          NewJobService(worker, billingSvc),
		Clock:        clock,
		Location:     loc,
	}
}

func loadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("Unknown timezone, falling back to UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

// dispatch hands a post-commit side effect to the worker, or runs it inline without one
func dispatch(worker *jobs.Worker, job jobs.Job) {
	if worker != nil {
		worker.EnqueueAsync(job)
		return
	}
	if err := job(context.Background()); err != nil {
		logger.Error("Background job failed", "error", err)
	}
}
