package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sjperalta/rentdesk-api/docs" // Swagger docs
	"github.com/sjperalta/rentdesk-api/internal/config"
	"github.com/sjperalta/rentdesk-api/internal/database"
	"github.com/sjperalta/rentdesk-api/internal/handlers"
	"github.com/sjperalta/rentdesk-api/internal/jobs"
	"github.com/sjperalta/rentdesk-api/internal/middleware"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/internal/services"
	"github.com/sjperalta/rentdesk-api/internal/storage"
	"github.com/sjperalta/rentdesk-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title RentDesk API
// @version 1.0
// @description REST API for the RentDesk rental back office: properties, tenants, agreements, billing and collections

// @contact.name RentDesk Support
// @contact.email support@rentdesk.app

// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Setup(cfg.Environment, cfg.LogLevel)

	// Sentry is optional; without a DSN errors only go to the log
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.ResendAPIKey == "" || cfg.FromEmail == "" {
		logger.Warn("Resend email disabled: RESEND_API_KEY or FROM_EMAIL not set")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Error("Migration failed", "error", err)
			os.Exit(1)
		}
		logger.Info("Database schema migrated")
	}

	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	repos := repository.NewRepositories(db)

	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	svcs := services.NewServices(repos, worker, store, cfg)

	scheduler := jobs.NewScheduler(worker, svcs.Location)
	if err := svcs.Job.Schedule(scheduler, cfg.BillingCron); err != nil {
		logger.Error("Invalid BILLING_CRON", "spec", cfg.BillingCron, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Scheduled daily sweeps", "spec", cfg.BillingCron, "timezone", svcs.Location.String())

	router := setupRouter(handlers.NewHandlers(svcs), cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// stop firing new sweeps before draining the worker
	scheduler.Stop()
	worker.Shutdown()
	logger.Info("Background worker stopped")

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.Health.Index)

		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Any signed-in account
			protected.GET("/me", h.User.Me)
			protected.PATCH("/me/password", h.User.ChangePassword)

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.POST("/mark_all_as_read", h.Notification.MarkAllAsRead)
				notifications.GET("/:notification_id", h.Notification.Show)
				notifications.PATCH("/:notification_id", h.Notification.Update)
				notifications.DELETE("/:notification_id", h.Notification.Delete)
			}

			// Tenant self-service
			portal := protected.Group("/portal")
			portal.Use(middleware.RequireRole(models.RoleTenant))
			{
				portal.GET("/agreements", h.Portal.Agreements)
				portal.GET("/agreements/:agreement_id", h.Portal.Agreement)
				portal.GET("/collections", h.Portal.Collections)
				portal.GET("/invoices", h.Portal.Invoices)
				portal.GET("/invoices/:invoice_id", h.Portal.Invoice)
				portal.GET("/dues", h.Portal.Dues)
			}

			staff := protected.Group("")
			staff.Use(middleware.RequireStaff())
			registerStaffRoutes(staff, h)

			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			registerAdminRoutes(admin, h)
		}
	}

	return router
}

func registerStaffRoutes(r *gin.RouterGroup, h *handlers.Handlers) {
	r.GET("/properties", h.Property.Index)
	r.POST("/properties", h.Property.Create)
	r.GET("/properties/:property_id", h.Property.Show)
	r.PUT("/properties/:property_id", h.Property.Update)
	r.GET("/properties/:property_id/flats", h.Flat.Index)
	r.POST("/properties/:property_id/flats", h.Flat.Create)

	r.GET("/flats/:flat_id", h.Flat.Show)
	r.PUT("/flats/:flat_id", h.Flat.Update)

	r.GET("/room_types", h.Room.ListTypes)
	r.GET("/rooms", h.Room.Index)
	r.POST("/rooms", h.Room.Create)
	r.GET("/rooms/:room_id", h.Room.Show)
	r.PUT("/rooms/:room_id", h.Room.Update)
	r.POST("/rooms/:room_id/actions/:action", h.Room.Action)

	r.GET("/tenants", h.Tenant.Index)
	r.POST("/tenants", h.Tenant.Create)
	r.GET("/tenants/:tenant_id", h.Tenant.Show)
	r.PUT("/tenants/:tenant_id", h.Tenant.Update)
	r.POST("/tenants/:tenant_id/status/:action", h.Tenant.ChangeStatus)
	r.POST("/tenants/:tenant_id/documents", h.Tenant.UploadDocument)
	r.POST("/tenants/:tenant_id/photo", h.Tenant.UploadPhoto)
	r.GET("/tenants/:tenant_id/files/:kind", h.Tenant.File)

	r.GET("/agreements", h.Agreement.Index)
	r.POST("/agreements", h.Agreement.Create)
	r.GET("/agreements/:agreement_id", h.Agreement.Show)
	r.PUT("/agreements/:agreement_id", h.Agreement.Update)
	r.DELETE("/agreements/:agreement_id", h.Agreement.Delete)
	r.POST("/agreements/:agreement_id/activate", h.Agreement.Activate)
	r.POST("/agreements/:agreement_id/terminate", h.Agreement.Terminate)
	r.POST("/agreements/:agreement_id/expire", h.Agreement.Expire)
	r.POST("/agreements/:agreement_id/cancel", h.Agreement.Cancel)
	r.POST("/agreements/:agreement_id/renew", h.Agreement.Renew)

	r.GET("/invoices", h.Invoice.Index)
	r.POST("/invoices", h.Invoice.Create)
	r.GET("/invoices/:invoice_id", h.Invoice.Show)
	r.PUT("/invoices/:invoice_id", h.Invoice.Update)
	r.DELETE("/invoices/:invoice_id", h.Invoice.Delete)
	r.POST("/invoices/:invoice_id/post", h.Invoice.Post)
	r.POST("/invoices/:invoice_id/cancel", h.Invoice.Cancel)
	r.POST("/invoices/:invoice_id/reset_to_draft", h.Invoice.ResetToDraft)
	r.POST("/invoices/:invoice_id/send", h.Invoice.Send)
	r.GET("/invoices/:invoice_id/pdf", h.Invoice.PDF)
	r.POST("/invoices/:invoice_id/register_payment", h.Invoice.RegisterPayment)
	r.POST("/invoices/:invoice_id/payments", h.Invoice.CreatePayment)

	r.GET("/payments", h.Payment.Index)
	r.GET("/payments/:payment_id", h.Payment.Show)
	r.POST("/payments/:payment_id/post", h.Payment.Post)
	r.POST("/payments/:payment_id/cancel", h.Payment.Cancel)
	r.POST("/payments/:payment_id/reconcile", h.Payment.Reconcile)
	r.POST("/payments/:payment_id/reset_to_draft", h.Payment.ResetToDraft)

	r.GET("/collections", h.Collection.Index)
	r.GET("/collections/export", h.Collection.Export)
	r.POST("/collections", h.Collection.Create)
	r.GET("/collections/:collection_id", h.Collection.Show)
	r.PUT("/collections/:collection_id", h.Collection.Update)
	r.DELETE("/collections/:collection_id", h.Collection.Delete)
	r.POST("/collections/:collection_id/collect", h.Collection.Collect)
	r.POST("/collections/:collection_id/verify", h.Collection.Verify)
	r.POST("/collections/:collection_id/deposit", h.Collection.Deposit)
	r.POST("/collections/:collection_id/cancel", h.Collection.Cancel)

	r.GET("/expenses", h.Expense.Index)
	r.POST("/expenses", h.Expense.Create)
	r.GET("/expenses/:expense_id", h.Expense.Show)
	r.PUT("/expenses/:expense_id", h.Expense.Update)
	r.DELETE("/expenses/:expense_id", h.Expense.Delete)
	r.POST("/expenses/:expense_id/submit", h.Expense.Submit)
	r.POST("/expenses/:expense_id/pay", h.Expense.Pay)
	r.POST("/expenses/:expense_id/reset_to_draft", h.Expense.ResetToDraft)
	r.POST("/expenses/:expense_id/bill_reference", h.Expense.BillReference)
	r.POST("/expenses/:expense_id/bill", h.Expense.UploadBill)
	r.GET("/expenses/:expense_id/bill", h.Expense.Bill)

	r.GET("/landlord_payments", h.Ledger.LandlordPayments)
	r.POST("/landlord_payments", h.Ledger.CreateLandlordPayment)
	r.GET("/landlord_payments/:landlord_payment_id", h.Ledger.ShowLandlordPayment)
	r.DELETE("/landlord_payments/:landlord_payment_id", h.Ledger.DeleteLandlordPayment)
	r.GET("/staff_salaries", h.Ledger.StaffSalaries)
	r.POST("/staff_salaries", h.Ledger.CreateStaffSalary)
	r.GET("/staff_salaries/:staff_salary_id", h.Ledger.ShowStaffSalary)
	r.DELETE("/staff_salaries/:staff_salary_id", h.Ledger.DeleteStaffSalary)
	r.GET("/bank_transfers", h.Ledger.BankTransfers)
	r.POST("/bank_transfers", h.Ledger.CreateBankTransfer)
	r.GET("/bank_transfers/:bank_transfer_id", h.Ledger.ShowBankTransfer)
	r.DELETE("/bank_transfers/:bank_transfer_id", h.Ledger.DeleteBankTransfer)
	r.POST("/bank_transfers/:bank_transfer_id/verify", h.Ledger.VerifyBankTransfer)
	r.POST("/bank_transfers/:bank_transfer_id/reconcile", h.Ledger.ReconcileBankTransfer)

	r.GET("/dues", h.Due.Index)
	r.POST("/dues", h.Due.Create)
	r.GET("/dues/:due_id", h.Due.Show)
	r.POST("/dues/:due_id/mark_paid", h.Due.MarkPaid)
	r.POST("/dues/:due_id/payment", h.Due.RecordPayment)
	r.POST("/dues/:due_id/waive", h.Due.Waive)
	r.POST("/dues/:due_id/remind", h.Due.Remind)

	r.GET("/exits", h.Exit.Index)
	r.GET("/exits/new", h.Exit.New)
	r.POST("/exits", h.Exit.Create)
	r.GET("/exits/:exit_id", h.Exit.Show)
	r.POST("/exits/:exit_id/start", h.Exit.Start)
	r.POST("/exits/:exit_id/complete", h.Exit.Complete)
	r.POST("/exits/:exit_id/archive", h.Exit.Archive)
	r.GET("/deposits", h.Exit.Deposits)

	r.GET("/dashboard", h.Dashboard.Show)
	r.GET("/dashboard/export", h.Dashboard.Export)
	r.GET("/reports/tenants/:tenant_id/statement", h.Report.TenantStatement)
	r.GET("/reports/overdue_dues", h.Report.OverdueDues)

	r.GET("/activities", h.Activity.Index)
	r.GET("/activities/mine", h.Activity.Mine)
	r.POST("/activities", h.Activity.Create)
	r.POST("/activities/:activity_id/done", h.Activity.Done)
}

func registerAdminRoutes(r *gin.RouterGroup, h *handlers.Handlers) {
	r.GET("/users", h.User.Index)
	r.POST("/users", h.User.Create)
	r.GET("/users/:user_id", h.User.Show)
	r.PUT("/users/:user_id", h.User.Update)
	r.DELETE("/users/:user_id", h.User.Delete)
	r.POST("/users/:user_id/restore", h.User.Restore)
	r.PUT("/users/:user_id/toggle_status", h.User.ToggleStatus)
	r.POST("/users/:user_id/reset_password", h.User.ResetPassword)

	r.DELETE("/properties/:property_id", h.Property.Delete)
	r.DELETE("/flats/:flat_id", h.Flat.Delete)
	r.DELETE("/rooms/:room_id", h.Room.Delete)
	r.DELETE("/tenants/:tenant_id", h.Tenant.Delete)
	r.POST("/room_types", h.Room.CreateType)
	r.PUT("/room_types/:room_type_id", h.Room.UpdateType)
	r.DELETE("/room_types/:room_type_id", h.Room.DeleteType)

	// approval stays with admins; staff submit
	r.POST("/expenses/:expense_id/approve", h.Expense.Approve)
	r.POST("/expenses/:expense_id/reject", h.Expense.Reject)
	r.POST("/landlord_payments/:landlord_payment_id/pay", h.Ledger.PayLandlordPayment)
	r.POST("/landlord_payments/:landlord_payment_id/cancel", h.Ledger.CancelLandlordPayment)
	r.POST("/staff_salaries/:staff_salary_id/approve", h.Ledger.ApproveStaffSalary)
	r.POST("/staff_salaries/:staff_salary_id/pay", h.Ledger.PayStaffSalary)

	r.GET("/audits", h.Audit.Index)
	r.GET("/change_logs/:entity/:entity_id", h.Audit.ChangeLog)

	r.GET("/jobs/status", h.Job.Status)
	r.POST("/jobs/sweeps", h.Job.RunSweep)
	r.POST("/jobs/daily", h.Job.TriggerDaily)
}
