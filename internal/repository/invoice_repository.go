package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"gorm.io/gorm"
)

// InvoiceRepository defines the interface for invoice data access
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Invoice, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	Update(ctx context.Context, invoice *models.Invoice) error
	ReplaceLines(ctx context.Context, invoice *models.Invoice) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Invoice, int64, error)
	RentInvoiceExists(ctx context.Context, agreementID uint, from, to time.Time) (bool, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payment_date ASC, id ASC") }).
		Preload("Tenant").
		Preload("Room").
		First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Create inserts the invoice together with its lines
func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Omit("Tenant", "Room", "Agreement", "Payments").Create(invoice).Error
}

// Update saves header fields only
func (r *invoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Omit("Tenant", "Room", "Agreement", "Payments", "Lines").Save(invoice).Error
}

// ReplaceLines deletes the stored lines and inserts invoice.Lines
func (r *invoiceRepository) ReplaceLines(ctx context.Context, invoice *models.Invoice) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceLine{}).Error; err != nil {
		return err
	}
	for i := range invoice.Lines {
		invoice.Lines[i].ID = 0
		invoice.Lines[i].InvoiceID = invoice.ID
	}
	if len(invoice.Lines) == 0 {
		return nil
	}
	return db.Create(&invoice.Lines).Error
}

// Delete removes the invoice and its lines
func (r *invoiceRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("invoice_id = ?", id).Delete(&models.InvoiceLine{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Invoice{}, id).Error
}

func (r *invoiceRepository) List(ctx context.Context, query *ListQuery) ([]models.Invoice, int64, error) {
	var invoices []models.Invoice
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Invoice{})

	if query.Search != "" {
		db = db.Where("LOWER(name) LIKE ?", likePattern(query.Search))
	}
	if query.Filter("exclude_draft") == "true" {
		db = db.Where("state <> ?", models.InvoiceStateDraft)
	}
	if state := query.Filter("state"); state != "" {
		db = db.Where("state = ?", state)
	}
	if paymentState := query.Filter("payment_state"); paymentState != "" {
		db = db.Where("payment_state = ?", paymentState)
	}
	if tenantID := query.Filter("tenant_id"); tenantID != "" {
		db = db.Where("tenant_id = ?", tenantID)
	}
	if agreementID := query.Filter("agreement_id"); agreementID != "" {
		db = db.Where("agreement_id = ?", agreementID)
	}
	if invoiceType := query.Filter("invoice_type"); invoiceType != "" {
		db = db.Where("invoice_type = ?", invoiceType)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, map[string]string{
		"invoice_date": "invoice_date",
		"due_date":     "due_date",
		"amount_total": "amount_total",
		"name":         "name",
	}, "invoice_date DESC, id DESC")

	err := applyPage(db, query).Preload("Tenant").Preload("Lines").Find(&invoices).Error
	return invoices, total, err
}

// RentInvoiceExists reports a non-cancelled rent invoice of the agreement
// dated within [from, to]
func (r *invoiceRepository) RentInvoiceExists(ctx context.Context, agreementID uint, from, to time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("agreement_id = ? AND invoice_type = ? AND state <> ?", agreementID, models.InvoiceTypeRent, models.InvoiceStateCancelled).
		Where("invoice_date >= ? AND invoice_date <= ?", from, to).
		Count(&count).Error
	return count > 0, err
}

// PaymentRepository defines the interface for payment data access
type PaymentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Payment, error)
	FindByInvoice(ctx context.Context, invoiceID uint) ([]models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	List(ctx context.Context, query *ListQuery) ([]models.Payment, int64, error)
	SumCounted(ctx context.Context, invoiceID uint) (decimal.Decimal, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByInvoice(ctx context.Context, invoiceID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("payment_date ASC, id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Omit("Invoice", "Tenant").Create(payment).Error
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Omit("Invoice", "Tenant").Save(payment).Error
}

func (r *paymentRepository) List(ctx context.Context, query *ListQuery) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Payment{})

	if query.Search != "" {
		search := likePattern(query.Search)
		db = db.Where("LOWER(name) LIKE ? OR LOWER(reference) LIKE ?", search, search)
	}
	if state := query.Filter("state"); state != "" {
		db = db.Where("state = ?", state)
	}
	if invoiceID := query.Filter("invoice_id"); invoiceID != "" {
		db = db.Where("invoice_id = ?", invoiceID)
	}
	if tenantID := query.Filter("tenant_id"); tenantID != "" {
		db = db.Where("tenant_id = ?", tenantID)
	}
	if method := query.Filter("payment_method"); method != "" {
		db = db.Where("payment_method = ?", method)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, map[string]string{
		"payment_date": "payment_date",
		"amount":       "amount",
	}, "payment_date DESC, id DESC")

	err := applyPage(db, query).Find(&payments).Error
	return payments, total, err
}

// SumCounted totals posted and reconciled payments of an invoice
func (r *paymentRepository) SumCounted(ctx context.Context, invoiceID uint) (decimal.Decimal, error) {
	return sumDecimal(r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("invoice_id = ? AND state IN ?", invoiceID, models.CountedPaymentStates), "amount")
}
