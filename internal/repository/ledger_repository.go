package repository

import (
	"context"
	"time"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"gorm.io/gorm"
)

// LandlordPaymentRepository defines the interface for landlord payment data access
type LandlordPaymentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.LandlordPayment, error)
	Create(ctx context.Context, payment *models.LandlordPayment) error
	Update(ctx context.Context, payment *models.LandlordPayment) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.LandlordPayment, int64, error)
}

type landlordPaymentRepository struct {
	db *gorm.DB
}

func NewLandlordPaymentRepository(db *gorm.DB) LandlordPaymentRepository {
	return &landlordPaymentRepository{db: db}
}

func (r *landlordPaymentRepository) FindByID(ctx context.Context, id uint) (*models.LandlordPayment, error) {
	var payment models.LandlordPayment
	if err := r.db.WithContext(ctx).Preload("Landlord").First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *landlordPaymentRepository) Create(ctx context.Context, payment *models.LandlordPayment) error {
	return r.db.WithContext(ctx).Omit("Landlord", "Property").Create(payment).Error
}

func (r *landlordPaymentRepository) Update(ctx context.Context, payment *models.LandlordPayment) error {
	return r.db.WithContext(ctx).Omit("Landlord", "Property").Save(payment).Error
}

func (r *landlordPaymentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.LandlordPayment{}, id).Error
}

func (r *landlordPaymentRepository) List(ctx context.Context, query *ListQuery) ([]models.LandlordPayment, int64, error) {
	var payments []models.LandlordPayment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.LandlordPayment{})
	for _, key := range []string{"status", "landlord_id", "property_id"} {
		if value := query.Filter(key); value != "" {
			db = db.Where(key+" = ?", value)
		}
	}
	db = dateWindow(db, query, "payment_date")

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, map[string]string{
		"payment_date": "payment_date",
		"amount":       "amount",
	}, "payment_date DESC, id DESC")

	err := applyPage(db.Preload("Landlord"), query).Find(&payments).Error
	return payments, total, err
}

// StaffSalaryRepository defines the interface for staff salary data access
type StaffSalaryRepository interface {
	FindByID(ctx context.Context, id uint) (*models.StaffSalary, error)
	Create(ctx context.Context, salary *models.StaffSalary) error
	Update(ctx context.Context, salary *models.StaffSalary) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.StaffSalary, int64, error)
	ExistsForPeriod(ctx context.Context, employeeID uint, from, to time.Time, excludeID uint) (bool, error)
}

type staffSalaryRepository struct {
	db *gorm.DB
}

func NewStaffSalaryRepository(db *gorm.DB) StaffSalaryRepository {
	return &staffSalaryRepository{db: db}
}

func (r *staffSalaryRepository) FindByID(ctx context.Context, id uint) (*models.StaffSalary, error) {
	var salary models.StaffSalary
	if err := r.db.WithContext(ctx).Preload("Employee").First(&salary, id).Error; err != nil {
		return nil, err
	}
	return &salary, nil
}

func (r *staffSalaryRepository) Create(ctx context.Context, salary *models.StaffSalary) error {
	return r.db.WithContext(ctx).Omit("Employee").Create(salary).Error
}

func (r *staffSalaryRepository) Update(ctx context.Context, salary *models.StaffSalary) error {
	return r.db.WithContext(ctx).Omit("Employee").Save(salary).Error
}

func (r *staffSalaryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.StaffSalary{}, id).Error
}

func (r *staffSalaryRepository) List(ctx context.Context, query *ListQuery) ([]models.StaffSalary, int64, error) {
	var salaries []models.StaffSalary
	var total int64

	db := r.db.WithContext(ctx).Model(&models.StaffSalary{})
	for _, key := range []string{"status", "employee_id", "property_id"} {
		if value := query.Filter(key); value != "" {
			db = db.Where(key+" = ?", value)
		}
	}
	db = dateWindow(db, query, "period_from")

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, map[string]string{
		"period_from":  "period_from",
		"total_amount": "total_amount",
	}, "period_from DESC, id DESC")

	err := applyPage(db.Preload("Employee"), query).Find(&salaries).Error
	return salaries, total, err
}

// ExistsForPeriod reports whether another salary of the employee overlaps [from, to]
func (r *staffSalaryRepository) ExistsForPeriod(ctx context.Context, employeeID uint, from, to time.Time, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StaffSalary{}).
		Where("employee_id = ? AND id <> ?", employeeID, excludeID).
		Where("period_from <= ? AND period_to >= ?", to, from).
		Count(&count).Error
	return count > 0, err
}

// BankTransferRepository defines the interface for bank transfer data access
type BankTransferRepository interface {
	FindByID(ctx context.Context, id uint) (*models.BankTransfer, error)
	Create(ctx context.Context, transfer *models.BankTransfer) error
	Update(ctx context.Context, transfer *models.BankTransfer) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.BankTransfer, int64, error)
}

type bankTransferRepository struct {
	db *gorm.DB
}

func NewBankTransferRepository(db *gorm.DB) BankTransferRepository {
	return &bankTransferRepository{db: db}
}

func (r *bankTransferRepository) FindByID(ctx context.Context, id uint) (*models.BankTransfer, error) {
	var transfer models.BankTransfer
	if err := r.db.WithContext(ctx).First(&transfer, id).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *bankTransferRepository) Create(ctx context.Context, transfer *models.BankTransfer) error {
	return r.db.WithContext(ctx).Create(transfer).Error
}

func (r *bankTransferRepository) Update(ctx context.Context, transfer *models.BankTransfer) error {
	return r.db.WithContext(ctx).Save(transfer).Error
}

func (r *bankTransferRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.BankTransfer{}, id).Error
}

func (r *bankTransferRepository) List(ctx context.Context, query *ListQuery) ([]models.BankTransfer, int64, error) {
	var transfers []models.BankTransfer
	var total int64

	db := r.db.WithContext(ctx).Model(&models.BankTransfer{})
	if query.Search != "" {
		search := likePattern(query.Search)
		db = db.Where("LOWER(name) LIKE ? OR LOWER(bank_name) LIKE ? OR LOWER(transaction_id) LIKE ?", search, search, search)
	}
	for _, key := range []string{"status", "tenant_id", "collection_id"} {
		if value := query.Filter(key); value != "" {
			db = db.Where(key+" = ?", value)
		}
	}
	db = dateWindow(db, query, "date")

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, map[string]string{
		"date":   "date",
		"amount": "amount",
	}, "date DESC, id DESC")

	err := applyPage(db, query).Find(&transfers).Error
	return transfers, total, err
}

// dateWindow applies the optional from/to filters to column
func dateWindow(db *gorm.DB, query *ListQuery, column string) *gorm.DB {
	if from := query.Filter("from"); from != "" {
		if date, err := models.ParseDate(from); err == nil {
			db = db.Where(column+" >= ?", date)
		}
	}
	if to := query.Filter("to"); to != "" {
		if date, err := models.ParseDate(to); err == nil {
			db = db.Where(column+" <= ?", date)
		}
	}
	return db
}
