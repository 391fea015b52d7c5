package repository

import (
	"context"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"gorm.io/gorm"
)

// TenantExitRepository defines the interface for tenant exit data access
type TenantExitRepository interface {
	FindByID(ctx context.Context, id uint) (*models.TenantExit, error)
	Create(ctx context.Context, exit *models.TenantExit) error
	Update(ctx context.Context, exit *models.TenantExit) error
	List(ctx context.Context, query *ListQuery) ([]models.TenantExit, int64, error)
	OpenExistsForAgreement(ctx context.Context, agreementID uint) (bool, error)
}

type tenantExitRepository struct {
	db *gorm.DB
}

// NewTenantExitRepository creates a new tenant exit repository
func NewTenantExitRepository(db *gorm.DB) TenantExitRepository {
	return &tenantExitRepository{db: db}
}

func (r *tenantExitRepository) FindByID(ctx context.Context, id uint) (*models.TenantExit, error) {
	var exit models.TenantExit
	if err := r.db.WithContext(ctx).Preload("Tenant").First(&exit, id).Error; err != nil {
		return nil, err
	}
	return &exit, nil
}

func (r *tenantExitRepository) Create(ctx context.Context, exit *models.TenantExit) error {
	return r.db.WithContext(ctx).Omit("Tenant", "Agreement").Create(exit).Error
}

func (r *tenantExitRepository) Update(ctx context.Context, exit *models.TenantExit) error {
	return r.db.WithContext(ctx).Omit("Tenant", "Agreement").Save(exit).Error
}

func (r *tenantExitRepository) List(ctx context.Context, query *ListQuery) ([]models.TenantExit, int64, error) {
	var exits []models.TenantExit
	var total int64

	db := r.db.WithContext(ctx).Model(&models.TenantExit{})

	for _, key := range []string{"status", "exit_reason", "exit_type", "tenant_id", "agreement_id"} {
		if value := query.Filter(key); value != "" {
			db = db.Where(key+" = ?", value)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, map[string]string{
		"exit_date":  "exit_date",
		"created_at": "created_at",
	}, "exit_date DESC")

	err := applyPage(db, query).Preload("Tenant").Find(&exits).Error
	return exits, total, err
}

func (r *tenantExitRepository) OpenExistsForAgreement(ctx context.Context, agreementID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TenantExit{}).
		Where("agreement_id = ? AND status IN ?", agreementID,
			[]string{models.ExitStatusNoticeGiven, models.ExitStatusInProgress}).
		Count(&count).Error
	return count > 0, err
}

// DepositRepository defines the interface for deposit data access
type DepositRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Deposit, error)
	Create(ctx context.Context, deposit *models.Deposit) error
	Update(ctx context.Context, deposit *models.Deposit) error
	List(ctx context.Context, query *ListQuery) ([]models.Deposit, int64, error)
	FindHeldByAgreement(ctx context.Context, agreementID uint) ([]models.Deposit, error)
}

type depositRepository struct {
	db *gorm.DB
}

// NewDepositRepository creates a new deposit repository
func NewDepositRepository(db *gorm.DB) DepositRepository {
	return &depositRepository{db: db}
}

func (r *depositRepository) FindByID(ctx context.Context, id uint) (*models.Deposit, error) {
	var deposit models.Deposit
	if err := r.db.WithContext(ctx).First(&deposit, id).Error; err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *depositRepository) Create(ctx context.Context, deposit *models.Deposit) error {
	return r.db.WithContext(ctx).Create(deposit).Error
}

func (r *depositRepository) Update(ctx context.Context, deposit *models.Deposit) error {
	return r.db.WithContext(ctx).Save(deposit).Error
}

func (r *depositRepository) List(ctx context.Context, query *ListQuery) ([]models.Deposit, int64, error) {
	var deposits []models.Deposit
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Deposit{})
	for _, key := range []string{"status", "tenant_id", "agreement_id"} {
		if value := query.Filter(key); value != "" {
			db = db.Where(key+" = ?", value)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := applyPage(db.Order("deposit_date DESC, id DESC"), query).Find(&deposits).Error
	return deposits, total, err
}

func (r *depositRepository) FindHeldByAgreement(ctx context.Context, agreementID uint) ([]models.Deposit, error) {
	var deposits []models.Deposit
	err := r.db.WithContext(ctx).
		Where("agreement_id = ? AND status = ?", agreementID, models.DepositStatusHeld).
		Order("id ASC").
		Find(&deposits).Error
	return deposits, err
}
