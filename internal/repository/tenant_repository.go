package repository

import (
	"context"
	"time"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"gorm.io/gorm"
)

// ContactRepository defines the interface for contact data access
type ContactRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Contact, error)
	Create(ctx context.Context, contact *models.Contact) error
	Update(ctx context.Context, contact *models.Contact) error
}

type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) FindByID(ctx context.Context, id uint) (*models.Contact, error) {
	var contact models.Contact
	if err := r.db.WithContext(ctx).First(&contact, id).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepository) Create(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *contactRepository) Update(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).Save(contact).Error
}

// TenantRepository defines the interface for tenant data access
type TenantRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Tenant, error)
	Create(ctx context.Context, tenant *models.Tenant) error
	Update(ctx context.Context, tenant *models.Tenant) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Tenant, int64, error)
	MobileExists(ctx context.Context, mobile string, excludeID uint) (bool, error)
	IDNumberExists(ctx context.Context, idNumber string, excludeID uint) (bool, error)
	HasAgreements(ctx context.Context, tenantID uint) (bool, error)
	Stats(ctx context.Context, tenantID uint) (*models.TenantStats, error)
}

type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) FindByID(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Preload("CurrentRoom").
		First(&tenant, id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Omit("Contact", "CurrentRoom").Create(tenant).Error
}

func (r *tenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Omit("Contact", "CurrentRoom").Save(tenant).Error
}

func (r *tenantRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Tenant{}, id).Error
}

func (r *tenantRepository) List(ctx context.Context, query *ListQuery) ([]models.Tenant, int64, error) {
	var tenants []models.Tenant
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Tenant{})

	if query.Search != "" {
		search := likePattern(query.Search)
		db = db.Where("LOWER(name) LIKE ? OR LOWER(mobile) LIKE ? OR LOWER(email) LIKE ? OR LOWER(id_number) LIKE ?",
			search, search, search, search)
	}
	if status := query.Filter("status"); status != "" {
		db = db.Where("status = ?", status)
	}
	if nationality := query.Filter("nationality"); nationality != "" {
		db = db.Where("nationality = ?", nationality)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, map[string]string{
		"name":       "name",
		"status":     "status",
		"created_at": "created_at",
	}, "created_at DESC")

	err := applyPage(db, query).Preload("CurrentRoom").Find(&tenants).Error
	return tenants, total, err
}

func (r *tenantRepository) MobileExists(ctx context.Context, mobile string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("mobile = ? AND id <> ?", mobile, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *tenantRepository) IDNumberExists(ctx context.Context, idNumber string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("id_number = ? AND id <> ?", idNumber, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *tenantRepository) HasAgreements(ctx context.Context, tenantID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Agreement{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count > 0, err
}

// Stats derives agreement counts and received collection totals for a tenant
func (r *tenantRepository) Stats(ctx context.Context, tenantID uint) (*models.TenantStats, error) {
	db := r.db.WithContext(ctx)
	stats := &models.TenantStats{}

	var active, total int64
	if err := db.Model(&models.Agreement{}).Where("tenant_id = ?", tenantID).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Agreement{}).
		Where("tenant_id = ? AND state = ?", tenantID, models.AgreementStateActive).
		Count(&active).Error; err != nil {
		return nil, err
	}
	stats.TotalAgreements = int(total)
	stats.ActiveAgreements = int(active)

	received := db.Model(&models.Collection{}).
		Where("tenant_id = ? AND status IN ?", tenantID, models.ReceivedCollectionStatuses)

	paid, err := sumDecimal(received, "amount_collected")
	if err != nil {
		return nil, err
	}
	stats.TotalPaid = paid

	last, err := latestDate(db.Model(&models.Collection{}).
		Where("tenant_id = ? AND status IN ?", tenantID, models.ReceivedCollectionStatuses))
	if err != nil {
		return nil, err
	}
	stats.LastPaymentDate = last
	return stats, nil
}

// latestDate returns the newest collection date in db, nil when empty
func latestDate(db *gorm.DB) (*time.Time, error) {
	var collection models.Collection
	err := db.Select("date").Order("date DESC").Limit(1).Find(&collection).Error
	if err != nil {
		return nil, err
	}
	if collection.Date.IsZero() {
		return nil, nil
	}
	date := models.DateOf(collection.Date)
	return &date, nil
}
