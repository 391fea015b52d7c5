package repository

import (
	"context"
	"time"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"gorm.io/gorm"
)

// AgreementRepository defines the interface for agreement data access
type AgreementRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Agreement, error)
	Create(ctx context.Context, agreement *models.Agreement) error
	Update(ctx context.Context, agreement *models.Agreement) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Agreement, int64, error)
	FindOverlapping(ctx context.Context, roomID uint, start, end time.Time, excludeID uint) ([]models.Agreement, error)
	FindActive(ctx context.Context) ([]models.Agreement, error)
	FindActiveEndingBy(ctx context.Context, limit time.Time) ([]models.Agreement, error)
	CountActiveForTenant(ctx context.Context, tenantID, excludeID uint) (int64, error)
	Stats(ctx context.Context, agreementID uint) (*models.AgreementStats, error)
}

type agreementRepository struct {
	db *gorm.DB
}

// NewAgreementRepository creates a new agreement repository
func NewAgreementRepository(db *gorm.DB) AgreementRepository {
	return &agreementRepository{db: db}
}

func (r *agreementRepository) FindByID(ctx context.Context, id uint) (*models.Agreement, error) {
	var agreement models.Agreement
	err := r.db.WithContext(ctx).
		Preload("Tenant").
		Preload("Room").
		Preload("Property").
		First(&agreement, id).Error
	if err != nil {
		return nil, err
	}
	return &agreement, nil
}

func (r *agreementRepository) Create(ctx context.Context, agreement *models.Agreement) error {
	return r.db.WithContext(ctx).Omit("Tenant", "Room", "Property").Create(agreement).Error
}

func (r *agreementRepository) Update(ctx context.Context, agreement *models.Agreement) error {
	return r.db.WithContext(ctx).Omit("Tenant", "Room", "Property").Save(agreement).Error
}

func (r *agreementRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Agreement{}, id).Error
}

func (r *agreementRepository) List(ctx context.Context, query *ListQuery) ([]models.Agreement, int64, error) {
	var agreements []models.Agreement
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Agreement{})

	if query.Search != "" {
		db = db.Where("LOWER(agreements.name) LIKE ?", likePattern(query.Search))
	}
	if query.Filter("exclude_draft") == "true" {
		db = db.Where("state <> ?", models.AgreementStateDraft)
	}
	if state := query.Filter("state"); state != "" {
		db = db.Where("state = ?", state)
	}
	if tenantID := query.Filter("tenant_id"); tenantID != "" {
		db = db.Where("tenant_id = ?", tenantID)
	}
	if roomID := query.Filter("room_id"); roomID != "" {
		db = db.Where("room_id = ?", roomID)
	}
	if propertyID := query.Filter("property_id"); propertyID != "" {
		db = db.Where("property_id = ?", propertyID)
	}
	if frequency := query.Filter("payment_frequency"); frequency != "" {
		db = db.Where("payment_frequency = ?", frequency)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, map[string]string{
		"start_date":  "start_date",
		"end_date":    "end_date",
		"rent_amount": "rent_amount",
		"created_at":  "created_at",
	}, "start_date DESC")

	err := applyPage(db, query).Preload("Tenant").Preload("Room").Find(&agreements).Error
	return agreements, total, err
}

// FindOverlapping returns draft or active agreements on the room whose range
// intersects [start, end], both ends inclusive
func (r *agreementRepository) FindOverlapping(ctx context.Context, roomID uint, start, end time.Time, excludeID uint) ([]models.Agreement, error) {
	var agreements []models.Agreement
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND state IN ? AND id <> ?", roomID, models.OverlapCheckedStates, excludeID).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Find(&agreements).Error
	return agreements, err
}

func (r *agreementRepository) FindActive(ctx context.Context) ([]models.Agreement, error) {
	var agreements []models.Agreement
	err := r.db.WithContext(ctx).
		Preload("Tenant").
		Preload("Room").
		Preload("Property").
		Where("state = ?", models.AgreementStateActive).
		Order("id ASC").
		Find(&agreements).Error
	return agreements, err
}

func (r *agreementRepository) FindActiveEndingBy(ctx context.Context, limit time.Time) ([]models.Agreement, error) {
	var agreements []models.Agreement
	err := r.db.WithContext(ctx).
		Preload("Tenant").
		Preload("Room").
		Preload("Property").
		Where("state = ? AND end_date <= ?", models.AgreementStateActive, limit).
		Order("end_date ASC").
		Find(&agreements).Error
	return agreements, err
}

func (r *agreementRepository) CountActiveForTenant(ctx context.Context, tenantID, excludeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Agreement{}).
		Where("tenant_id = ? AND state = ? AND id <> ?", tenantID, models.AgreementStateActive, excludeID).
		Count(&count).Error
	return count, err
}

// Stats sums received rent collections and counts invoices of the agreement
func (r *agreementRepository) Stats(ctx context.Context, agreementID uint) (*models.AgreementStats, error) {
	db := r.db.WithContext(ctx)
	stats := &models.AgreementStats{}

	collected, err := sumDecimal(db.Model(&models.Collection{}).
		Where("agreement_id = ? AND status IN ?", agreementID, models.ReceivedCollectionStatuses), "amount_collected")
	if err != nil {
		return nil, err
	}
	stats.TotalCollected = collected

	last, err := latestDate(db.Model(&models.Collection{}).
		Where("agreement_id = ? AND status IN ?", agreementID, models.ReceivedCollectionStatuses))
	if err != nil {
		return nil, err
	}
	stats.LastPaymentDate = last

	if err := db.Model(&models.Invoice{}).
		Where("agreement_id = ? AND state <> ?", agreementID, models.InvoiceStateCancelled).
		Count(&stats.InvoiceCount).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
