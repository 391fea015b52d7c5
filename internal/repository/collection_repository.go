package repository

import (
	"context"
	"time"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"gorm.io/gorm"
)

// CollectionRepository defines the interface for collection data access
type CollectionRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Collection, error)
	Create(ctx context.Context, collection *models.Collection) error
	Update(ctx context.Context, collection *models.Collection) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Collection, int64, error)
	LastReceivedRentDate(ctx context.Context, agreementID uint) (*time.Time, error)
}

type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

func (r *collectionRepository) FindByID(ctx context.Context, id uint) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.WithContext(ctx).
		Preload("Tenant").
		Preload("Room").
		First(&collection, id).Error
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

func (r *collectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	return r.db.WithContext(ctx).Omit("Tenant", "Room").Create(collection).Error
}

func (r *collectionRepository) Update(ctx context.Context, collection *models.Collection) error {
	return r.db.WithContext(ctx).Omit("Tenant", "Room").Save(collection).Error
}

func (r *collectionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Collection{}, id).Error
}

func (r *collectionRepository) List(ctx context.Context, query *ListQuery) ([]models.Collection, int64, error) {
	var collections []models.Collection
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Collection{})

	if query.Search != "" {
		search := likePattern(query.Search)
		db = db.Where("LOWER(name) LIKE ? OR LOWER(receipt_number) LIKE ? OR LOWER(reference_number) LIKE ?",
			search, search, search)
	}
	if query.Filter("exclude_draft") == "true" {
		db = db.Where("status <> ?", models.CollectionStatusDraft)
	}
	if status := query.Filter("status"); status != "" {
		db = db.Where("status = ?", status)
	}
	if collectionType := query.Filter("collection_type"); collectionType != "" {
		db = db.Where("collection_type = ?", collectionType)
	}
	if tenantID := query.Filter("tenant_id"); tenantID != "" {
		db = db.Where("tenant_id = ?", tenantID)
	}
	if propertyID := query.Filter("property_id"); propertyID != "" {
		db = db.Where("property_id = ?", propertyID)
	}
	if agreementID := query.Filter("agreement_id"); agreementID != "" {
		db = db.Where("agreement_id = ?", agreementID)
	}
	if from := query.Filter("from"); from != "" {
		if date, err := models.ParseDate(from); err == nil {
			db = db.Where("date >= ?", date)
		}
	}
	if to := query.Filter("to"); to != "" {
		if date, err := models.ParseDate(to); err == nil {
			db = db.Where("date <= ?", date)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, map[string]string{
		"date":             "date",
		"amount_collected": "amount_collected",
		"status":           "status",
	}, "date DESC, id DESC")

	err := applyPage(db, query).Preload("Tenant").Preload("Room").Find(&collections).Error
	return collections, total, err
}

// LastReceivedRentDate returns the latest received rent collection date of
// the agreement, nil when none exists
func (r *collectionRepository) LastReceivedRentDate(ctx context.Context, agreementID uint) (*time.Time, error) {
	return latestDate(r.db.WithContext(ctx).Model(&models.Collection{}).
		Where("agreement_id = ? AND collection_type = ? AND status IN ?",
			agreementID, models.CollectionTypeRent, models.ReceivedCollectionStatuses))
}
