package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"gorm.io/gorm"
)

// DueRepository defines the interface for due tracker data access
type DueRepository interface {
	FindByID(ctx context.Context, id uint) (*models.DueTracker, error)
	Create(ctx context.Context, due *models.DueTracker) error
	Update(ctx context.Context, due *models.DueTracker) error
	List(ctx context.Context, query *ListQuery) ([]models.DueTracker, int64, error)
	ExistsForDate(ctx context.Context, agreementID uint, dueDate time.Time) (bool, error)
	FindOpen(ctx context.Context) ([]models.DueTracker, error)
	SumOutstanding(ctx context.Context, agreementID uint) (decimal.Decimal, error)
}

type dueRepository struct {
	db *gorm.DB
}

// NewDueRepository creates a new due tracker repository
func NewDueRepository(db *gorm.DB) DueRepository {
	return &dueRepository{db: db}
}

func (r *dueRepository) FindByID(ctx context.Context, id uint) (*models.DueTracker, error) {
	var due models.DueTracker
	err := r.db.WithContext(ctx).
		Preload("Tenant").
		Preload("Room").
		First(&due, id).Error
	if err != nil {
		return nil, err
	}
	return &due, nil
}

func (r *dueRepository) Create(ctx context.Context, due *models.DueTracker) error {
	return r.db.WithContext(ctx).Omit("Tenant", "Room", "Agreement").Create(due).Error
}

func (r *dueRepository) Update(ctx context.Context, due *models.DueTracker) error {
	return r.db.WithContext(ctx).Omit("Tenant", "Room", "Agreement").Save(due).Error
}

func (r *dueRepository) List(ctx context.Context, query *ListQuery) ([]models.DueTracker, int64, error) {
	var dues []models.DueTracker
	var total int64

	db := r.db.WithContext(ctx).Model(&models.DueTracker{})

	if query.Search != "" {
		db = db.Where("LOWER(name) LIKE ?", likePattern(query.Search))
	}
	for _, key := range []string{"status", "due_type", "priority", "tenant_id", "room_id", "agreement_id"} {
		if value := query.Filter(key); value != "" {
			db = db.Where(key+" = ?", value)
		}
	}
	if query.Filter("open") == "true" {
		db = db.Where("status IN ?", models.OpenDueStatuses)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, map[string]string{
		"due_date":   "due_date",
		"amount_due": "amount_due",
		"priority":   "priority",
	}, "due_date ASC, id ASC")

	err := applyPage(db, query).Preload("Tenant").Preload("Room").Find(&dues).Error
	return dues, total, err
}

// ExistsForDate reports a due already tracked for the agreement on dueDate
func (r *dueRepository) ExistsForDate(ctx context.Context, agreementID uint, dueDate time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DueTracker{}).
		Where("agreement_id = ? AND due_date = ?", agreementID, models.DateOf(dueDate)).
		Count(&count).Error
	return count > 0, err
}

func (r *dueRepository) FindOpen(ctx context.Context) ([]models.DueTracker, error) {
	var dues []models.DueTracker
	err := r.db.WithContext(ctx).
		Where("status IN ?", models.OpenDueStatuses).
		Order("due_date ASC").
		Find(&dues).Error
	return dues, err
}

// SumOutstanding totals amount_due − amount_paid over the agreement's open dues
func (r *dueRepository) SumOutstanding(ctx context.Context, agreementID uint) (decimal.Decimal, error) {
	return sumDecimal(r.db.WithContext(ctx).Model(&models.DueTracker{}).
		Where("agreement_id = ? AND status IN ?", agreementID, models.OpenDueStatuses), "amount_due - amount_paid")
}
