package repository

import (
	"context"
	"strconv"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"gorm.io/gorm"
)

// ActivityRepository defines the interface for follow-up activity data access
type ActivityRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	List(ctx context.Context, query *ListQuery) ([]models.Activity, int64, error)
	ExistsOpen(ctx context.Context, entity string, entityID uint, kind string) (bool, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) FindByID(ctx context.Context, id uint) (*models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Omit("User").Create(activity).Error
}

func (r *activityRepository) Update(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Omit("User").Save(activity).Error
}

func (r *activityRepository) List(ctx context.Context, query *ListQuery) ([]models.Activity, int64, error) {
	var activities []models.Activity
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Activity{})

	if userID := query.Filter("user_id"); userID != "" {
		db = db.Where("user_id = ?", userID)
	}
	if kind := query.Filter("kind"); kind != "" {
		db = db.Where("kind = ?", kind)
	}
	if entity := query.Filter("entity"); entity != "" {
		db = db.Where("entity = ?", entity)
	}
	if id := query.Filter("entity_id"); id != "" {
		if entityID, err := strconv.ParseUint(id, 10, 64); err == nil {
			db = db.Where("entity_id = ?", entityID)
		}
	}
	switch query.Filter("done") {
	case "true":
		db = db.Where("done_at IS NOT NULL")
	case "false":
		db = db.Where("done_at IS NULL")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, map[string]string{
		"due_date":   "due_date",
		"created_at": "created_at",
	}, "created_at DESC")

	err := applyPage(db, query).Find(&activities).Error
	return activities, total, err
}

// ExistsOpen reports whether an activity of kind is still open on the record
func (r *activityRepository) ExistsOpen(ctx context.Context, entity string, entityID uint, kind string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Activity{}).
		Where("entity = ? AND entity_id = ? AND kind = ? AND done_at IS NULL", entity, entityID, kind).
		Count(&count).Error
	return count > 0, err
}

// ChangeLogRepository defines the interface for the append-only change log
type ChangeLogRepository interface {
	CreateBatch(ctx context.Context, entries []models.ChangeLog) error
	FindByEntity(ctx context.Context, entity string, entityID uint) ([]models.ChangeLog, error)
}

type changeLogRepository struct {
	db *gorm.DB
}

func NewChangeLogRepository(db *gorm.DB) ChangeLogRepository {
	return &changeLogRepository{db: db}
}

func (r *changeLogRepository) CreateBatch(ctx context.Context, entries []models.ChangeLog) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *changeLogRepository) FindByEntity(ctx context.Context, entity string, entityID uint) ([]models.ChangeLog, error) {
	var entries []models.ChangeLog
	err := r.db.WithContext(ctx).
		Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("changed_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

// AuditRepository defines the interface for audit log data access
type AuditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, query *ListQuery) ([]models.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	return r.db.WithContext(ctx).Omit("User").Create(log).Error
}

func (r *auditRepository) List(ctx context.Context, query *ListQuery) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	db := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if userID := query.Filter("user_id"); userID != "" {
		db = db.Where("user_id = ?", userID)
	}
	if entity := query.Filter("entity"); entity != "" {
		db = db.Where("entity = ?", entity)
	}
	if action := query.Filter("action"); action != "" {
		db = db.Where("action = ?", action)
	}
	if query.Search != "" {
		db = db.Where("LOWER(details) LIKE ?", likePattern(query.Search))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := applyPage(db.Preload("User").Order("created_at DESC"), query).Find(&logs).Error
	return logs, total, err
}
