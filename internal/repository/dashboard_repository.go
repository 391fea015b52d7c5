package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"gorm.io/gorm"
)

// DashboardRepository runs the aggregate queries behind the dashboard
type DashboardRepository interface {
	// Data retrieval for a date window, both ends inclusive
	SumCollections(ctx context.Context, from, to time.Time) (decimal.Decimal, int64, error)
	SumPaidExpenses(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	CountNewTenants(ctx context.Context, from, to time.Time) (int64, error)

	// Portfolio totals
	CountProperties(ctx context.Context) (int64, error)
	CountRoomsByStatus(ctx context.Context) (map[string]int64, error)
	CountTenantsByStatus(ctx context.Context, status string) (int64, error)

	RecentCollections(ctx context.Context, limit int) ([]models.Collection, error)
	RecentTenants(ctx context.Context, limit int) ([]models.Tenant, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) SumCollections(ctx context.Context, from, to time.Time) (decimal.Decimal, int64, error) {
	window := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Collection{}).
			Where("status <> ?", models.CollectionStatusCancelled).
			Where("date >= ? AND date <= ?", from, to)
	}

	var count int64
	if err := window().Count(&count).Error; err != nil {
		return decimal.Zero, 0, err
	}
	total, err := sumDecimal(window(), "amount_collected")
	return total, count, err
}

func (r *dashboardRepository) SumPaidExpenses(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return sumDecimal(r.db.WithContext(ctx).Model(&models.Expense{}).
		Where("state = ?", models.ExpenseStatePaid).
		Where("date >= ? AND date <= ?", from, to), "amount")
}

func (r *dashboardRepository) CountNewTenants(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("created_at >= ? AND created_at < ?", from, to.AddDate(0, 0, 1)).
		Count(&count).Error
	return count, err
}

func (r *dashboardRepository) CountProperties(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Property{}).Count(&count).Error
	return count, err
}

func (r *dashboardRepository) CountRoomsByStatus(ctx context.Context) (map[string]int64, error) {
	var results []struct {
		Status string
		Count  int64
	}

	err := r.db.WithContext(ctx).Model(&models.Room{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(results))
	for _, res := range results {
		counts[res.Status] = res.Count
	}
	return counts, nil
}

func (r *dashboardRepository) CountTenantsByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *dashboardRepository) RecentCollections(ctx context.Context, limit int) ([]models.Collection, error) {
	var collections []models.Collection
	err := r.db.WithContext(ctx).
		Preload("Tenant").
		Where("status <> ?", models.CollectionStatusCancelled).
		Order("date DESC, id DESC").
		Limit(limit).
		Find(&collections).Error
	return collections, err
}

func (r *dashboardRepository) RecentTenants(ctx context.Context, limit int) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&tenants).Error
	return tenants, err
}
