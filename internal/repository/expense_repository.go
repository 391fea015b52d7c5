package repository

import (
	"context"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"gorm.io/gorm"
)

// ExpenseRepository defines the interface for expense data access
type ExpenseRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Expense, error)
	Create(ctx context.Context, expense *models.Expense) error
	Update(ctx context.Context, expense *models.Expense) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Expense, int64, error)
}

type expenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) FindByID(ctx context.Context, id uint) (*models.Expense, error) {
	var expense models.Expense
	if err := r.db.WithContext(ctx).First(&expense, id).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Omit("Property").Create(expense).Error
}

func (r *expenseRepository) Update(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Omit("Property").Save(expense).Error
}

func (r *expenseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Expense{}, id).Error
}

func (r *expenseRepository) List(ctx context.Context, query *ListQuery) ([]models.Expense, int64, error) {
	var expenses []models.Expense
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Expense{})

	if query.Search != "" {
		search := likePattern(query.Search)
		db = db.Where("LOWER(name) LIKE ? OR LOWER(vendor) LIKE ? OR LOWER(bill_reference) LIKE ?", search, search, search)
	}
	for _, key := range []string{"state", "expense_type", "category", "urgency", "property_id", "flat_id", "room_id"} {
		if value := query.Filter(key); value != "" {
			db = db.Where(key+" = ?", value)
		}
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
		"date":   "date",
		"amount": "amount",
		"state":  "state",
	}, "date DESC, id DESC")

	err := applyPage(db, query).Find(&expenses).Error
	return expenses, total, err
}
