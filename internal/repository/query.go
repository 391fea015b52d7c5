package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// Filter returns the trimmed filter value for key
func (q *ListQuery) Filter(key string) string {
	if q == nil || q.Filters == nil {
		return ""
	}
	return strings.TrimSpace(q.Filters[key])
}

// applySort orders by a whitelisted column, falling back to def
func applySort(db *gorm.DB, q *ListQuery, allowed map[string]string, def string) *gorm.DB {
	if q != nil {
		if column, ok := allowed[q.SortBy]; ok {
			if strings.EqualFold(q.SortDir, "desc") {
				return db.Order(column + " DESC")
			}
			return db.Order(column + " ASC")
		}
	}
	return db.Order(def)
}

// applyPage limits the result to the requested page
func applyPage(db *gorm.DB, q *ListQuery) *gorm.DB {
	if q == nil || q.PerPage <= 0 {
		return db
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	return db.Offset((page - 1) * q.PerPage).Limit(q.PerPage)
}

// likePattern builds a case-insensitive LIKE pattern
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// IsDuplicateKeyError reports unique index violations from PostgreSQL or
// from gorm's translated errors
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsNotFound reports a missing record
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
