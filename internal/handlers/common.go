package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/jobs"
	"github.com/sjperalta/rentdesk-api/internal/middleware"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/internal/services"
	"github.com/sjperalta/rentdesk-api/pkg/logger"
)

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrPrecondition):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrTokenExpired),
		errors.Is(err, services.ErrAccountInactive):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrDuplicate),
		errors.Is(err, jobs.ErrJobRunning):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidPassword):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": ...} with the status matching err.
// Internal errors are logged and hidden from the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.FullPath(), "error", err)
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, format string, args ...any) {
	c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf(format, args...)})
}

// parseID reads a positive numeric path param, answering 400 when it is not one
func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "invalid %s", param)
		return 0, false
	}
	return uint(id), true
}

// listQuery reads paging, search and sorting plus the named filters from the query string
func listQuery(c *gin.Context, filters ...string) *repository.ListQuery {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 || query.PerPage > 100 {
		query.PerPage = 20
	}
	query.Search = c.Query("search_term")
	query.SortBy = c.Query("sort_by")
	query.SortDir = c.DefaultQuery("sort_direction", "asc")
	// sort=field-direction
	if sort := c.Query("sort"); sort != "" {
		field, dir, _ := strings.Cut(sort, "-")
		query.SortBy = field
		if dir != "" {
			query.SortDir = dir
		}
	}
	for _, f := range filters {
		if v := strings.TrimSpace(c.Query(f)); v != "" {
			query.Filters[f] = v
		}
	}
	return query
}

func pagination(query *repository.ListQuery, total int64) gin.H {
	return gin.H{
		"page":        query.Page,
		"per_page":    query.PerPage,
		"total":       total,
		"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
	}
}

// actorFrom builds the service caller from the authenticated request
func actorFrom(c *gin.Context) services.Actor {
	return services.Actor{
		UserID:    middleware.GetUserID(c),
		Role:      middleware.GetUserRole(c),
		TenantID:  middleware.GetTenantID(c),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrValidation, fmt.Sprintf(format, args...))
}

// parseDateField parses a YYYY-MM-DD request value
func parseDateField(field, value string) (time.Time, error) {
	d, err := models.ParseDate(value)
	if err != nil {
		return time.Time{}, validationError("%s must be a date in YYYY-MM-DD format", field)
	}
	return d, nil
}

// optionalDate parses value unless it is empty
func optionalDate(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	d, err := parseDateField(field, value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

// dayParam reads an optional ?day=YYYY-MM-DD
func dayParam(c *gin.Context) (time.Time, error) {
	day := c.Query("day")
	if day == "" {
		return time.Time{}, nil
	}
	return parseDateField("day", day)
}

// decimalOrZero reads a nullable decimal from a request
func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// sendFile answers with a download
func sendFile(c *gin.Context, data []byte, filename, contentType string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

const (
	contentTypePDF  = "application/pdf"
	contentTypeCSV  = "text/csv"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func contentTypeFor(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".pdf"):
		return contentTypePDF
	case strings.HasSuffix(filename, ".csv"):
		return contentTypeCSV
	case strings.HasSuffix(filename, ".xlsx"):
		return contentTypeXLSX
	}
	return "application/octet-stream"
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// bindReason reads an optional {"reason": "..."} body
func bindReason(c *gin.Context) string {
	var req reasonRequest
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&req)
	}
	return strings.TrimSpace(req.Reason)
}

// uploadFunc stores a multipart file against the record id
type uploadFunc[T any] func(ctx context.Context, actor services.Actor, id uint, file multipart.File, header *multipart.FileHeader) (*T, error)

// transitionFunc applies a state change to the record id
type transitionFunc[T any] func(ctx context.Context, actor services.Actor, id uint) (*T, error)

// runTransition applies a state change to the record named by param and writes it under key
func runTransition[T any](c *gin.Context, param, key string, apply transitionFunc[T], render func(*T) any) {
	id, ok := parseID(c, param)
	if !ok {
		return
	}
	record, err := apply(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: render(record)})
}
