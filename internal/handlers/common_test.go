package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/rentdesk-api/internal/jobs"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: amount must be positive", services.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: room is occupied", services.ErrPrecondition), http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrTokenExpired, http.StatusUnauthorized},
		{fmt.Errorf("%w: invoice belongs to another tenant", services.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: agreement", services.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: invoice is posted", services.ErrInvalidState), http.StatusConflict},
		{services.ErrDuplicate, http.StatusConflict},
		{jobs.ErrJobRunning, http.StatusConflict},
		{services.ErrInvalidPassword, http.StatusUnprocessableEntity},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusFor(tt.err), tt.err.Error())
	}
}

func TestRespondError_HidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	respondError(c, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	respondError(c, fmt.Errorf("%w: room R-1 is occupied", services.ErrPrecondition))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "room R-1 is occupied")
}

func TestListQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		url     string
		page    int
		perPage int
		sortBy  string
		sortDir string
	}{
		{"/x", 1, 20, "", "asc"},
		{"/x?page=3&per_page=50", 3, 50, "", "asc"},
		{"/x?page=-1&per_page=500", 1, 20, "", "asc"},
		{"/x?sort_by=due_date&sort_direction=desc", 1, 20, "due_date", "desc"},
		{"/x?sort=amount_due-desc", 1, 20, "amount_due", "desc"},
		{"/x?sort=name", 1, 20, "name", "asc"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", tt.url, nil)
			q := listQuery(c)
			assert.Equal(t, tt.page, q.Page)
			assert.Equal(t, tt.perPage, q.PerPage)
			assert.Equal(t, tt.sortBy, q.SortBy)
			assert.Equal(t, tt.sortDir, q.SortDir)
		})
	}

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/dues?status=overdue&tenant_id=%204%20&room_id=&search_term=ali", nil)
	q := listQuery(c, "status", "tenant_id", "room_id")
	assert.Equal(t, map[string]string{"status": "overdue", "tenant_id": "4"}, q.Filters)
	assert.Equal(t, "ali", q.Search)

	p := pagination(q, 41)
	assert.EqualValues(t, 3, p["total_pages"])
}

func TestParseDateField(t *testing.T) {
	d, err := parseDateField("start_date", "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.Format(models.DateLayout))

	_, err = parseDateField("start_date", "29/02/2024")
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Contains(t, err.Error(), "start_date")

	none, err := optionalDate("period_to", " ")
	assert.NoError(t, err)
	assert.Nil(t, none)
	assert.Equal(t, "", formatOptionalDate(none))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, contentTypePDF, contentTypeFor("dashboard_2024-05-01.pdf"))
	assert.Equal(t, contentTypeCSV, contentTypeFor("overdue_dues.csv"))
	assert.Equal(t, contentTypeXLSX, contentTypeFor("collections.xlsx"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("bill.bin"))
}
