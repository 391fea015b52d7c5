package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/services"
	"github.com/stretchr/testify/assert"
)

func fixedClock() time.Time {
	return time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
}

func TestPortalHandler_RefusesStaffAccounts(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewPortalHandler(services.NewPortalService(nil, fixedClock))

	tests := []struct {
		name string
		call gin.HandlerFunc
	}{
		{"agreements", handler.Agreements},
		{"collections", handler.Collections},
		{"invoices", handler.Invoices},
		{"dues", handler.Dues},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/portal/"+tt.name, nil)
			c.Set("userID", uint(3))
			c.Set("userRole", models.RoleManager)
			tt.call(c)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}
}

func TestPortalHandler_TenantAccountWithoutTenant(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewPortalHandler(services.NewPortalService(nil, fixedClock))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/portal/invoices/4", nil)
	c.Params = gin.Params{{Key: "invoice_id", Value: "4"}}
	c.Set("userID", uint(9))
	c.Set("userRole", models.RoleTenant)
	handler.Invoice(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "tenant accounts"))
}

func TestJobHandler_RunSweep_RejectsBadDay(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewJobHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/jobs/sweeps?sweep=dues&day=10-05-2024", nil)
	handler.RunSweep(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "day must be a date")
}

func TestExitHandler_New_RequiresAgreement(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewExitHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/exits/new", nil)
	handler.New(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
