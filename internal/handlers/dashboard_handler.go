package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/services"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
	exportService    *services.ExportService
}

func NewDashboardHandler(dashboardService *services.DashboardService, exportService *services.ExportService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		exportService:    exportService,
	}
}

// @Summary Dashboard
// @Description KPIs for today, this week and this month plus portfolio totals
// @Tags Dashboard
// @Produce json
// @Param day query string false "Reference day, YYYY-MM-DD"
// @Security BearerAuth
// @Router /dashboard [get]
func (h *DashboardHandler) Show(c *gin.Context) {
	day, err := dayParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	compute := h.dashboardService.Compute
	if !day.IsZero() {
		compute = func(ctx context.Context) (*models.Dashboard, error) {
			return h.dashboardService.ComputeFor(ctx, day)
		}
	}
	dashboard, err := compute(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dashboard": dashboard})
}

// @Summary Export Dashboard
// @Tags Dashboard
// @Produce application/octet-stream
// @Param format query string true "csv, xlsx or pdf"
// @Security BearerAuth
// @Router /dashboard/export [get]
func (h *DashboardHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", services.FormatCSV)
	data, filename, err := h.exportService.ExportDashboard(c.Request.Context(), format)
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, data, filename, contentTypeFor(filename))
}

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// @Summary Tenant Statement
// @Description Invoices and payments of the tenant as a PDF
// @Tags Reports
// @Produce application/pdf
// @Router /reports/tenants/{tenant_id}/statement [get]
func (h *ReportHandler) TenantStatement(c *gin.Context) {
	id, ok := parseID(c, "tenant_id")
	if !ok {
		return
	}
	data, err := h.reportService.TenantStatementPDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, data, fmt.Sprintf("statement_tenant_%d.pdf", id), contentTypePDF)
}

func (h *ReportHandler) OverdueDues(c *gin.Context) {
	buf, err := h.reportService.OverdueDuesCSV(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, buf.Bytes(), "overdue_dues.csv", contentTypeCSV)
}
