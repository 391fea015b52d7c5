package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/xuri/excelize/v2"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// ExportService renders the dashboard and the collection register as files
type ExportService struct {
	dashboard *DashboardService
	repos     *repository.Repositories
}

func NewExportService(dashboard *DashboardService, repos *repository.Repositories) *ExportService {
	return &ExportService{dashboard: dashboard, repos: repos}
}

// ExportDashboard computes the dashboard and renders it in format
func (s *ExportService) ExportDashboard(ctx context.Context, format string) ([]byte, string, error) {
	d, err := s.dashboard.Compute(ctx)
	if err != nil {
		return nil, "", err
	}
	switch format {
	case FormatCSV:
		return s.DashboardCSV(d)
	case FormatXLSX:
		return s.DashboardXLSX(d)
	case FormatPDF:
		return s.DashboardPDF(d)
	}
	return nil, "", validationf("unsupported export format %q", format)
}

type figureRow struct {
	label string
	value string
}

func periodRows(d *models.Dashboard) [][]string {
	rows := [][]string{{"Metric", "Today", "This week", "This month"}}
	p := []models.PeriodFigures{d.TodayFigures, d.WeekFigures, d.MonthFigures}
	add := func(label string, value func(models.PeriodFigures) string) {
		rows = append(rows, []string{label, value(p[0]), value(p[1]), value(p[2])})
	}
	add("Collections", func(f models.PeriodFigures) string { return f.Collections.StringFixed(2) })
	add("Collections count", func(f models.PeriodFigures) string { return fmt.Sprint(f.CollectionsCount) })
	add("Expenses", func(f models.PeriodFigures) string { return f.Expenses.StringFixed(2) })
	add("Profit", func(f models.PeriodFigures) string { return f.Profit.StringFixed(2) })
	add("New tenants", func(f models.PeriodFigures) string { return fmt.Sprint(f.NewTenants) })
	return rows
}

func overallRows(d *models.Dashboard) []figureRow {
	o := d.Overall
	return []figureRow{
		{"Properties", fmt.Sprint(o.TotalProperties)},
		{"Rooms", fmt.Sprint(o.TotalRooms)},
		{"Occupied rooms", fmt.Sprint(o.OccupiedRooms)},
		{"Vacant rooms", fmt.Sprint(o.VacantRooms)},
		{"Occupancy rate", fmt.Sprintf("%.2f%%", o.OccupancyRate*100)},
		{"Active tenants", fmt.Sprint(o.ActiveTenants)},
	}
}

func dashboardFilename(d *models.Dashboard, ext string) string {
	return fmt.Sprintf("dashboard_%s.%s", d.Today, ext)
}

func (s *ExportService) DashboardCSV(d *models.Dashboard) ([]byte, string, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Dashboard", d.Today, d.Currency})
	_ = writer.Write([]string{""})
	for _, row := range periodRows(d) {
		_ = writer.Write(row)
	}
	_ = writer.Write([]string{""})
	_ = writer.Write([]string{"Portfolio", "Value"})
	for _, row := range overallRows(d) {
		_ = writer.Write([]string{row.label, row.value})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), dashboardFilename(d, FormatCSV), nil
}

func (s *ExportService) DashboardXLSX(d *models.Dashboard) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Dashboard"
	_ = f.SetSheetName("Sheet1", sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Dashboard %s (%s)", d.Today, d.Currency))
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	row := 3
	for i, values := range periodRows(d) {
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
			if i == 0 {
				_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
			}
		}
		row++
	}

	row++
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Portfolio")
	_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), headerStyle)
	row++
	for _, r := range overallRows(d) {
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.label)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.value)
		row++
	}
	_ = f.SetColWidth(sheet, "A", "A", 22)
	_ = f.SetColWidth(sheet, "B", "D", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), dashboardFilename(d, FormatXLSX), nil
}

func (s *ExportService) DashboardPDF(d *models.Dashboard) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Dashboard %s", d.Today))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 10)
	widths := []float64{50, 40, 40, 40}
	for i, values := range periodRows(d) {
		if i == 1 {
			pdf.SetFont("Arial", "", 10)
		}
		for col, v := range values {
			pdf.CellFormat(widths[col], 7, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Portfolio")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	for _, r := range overallRows(d) {
		pdf.Cell(60, 6, r.label+":")
		pdf.Cell(40, 6, r.value)
		pdf.Ln(6)
	}
	pdf.Ln(6)

	for _, section := range []struct{ title, body string }{
		{"Recent collections", d.RecentCollections},
		{"Recent tenants", d.RecentTenants},
	} {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(40, 10, section.title)
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 9)
		for _, line := range strings.Split(section.body, "\n") {
			pdf.Cell(0, 5, tr(strings.TrimPrefix(line, "• ")))
			pdf.Ln(5)
		}
		pdf.Ln(4)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), dashboardFilename(d, FormatPDF), nil
}

// CollectionsXLSX exports the collection register matching query
func (s *ExportService) CollectionsXLSX(ctx context.Context, query *repository.ListQuery) ([]byte, string, error) {
	query.Page, query.PerPage = 1, 0
	collections, _, err := s.repos.Collection.List(ctx, query)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Collections"
	_ = f.SetSheetName("Sheet1", sheet)
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	headers := []string{"Date", "Receipt", "Tenant", "Room", "Type", "Amount", "Late fee", "Currency", "Method", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	for i, c := range collections {
		receipt := ""
		if c.ReceiptNumber != nil {
			receipt = *c.ReceiptNumber
		}
		amount, _ := c.AmountCollected.Float64()
		fee, _ := c.LateFee.Float64()
		values := []any{
			c.Date.Format(models.DateLayout), receipt, c.Tenant.Name, c.Room.Name, c.CollectionType,
			amount, fee, c.Currency, c.PaymentMethod, c.Status,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "collections.xlsx", nil
}
