package services

import (
	"bytes"
	"context"
	"embed"
	"encoding/csv"
	"fmt"
	"html/template"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
)

//go:embed templates/reports/*.html
var reportTemplates embed.FS

// ReportService renders printable documents and CSV reports
type ReportService struct {
	repos *repository.Repositories
	clock Clock
}

// NewReportService points go-wkhtmltopdf at binaryPath when one is configured
func NewReportService(repos *repository.Repositories, clock Clock, binaryPath string) *ReportService {
	if binaryPath != "" {
		wkhtmltopdf.SetPath(binaryPath)
	}
	return &ReportService{repos: repos, clock: clock}
}

type invoiceLineView struct {
	Description string
	Quantity    string
	PriceUnit   string
	Subtotal    string
}

type invoiceView struct {
	Name          string
	State         string
	InvoiceDate   string
	DueDate       string
	Period        string
	TenantName    string
	TenantMobile  string
	TenantEmail   string
	RoomName      string
	Currency      string
	Lines         []invoiceLineView
	Total         string
	Paid          string
	Residual      string
	AmountInWords string
	Notes         string
	PrintedOn     string
}

func newInvoiceView(invoice *models.Invoice, today string) invoiceView {
	v := invoiceView{
		Name:          invoice.Name,
		State:         invoice.State,
		InvoiceDate:   invoice.InvoiceDate.Format(models.DateLayout),
		DueDate:       invoice.DueDate.Format(models.DateLayout),
		TenantName:    invoice.Tenant.Name,
		TenantMobile:  invoice.Tenant.Mobile,
		TenantEmail:   invoice.Tenant.Email,
		Currency:      invoice.Currency,
		Total:         invoice.AmountTotal.StringFixed(2),
		Paid:          invoice.AmountPaid.StringFixed(2),
		Residual:      invoice.AmountResidual.StringFixed(2),
		AmountInWords: AmountInWords(invoice.AmountTotal, invoice.Currency),
		PrintedOn:     today,
	}
	if invoice.Room != nil {
		v.RoomName = invoice.Room.Name
	}
	if invoice.PeriodFrom != nil && invoice.PeriodTo != nil {
		v.Period = invoice.PeriodFrom.Format(models.DateLayout) + " to " + invoice.PeriodTo.Format(models.DateLayout)
	}
	if invoice.Notes != nil {
		v.Notes = *invoice.Notes
	}
	for _, l := range invoice.Lines {
		v.Lines = append(v.Lines, invoiceLineView{
			Description: l.Description,
			Quantity:    l.Quantity.String(),
			PriceUnit:   l.PriceUnit.StringFixed(2),
			Subtotal:    l.Subtotal.StringFixed(2),
		})
	}
	return v
}

// RenderInvoiceHTML fills the invoice template
func (s *ReportService) RenderInvoiceHTML(invoice *models.Invoice) ([]byte, error) {
	return renderReport("invoice.html", newInvoiceView(invoice, s.clock.Today().Format(models.DateLayout)))
}

// InvoicePDF renders the invoice through wkhtmltopdf
func (s *ReportService) InvoicePDF(ctx context.Context, invoice *models.Invoice) ([]byte, error) {
	html, err := s.RenderInvoiceHTML(invoice)
	if err != nil {
		return nil, err
	}
	return htmlToPDF(ctx, html)
}

type statementRow struct {
	Date        string
	Document    string
	Description string
	Debit       string
	Credit      string
}

// TenantStatementPDF lists the tenant's invoices and payments
func (s *ReportService) TenantStatementPDF(ctx context.Context, tenantID uint) ([]byte, error) {
	tenant, err := s.repos.Tenant.FindByID(ctx, tenantID)
	if err != nil {
		return nil, translate(err, "tenant")
	}
	query := repository.NewListQuery()
	query.PerPage = 0
	query.SortBy, query.SortDir = "invoice_date", "asc"
	query.Filters["tenant_id"] = fmt.Sprint(tenantID)
	invoices, _, err := s.repos.Invoice.List(ctx, query)
	if err != nil {
		return nil, err
	}

	var rows []statementRow
	var balance = struct{ debit, credit float64 }{}
	for _, inv := range invoices {
		if inv.State == models.InvoiceStateDraft || inv.State == models.InvoiceStateCancelled {
			continue
		}
		total, _ := inv.AmountTotal.Float64()
		balance.debit += total
		rows = append(rows, statementRow{
			Date:        inv.InvoiceDate.Format(models.DateLayout),
			Document:    inv.Name,
			Description: inv.InvoiceType,
			Debit:       inv.AmountTotal.StringFixed(2),
		})
		payments, err := s.repos.Payment.FindByInvoice(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range payments {
			if p.State != models.PaymentStatePosted && p.State != models.PaymentStateReconciled {
				continue
			}
			amount, _ := p.Amount.Float64()
			balance.credit += amount
			rows = append(rows, statementRow{
				Date:        p.PaymentDate.Format(models.DateLayout),
				Document:    p.Name,
				Description: p.PaymentMethod,
				Credit:      p.Amount.StringFixed(2),
			})
		}
	}

	data := struct {
		Tenant    *models.Tenant
		Rows      []statementRow
		Debit     string
		Credit    string
		Balance   string
		PrintedOn string
	}{
		Tenant:    tenant,
		Rows:      rows,
		Debit:     fmt.Sprintf("%.2f", balance.debit),
		Credit:    fmt.Sprintf("%.2f", balance.credit),
		Balance:   fmt.Sprintf("%.2f", balance.debit-balance.credit),
		PrintedOn: s.clock.Today().Format(models.DateLayout),
	}
	html, err := renderReport("tenant_statement.html", data)
	if err != nil {
		return nil, err
	}
	return htmlToPDF(ctx, html)
}

// OverdueDuesCSV lists every overdue due with its outstanding amount
func (s *ReportService) OverdueDuesCSV(ctx context.Context) (*bytes.Buffer, error) {
	query := repository.NewListQuery()
	query.PerPage = 0
	query.Filters["status"] = models.DueStatusOverdue
	dues, _, err := s.repos.Due.List(ctx, query)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	b := &bytes.Buffer{}
	w := csv.NewWriter(b)
	if err := w.Write([]string{"Due", "Tenant", "Mobile", "Room", "Due date", "Days overdue", "Amount due", "Paid", "Outstanding", "Reminders"}); err != nil {
		return nil, err
	}
	for _, d := range dues {
		record := []string{
			d.Name,
			d.Tenant.Name,
			d.Tenant.Mobile,
			d.Room.Name,
			d.DueDate.Format(models.DateLayout),
			fmt.Sprint(d.DaysOverdue(today)),
			d.AmountDue.StringFixed(2),
			d.AmountPaid.StringFixed(2),
			d.Outstanding().StringFixed(2),
			fmt.Sprint(d.ReminderCount),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b, nil
}

func renderReport(name string, data any) ([]byte, error) {
	tmpl, err := template.ParseFS(reportTemplates, "templates/reports/"+name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func htmlToPDF(ctx context.Context, html []byte) ([]byte, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf generator: %w", err)
	}
	pdfg.Dpi.Set(300)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	page.EnableLocalFileAccess.Set(true)
	pdfg.AddPage(page)

	if err := pdfg.CreateContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to create pdf: %w", err)
	}
	return pdfg.Bytes(), nil
}
