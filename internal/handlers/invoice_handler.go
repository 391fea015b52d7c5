package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/services"
)

type InvoiceHandler struct {
	invoiceService *services.InvoiceService
	paymentService *services.PaymentService
}

func NewInvoiceHandler(invoiceService *services.InvoiceService, paymentService *services.PaymentService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, paymentService: paymentService}
}

type InvoiceLineRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	PriceUnit   decimal.Decimal `json:"price_unit"`
}

// InvoiceRequest is a draft invoice with its lines; dates are YYYY-MM-DD
type InvoiceRequest struct {
	TenantID    uint                 `json:"tenant_id"`
	AgreementID *uint                `json:"agreement_id"`
	RoomID      *uint                `json:"room_id"`
	InvoiceType string               `json:"invoice_type"`
	InvoiceDate string               `json:"invoice_date"`
	DueDate     string               `json:"due_date"`
	PeriodFrom  string               `json:"period_from"`
	PeriodTo    string               `json:"period_to"`
	Notes       *string              `json:"notes"`
	Lines       []InvoiceLineRequest `json:"lines"`
}

func newInvoiceRequest(inv *models.Invoice) InvoiceRequest {
	req := InvoiceRequest{
		TenantID:    inv.TenantID,
		AgreementID: inv.AgreementID,
		RoomID:      inv.RoomID,
		InvoiceType: inv.InvoiceType,
		InvoiceDate: formatDate(inv.InvoiceDate),
		DueDate:     formatDate(inv.DueDate),
		PeriodFrom:  formatOptionalDate(inv.PeriodFrom),
		PeriodTo:    formatOptionalDate(inv.PeriodTo),
		Notes:       inv.Notes,
	}
	for _, l := range inv.Lines {
		req.Lines = append(req.Lines, InvoiceLineRequest{Description: l.Description, Quantity: l.Quantity, PriceUnit: l.PriceUnit})
	}
	return req
}

func (r InvoiceRequest) toModel() (*models.Invoice, error) {
	inv := &models.Invoice{
		TenantID:    r.TenantID,
		AgreementID: r.AgreementID,
		RoomID:      r.RoomID,
		InvoiceType: r.InvoiceType,
		Notes:       r.Notes,
	}
	var err error
	if r.InvoiceDate != "" {
		if inv.InvoiceDate, err = parseDateField("invoice_date", r.InvoiceDate); err != nil {
			return nil, err
		}
	}
	if r.DueDate != "" {
		if inv.DueDate, err = parseDateField("due_date", r.DueDate); err != nil {
			return nil, err
		}
	}
	if inv.PeriodFrom, err = optionalDate("period_from", r.PeriodFrom); err != nil {
		return nil, err
	}
	if inv.PeriodTo, err = optionalDate("period_to", r.PeriodTo); err != nil {
		return nil, err
	}
	for _, l := range r.Lines {
		inv.Lines = append(inv.Lines, models.InvoiceLine{Description: l.Description, Quantity: l.Quantity, PriceUnit: l.PriceUnit})
	}
	return inv, nil
}

func renderInvoice(inv *models.Invoice) any { return inv.ToResponse() }

// @Summary List Invoices
// @Tags Invoices
// @Router /invoices [get]
func (h *InvoiceHandler) Index(c *gin.Context) {
	query := listQuery(c, "state", "payment_state", "tenant_id", "agreement_id", "invoice_type")
	invoices, total, err := h.invoiceService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, invoices[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"invoices": responses, "pagination": pagination(query, total)})
}

func (h *InvoiceHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "invoice_id")
	if !ok {
		return
	}
	invoice, err := h.invoiceService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	payments := make([]models.PaymentResponse, 0, len(invoice.Payments))
	for i := range invoice.Payments {
		payments = append(payments, invoice.Payments[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice.ToResponse(), "payments": payments})
}

// @Summary Create Invoice
// @Description Draft invoice; totals are computed from the lines
// @Tags Invoices
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req InvoiceRequest
	if err := BindNestedOrFlat(c, "invoice", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	invoice, err := req.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.invoiceService.Create(c.Request.Context(), actorFrom(c), invoice); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invoice": invoice.ToResponse()})
}

// @Summary Update Invoice
// @Description Only drafts can change; the lines in the body replace the current lines
// @Tags Invoices
// @Router /invoices/{invoice_id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "invoice_id")
	if !ok {
		return
	}
	current, err := h.invoiceService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	req := newInvoiceRequest(current)
	if err := BindNestedOrFlat(c, "invoice", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	input, err := req.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	input.ID = id

	invoice, err := h.invoiceService.Update(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice.ToResponse()})
}

func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "invoice_id")
	if !ok {
		return
	}
	if err := h.invoiceService.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted"})
}

// @Summary Post Invoice
// @Tags Invoices
// @Router /invoices/{invoice_id}/post [post]
func (h *InvoiceHandler) Post(c *gin.Context) {
	runTransition(c, "invoice_id", "invoice", h.invoiceService.Post, renderInvoice)
}

func (h *InvoiceHandler) Cancel(c *gin.Context) {
	runTransition(c, "invoice_id", "invoice", h.invoiceService.Cancel, renderInvoice)
}

func (h *InvoiceHandler) ResetToDraft(c *gin.Context) {
	runTransition(c, "invoice_id", "invoice", h.invoiceService.ResetToDraft, renderInvoice)
}

// @Summary Email Invoice
// @Description Sends the invoice PDF to the tenant
// @Tags Invoices
// @Router /invoices/{invoice_id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	runTransition(c, "invoice_id", "invoice", h.invoiceService.SendByEmail, renderInvoice)
}

// @Summary Invoice PDF
// @Tags Invoices
// @Produce application/pdf
// @Router /invoices/{invoice_id}/pdf [get]
func (h *InvoiceHandler) PDF(c *gin.Context) {
	id, ok := parseID(c, "invoice_id")
	if !ok {
		return
	}
	data, filename, err := h.invoiceService.PDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, data, filename, contentTypePDF)
}

// PaymentRequest registers money against an invoice; payment_date is YYYY-MM-DD
type PaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   string          `json:"payment_date"`
	PaymentMethod string          `json:"payment_method"`
	Reference     *string         `json:"reference"`
	Notes         *string         `json:"notes"`
}

func (r PaymentRequest) toInput() (services.RegisterPaymentInput, error) {
	in := services.RegisterPaymentInput{
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		Reference:     r.Reference,
		Notes:         r.Notes,
	}
	if r.PaymentDate != "" {
		d, err := parseDateField("payment_date", r.PaymentDate)
		if err != nil {
			return in, err
		}
		in.PaymentDate = d
	}
	return in, nil
}

func (h *InvoiceHandler) bindPayment(c *gin.Context) (uint, services.RegisterPaymentInput, bool) {
	id, ok := parseID(c, "invoice_id")
	if !ok {
		return 0, services.RegisterPaymentInput{}, false
	}
	var req PaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return 0, services.RegisterPaymentInput{}, false
	}
	in, err := req.toInput()
	if err != nil {
		respondError(c, err)
		return 0, services.RegisterPaymentInput{}, false
	}
	return id, in, true
}

// @Summary Register Payment
// @Description Creates and posts a payment and records the matching collection with a receipt number
// @Tags Invoices
// @Router /invoices/{invoice_id}/register_payment [post]
func (h *InvoiceHandler) RegisterPayment(c *gin.Context) {
	id, in, ok := h.bindPayment(c)
	if !ok {
		return
	}
	payment, collection, err := h.paymentService.RegisterPayment(c.Request.Context(), actorFrom(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	invoice, err := h.invoiceService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"payment":    payment.ToResponse(),
		"collection": collection.ToResponse(),
		"invoice":    invoice.ToResponse(),
	})
}

// @Summary Draft Payment
// @Description Records a draft payment that is counted once posted
// @Tags Invoices
// @Router /invoices/{invoice_id}/payments [post]
func (h *InvoiceHandler) CreatePayment(c *gin.Context) {
	id, in, ok := h.bindPayment(c)
	if !ok {
		return
	}
	payment, err := h.paymentService.Create(c.Request.Context(), actorFrom(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": payment.ToResponse()})
}
