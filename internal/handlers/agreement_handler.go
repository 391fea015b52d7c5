package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/services"
)

type AgreementHandler struct {
	agreementService *services.AgreementService
}

func NewAgreementHandler(agreementService *services.AgreementService) *AgreementHandler {
	return &AgreementHandler{agreementService: agreementService}
}

// AgreementRequest carries the editable terms; dates are YYYY-MM-DD
type AgreementRequest struct {
	TenantID             uint            `json:"tenant_id"`
	RoomID               uint            `json:"room_id"`
	AgreementType        string          `json:"agreement_type"`
	StartDate            string          `json:"start_date"`
	EndDate              string          `json:"end_date"`
	NoticePeriodDays     int             `json:"notice_period_days"`
	RentAmount           decimal.Decimal `json:"rent_amount"`
	DepositAmount        decimal.Decimal `json:"deposit_amount"`
	TokenAmount          decimal.Decimal `json:"token_amount"`
	ExtraCharges         decimal.Decimal `json:"extra_charges"`
	PaymentFrequency     string          `json:"payment_frequency"`
	PaymentDay           int             `json:"payment_day"`
	PaymentTermsDays     int             `json:"payment_terms_days"`
	PaymentMethod        string          `json:"payment_method"`
	AutoGenerateInvoices *bool           `json:"auto_generate_invoices"`
	AutoPostInvoices     bool            `json:"auto_post_invoices"`
	InvoiceDay           int             `json:"invoice_day"`
	AdvanceInvoiceDays   *int            `json:"advance_invoice_days"`
	ElectricityIncluded  bool            `json:"electricity_included"`
	WaterIncluded        bool            `json:"water_included"`
	InternetIncluded     bool            `json:"internet_included"`
	Notes                *string         `json:"notes"`
}

func newAgreementRequest(a *models.Agreement) AgreementRequest {
	autoGenerate := a.AutoGenerateInvoices
	advance := a.AdvanceInvoiceDays
	return AgreementRequest{
		TenantID:             a.TenantID,
		RoomID:               a.RoomID,
		AgreementType:        a.AgreementType,
		StartDate:            formatDate(a.StartDate),
		EndDate:              formatDate(a.EndDate),
		NoticePeriodDays:     a.NoticePeriodDays,
		RentAmount:           a.RentAmount,
		DepositAmount:        a.DepositAmount,
		TokenAmount:          a.TokenAmount,
		ExtraCharges:         a.ExtraCharges,
		PaymentFrequency:     a.PaymentFrequency,
		PaymentDay:           a.PaymentDay,
		PaymentTermsDays:     a.PaymentTermsDays,
		PaymentMethod:        a.PaymentMethod,
		AutoGenerateInvoices: &autoGenerate,
		AutoPostInvoices:     a.AutoPostInvoices,
		InvoiceDay:           a.InvoiceDay,
		AdvanceInvoiceDays:   &advance,
		ElectricityIncluded:  a.ElectricityIncluded,
		WaterIncluded:        a.WaterIncluded,
		InternetIncluded:     a.InternetIncluded,
		Notes:                a.Notes,
	}
}

func (r AgreementRequest) toModel() (*models.Agreement, error) {
	start, err := parseDateField("start_date", r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDateField("end_date", r.EndDate)
	if err != nil {
		return nil, err
	}
	a := &models.Agreement{
		TenantID:             r.TenantID,
		RoomID:               r.RoomID,
		AgreementType:        r.AgreementType,
		StartDate:            start,
		EndDate:              end,
		NoticePeriodDays:     r.NoticePeriodDays,
		RentAmount:           r.RentAmount,
		DepositAmount:        r.DepositAmount,
		TokenAmount:          r.TokenAmount,
		ExtraCharges:         r.ExtraCharges,
		PaymentFrequency:     r.PaymentFrequency,
		PaymentDay:           r.PaymentDay,
		PaymentTermsDays:     r.PaymentTermsDays,
		PaymentMethod:        r.PaymentMethod,
		AutoGenerateInvoices: true,
		AutoPostInvoices:     r.AutoPostInvoices,
		InvoiceDay:           r.InvoiceDay,
		AdvanceInvoiceDays:   5,
		ElectricityIncluded:  r.ElectricityIncluded,
		WaterIncluded:        r.WaterIncluded,
		InternetIncluded:     r.InternetIncluded,
		Notes:                r.Notes,
	}
	if r.AutoGenerateInvoices != nil {
		a.AutoGenerateInvoices = *r.AutoGenerateInvoices
	}
	if r.AdvanceInvoiceDays != nil {
		a.AdvanceInvoiceDays = *r.AdvanceInvoiceDays
	}
	return a, nil
}

func (h *AgreementHandler) respond(c *gin.Context, status int, agreement *models.Agreement) {
	response, err := h.agreementService.Response(c.Request.Context(), agreement)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, gin.H{"agreement": response})
}

// @Summary List Agreements
// @Tags Agreements
// @Router /agreements [get]
func (h *AgreementHandler) Index(c *gin.Context) {
	query := listQuery(c, "state", "tenant_id", "room_id", "property_id", "payment_frequency")
	agreements, total, err := h.agreementService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.AgreementResponse, 0, len(agreements))
	for i := range agreements {
		r, err := h.agreementService.Response(c.Request.Context(), &agreements[i])
		if err != nil {
			respondError(c, err)
			return
		}
		responses = append(responses, r)
	}
	c.JSON(http.StatusOK, gin.H{"agreements": responses, "pagination": pagination(query, total)})
}

func (h *AgreementHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "agreement_id")
	if !ok {
		return
	}
	agreement, err := h.agreementService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, agreement)
}

// @Summary Create Agreement
// @Description Saves a draft; the room must be free for the whole period
// @Tags Agreements
// @Router /agreements [post]
func (h *AgreementHandler) Create(c *gin.Context) {
	var req AgreementRequest
	if err := BindNestedOrFlat(c, "agreement", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	agreement, err := req.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.agreementService.Create(c.Request.Context(), actorFrom(c), agreement); err != nil {
		respondError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, agreement)
}

func (h *AgreementHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "agreement_id")
	if !ok {
		return
	}
	current, err := h.agreementService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	req := newAgreementRequest(current)
	if err := BindNestedOrFlat(c, "agreement", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	input, err := req.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	input.ID = id

	agreement, err := h.agreementService.Update(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, agreement)
}

func (h *AgreementHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "agreement_id")
	if !ok {
		return
	}
	if err := h.agreementService.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Agreement deleted"})
}

// @Summary Activate Agreement
// @Description Occupies the room, activates the tenant and records the deposit
// @Tags Agreements
// @Router /agreements/{agreement_id}/activate [post]
func (h *AgreementHandler) Activate(c *gin.Context) {
	h.transition(c, h.agreementService.Activate)
}

// @Summary Terminate Agreement
// @Tags Agreements
// @Router /agreements/{agreement_id}/terminate [post]
func (h *AgreementHandler) Terminate(c *gin.Context) {
	id, ok := parseID(c, "agreement_id")
	if !ok {
		return
	}
	agreement, err := h.agreementService.Terminate(c.Request.Context(), actorFrom(c), id, bindReason(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, agreement)
}

func (h *AgreementHandler) Expire(c *gin.Context) {
	h.transition(c, h.agreementService.Expire)
}

func (h *AgreementHandler) Cancel(c *gin.Context) {
	h.transition(c, h.agreementService.Cancel)
}

// @Summary Renew Agreement
// @Description Returns an unsaved draft that starts the day after the current end date
// @Tags Agreements
// @Router /agreements/{agreement_id}/renew [post]
func (h *AgreementHandler) Renew(c *gin.Context) {
	id, ok := parseID(c, "agreement_id")
	if !ok {
		return
	}
	renewal, err := h.agreementService.Renew(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, renewal)
}

func (h *AgreementHandler) transition(c *gin.Context, apply transitionFunc[models.Agreement]) {
	id, ok := parseID(c, "agreement_id")
	if !ok {
		return
	}
	agreement, err := apply(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, agreement)
}
