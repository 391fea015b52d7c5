package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/services"
)

type DueHandler struct {
	dueService *services.DueService
}

func NewDueHandler(dueService *services.DueService) *DueHandler {
	return &DueHandler{dueService: dueService}
}

// DueRequest records a manual charge; with agreement_id set the tenant and room come from the agreement
type DueRequest struct {
	TenantID    uint            `json:"tenant_id"`
	RoomID      uint            `json:"room_id"`
	AgreementID *uint           `json:"agreement_id"`
	DueType     string          `json:"due_type"`
	DueDate     string          `json:"due_date" binding:"required"`
	AmountDue   decimal.Decimal `json:"amount_due"`
	Priority    string          `json:"priority"`
	Notes       *string         `json:"notes"`
}

type DuePaymentRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

func (h *DueHandler) render(d *models.DueTracker) any {
	return d.ToResponse(h.dueService.Today())
}

// @Summary List Dues
// @Tags Dues
// @Param open query bool false "Only pending, partial and overdue dues"
// @Router /dues [get]
func (h *DueHandler) Index(c *gin.Context) {
	query := listQuery(c, "status", "due_type", "priority", "tenant_id", "room_id", "agreement_id", "open")
	dues, total, err := h.dueService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	today := h.dueService.Today()
	responses := make([]models.DueResponse, 0, len(dues))
	for i := range dues {
		responses = append(responses, dues[i].ToResponse(today))
	}
	c.JSON(http.StatusOK, gin.H{"dues": responses, "pagination": pagination(query, total)})
}

func (h *DueHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "due_id")
	if !ok {
		return
	}
	due, err := h.dueService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"due": h.render(due)})
}

func (h *DueHandler) Create(c *gin.Context) {
	var req DueRequest
	if err := BindNestedOrFlat(c, "due", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	dueDate, err := parseDateField("due_date", req.DueDate)
	if err != nil {
		respondError(c, err)
		return
	}
	due := &models.DueTracker{
		TenantID:    req.TenantID,
		RoomID:      req.RoomID,
		AgreementID: req.AgreementID,
		DueType:     req.DueType,
		DueDate:     dueDate,
		AmountDue:   req.AmountDue,
		Priority:    req.Priority,
		Notes:       req.Notes,
	}
	if err := h.dueService.Create(c.Request.Context(), actorFrom(c), due); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"due": h.render(due)})
}

func (h *DueHandler) MarkPaid(c *gin.Context) {
	runTransition(c, "due_id", "due", h.dueService.MarkPaid, h.render)
}

// @Summary Record Due Payment
// @Description Adds a partial payment; the amount cannot exceed what is outstanding
// @Tags Dues
// @Router /dues/{due_id}/payment [post]
func (h *DueHandler) RecordPayment(c *gin.Context) {
	id, ok := parseID(c, "due_id")
	if !ok {
		return
	}
	var req DuePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	due, err := h.dueService.RecordPayment(c.Request.Context(), actorFrom(c), id, decimalOrZero(req.Amount))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"due": h.render(due)})
}

func (h *DueHandler) Waive(c *gin.Context) {
	id, ok := parseID(c, "due_id")
	if !ok {
		return
	}
	due, err := h.dueService.Waive(c.Request.Context(), actorFrom(c), id, bindReason(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"due": h.render(due)})
}

func (h *DueHandler) Remind(c *gin.Context) {
	runTransition(c, "due_id", "due", h.dueService.SendReminder, h.render)
}
