package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/services"
)

// PortalHandler serves tenant accounts their own agreements, invoices, collections and dues
type PortalHandler struct {
	portalService *services.PortalService
}

func NewPortalHandler(portalService *services.PortalService) *PortalHandler {
	return &PortalHandler{portalService: portalService}
}

// @Summary My Agreements
// @Tags Portal
// @Security BearerAuth
// @Router /portal/agreements [get]
func (h *PortalHandler) Agreements(c *gin.Context) {
	query := listQuery(c, "state")
	agreements, total, err := h.portalService.Agreements(c.Request.Context(), actorFrom(c), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agreements": agreements, "pagination": pagination(query, total)})
}

func (h *PortalHandler) Agreement(c *gin.Context) {
	id, ok := parseID(c, "agreement_id")
	if !ok {
		return
	}
	agreement, err := h.portalService.Agreement(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agreement": agreement})
}

func (h *PortalHandler) Collections(c *gin.Context) {
	query := listQuery(c, "status", "from", "to")
	collections, total, err := h.portalService.Collections(c.Request.Context(), actorFrom(c), query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.CollectionResponse, 0, len(collections))
	for i := range collections {
		responses = append(responses, collections[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"collections": responses, "pagination": pagination(query, total)})
}

// @Summary My Invoices
// @Description Posted and cancelled invoices; drafts are not shown
// @Tags Portal
// @Security BearerAuth
// @Router /portal/invoices [get]
func (h *PortalHandler) Invoices(c *gin.Context) {
	query := listQuery(c, "payment_state")
	invoices, total, err := h.portalService.Invoices(c.Request.Context(), actorFrom(c), query)
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

func (h *PortalHandler) Invoice(c *gin.Context) {
	id, ok := parseID(c, "invoice_id")
	if !ok {
		return
	}
	invoice, err := h.portalService.Invoice(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice.ToResponse()})
}

func (h *PortalHandler) Dues(c *gin.Context) {
	query := listQuery(c, "status", "open")
	dues, total, err := h.portalService.Dues(c.Request.Context(), actorFrom(c), query)
	if err != nil {
		respondError(c, err)
		return
	}
	today := h.portalService.Today()
	responses := make([]models.DueResponse, 0, len(dues))
	for i := range dues {
		responses = append(responses, dues[i].ToResponse(today))
	}
	c.JSON(http.StatusOK, gin.H{"dues": responses, "pagination": pagination(query, total)})
}
