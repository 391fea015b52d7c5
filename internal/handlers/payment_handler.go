package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/services"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func renderPayment(p *models.Payment) any { return p.ToResponse() }

// @Summary List Payments
// @Tags Payments
// @Param state query string false "draft, posted, cancelled or reconciled"
// @Router /payments [get]
func (h *PaymentHandler) Index(c *gin.Context) {
	query := listQuery(c, "state", "invoice_id", "tenant_id", "payment_method")

	payments, total, err := h.paymentService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.PaymentResponse, 0, len(payments))
	for i := range payments {
		responses = append(responses, payments[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"payments":   responses,
		"pagination": pagination(query, total),
	})
}

func (h *PaymentHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "payment_id")
	if !ok {
		return
	}
	payment, err := h.paymentService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment.ToResponse()})
}

// @Summary Post Payment
// @Description Counts the payment towards its invoice
// @Tags Payments
// @Router /payments/{payment_id}/post [post]
func (h *PaymentHandler) Post(c *gin.Context) {
	runTransition(c, "payment_id", "payment", h.paymentService.Post, renderPayment)
}

// @Summary Cancel Payment
// @Description Reverses the payment on its invoice and cancels the linked collection
// @Tags Payments
// @Router /payments/{payment_id}/cancel [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	runTransition(c, "payment_id", "payment", h.paymentService.Cancel, renderPayment)
}

func (h *PaymentHandler) Reconcile(c *gin.Context) {
	runTransition(c, "payment_id", "payment", h.paymentService.Reconcile, renderPayment)
}

func (h *PaymentHandler) ResetToDraft(c *gin.Context) {
	runTransition(c, "payment_id", "payment", h.paymentService.ResetToDraft, renderPayment)
}
