package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/services"
)

type ExpenseHandler struct {
	expenseService *services.ExpenseService
}

func NewExpenseHandler(expenseService *services.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

type ExpenseRequest struct {
	Name            string          `json:"name"`
	PropertyID      uint            `json:"property_id"`
	FlatID          *uint           `json:"flat_id"`
	RoomID          *uint           `json:"room_id"`
	ExpenseType     string          `json:"expense_type"`
	Category        string          `json:"category"`
	Urgency         string          `json:"urgency"`
	Date            string          `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method"`
	ReferenceNumber *string         `json:"reference_number"`
	Vendor          *string         `json:"vendor"`
	Notes           *string         `json:"notes"`
}

func newExpenseRequest(e *models.Expense) ExpenseRequest {
	return ExpenseRequest{
		Name:            e.Name,
		PropertyID:      e.PropertyID,
		FlatID:          e.FlatID,
		RoomID:          e.RoomID,
		ExpenseType:     e.ExpenseType,
		Category:        e.Category,
		Urgency:         e.Urgency,
		Date:            formatDate(e.Date),
		Amount:          e.Amount,
		PaymentMethod:   e.PaymentMethod,
		ReferenceNumber: e.ReferenceNumber,
		Vendor:          e.Vendor,
		Notes:           e.Notes,
	}
}

func (r ExpenseRequest) toModel() (*models.Expense, error) {
	e := &models.Expense{
		Name:            r.Name,
		PropertyID:      r.PropertyID,
		FlatID:          r.FlatID,
		RoomID:          r.RoomID,
		ExpenseType:     r.ExpenseType,
		Category:        r.Category,
		Urgency:         r.Urgency,
		Amount:          r.Amount,
		PaymentMethod:   r.PaymentMethod,
		ReferenceNumber: r.ReferenceNumber,
		Vendor:          r.Vendor,
		Notes:           r.Notes,
	}
	if r.Date != "" {
		d, err := parseDateField("date", r.Date)
		if err != nil {
			return nil, err
		}
		e.Date = d
	}
	return e, nil
}

func renderExpense(e *models.Expense) any { return e.ToResponse() }

// @Summary List Expenses
// @Tags Expenses
// @Param state query string false "draft, submitted, approved, rejected or paid"
// @Router /expenses [get]
func (h *ExpenseHandler) Index(c *gin.Context) {
	query := listQuery(c, "state", "expense_type", "category", "urgency", "property_id", "flat_id", "room_id", "from", "to")
	expenses, total, err := h.expenseService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		responses = append(responses, expenses[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"expenses": responses, "pagination": pagination(query, total)})
}

func (h *ExpenseHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "expense_id")
	if !ok {
		return
	}
	expense, err := h.expenseService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": expense.ToResponse()})
}

func (h *ExpenseHandler) Create(c *gin.Context) {
	var req ExpenseRequest
	if err := BindNestedOrFlat(c, "expense", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	expense, err := req.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.expenseService.Create(c.Request.Context(), actorFrom(c), expense); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"expense": expense.ToResponse()})
}

// @Summary Update Expense
// @Description Draft and rejected expenses only
// @Tags Expenses
// @Router /expenses/{expense_id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "expense_id")
	if !ok {
		return
	}
	current, err := h.expenseService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	req := newExpenseRequest(current)
	if err := BindNestedOrFlat(c, "expense", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	input, err := req.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	input.ID = id

	expense, err := h.expenseService.Update(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": expense.ToResponse()})
}

func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "expense_id")
	if !ok {
		return
	}
	if err := h.expenseService.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted"})
}

func (h *ExpenseHandler) Submit(c *gin.Context) {
	runTransition(c, "expense_id", "expense", h.expenseService.Submit, renderExpense)
}

func (h *ExpenseHandler) Approve(c *gin.Context) {
	runTransition(c, "expense_id", "expense", h.expenseService.Approve, renderExpense)
}

// @Summary Reject Expense
// @Description Body {"reason": "..."} is stored on the expense
// @Tags Expenses
// @Router /expenses/{expense_id}/reject [post]
func (h *ExpenseHandler) Reject(c *gin.Context) {
	id, ok := parseID(c, "expense_id")
	if !ok {
		return
	}
	expense, err := h.expenseService.Reject(c.Request.Context(), actorFrom(c), id, bindReason(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": expense.ToResponse()})
}

func (h *ExpenseHandler) Pay(c *gin.Context) {
	runTransition(c, "expense_id", "expense", h.expenseService.Pay, renderExpense)
}

func (h *ExpenseHandler) ResetToDraft(c *gin.Context) {
	runTransition(c, "expense_id", "expense", h.expenseService.ResetToDraft, renderExpense)
}

func (h *ExpenseHandler) BillReference(c *gin.Context) {
	runTransition(c, "expense_id", "expense", h.expenseService.CreateBillReference, renderExpense)
}

// @Summary Upload Bill
// @Tags Expenses
// @Accept multipart/form-data
// @Param file formData file true "Scanned bill"
// @Router /expenses/{expense_id}/bill [post]
func (h *ExpenseHandler) UploadBill(c *gin.Context) {
	id, ok := parseID(c, "expense_id")
	if !ok {
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	defer file.Close()

	expense, err := h.expenseService.UploadBill(c.Request.Context(), actorFrom(c), id, file, header)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": expense.ToResponse()})
}

func (h *ExpenseHandler) Bill(c *gin.Context) {
	id, ok := parseID(c, "expense_id")
	if !ok {
		return
	}
	path, err := h.expenseService.BillPath(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.File(path)
}
