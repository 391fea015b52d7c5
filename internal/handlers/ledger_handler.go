package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/services"
)

// LedgerHandler serves landlord payments, staff salaries and bank transfers
type LedgerHandler struct {
	ledgerService *services.LedgerService
}

func NewLedgerHandler(ledgerService *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

type LandlordPaymentRequest struct {
	Name          string          `json:"name"`
	LandlordID    uint            `json:"landlord_id" binding:"required"`
	PropertyID    uint            `json:"property_id" binding:"required"`
	PaymentDate   string          `json:"payment_date"`
	Amount        decimal.Decimal `json:"amount"`
	PeriodFrom    string          `json:"period_from"`
	PeriodTo      string          `json:"period_to"`
	PaymentMethod string          `json:"payment_method"`
	Notes         *string         `json:"notes"`
}

func (r LandlordPaymentRequest) toModel() (*models.LandlordPayment, error) {
	p := &models.LandlordPayment{
		Name:          r.Name,
		LandlordID:    r.LandlordID,
		PropertyID:    r.PropertyID,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		Notes:         r.Notes,
	}
	var err error
	if r.PaymentDate != "" {
		if p.PaymentDate, err = parseDateField("payment_date", r.PaymentDate); err != nil {
			return nil, err
		}
	}
	if p.PeriodFrom, err = optionalDate("period_from", r.PeriodFrom); err != nil {
		return nil, err
	}
	if p.PeriodTo, err = optionalDate("period_to", r.PeriodTo); err != nil {
		return nil, err
	}
	return p, nil
}

type StaffSalaryRequest struct {
	Name        string          `json:"name"`
	EmployeeID  uint            `json:"employee_id" binding:"required"`
	PropertyID  *uint           `json:"property_id"`
	PeriodFrom  string          `json:"period_from" binding:"required"`
	PeriodTo    string          `json:"period_to" binding:"required"`
	BasicSalary decimal.Decimal `json:"basic_salary"`
	Commission  decimal.Decimal `json:"commission"`
	Bonus       decimal.Decimal `json:"bonus"`
}

func (r StaffSalaryRequest) toModel() (*models.StaffSalary, error) {
	s := &models.StaffSalary{
		Name:        r.Name,
		EmployeeID:  r.EmployeeID,
		PropertyID:  r.PropertyID,
		BasicSalary: r.BasicSalary,
		Commission:  r.Commission,
		Bonus:       r.Bonus,
	}
	var err error
	if s.PeriodFrom, err = parseDateField("period_from", r.PeriodFrom); err != nil {
		return nil, err
	}
	if s.PeriodTo, err = parseDateField("period_to", r.PeriodTo); err != nil {
		return nil, err
	}
	return s, nil
}

type BankTransferRequest struct {
	Name          string          `json:"name"`
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	TenantID      *uint           `json:"tenant_id"`
	CollectionID  *uint           `json:"collection_id"`
	BankName      string          `json:"bank_name"`
	AccountNumber string          `json:"account_number"`
	TransactionID *string         `json:"transaction_id"`
}

func (r BankTransferRequest) toModel() (*models.BankTransfer, error) {
	t := &models.BankTransfer{
		Name:          r.Name,
		Amount:        r.Amount,
		TenantID:      r.TenantID,
		CollectionID:  r.CollectionID,
		BankName:      r.BankName,
		AccountNumber: r.AccountNumber,
		TransactionID: r.TransactionID,
	}
	if r.Date != "" {
		d, err := parseDateField("date", r.Date)
		if err != nil {
			return nil, err
		}
		t.Date = d
	}
	return t, nil
}

func renderLandlordPayment(p *models.LandlordPayment) any { return p.ToResponse() }
func renderStaffSalary(s *models.StaffSalary) any         { return s.ToResponse() }
func renderBankTransfer(t *models.BankTransfer) any       { return t.ToResponse() }

// @Summary List Landlord Payments
// @Tags Ledger
// @Param status query string false "draft, paid or cancelled"
// @Router /landlord_payments [get]
func (h *LedgerHandler) LandlordPayments(c *gin.Context) {
	query := listQuery(c, "status", "landlord_id", "property_id", "from", "to")
	payments, total, err := h.ledgerService.ListLandlordPayments(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.LandlordPaymentResponse, 0, len(payments))
	for i := range payments {
		responses = append(responses, payments[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"landlord_payments": responses, "pagination": pagination(query, total)})
}

func (h *LedgerHandler) ShowLandlordPayment(c *gin.Context) {
	id, ok := parseID(c, "landlord_payment_id")
	if !ok {
		return
	}
	payment, err := h.ledgerService.FindLandlordPayment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"landlord_payment": payment.ToResponse()})
}

// @Summary Create Landlord Payment
// @Tags Ledger
// @Router /landlord_payments [post]
func (h *LedgerHandler) CreateLandlordPayment(c *gin.Context) {
	var req LandlordPaymentRequest
	if err := BindNestedOrFlat(c, "landlord_payment", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	payment, err := req.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.ledgerService.CreateLandlordPayment(c.Request.Context(), actorFrom(c), payment); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"landlord_payment": payment.ToResponse()})
}

func (h *LedgerHandler) PayLandlordPayment(c *gin.Context) {
	runTransition(c, "landlord_payment_id", "landlord_payment", h.ledgerService.PayLandlordPayment, renderLandlordPayment)
}

func (h *LedgerHandler) CancelLandlordPayment(c *gin.Context) {
	runTransition(c, "landlord_payment_id", "landlord_payment", h.ledgerService.CancelLandlordPayment, renderLandlordPayment)
}

func (h *LedgerHandler) DeleteLandlordPayment(c *gin.Context) {
	id, ok := parseID(c, "landlord_payment_id")
	if !ok {
		return
	}
	if err := h.ledgerService.DeleteLandlordPayment(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Landlord payment deleted"})
}

// @Summary List Staff Salaries
// @Tags Ledger
// @Param status query string false "draft, approved or paid"
// @Router /staff_salaries [get]
func (h *LedgerHandler) StaffSalaries(c *gin.Context) {
	query := listQuery(c, "status", "employee_id", "property_id", "from", "to")
	salaries, total, err := h.ledgerService.ListStaffSalaries(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.StaffSalaryResponse, 0, len(salaries))
	for i := range salaries {
		responses = append(responses, salaries[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"staff_salaries": responses, "pagination": pagination(query, total)})
}

func (h *LedgerHandler) ShowStaffSalary(c *gin.Context) {
	id, ok := parseID(c, "staff_salary_id")
	if !ok {
		return
	}
	salary, err := h.ledgerService.FindStaffSalary(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff_salary": salary.ToResponse()})
}

// @Summary Create Staff Salary
// @Description Periods of one employee must not overlap
// @Tags Ledger
// @Router /staff_salaries [post]
func (h *LedgerHandler) CreateStaffSalary(c *gin.Context) {
	var req StaffSalaryRequest
	if err := BindNestedOrFlat(c, "staff_salary", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	salary, err := req.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.ledgerService.CreateStaffSalary(c.Request.Context(), actorFrom(c), salary); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"staff_salary": salary.ToResponse()})
}

func (h *LedgerHandler) ApproveStaffSalary(c *gin.Context) {
	runTransition(c, "staff_salary_id", "staff_salary", h.ledgerService.ApproveStaffSalary, renderStaffSalary)
}

func (h *LedgerHandler) PayStaffSalary(c *gin.Context) {
	runTransition(c, "staff_salary_id", "staff_salary", h.ledgerService.PayStaffSalary, renderStaffSalary)
}

func (h *LedgerHandler) DeleteStaffSalary(c *gin.Context) {
	id, ok := parseID(c, "staff_salary_id")
	if !ok {
		return
	}
	if err := h.ledgerService.DeleteStaffSalary(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Salary deleted"})
}

// @Summary List Bank Transfers
// @Tags Ledger
// @Param status query string false "pending, verified or reconciled"
// @Router /bank_transfers [get]
func (h *LedgerHandler) BankTransfers(c *gin.Context) {
	query := listQuery(c, "status", "tenant_id", "collection_id", "from", "to")
	transfers, total, err := h.ledgerService.ListBankTransfers(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.BankTransferResponse, 0, len(transfers))
	for i := range transfers {
		responses = append(responses, transfers[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"bank_transfers": responses, "pagination": pagination(query, total)})
}

func (h *LedgerHandler) ShowBankTransfer(c *gin.Context) {
	id, ok := parseID(c, "bank_transfer_id")
	if !ok {
		return
	}
	transfer, err := h.ledgerService.FindBankTransfer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bank_transfer": transfer.ToResponse()})
}

// @Summary Create Bank Transfer
// @Tags Ledger
// @Router /bank_transfers [post]
func (h *LedgerHandler) CreateBankTransfer(c *gin.Context) {
	var req BankTransferRequest
	if err := BindNestedOrFlat(c, "bank_transfer", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	transfer, err := req.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.ledgerService.CreateBankTransfer(c.Request.Context(), actorFrom(c), transfer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bank_transfer": transfer.ToResponse()})
}

func (h *LedgerHandler) VerifyBankTransfer(c *gin.Context) {
	runTransition(c, "bank_transfer_id", "bank_transfer", h.ledgerService.VerifyBankTransfer, renderBankTransfer)
}

// @Summary Reconcile Bank Transfer
// @Description Needs a received collection of the same amount
// @Tags Ledger
// @Router /bank_transfers/{bank_transfer_id}/reconcile [post]
func (h *LedgerHandler) ReconcileBankTransfer(c *gin.Context) {
	runTransition(c, "bank_transfer_id", "bank_transfer", h.ledgerService.ReconcileBankTransfer, renderBankTransfer)
}

func (h *LedgerHandler) DeleteBankTransfer(c *gin.Context) {
	id, ok := parseID(c, "bank_transfer_id")
	if !ok {
		return
	}
	if err := h.ledgerService.DeleteBankTransfer(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bank transfer deleted"})
}
