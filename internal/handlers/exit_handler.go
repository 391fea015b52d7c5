package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/services"
)

type ExitHandler struct {
	exitService *services.ExitService
}

func NewExitHandler(exitService *services.ExitService) *ExitHandler {
	return &ExitHandler{exitService: exitService}
}

// ExitRequest opens an exit. Refund and pending dues are computed, not sent.
type ExitRequest struct {
	AgreementID        uint            `json:"agreement_id" binding:"required"`
	NoticeDate         string          `json:"notice_date"`
	ExitDate           string          `json:"exit_date"`
	ExitReason         string          `json:"exit_reason"`
	ExitType           string          `json:"exit_type"`
	DamagesDeduction   decimal.Decimal `json:"damages_deduction"`
	DamagesDescription *string         `json:"damages_description"`
	Notes              *string         `json:"notes"`
}

func (r ExitRequest) toModel() (*models.TenantExit, error) {
	e := &models.TenantExit{
		AgreementID:        r.AgreementID,
		ExitReason:         r.ExitReason,
		ExitType:           r.ExitType,
		DamagesDeduction:   r.DamagesDeduction,
		DamagesDescription: r.DamagesDescription,
		Notes:              r.Notes,
	}
	var err error
	if e.NoticeDate, err = optionalDate("notice_date", r.NoticeDate); err != nil {
		return nil, err
	}
	if r.ExitDate != "" {
		if e.ExitDate, err = parseDateField("exit_date", r.ExitDate); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func renderExit(e *models.TenantExit) any { return e.ToResponse() }

func (h *ExitHandler) Index(c *gin.Context) {
	query := listQuery(c, "status", "exit_reason", "exit_type", "tenant_id", "agreement_id")
	exits, total, err := h.exitService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.TenantExitResponse, 0, len(exits))
	for i := range exits {
		responses = append(responses, exits[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"exits": responses, "pagination": pagination(query, total)})
}

func (h *ExitHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "exit_id")
	if !ok {
		return
	}
	exit, err := h.exitService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exit": exit.ToResponse()})
}

// @Summary Prefill Exit
// @Description Unsaved exit for the agreement with deposits held and dues outstanding
// @Tags Exits
// @Param agreement_id query int true "Agreement ID"
// @Router /exits/new [get]
func (h *ExitHandler) New(c *gin.Context) {
	agreementID, err := strconv.ParseUint(c.Query("agreement_id"), 10, 32)
	if err != nil || agreementID == 0 {
		badRequest(c, "agreement_id is required")
		return
	}
	exit, err := h.exitService.Prefill(c.Request.Context(), uint(agreementID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exit": exit.ToResponse()})
}

func (h *ExitHandler) Create(c *gin.Context) {
	var req ExitRequest
	if err := BindNestedOrFlat(c, "exit", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	input, err := req.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	exit, err := h.exitService.Create(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"exit": exit.ToResponse()})
}

func (h *ExitHandler) Start(c *gin.Context) {
	runTransition(c, "exit_id", "exit", h.exitService.Start, renderExit)
}

// @Summary Complete Exit
// @Description Settles the deposits, ends the agreement and frees the room
// @Tags Exits
// @Router /exits/{exit_id}/complete [post]
func (h *ExitHandler) Complete(c *gin.Context) {
	runTransition(c, "exit_id", "exit", h.exitService.Complete, renderExit)
}

func (h *ExitHandler) Archive(c *gin.Context) {
	runTransition(c, "exit_id", "exit", h.exitService.Archive, renderExit)
}

func (h *ExitHandler) Deposits(c *gin.Context) {
	query := listQuery(c, "status", "tenant_id", "agreement_id")
	deposits, total, err := h.exitService.ListDeposits(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.DepositResponse, 0, len(deposits))
	for i := range deposits {
		responses = append(responses, deposits[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"deposits": responses, "pagination": pagination(query, total)})
}
