package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/services"
)

type CollectionHandler struct {
	collectionService *services.CollectionService
	exportService     *services.ExportService
}

func NewCollectionHandler(collectionService *services.CollectionService, exportService *services.ExportService) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService, exportService: exportService}
}

// CollectionRequest records money received from a tenant; dates are YYYY-MM-DD
type CollectionRequest struct {
	TenantID        uint            `json:"tenant_id"`
	RoomID          uint            `json:"room_id"`
	AgreementID     *uint           `json:"agreement_id"`
	InvoiceID       *uint           `json:"invoice_id"`
	CollectionType  string          `json:"collection_type"`
	Date            string          `json:"date"`
	DueDate         string          `json:"due_date"`
	PeriodFrom      string          `json:"period_from"`
	PeriodTo        string          `json:"period_to"`
	AmountCollected decimal.Decimal `json:"amount_collected"`
	LateFee         decimal.Decimal `json:"late_fee"`
	PaymentMethod   string          `json:"payment_method"`
	ReferenceNumber *string         `json:"reference_number"`
	Notes           *string         `json:"notes"`
}

func newCollectionRequest(col *models.Collection) CollectionRequest {
	return CollectionRequest{
		TenantID:        col.TenantID,
		RoomID:          col.RoomID,
		AgreementID:     col.AgreementID,
		InvoiceID:       col.InvoiceID,
		CollectionType:  col.CollectionType,
		Date:            formatDate(col.Date),
		DueDate:         formatOptionalDate(col.DueDate),
		PeriodFrom:      formatOptionalDate(col.PeriodFrom),
		PeriodTo:        formatOptionalDate(col.PeriodTo),
		AmountCollected: col.AmountCollected,
		LateFee:         col.LateFee,
		PaymentMethod:   col.PaymentMethod,
		ReferenceNumber: col.ReferenceNumber,
		Notes:           col.Notes,
	}
}

func (r CollectionRequest) toModel() (*models.Collection, error) {
	col := &models.Collection{
		TenantID:        r.TenantID,
		RoomID:          r.RoomID,
		AgreementID:     r.AgreementID,
		InvoiceID:       r.InvoiceID,
		CollectionType:  r.CollectionType,
		AmountCollected: r.AmountCollected,
		LateFee:         r.LateFee,
		PaymentMethod:   r.PaymentMethod,
		ReferenceNumber: r.ReferenceNumber,
		Notes:           r.Notes,
	}
	var err error
	if r.Date != "" {
		if col.Date, err = parseDateField("date", r.Date); err != nil {
			return nil, err
		}
	}
	if col.DueDate, err = optionalDate("due_date", r.DueDate); err != nil {
		return nil, err
	}
	if col.PeriodFrom, err = optionalDate("period_from", r.PeriodFrom); err != nil {
		return nil, err
	}
	if col.PeriodTo, err = optionalDate("period_to", r.PeriodTo); err != nil {
		return nil, err
	}
	return col, nil
}

func renderCollection(col *models.Collection) any { return col.ToResponse() }

var collectionFilters = []string{"status", "collection_type", "tenant_id", "property_id", "agreement_id", "from", "to"}

// @Summary List Collections
// @Tags Collections
// @Param from query string false "Collected on or after, YYYY-MM-DD"
// @Param to query string false "Collected on or before, YYYY-MM-DD"
// @Router /collections [get]
func (h *CollectionHandler) Index(c *gin.Context) {
	query := listQuery(c, collectionFilters...)
	collections, total, err := h.collectionService.List(c.Request.Context(), query)
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

// @Summary Export Collections
// @Description Spreadsheet of the collections matching the list filters
// @Tags Collections
// @Router /collections/export [get]
func (h *CollectionHandler) Export(c *gin.Context) {
	query := listQuery(c, collectionFilters...)
	data, filename, err := h.exportService.CollectionsXLSX(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, data, filename, contentTypeXLSX)
}

func (h *CollectionHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "collection_id")
	if !ok {
		return
	}
	collection, err := h.collectionService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collection": collection.ToResponse()})
}

func (h *CollectionHandler) Create(c *gin.Context) {
	var req CollectionRequest
	if err := BindNestedOrFlat(c, "collection", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	collection, err := req.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.collectionService.Create(c.Request.Context(), actorFrom(c), collection); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"collection": collection.ToResponse()})
}

func (h *CollectionHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "collection_id")
	if !ok {
		return
	}
	current, err := h.collectionService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	req := newCollectionRequest(current)
	if err := BindNestedOrFlat(c, "collection", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	input, err := req.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	input.ID = id

	collection, err := h.collectionService.Update(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collection": collection.ToResponse()})
}

func (h *CollectionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "collection_id")
	if !ok {
		return
	}
	if err := h.collectionService.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Collection deleted"})
}

// @Summary Collect
// @Description Marks the money as received and assigns the receipt number
// @Tags Collections
// @Router /collections/{collection_id}/collect [post]
func (h *CollectionHandler) Collect(c *gin.Context) {
	runTransition(c, "collection_id", "collection", h.collectionService.Collect, renderCollection)
}

func (h *CollectionHandler) Verify(c *gin.Context) {
	runTransition(c, "collection_id", "collection", h.collectionService.Verify, renderCollection)
}

func (h *CollectionHandler) Deposit(c *gin.Context) {
	runTransition(c, "collection_id", "collection", h.collectionService.Deposit, renderCollection)
}

func (h *CollectionHandler) Cancel(c *gin.Context) {
	runTransition(c, "collection_id", "collection", h.collectionService.Cancel, renderCollection)
}
