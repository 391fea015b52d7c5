package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/services"
)

type TenantHandler struct {
	tenantService *services.TenantService
}

func NewTenantHandler(tenantService *services.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// TenantRequest is the writable part of a tenant; id_expiry is YYYY-MM-DD
type TenantRequest struct {
	ContactID             uint            `json:"contact_id"`
	Name                  string          `json:"name"`
	Mobile                string          `json:"mobile"`
	Email                 string          `json:"email"`
	IDType                string          `json:"id_type"`
	IDNumber              *string         `json:"id_number"`
	IDExpiry              string          `json:"id_expiry"`
	Nationality           string          `json:"nationality"`
	Company               string          `json:"company"`
	Occupation            string          `json:"occupation"`
	MonthlyIncome         decimal.Decimal `json:"monthly_income"`
	EmergencyContactName  string          `json:"emergency_contact_name"`
	EmergencyContactPhone string          `json:"emergency_contact_phone"`
	PaymentMethod         string          `json:"payment_method"`
	Notes                 *string         `json:"notes"`
}

func newTenantRequest(t *models.Tenant) TenantRequest {
	return TenantRequest{
		ContactID:             t.ContactID,
		Name:                  t.Name,
		Mobile:                t.Mobile,
		Email:                 t.Email,
		IDType:                t.IDType,
		IDNumber:              t.IDNumber,
		IDExpiry:              formatOptionalDate(t.IDExpiry),
		Nationality:           t.Nationality,
		Company:               t.Company,
		Occupation:            t.Occupation,
		MonthlyIncome:         t.MonthlyIncome,
		EmergencyContactName:  t.EmergencyContactName,
		EmergencyContactPhone: t.EmergencyContactPhone,
		PaymentMethod:         t.PaymentMethod,
		Notes:                 t.Notes,
	}
}

func (r TenantRequest) toModel() (*models.Tenant, error) {
	expiry, err := optionalDate("id_expiry", r.IDExpiry)
	if err != nil {
		return nil, err
	}
	return &models.Tenant{
		ContactID:             r.ContactID,
		Name:                  r.Name,
		Mobile:                r.Mobile,
		Email:                 r.Email,
		IDType:                r.IDType,
		IDNumber:              r.IDNumber,
		IDExpiry:              expiry,
		Nationality:           r.Nationality,
		Company:               r.Company,
		Occupation:            r.Occupation,
		MonthlyIncome:         r.MonthlyIncome,
		EmergencyContactName:  r.EmergencyContactName,
		EmergencyContactPhone: r.EmergencyContactPhone,
		PaymentMethod:         r.PaymentMethod,
		Notes:                 r.Notes,
	}, nil
}

// @Summary List Tenants
// @Tags Tenants
// @Router /tenants [get]
func (h *TenantHandler) Index(c *gin.Context) {
	query := listQuery(c, "status", "nationality")
	tenants, total, err := h.tenantService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.TenantResponse, 0, len(tenants))
	for i := range tenants {
		responses = append(responses, tenants[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"tenants": responses, "pagination": pagination(query, total)})
}

// @Summary Get Tenant
// @Description Tenant with agreement and payment figures
// @Tags Tenants
// @Router /tenants/{tenant_id} [get]
func (h *TenantHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "tenant_id")
	if !ok {
		return
	}
	tenant, err := h.tenantService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	stats, err := h.tenantService.Stats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant": tenant.ToResponse(), "stats": stats})
}

func (h *TenantHandler) Create(c *gin.Context) {
	var req TenantRequest
	if err := BindNestedOrFlat(c, "tenant", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	tenant, err := req.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.tenantService.Create(c.Request.Context(), actorFrom(c), tenant); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tenant": tenant.ToResponse()})
}

// @Summary Update Tenant
// @Description Name, mobile and email are copied to the linked contact
// @Tags Tenants
// @Router /tenants/{tenant_id} [put]
func (h *TenantHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "tenant_id")
	if !ok {
		return
	}
	current, err := h.tenantService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	req := newTenantRequest(current)
	if err := BindNestedOrFlat(c, "tenant", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	input, err := req.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	input.ID = id

	tenant, err := h.tenantService.Update(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant": tenant.ToResponse()})
}

func (h *TenantHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "tenant_id")
	if !ok {
		return
	}
	if err := h.tenantService.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tenant deleted"})
}

// @Summary Tenant Status Action
// @Description blacklist, deactivate or reactivate, with an optional reason
// @Tags Tenants
// @Router /tenants/{tenant_id}/status/{action} [post]
func (h *TenantHandler) ChangeStatus(c *gin.Context) {
	id, ok := parseID(c, "tenant_id")
	if !ok {
		return
	}
	tenant, err := h.tenantService.ChangeStatus(c.Request.Context(), actorFrom(c), id, c.Param("action"), bindReason(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant": tenant.ToResponse()})
}

// @Summary Upload Tenant Document
// @Tags Tenants
// @Accept multipart/form-data
// @Router /tenants/{tenant_id}/documents [post]
func (h *TenantHandler) UploadDocument(c *gin.Context) {
	h.upload(c, h.tenantService.UploadDocument)
}

// @Summary Upload Tenant Photo
// @Tags Tenants
// @Accept multipart/form-data
// @Router /tenants/{tenant_id}/photo [post]
func (h *TenantHandler) UploadPhoto(c *gin.Context) {
	h.upload(c, h.tenantService.UploadPhoto)
}

func (h *TenantHandler) upload(c *gin.Context, store uploadFunc[models.Tenant]) {
	id, ok := parseID(c, "tenant_id")
	if !ok {
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	defer file.Close()

	tenant, err := store(c.Request.Context(), actorFrom(c), id, file, header)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant": tenant.ToResponse()})
}

// @Summary Download Tenant File
// @Description kind is document, photo or thumbnail
// @Tags Tenants
// @Router /tenants/{tenant_id}/files/{kind} [get]
func (h *TenantHandler) File(c *gin.Context) {
	id, ok := parseID(c, "tenant_id")
	if !ok {
		return
	}
	path, err := h.tenantService.FilePath(c.Request.Context(), id, c.Param("kind"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.File(path)
}
