package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/rentdesk-api/internal/middleware"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/internal/services"
)

type PropertyHandler struct {
	propertyService *services.PropertyService
}

func NewPropertyHandler(propertyService *services.PropertyService) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService}
}

// @Summary List Properties
// @Tags Properties
// @Router /properties [get]
func (h *PropertyHandler) Index(c *gin.Context) {
	query := listQuery(c, "state", "property_type", "manager_id")
	properties, total, err := h.propertyService.ListProperties(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.PropertyResponse, 0, len(properties))
	for _, p := range properties {
		responses = append(responses, p.Property.ToResponse(p.Stats))
	}
	c.JSON(http.StatusOK, gin.H{"properties": responses, "pagination": pagination(query, total)})
}

// @Summary Get Property
// @Tags Properties
// @Router /properties/{property_id} [get]
func (h *PropertyHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "property_id")
	if !ok {
		return
	}
	p, err := h.propertyService.GetProperty(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"property": p.Property.ToResponse(p.Stats)})
}

// @Summary Create Property
// @Tags Properties
// @Router /properties [post]
func (h *PropertyHandler) Create(c *gin.Context) {
	var property models.Property
	if err := BindNestedOrFlat(c, "property", &property); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	if err := h.propertyService.CreateProperty(c.Request.Context(), actorFrom(c), &property); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"property": property.ToResponse(models.PropertyStats{})})
}

// @Summary Update Property
// @Description Fields missing from the body keep their current value
// @Tags Properties
// @Router /properties/{property_id} [put]
func (h *PropertyHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "property_id")
	if !ok {
		return
	}
	current, err := h.propertyService.FindProperty(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := BindNestedOrFlat(c, "property", current); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	current.ID = id

	property, err := h.propertyService.UpdateProperty(c.Request.Context(), actorFrom(c), current)
	if err != nil {
		respondError(c, err)
		return
	}
	stats, err := h.propertyService.Stats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"property": property.ToResponse(stats)})
}

// @Summary Delete Property
// @Tags Properties
// @Router /properties/{property_id} [delete]
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "property_id")
	if !ok {
		return
	}
	if err := h.propertyService.DeleteProperty(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Property deleted"})
}

type FlatHandler struct {
	propertyService *services.PropertyService
}

func NewFlatHandler(propertyService *services.PropertyService) *FlatHandler {
	return &FlatHandler{propertyService: propertyService}
}

// Index lists the flats of a property with their rooms
func (h *FlatHandler) Index(c *gin.Context) {
	propertyID, ok := parseID(c, "property_id")
	if !ok {
		return
	}
	flats, err := h.propertyService.ListFlats(c.Request.Context(), propertyID)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.FlatResponse, 0, len(flats))
	for i := range flats {
		responses = append(responses, flats[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"flats": responses})
}

func (h *FlatHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "flat_id")
	if !ok {
		return
	}
	flat, err := h.propertyService.FindFlat(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flat": flat.ToResponse()})
}

type CreateFlatRequest struct {
	FlatNumber       string `json:"flat_number"`
	Floor            int    `json:"floor"`
	FlatType         string `json:"flat_type"`
	UnderMaintenance bool   `json:"under_maintenance"`
	RoomCount        int    `json:"room_count"`
	RoomTypeID       *uint  `json:"room_type_id"`
}

// @Summary Create Flat
// @Description Creates a flat and optionally its numbered rooms
// @Tags Properties
// @Router /properties/{property_id}/flats [post]
func (h *FlatHandler) Create(c *gin.Context) {
	propertyID, ok := parseID(c, "property_id")
	if !ok {
		return
	}
	var req CreateFlatRequest
	if err := BindNestedOrFlat(c, "flat", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	if req.RoomCount < 0 || req.RoomCount > 50 {
		badRequest(c, "room_count must be between 0 and 50")
		return
	}

	flat := &models.Flat{
		PropertyID:       propertyID,
		FlatNumber:       req.FlatNumber,
		Floor:            req.Floor,
		FlatType:         req.FlatType,
		UnderMaintenance: req.UnderMaintenance,
	}
	if err := h.propertyService.CreateFlat(c.Request.Context(), actorFrom(c), flat, req.RoomCount, req.RoomTypeID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"flat": flat.ToResponse()})
}

func (h *FlatHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "flat_id")
	if !ok {
		return
	}
	current, err := h.propertyService.FindFlat(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := BindNestedOrFlat(c, "flat", current); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	current.ID = id

	flat, err := h.propertyService.UpdateFlat(c.Request.Context(), actorFrom(c), current)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flat": flat.ToResponse()})
}

func (h *FlatHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "flat_id")
	if !ok {
		return
	}
	if err := h.propertyService.DeleteFlat(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Flat deleted"})
}

type RoomHandler struct {
	propertyService *services.PropertyService
}

func NewRoomHandler(propertyService *services.PropertyService) *RoomHandler {
	return &RoomHandler{propertyService: propertyService}
}

// @Summary List Rooms
// @Tags Rooms
// @Param available query bool false "Only rooms that can be booked"
// @Router /rooms [get]
func (h *RoomHandler) Index(c *gin.Context) {
	query := listQuery(c, "property_id", "flat_id", "status", "available")
	rooms, total, err := h.propertyService.ListRooms(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.RoomResponse, 0, len(rooms))
	for i := range rooms {
		responses = append(responses, rooms[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"rooms": responses, "pagination": pagination(query, total)})
}

func (h *RoomHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "room_id")
	if !ok {
		return
	}
	room, err := h.propertyService.FindRoom(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room.ToResponse()})
}

func (h *RoomHandler) Create(c *gin.Context) {
	var room models.Room
	if err := BindNestedOrFlat(c, "room", &room); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	if err := h.propertyService.CreateRoom(c.Request.Context(), actorFrom(c), &room); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room": room.ToResponse()})
}

func (h *RoomHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "room_id")
	if !ok {
		return
	}
	current, err := h.propertyService.FindRoom(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := BindNestedOrFlat(c, "room", current); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	current.ID = id

	room, err := h.propertyService.UpdateRoom(c.Request.Context(), actorFrom(c), current)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room.ToResponse()})
}

func (h *RoomHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "room_id")
	if !ok {
		return
	}
	if err := h.propertyService.DeleteRoom(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room deleted"})
}

// @Summary Room Status Action
// @Description book, vacate, maintenance or not_available
// @Tags Rooms
// @Router /rooms/{room_id}/actions/{action} [post]
func (h *RoomHandler) Action(c *gin.Context) {
	id, ok := parseID(c, "room_id")
	if !ok {
		return
	}
	room, err := h.propertyService.RoomAction(c.Request.Context(), actorFrom(c), id, c.Param("action"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room.ToResponse()})
}

// ListTypes lists room types
func (h *RoomHandler) ListTypes(c *gin.Context) {
	types, err := h.propertyService.ListRoomTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_types": types})
}

func (h *RoomHandler) CreateType(c *gin.Context) {
	var rt models.RoomType
	if err := BindNestedOrFlat(c, "room_type", &rt); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	if err := h.propertyService.CreateRoomType(c.Request.Context(), actorFrom(c), &rt); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room_type": rt})
}

func (h *RoomHandler) UpdateType(c *gin.Context) {
	id, ok := parseID(c, "room_type_id")
	if !ok {
		return
	}
	var input models.RoomType
	if err := BindNestedOrFlat(c, "room_type", &input); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	input.ID = id
	rt, err := h.propertyService.UpdateRoomType(c.Request.Context(), actorFrom(c), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_type": rt})
}

func (h *RoomHandler) DeleteType(c *gin.Context) {
	id, ok := parseID(c, "room_type_id")
	if !ok {
		return
	}
	if err := h.propertyService.DeleteRoomType(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room type deleted"})
}

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// @Summary List Notifications
// @Description Notifications of the current user
// @Tags Notifications
// @Router /notifications [get]
func (h *NotificationHandler) Index(c *gin.Context) {
	userID := middleware.GetUserID(c)
	query := listQuery(c, "status", "notification_type")

	notifications, total, err := h.notificationService.FindByUser(c.Request.Context(), userID, query)
	if err != nil {
		respondError(c, err)
		return
	}
	unread, err := h.notificationService.CountUnread(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, notifications[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": responses,
		"unread":        unread,
		"pagination":    pagination(query, total),
	})
}

func (h *NotificationHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "notification_id")
	if !ok {
		return
	}
	notification, err := h.notificationService.FindForUser(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": notification.ToResponse()})
}

// @Summary Mark Notification Read
// @Tags Notifications
// @Router /notifications/{notification_id} [patch]
func (h *NotificationHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "notification_id")
	if !ok {
		return
	}
	notification, err := h.notificationService.MarkAsRead(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": notification.ToResponse()})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "notification_id")
	if !ok {
		return
	}
	if err := h.notificationService.Delete(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	if err := h.notificationService.MarkAllAsRead(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// @Summary List Audit Logs
// @Tags Audits
// @Router /audits [get]
func (h *AuditHandler) Index(c *gin.Context) {
	query := listQuery(c, "user_id", "entity", "action")
	logs, total, err := h.auditService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audits": logs, "pagination": pagination(query, total)})
}

// @Summary Change Log
// @Description Field-level history of one record
// @Tags Audits
// @Router /change_logs/{entity}/{entity_id} [get]
func (h *AuditHandler) ChangeLog(c *gin.Context) {
	id, ok := parseID(c, "entity_id")
	if !ok {
		return
	}
	changes, err := h.auditService.ChangeLog(c.Request.Context(), c.Param("entity"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"change_logs": changes})
}

type ActivityHandler struct {
	activityService *services.ActivityService
}

func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// Index lists every activity; Mine only the caller's
func (h *ActivityHandler) Index(c *gin.Context) {
	query := listQuery(c, "user_id", "kind", "entity", "entity_id", "done")
	activities, total, err := h.activityService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondList(c, activities, query, total)
}

func (h *ActivityHandler) Mine(c *gin.Context) {
	query := listQuery(c, "kind", "entity", "done")
	activities, total, err := h.activityService.ListMine(c.Request.Context(), actorFrom(c), query)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondList(c, activities, query, total)
}

func (h *ActivityHandler) respondList(c *gin.Context, activities []models.Activity, query *repository.ListQuery, total int64) {
	responses := make([]models.ActivityResponse, 0, len(activities))
	for i := range activities {
		responses = append(responses, activities[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"activities": responses, "pagination": pagination(query, total)})
}

type CreateActivityRequest struct {
	Entity   string `json:"entity" binding:"required"`
	EntityID uint   `json:"entity_id" binding:"required"`
	Kind     string `json:"kind"`
	Summary  string `json:"summary" binding:"required"`
	Note     string `json:"note"`
	UserID   *uint  `json:"user_id"`
	DueDate  string `json:"due_date"`
}

func (h *ActivityHandler) Create(c *gin.Context) {
	var req CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "entity, entity_id and summary are required")
		return
	}
	due, err := optionalDate("due_date", req.DueDate)
	if err != nil {
		respondError(c, err)
		return
	}
	activity, err := h.activityService.Create(c.Request.Context(), actorFrom(c), services.FollowUp{
		Entity:   req.Entity,
		EntityID: req.EntityID,
		Kind:     req.Kind,
		Summary:  req.Summary,
		Note:     req.Note,
		UserID:   req.UserID,
		DueDate:  due,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"activity": activity.ToResponse()})
}

// @Summary Mark Activity Done
// @Tags Activities
// @Router /activities/{activity_id}/done [post]
func (h *ActivityHandler) Done(c *gin.Context) {
	id, ok := parseID(c, "activity_id")
	if !ok {
		return
	}
	activity, err := h.activityService.MarkDone(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": activity.ToResponse()})
}
