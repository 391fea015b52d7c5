package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/rentdesk-api/internal/middleware"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// @Summary List Users
// @Tags Users
// @Param role query string false "Filter by role"
// @Param status query string false "Filter by status, all for every status"
// @Router /users [get]
func (h *UserHandler) Index(c *gin.Context) {
	query := listQuery(c, "role")

	status := c.Query("status")
	if status == "" {
		status = models.StatusActive
	} else if status == "all" {
		status = ""
	}
	query.Filters["status"] = status

	users, total, err := h.userService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      responses,
		"pagination": pagination(query, total),
	})
}

// @Summary Get User
// @Tags Users
// @Router /users/{user_id} [get]
func (h *UserHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	user, err := h.userService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

// Me returns the authenticated user
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.FindByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	TenantID *uint  `json:"tenant_id"`
}

// @Summary Create User
// @Description Staff account or tenant portal login. Without a password a temporary one is emailed.
// @Tags Users
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := BindNestedOrFlat(c, "user", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	user := &models.User{
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     req.Role,
		TenantID: req.TenantID,
	}
	if err := h.userService.Create(c.Request.Context(), actorFrom(c), user, req.Password); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user.ToResponse(), "message": "User created"})
}

type UpdateUserRequest struct {
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Role     string  `json:"role"`
	TenantID *uint   `json:"tenant_id"`
}

// @Summary Update User
// @Tags Users
// @Router /users/{user_id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	current, err := h.userService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	var req UpdateUserRequest
	if err := BindNestedOrFlat(c, "user", &req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}

	input := &models.User{
		ID:       id,
		Email:    req.Email,
		FullName: current.FullName,
		Phone:    current.Phone,
		Role:     req.Role,
		TenantID: req.TenantID,
	}
	if req.FullName != nil {
		input.FullName = *req.FullName
	}
	if req.Phone != nil {
		input.Phone = *req.Phone
	}

	user, err := h.userService.Update(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse(), "message": "User updated"})
}

// @Summary Delete User
// @Tags Users
// @Router /users/{user_id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	if err := h.userService.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// @Summary Restore User
// @Tags Users
// @Router /users/{user_id}/restore [post]
func (h *UserHandler) Restore(c *gin.Context) {
	id, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	if err := h.userService.Restore(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User restored"})
}

// @Summary Toggle User Status
// @Tags Users
// @Router /users/{user_id}/toggle_status [put]
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	id, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	user, err := h.userService.ToggleStatus(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse(), "message": "Status updated"})
}

// @Summary Reset Password
// @Description Emails a new temporary password to the user
// @Tags Users
// @Router /users/{user_id}/reset_password [post]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	if err := h.userService.ResetPassword(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "A temporary password was sent to the user"})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// @Summary Change Password
// @Description Changes the authenticated user's own password
// @Tags Users
// @Router /me/password [patch]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "current_password and new_password are required")
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), actorFrom(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
