package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockUserRepo struct {
	repository.UserRepository
	mockList     func(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error)
	mockFindByID func(ctx context.Context, id uint) (*models.User, error)
}

func (m *mockUserRepo) List(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
	return m.mockList(ctx, query)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return m.mockFindByID(ctx, id)
}

func newUserHandler(repo repository.UserRepository) *UserHandler {
	return NewUserHandler(services.NewUserService(&repository.Repositories{User: repo}, nil, nil, nil))
}

func TestUserHandler_Index_DefaultStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockRepo := &mockUserRepo{}
	handler := newUserHandler(mockRepo)

	var captured *repository.ListQuery
	mockRepo.mockList = func(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
		captured = query
		return []models.User{{ID: 1, Email: "ana@example.com", Role: models.RoleManager, Status: models.StatusActive}}, 1, nil
	}

	// No status -> active only
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/users", nil)
	handler.Index(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusActive, captured.Filters["status"])

	// status=all -> no status filter
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/users?status=all&role=manager&page=2&per_page=5", nil)
	handler.Index(c)
	assert.Equal(t, "", captured.Filters["status"])
	assert.Equal(t, models.RoleManager, captured.Filters["role"])
	assert.Equal(t, 2, captured.Page)
	assert.Equal(t, 5, captured.PerPage)

	var body struct {
		Users      []models.UserResponse `json:"users"`
		Pagination map[string]any        `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Users, 1)
	assert.Equal(t, "ana@example.com", body.Users[0].Email)
	assert.EqualValues(t, 1, body.Pagination["total"])
}

func TestUserHandler_Show(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockRepo := &mockUserRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.User, error) {
			if id == 7 {
				return &models.User{ID: 7, Email: "staff@example.com", Role: models.RoleAccountant}, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
	handler := newUserHandler(mockRepo)

	tests := []struct {
		name   string
		param  string
		status int
	}{
		{"found", "7", http.StatusOK},
		{"missing", "8", http.StatusNotFound},
		{"not a number", "abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest("GET", "/users/"+tt.param, nil)
			c.Params = gin.Params{{Key: "user_id", Value: tt.param}}
			handler.Show(c)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestUserHandler_Create_RequiresEmailAndName(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := newUserHandler(&mockUserRepo{})

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"missing name", map[string]any{"email": "new@example.com"}},
		{"bad email", map[string]any{"email": "not-an-email", "full_name": "New User"}},
		{"nested missing email", map[string]any{"user": map[string]any{"full_name": "New User"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			payload, _ := json.Marshal(tt.payload)
			c.Request, _ = http.NewRequest("POST", "/users", bytes.NewBuffer(payload))
			c.Request.Header.Set("Content-Type", "application/json")
			handler.Create(c)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
