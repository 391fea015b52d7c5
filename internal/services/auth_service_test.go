package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sjperalta/rentdesk-api/internal/config"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockUserRepo struct {
	repository.UserRepository
	mockFindByEmail func(ctx context.Context, email string) (*models.User, error)
	mockFindByID    func(ctx context.Context, id uint) (*models.User, error)
	touchedID       uint
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.mockFindByEmail(ctx, email)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockUserRepo) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	m.touchedID = id
	return nil
}

type mockRTRepo struct {
	repository.RefreshTokenRepository
	mockFindByToken func(ctx context.Context, token string) (*models.RefreshToken, error)
	mockDelete      func(ctx context.Context, token string) error
	created         []*models.RefreshToken
}

func (m *mockRTRepo) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return m.mockFindByToken(ctx, token)
}

func (m *mockRTRepo) Create(ctx context.Context, rt *models.RefreshToken) error {
	m.created = append(m.created, rt)
	return nil
}

func (m *mockRTRepo) Delete(ctx context.Context, token string) error {
	if m.mockDelete != nil {
		return m.mockDelete(ctx, token)
	}
	return nil
}

func testAuthConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 1}
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	tenantID := uint(7)
	return &models.User{
		ID:                3,
		Email:             "portal@example.com",
		EncryptedPassword: hash,
		Role:              models.RoleTenant,
		Status:            models.StatusActive,
		TenantID:          &tenantID,
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	user := activeUser(t, "s3cret!")
	users := &mockUserRepo{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
	}
	tokens := &mockRTRepo{}
	service := NewAuthService(users, tokens, testAuthConfig())

	result, err := service.Login(context.Background(), " portal@example.com ", "s3cret!")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, user.ID, users.touchedID)
	require.Len(t, tokens.created, 1)
	assert.Equal(t, user.ID, tokens.created[0].UserID)

	parsed, err := jwt.Parse(result.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, models.RoleTenant, claims["role"])
	assert.EqualValues(t, 7, claims["tenant_id"])
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	user := activeUser(t, "s3cret!")
	users := &mockUserRepo{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) { return user, nil },
	}
	service := NewAuthService(users, &mockRTRepo{}, testAuthConfig())

	result, err := service.Login(context.Background(), user.Email, "nope")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	users := &mockUserRepo{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	service := NewAuthService(users, nil, testAuthConfig())

	_, err := service.Login(context.Background(), "ghost@example.com", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	mockRepo := &mockUserRepo{}
	service := NewAuthService(mockRepo, nil, nil)

	mockRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{
			Email:  email,
			Status: models.StatusInactive,
		}, nil
	}

	result, err := service.Login(context.Background(), "inactive@example.com", "password")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestAuthService_RefreshToken_InactiveUser(t *testing.T) {
	mockRepo := &mockUserRepo{}
	tokens := &mockRTRepo{}
	service := NewAuthService(mockRepo, tokens, nil)

	tokens.mockFindByToken = func(ctx context.Context, token string) (*models.RefreshToken, error) {
		return &models.RefreshToken{UserID: 1}, nil
	}
	mockRepo.mockFindByID = func(ctx context.Context, id uint) (*models.User, error) {
		return &models.User{
			ID:     id,
			Status: models.StatusInactive,
		}, nil
	}

	result, err := service.RefreshToken(context.Background(), "token")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestAuthService_RefreshToken_Expired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	deleted := ""
	tokens := &mockRTRepo{
		mockFindByToken: func(ctx context.Context, token string) (*models.RefreshToken, error) {
			return &models.RefreshToken{UserID: 1, ExpiresAt: &past}, nil
		},
		mockDelete: func(ctx context.Context, token string) error {
			deleted = token
			return nil
		},
	}
	service := NewAuthService(&mockUserRepo{}, tokens, testAuthConfig())

	_, err := service.RefreshToken(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, "stale", deleted)
}

func TestAuthService_RefreshToken_Rotates(t *testing.T) {
	user := activeUser(t, "pw")
	future := time.Now().Add(time.Hour)
	tokens := &mockRTRepo{
		mockFindByToken: func(ctx context.Context, token string) (*models.RefreshToken, error) {
			if token != "good" {
				return nil, errors.New("not found")
			}
			return &models.RefreshToken{UserID: user.ID, ExpiresAt: &future}, nil
		},
	}
	users := &mockUserRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.User, error) { return user, nil },
	}
	service := NewAuthService(users, tokens, testAuthConfig())

	result, err := service.RefreshToken(context.Background(), "good")
	require.NoError(t, err)
	assert.NotEqual(t, "good", result.RefreshToken)
	assert.Len(t, tokens.created, 1)

	_, err = service.RefreshToken(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
