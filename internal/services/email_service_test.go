package services

import (
	"testing"

	"github.com/sjperalta/rentdesk-api/internal/config"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailService_checkEmailPreconditions(t *testing.T) {
	logger.Setup("test", "error")

	// email switched off entirely
	service := NewEmailService(&config.Config{})
	ok, err := service.checkEmailPreconditions("test@example.com", "test operation")
	assert.False(t, ok)
	assert.NoError(t, err)

	// configured and valid
	service = NewEmailService(&config.Config{ResendAPIKey: "test_key", FromEmail: "from@example.com"})
	ok, err = service.checkEmailPreconditions("test@example.com", "test operation")
	assert.True(t, ok)
	assert.NoError(t, err)

	// sender set but key missing
	service = NewEmailService(&config.Config{FromEmail: "from@example.com"})
	ok, err = service.checkEmailPreconditions("test@example.com", "test operation")
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESEND_API_KEY is not set")

	// empty recipient
	service = NewEmailService(&config.Config{ResendAPIKey: "test_key", FromEmail: "from@example.com"})
	ok, err = service.checkEmailPreconditions("", "test operation")
	assert.False(t, ok)
	require.Error(t, err)
	assert.Equal(t, "email address is empty", err.Error())
}

func TestEmailService_renderTemplates(t *testing.T) {
	service := NewEmailService(&config.Config{})

	body, err := service.renderTemplate("due_reminder.html", struct {
		Name        string
		DueName     string
		DueDate     string
		Outstanding string
		Currency    string
		DaysOverdue int
	}{"Ali", "Rent - Ali - 2024-03-05", "2024-03-05", "1500.00", "AED", 3})
	require.NoError(t, err)
	assert.Contains(t, body, "1500.00 AED")
	assert.Contains(t, body, "3 day(s) overdue")

	_, err = service.renderTemplate("missing.html", nil)
	assert.Error(t, err)
}

func TestInvoiceFilename(t *testing.T) {
	assert.Equal(t, "INV-2024-00001.pdf", invoiceFilename(&models.Invoice{Name: "INV/2024/00001"}))
}

func TestEmailService_accountCreatedTemplate(t *testing.T) {
	service := NewEmailService(&config.Config{})

	body, err := service.renderTemplate("account_created.html", struct {
		Name         string
		Role         string
		TempPassword string
	}{"Sara", models.RoleTenant, "Ab3!xyz9Q#"})
	require.NoError(t, err)
	assert.Contains(t, body, "Ab3!xyz9Q#")

	body, err = service.renderTemplate("account_created.html", struct {
		Name         string
		Role         string
		TempPassword string
	}{"Omar", models.RoleManager, ""})
	require.NoError(t, err)
	assert.NotContains(t, body, "temporary password")
}
