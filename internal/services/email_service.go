package services

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/sjperalta/rentdesk-api/internal/config"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/pkg/logger"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

// checkEmailPreconditions returns false without error when email is switched off
func (s *EmailService) checkEmailPreconditions(to, operation string) (bool, error) {
	if !s.config.EmailEnabled() {
		if s.config.ResendAPIKey == "" && s.config.FromEmail != "" {
			return false, errors.New("RESEND_API_KEY is not set")
		}
		logger.Debug("Email disabled, skipping", "operation", operation)
		return false, nil
	}
	if strings.TrimSpace(to) == "" {
		return false, errors.New("email address is empty")
	}
	return true, nil
}

// SendDueReminder emails the tenant about an outstanding due
func (s *EmailService) SendDueReminder(ctx context.Context, due *models.DueTracker, today time.Time) error {
	ok, err := s.checkEmailPreconditions(due.Tenant.Email, "due reminder")
	if !ok {
		return err
	}

	data := struct {
		Name        string
		DueName     string
		DueDate     string
		Outstanding string
		Currency    string
		DaysOverdue int
	}{
		Name:        due.Tenant.Name,
		DueName:     due.Name,
		DueDate:     due.DueDate.Format(models.DateLayout),
		Outstanding: due.Outstanding().StringFixed(2),
		Currency:    due.Currency,
		DaysOverdue: due.DaysOverdue(today),
	}

	body, err := s.renderTemplate("due_reminder.html", data)
	if err != nil {
		return err
	}

	return s.send(&resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{due.Tenant.Email},
		Subject: fmt.Sprintf("Payment reminder: %s", due.Name),
		Html:    body,
	})
}

// SendInvoice emails a posted invoice with its PDF attached when one is given
func (s *EmailService) SendInvoice(ctx context.Context, invoice *models.Invoice, pdf []byte) error {
	ok, err := s.checkEmailPreconditions(invoice.Tenant.Email, "invoice")
	if !ok {
		return err
	}

	data := struct {
		Name      string
		Number    string
		DueDate   string
		Total     string
		Residual  string
		Currency  string
		RoomName  string
		LineCount int
	}{
		Name:      invoice.Tenant.Name,
		Number:    invoice.Name,
		DueDate:   invoice.DueDate.Format(models.DateLayout),
		Total:     invoice.AmountTotal.StringFixed(2),
		Residual:  invoice.AmountResidual.StringFixed(2),
		Currency:  invoice.Currency,
		LineCount: len(invoice.Lines),
	}

	if invoice.Room != nil {
		data.RoomName = invoice.Room.Name
	}

	body, err := s.renderTemplate("invoice_posted.html", data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{invoice.Tenant.Email},
		Subject: fmt.Sprintf("Invoice %s", invoice.Name),
		Html:    body,
	}
	if len(pdf) > 0 {
		params.Attachments = []*resend.Attachment{{
			Content:     pdf,
			Filename:    invoiceFilename(invoice),
			ContentType: "application/pdf",
		}}
	}
	return s.send(params)
}

// SendAccountCreated welcomes a new portal or staff user. A generated password is included when set.
func (s *EmailService) SendAccountCreated(ctx context.Context, user *models.User, tempPassword string) error {
	ok, err := s.checkEmailPreconditions(user.Email, "account created")
	if !ok {
		return err
	}

	body, err := s.renderTemplate("account_created.html", struct {
		Name         string
		Role         string
		TempPassword string
	}{Name: user.FullName, Role: user.Role, TempPassword: tempPassword})
	if err != nil {
		return err
	}

	return s.send(&resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{user.Email},
		Subject: "Welcome to RentDesk",
		Html:    body,
	})
}

// SendPasswordReset delivers an administrator-issued temporary password
func (s *EmailService) SendPasswordReset(ctx context.Context, user *models.User, tempPassword string) error {
	ok, err := s.checkEmailPreconditions(user.Email, "password reset")
	if !ok {
		return err
	}

	body, err := s.renderTemplate("password_reset.html", struct {
		Name         string
		TempPassword string
	}{Name: user.FullName, TempPassword: tempPassword})
	if err != nil {
		return err
	}

	return s.send(&resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{user.Email},
		Subject: "Your RentDesk password was reset",
		Html:    body,
	})
}

func (s *EmailService) send(params *resend.SendEmailRequest) error {
	if _, err := s.resendClient.Emails.Send(params); err != nil {
		logger.Error("Failed to send email", "to", params.To, "subject", params.Subject, "error", err)
		return err
	}
	logger.Info("Email sent", "to", params.To, "subject", params.Subject)
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}

func invoiceFilename(invoice *models.Invoice) string {
	return strings.ReplaceAll(invoice.Name, "/", "-") + ".pdf"
}
