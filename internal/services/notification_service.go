package services

import (
	"context"
	"errors"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/pkg/logger"
)

type NotificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
}

func NewNotificationService(repo repository.NotificationRepository, userRepo repository.UserRepository) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo}
}

// FindForUser returns the notification when it belongs to userID
func (s *NotificationService) FindForUser(ctx context.Context, id, userID uint) (*models.Notification, error) {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "notification")
	}
	if notification.UserID != userID {
		return nil, ErrForbidden
	}
	return notification, nil
}

func (s *NotificationService) FindByUser(ctx context.Context, userID uint, query *repository.ListQuery) ([]models.Notification, int64, error) {
	return s.repo.FindByUser(ctx, userID, query)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uint) (*models.Notification, error) {
	notification, err := s.FindForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	notification.MarkAsRead()
	if err := s.repo.Update(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, id, userID uint) error {
	if _, err := s.FindForUser(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *NotificationService) NotifyUser(ctx context.Context, userID uint, title, message, notifType string) error {
	notification := &models.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		NotificationType: &notifType,
	}
	return s.repo.Create(ctx, notification)
}

// NotifyAdmins sends one notification per active admin and joins the failures
func (s *NotificationService) NotifyAdmins(ctx context.Context, title, message, notifType string) error {
	admins, err := s.userRepo.FindAdmins(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, admin := range admins {
		if err := s.NotifyUser(ctx, admin.ID, title, message, notifType); err != nil {
			logger.Error("Failed to notify admin", "user_id", admin.ID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifyManagerOrAdmins targets the property manager when set, admins otherwise
func (s *NotificationService) NotifyManagerOrAdmins(ctx context.Context, managerID *uint, title, message, notifType string) error {
	if managerID != nil {
		return s.NotifyUser(ctx, *managerID, title, message, notifType)
	}
	return s.NotifyAdmins(ctx, title, message, notifType)
}
