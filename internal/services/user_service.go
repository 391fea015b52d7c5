package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sjperalta/rentdesk-api/internal/jobs"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
)

const minPasswordLength = 8

// UserService handles staff and portal accounts
type UserService struct {
	repos        *repository.Repositories
	worker       *jobs.Worker
	emailService *EmailService
	auditSvc     *AuditService
}

func NewUserService(repos *repository.Repositories, worker *jobs.Worker, emailService *EmailService, auditSvc *AuditService) *UserService {
	return &UserService{
		repos:        repos,
		worker:       worker,
		emailService: emailService,
		auditSvc:     auditSvc,
	}
}

func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repos.User.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "user")
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
	return s.repos.User.List(ctx, query)
}

// validate checks role and the tenant link. Portal users belong to exactly one tenant.
func (s *UserService) validate(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" || !strings.Contains(user.Email, "@") {
		return validationf("a valid email is required")
	}
	if user.Role == "" {
		user.Role = models.RoleManager
	}
	if !models.ValidRole(user.Role) {
		return validationf("unknown role %q", user.Role)
	}

	if user.Role != models.RoleTenant {
		user.TenantID = nil
		return nil
	}
	if user.TenantID == nil {
		return validationf("tenant users must be linked to a tenant")
	}
	if _, err := s.repos.Tenant.FindByID(ctx, *user.TenantID); err != nil {
		return translate(err, "tenant")
	}
	existing, err := s.repos.User.FindByTenant(ctx, *user.TenantID)
	if err != nil && !repository.IsNotFound(err) {
		return err
	}
	if existing != nil && existing.ID != user.ID {
		return fmt.Errorf("%w: tenant already has a portal account", ErrDuplicate)
	}
	return nil
}

// Create registers a user. Without a password a temporary one is generated and emailed.
func (s *UserService) Create(ctx context.Context, actor Actor, user *models.User, password string) error {
	if err := s.validate(ctx, user); err != nil {
		return err
	}

	temporary := ""
	if password == "" {
		generated, err := GenerateTempPassword()
		if err != nil {
			return err
		}
		password, temporary = generated, generated
	} else if len(password) < minPasswordLength {
		return validationf("password must be at least %d characters", minPasswordLength)
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	user.EncryptedPassword = hashedPassword
	user.ID = 0
	if err := s.repos.User.Create(ctx, user); err != nil {
		return translate(err, "user")
	}

	created := *user
	dispatch(s.worker, func(ctx context.Context) error {
		return s.emailService.SendAccountCreated(ctx, &created, temporary)
	})
	return s.auditSvc.Log(ctx, nil, actor, "CREATE", "User", user.ID, fmt.Sprintf("User created: %s (%s) role %s", user.FullName, user.Email, user.Role))
}

func (s *UserService) Update(ctx context.Context, actor Actor, input *models.User) (*models.User, error) {
	user, err := s.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if actor.UserID == user.ID && input.Role != "" && input.Role != user.Role {
		return nil, preconditionf("users cannot change their own role")
	}

	changes := NewChangeSet("User", user.ID).
		Track("full_name", user.FullName, input.FullName).
		Track("phone", user.Phone, input.Phone)
	user.FullName = input.FullName
	user.Phone = input.Phone
	if input.Email != "" {
		changes.Track("email", user.Email, strings.ToLower(strings.TrimSpace(input.Email)))
		user.Email = input.Email
	}
	if input.Role != "" {
		changes.Track("role", user.Role, input.Role)
		user.Role = input.Role
		user.TenantID = input.TenantID
	}
	if err := s.validate(ctx, user); err != nil {
		return nil, err
	}
	if err := s.repos.User.Update(ctx, user); err != nil {
		return nil, translate(err, "user")
	}
	if err := s.auditSvc.RecordChanges(ctx, nil, actor, changes); err != nil {
		return nil, err
	}
	return user, s.auditSvc.Log(ctx, nil, actor, "UPDATE", "User", user.ID, fmt.Sprintf("User updated: %s", user.Email))
}

func (s *UserService) Delete(ctx context.Context, actor Actor, id uint) error {
	if actor.UserID == id {
		return preconditionf("users cannot delete their own account")
	}
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repos.User.SoftDelete(ctx, id); err != nil {
		return err
	}
	if err := s.repos.RefreshToken.DeleteByUser(ctx, id); err != nil {
		return err
	}
	return s.auditSvc.Log(ctx, nil, actor, "DELETE", "User", id, "User discarded")
}

func (s *UserService) Restore(ctx context.Context, actor Actor, id uint) error {
	if err := s.repos.User.Restore(ctx, id); err != nil {
		return translate(err, "user")
	}
	return s.auditSvc.Log(ctx, nil, actor, "RESTORE", "User", id, "User restored")
}

// ToggleStatus flips a user between active and inactive. Deactivation revokes refresh tokens.
func (s *UserService) ToggleStatus(ctx context.Context, actor Actor, id uint) (*models.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID == id {
		return nil, preconditionf("users cannot change their own status")
	}
	previous := user.Status
	if user.Status == models.StatusActive {
		user.Status = models.StatusInactive
	} else {
		user.Status = models.StatusActive
	}
	if err := s.repos.User.Update(ctx, user); err != nil {
		return nil, err
	}
	if user.Status != models.StatusActive {
		if err := s.repos.RefreshToken.DeleteByUser(ctx, id); err != nil {
			return nil, err
		}
	}
	if err := s.auditSvc.RecordChanges(ctx, nil, actor, NewChangeSet("User", id).Track("status", previous, user.Status)); err != nil {
		return nil, err
	}
	return user, s.auditSvc.Log(ctx, nil, actor, "TOGGLE_STATUS", "User", id, fmt.Sprintf("Status changed to %s", user.Status))
}

func (s *UserService) ChangePassword(ctx context.Context, actor Actor, currentPassword, newPassword string) error {
	user, err := s.FindByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if !VerifyPassword(currentPassword, user.EncryptedPassword) {
		return ErrInvalidPassword
	}
	if len(newPassword) < minPasswordLength {
		return validationf("password must be at least %d characters", minPasswordLength)
	}
	hashedPassword, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.EncryptedPassword = hashedPassword
	if err := s.repos.User.Update(ctx, user); err != nil {
		return err
	}
	return s.auditSvc.Log(ctx, nil, actor, "CHANGE_PASSWORD", "User", user.ID, "Password changed by the user")
}
