package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/internal/storage"
)

// TenantService keeps the tenant registry and its mirrored contact records
type TenantService struct {
	repos   *repository.Repositories
	audit   *AuditService
	storage *storage.LocalStorage
	images  *ImageService
}

func NewTenantService(repos *repository.Repositories, audit *AuditService, store *storage.LocalStorage, images *ImageService) *TenantService {
	return &TenantService{repos: repos, audit: audit, storage: store, images: images}
}

func (s *TenantService) FindByID(ctx context.Context, id uint) (*models.Tenant, error) {
	tenant, err := s.repos.Tenant.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "tenant")
	}
	return tenant, nil
}

func (s *TenantService) List(ctx context.Context, query *repository.ListQuery) ([]models.Tenant, int64, error) {
	return s.repos.Tenant.List(ctx, query)
}

func (s *TenantService) Stats(ctx context.Context, id uint) (*models.TenantStats, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repos.Tenant.Stats(ctx, id)
}

// validate normalizes the tenant and checks identity uniqueness against other tenants
func (s *TenantService) validate(ctx context.Context, t *models.Tenant) error {
	t.Name = strings.TrimSpace(t.Name)
	t.Mobile = strings.TrimSpace(t.Mobile)
	t.Email = strings.TrimSpace(t.Email)
	if t.Name == "" {
		return validationf("tenant name is required")
	}
	if t.Mobile == "" {
		return validationf("tenant mobile is required")
	}
	if t.IDNumber != nil {
		trimmed := strings.TrimSpace(*t.IDNumber)
		if trimmed == "" {
			t.IDNumber = nil
		} else {
			t.IDNumber = &trimmed
		}
	}
	if t.IDType == "" {
		t.IDType = models.IDTypeEmiratesID
	}
	switch t.IDType {
	case models.IDTypeEmiratesID, models.IDTypePassport, models.IDTypeVisa, models.IDTypeOther:
	default:
		return validationf("unknown id type %q", t.IDType)
	}
	if t.PaymentMethod == "" {
		t.PaymentMethod = models.PaymentMethodCash
	}
	if !models.ValidPaymentMethod(t.PaymentMethod) {
		return validationf("unknown payment method %q", t.PaymentMethod)
	}
	if t.MonthlyIncome.IsNegative() {
		return validationf("monthly income cannot be negative")
	}

	exists, err := s.repos.Tenant.MobileExists(ctx, t.Mobile, t.ID)
	if err != nil {
		return err
	}
	if exists {
		return validationf("mobile %s is already registered to another tenant", t.Mobile)
	}
	if t.IDNumber != nil {
		exists, err := s.repos.Tenant.IDNumberExists(ctx, *t.IDNumber, t.ID)
		if err != nil {
			return err
		}
		if exists {
			return validationf("id number %s is already registered to another tenant", *t.IDNumber)
		}
	}
	return nil
}

// Create registers a prospect tenant and its contact in one transaction
func (s *TenantService) Create(ctx context.Context, actor Actor, tenant *models.Tenant) error {
	tenant.ID = 0
	tenant.Status = models.TenantStatusProspect
	tenant.CurrentRoomID = nil
	if err := s.validate(ctx, tenant); err != nil {
		return err
	}

	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		var contact *models.Contact
		if tenant.ContactID != 0 {
			existing, err := tx.Contact.FindByID(ctx, tenant.ContactID)
			if err != nil {
				return translate(err, "contact")
			}
			contact = existing
			tenant.SyncContact(contact)
			if err := tx.Contact.Update(ctx, contact); err != nil {
				return err
			}
		} else {
			contact = &models.Contact{}
			tenant.SyncContact(contact)
			if err := tx.Contact.Create(ctx, contact); err != nil {
				return err
			}
			tenant.ContactID = contact.ID
		}

		if err := tx.Tenant.Create(ctx, tenant); err != nil {
			return translate(err, "tenant")
		}
		return s.audit.Log(ctx, tx, actor, "CREATE", models.EntityTenant, tenant.ID,
			fmt.Sprintf("Tenant %s registered", tenant.Name))
	})
}

// Update edits the tenant and propagates name, mobile and email to the contact
func (s *TenantService) Update(ctx context.Context, actor Actor, input *models.Tenant) (*models.Tenant, error) {
	tenant, err := s.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	before := *tenant

	tenant.Name = input.Name
	tenant.Mobile = input.Mobile
	tenant.Email = input.Email
	tenant.IDType = input.IDType
	tenant.IDNumber = input.IDNumber
	tenant.IDExpiry = input.IDExpiry
	tenant.Nationality = input.Nationality
	tenant.Company = input.Company
	tenant.Occupation = input.Occupation
	tenant.MonthlyIncome = input.MonthlyIncome
	tenant.EmergencyContactName = input.EmergencyContactName
	tenant.EmergencyContactPhone = input.EmergencyContactPhone
	tenant.PaymentMethod = input.PaymentMethod
	tenant.Notes = input.Notes
	if err := s.validate(ctx, tenant); err != nil {
		return nil, err
	}

	changes := NewChangeSet(models.EntityTenant, tenant.ID).
		Track("name", before.Name, tenant.Name).
		Track("mobile", before.Mobile, tenant.Mobile).
		Track("email", before.Email, tenant.Email).
		Track("id_number", before.IDNumber, tenant.IDNumber).
		Track("payment_method", before.PaymentMethod, tenant.PaymentMethod)

	err = s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Tenant.Update(ctx, tenant); err != nil {
			return translate(err, "tenant")
		}
		contact, err := tx.Contact.FindByID(ctx, tenant.ContactID)
		if err != nil {
			return translate(err, "contact")
		}
		tenant.SyncContact(contact)
		if err := tx.Contact.Update(ctx, contact); err != nil {
			return err
		}
		return s.audit.RecordChanges(ctx, tx, actor, changes)
	})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// Delete removes a tenant without agreement history
func (s *TenantService) Delete(ctx context.Context, actor Actor, id uint) error {
	tenant, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	has, err := s.repos.Tenant.HasAgreements(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return preconditionf("tenant %s has agreements", tenant.Name)
	}
	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Tenant.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "DELETE", models.EntityTenant, id, fmt.Sprintf("Tenant %s deleted", tenant.Name))
	})
}

// Tenant status actions
const (
	TenantActionBlacklist  = "blacklist"
	TenantActionDeactivate = "deactivate"
	TenantActionReactivate = "reactivate"
)

// ChangeStatus applies a status action. Deactivation is refused while an agreement is active;
// reactivation returns the tenant to active when one is, prospect otherwise.
func (s *TenantService) ChangeStatus(ctx context.Context, actor Actor, id uint, action, reason string) (*models.Tenant, error) {
	tenant, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := tenant.Status
	active, err := s.repos.Agreement.CountActiveForTenant(ctx, id, 0)
	if err != nil {
		return nil, err
	}

	switch action {
	case TenantActionBlacklist:
		if tenant.Status == models.TenantStatusBlacklisted {
			return nil, fmt.Errorf("%w: tenant is already blacklisted", ErrInvalidState)
		}
		tenant.Status = models.TenantStatusBlacklisted
	case TenantActionDeactivate:
		if tenant.Status == models.TenantStatusInactive {
			return nil, fmt.Errorf("%w: tenant is already inactive", ErrInvalidState)
		}
		if active > 0 {
			return nil, preconditionf("tenant has %d active agreement(s)", active)
		}
		tenant.Status = models.TenantStatusInactive
	case TenantActionReactivate:
		if tenant.Status != models.TenantStatusInactive && tenant.Status != models.TenantStatusBlacklisted {
			return nil, fmt.Errorf("%w: tenant is %s", ErrInvalidState, tenant.Status)
		}
		tenant.Status = models.TenantStatusProspect
		if active > 0 {
			tenant.Status = models.TenantStatusActive
		}
	default:
		return nil, validationf("unknown tenant action %q", action)
	}

	err = s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Tenant.Update(ctx, tenant); err != nil {
			return err
		}
		if err := s.audit.RecordChanges(ctx, tx, actor,
			NewChangeSet(models.EntityTenant, tenant.ID).Track("status", previous, tenant.Status)); err != nil {
			return err
		}
		details := fmt.Sprintf("Tenant %s: %s → %s", tenant.Name, previous, tenant.Status)
		if reason != "" {
			details += ". Reason: " + reason
		}
		return s.audit.Log(ctx, tx, actor, strings.ToUpper(action), models.EntityTenant, tenant.ID, details)
	})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// UploadDocument stores the identity document, replacing any previous file
func (s *TenantService) UploadDocument(ctx context.Context, actor Actor, id uint, file multipart.File, header *multipart.FileHeader) (*models.Tenant, error) {
	tenant, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	path, err := s.storage.Upload(file, header, storage.DirTenantDocuments)
	if err != nil {
		return nil, validationf("%v", err)
	}
	old := tenant.DocumentPath
	tenant.DocumentPath = &path
	if err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Tenant.Update(ctx, tenant); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "UPLOAD", models.EntityTenant, tenant.ID, "Identity document uploaded")
	}); err != nil {
		_ = s.storage.Delete(path)
		return nil, err
	}
	if old != nil {
		_ = s.storage.Delete(*old)
	}
	return tenant, nil
}

// UploadPhoto stores the tenant photo and its thumbnail
func (s *TenantService) UploadPhoto(ctx context.Context, actor Actor, id uint, file multipart.File, header *multipart.FileHeader) (*models.Tenant, error) {
	tenant, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	original, thumb, err := s.images.SavePhoto(file, header.Filename, storage.DirTenantPhotos)
	if err != nil {
		return nil, err
	}
	oldPhoto, oldThumb := tenant.PhotoPath, tenant.PhotoThumbPath
	tenant.PhotoPath = &original
	tenant.PhotoThumbPath = &thumb
	if err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Tenant.Update(ctx, tenant); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "UPLOAD", models.EntityTenant, tenant.ID, "Photo uploaded")
	}); err != nil {
		_ = s.storage.Delete(original)
		_ = s.storage.Delete(thumb)
		return nil, err
	}
	for _, p := range []*string{oldPhoto, oldThumb} {
		if p != nil {
			_ = s.storage.Delete(*p)
		}
	}
	return tenant, nil
}

// FilePath returns the stored path of the tenant's document or photo
func (s *TenantService) FilePath(ctx context.Context, id uint, kind string) (string, error) {
	tenant, err := s.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	var path *string
	switch kind {
	case "document":
		path = tenant.DocumentPath
	case "photo":
		path = tenant.PhotoPath
	case "thumbnail":
		path = tenant.PhotoThumbPath
	default:
		return "", validationf("unknown file kind %q", kind)
	}
	if path == nil || !s.storage.Exists(*path) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, kind)
	}
	return s.storage.GetFullPath(*path), nil
}
