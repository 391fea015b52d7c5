package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/pkg/logger"
)

// AuditService writes audit entries and per-field change logs
type AuditService struct {
	repos *repository.Repositories
}

func NewAuditService(repos *repository.Repositories) *AuditService {
	return &AuditService{repos: repos}
}

// Log records an audit entry through repos, which may be bound to a transaction
func (s *AuditService) Log(ctx context.Context, repos *repository.Repositories, actor Actor, action, entity string, entityID uint, details string) error {
	if repos == nil {
		repos = s.repos
	}
	entry := &models.AuditLog{
		UserID:    actor.userRef(),
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	}
	if err := repos.Audit.Create(ctx, entry); err != nil {
		logger.Error("Failed to write audit log", "entity", entity, "entity_id", entityID, "error", err)
		return err
	}
	return nil
}

// RecordChanges appends the change set to the change log
func (s *AuditService) RecordChanges(ctx context.Context, repos *repository.Repositories, actor Actor, cs *ChangeSet) error {
	if cs == nil || len(cs.entries) == 0 {
		return nil
	}
	if repos == nil {
		repos = s.repos
	}
	now := time.Now().UTC()
	for i := range cs.entries {
		cs.entries[i].UserID = actor.userRef()
		cs.entries[i].ChangedAt = now
	}
	return repos.ChangeLog.CreateBatch(ctx, cs.entries)
}

// List retrieves audit logs with filters
func (s *AuditService) List(ctx context.Context, query *repository.ListQuery) ([]models.AuditLog, int64, error) {
	return s.repos.Audit.List(ctx, query)
}

// ChangeLog returns the field history of one record, oldest first
func (s *AuditService) ChangeLog(ctx context.Context, entity string, entityID uint) ([]models.ChangeLog, error) {
	return s.repos.ChangeLog.FindByEntity(ctx, entity, entityID)
}

// ChangeSet collects field changes of one record
type ChangeSet struct {
	entity   string
	entityID uint
	entries  []models.ChangeLog
}

// NewChangeSet starts an empty change set for the record
func NewChangeSet(entity string, entityID uint) *ChangeSet {
	return &ChangeSet{entity: entity, entityID: entityID}
}

// Track adds a row when the formatted old and new values differ
func (cs *ChangeSet) Track(field string, oldValue, newValue any) *ChangeSet {
	before, after := formatValue(oldValue), formatValue(newValue)
	if before == after {
		return cs
	}
	cs.entries = append(cs.entries, models.ChangeLog{
		Entity:   cs.entity,
		EntityID: cs.entityID,
		Field:    field,
		OldValue: before,
		NewValue: after,
	})
	return cs
}

// Len returns the number of changed fields
func (cs *ChangeSet) Len() int {
	return len(cs.entries)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case *uint:
		if val == nil {
			return ""
		}
		return fmt.Sprint(*val)
	case decimal.Decimal:
		return val.StringFixed(2)
	case time.Time:
		return val.Format(models.DateLayout)
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.Format(models.DateLayout)
	default:
		return fmt.Sprint(val)
	}
}
