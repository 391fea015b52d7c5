package services

import (
	"context"
	"strconv"
	"time"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
)

// ActivityService manages follow-up tasks assigned to staff users
type ActivityService struct {
	repos *repository.Repositories
	clock Clock
}

func NewActivityService(repos *repository.Repositories, clock Clock) *ActivityService {
	return &ActivityService{repos: repos, clock: clock}
}

// FollowUp describes an activity to schedule on a record
type FollowUp struct {
	Entity   string
	EntityID uint
	Kind     string
	Summary  string
	Note     string
	UserID   *uint
	DueDate  *time.Time
}

// Schedule creates the activity through repos, which may be bound to a transaction.
// With unique set, nothing is created while an open activity of the same kind exists.
func (s *ActivityService) Schedule(ctx context.Context, repos *repository.Repositories, f FollowUp, unique bool) (*models.Activity, bool, error) {
	if repos == nil {
		repos = s.repos
	}
	if unique {
		exists, err := repos.Activity.ExistsOpen(ctx, f.Entity, f.EntityID, f.Kind)
		if err != nil {
			return nil, false, err
		}
		if exists {
			return nil, false, nil
		}
	}
	activity := &models.Activity{
		Entity:   f.Entity,
		EntityID: f.EntityID,
		Kind:     f.Kind,
		Summary:  f.Summary,
		Note:     f.Note,
		UserID:   f.UserID,
		DueDate:  f.DueDate,
	}
	if err := repos.Activity.Create(ctx, activity); err != nil {
		return nil, false, err
	}
	return activity, true, nil
}

// Create schedules a manual todo
func (s *ActivityService) Create(ctx context.Context, actor Actor, f FollowUp) (*models.Activity, error) {
	if f.Summary == "" {
		return nil, validationf("summary is required")
	}
	if f.Kind == "" {
		f.Kind = models.ActivityKindTodo
	}
	if f.UserID == nil {
		f.UserID = actor.userRef()
	}
	activity, _, err := s.Schedule(ctx, nil, f, false)
	return activity, err
}

// ListMine lists the caller's activities
func (s *ActivityService) ListMine(ctx context.Context, actor Actor, query *repository.ListQuery) ([]models.Activity, int64, error) {
	query.Filters["user_id"] = strconv.FormatUint(uint64(actor.UserID), 10)
	return s.repos.Activity.List(ctx, query)
}

func (s *ActivityService) List(ctx context.Context, query *repository.ListQuery) ([]models.Activity, int64, error) {
	return s.repos.Activity.List(ctx, query)
}

// MarkDone completes an activity; only the assignee or an admin may do it
func (s *ActivityService) MarkDone(ctx context.Context, actor Actor, id uint) (*models.Activity, error) {
	activity, err := s.repos.Activity.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "activity")
	}
	if actor.Role != models.RoleAdmin && (activity.UserID == nil || *activity.UserID != actor.UserID) {
		return nil, ErrForbidden
	}
	if activity.IsDone() {
		return activity, nil
	}
	now := s.clock().UTC()
	activity.DoneAt = &now
	if err := s.repos.Activity.Update(ctx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}
