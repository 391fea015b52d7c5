package services

import (
	"time"

	"github.com/sjperalta/rentdesk-api/internal/models"
)

// Actor identifies the caller of a mutating operation
type Actor struct {
	UserID    uint
	Role      string
	TenantID  *uint
	IPAddress string
	UserAgent string
}

// SystemActor is used by scheduled sweeps and the CLI
var SystemActor = Actor{Role: models.RoleAdmin, UserAgent: "system"}

// IsSystem reports whether the call comes from a batch job
func (a Actor) IsSystem() bool {
	return a.UserID == 0
}

// IsTenant reports whether the caller is a tenant portal user
func (a Actor) IsTenant() bool {
	return a.Role == models.RoleTenant
}

// userRef returns the user id for audit columns, nil for the system actor
func (a Actor) userRef() *uint {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}

// Clock returns the current instant. Date-driven rules read Today.
type Clock func() time.Time

// Today returns the clock's calendar day at midnight UTC
func (c Clock) Today() time.Time {
	return models.DateOf(c())
}

// NewClock returns a wall clock in loc
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time {
		return time.Now().In(loc)
	}
}

// FixedClock always reports the same instant
func FixedClock(at time.Time) Clock {
	return func() time.Time { return at }
}
