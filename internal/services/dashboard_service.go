package services

import (
	"context"
	"math"
	"time"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
)

const recentItems = 5

// DashboardService computes the KPI snapshot; nothing is cached
type DashboardService struct {
	repo     repository.DashboardRepository
	clock    Clock
	currency string
}

func NewDashboardService(repo repository.DashboardRepository, clock Clock, currency string) *DashboardService {
	return &DashboardService{repo: repo, clock: clock, currency: currency}
}

// Compute builds the dashboard for the clock's day
func (s *DashboardService) Compute(ctx context.Context) (*models.Dashboard, error) {
	return s.ComputeFor(ctx, s.clock.Today())
}

// ComputeFor builds the dashboard as seen on today
func (s *DashboardService) ComputeFor(ctx context.Context, today time.Time) (*models.Dashboard, error) {
	today = models.DateOf(today)
	d := &models.Dashboard{
		Today:       today.Format(models.DateLayout),
		Currency:    s.currency,
		GeneratedAt: s.clock().UTC(),
	}

	var err error
	if d.TodayFigures, err = s.period(ctx, today, today); err != nil {
		return nil, err
	}
	if d.WeekFigures, err = s.period(ctx, models.StartOfWeek(today), today); err != nil {
		return nil, err
	}
	if d.MonthFigures, err = s.period(ctx, models.FirstOfMonth(today), today); err != nil {
		return nil, err
	}
	if d.Overall, err = s.overall(ctx); err != nil {
		return nil, err
	}

	collections, err := s.repo.RecentCollections(ctx, recentItems)
	if err != nil {
		return nil, err
	}
	tenants, err := s.repo.RecentTenants(ctx, recentItems)
	if err != nil {
		return nil, err
	}
	d.RecentCollections = models.FormatRecentCollections(collections)
	d.RecentTenants = models.FormatRecentTenants(tenants)
	return d, nil
}

func (s *DashboardService) period(ctx context.Context, from, to time.Time) (models.PeriodFigures, error) {
	collected, count, err := s.repo.SumCollections(ctx, from, to)
	if err != nil {
		return models.PeriodFigures{}, err
	}
	expenses, err := s.repo.SumPaidExpenses(ctx, from, to)
	if err != nil {
		return models.PeriodFigures{}, err
	}
	newTenants, err := s.repo.CountNewTenants(ctx, from, to)
	if err != nil {
		return models.PeriodFigures{}, err
	}
	return models.NewPeriodFigures(from, to, collected, count, expenses, newTenants), nil
}

func (s *DashboardService) overall(ctx context.Context) (models.OverallFigures, error) {
	var o models.OverallFigures
	var err error
	if o.TotalProperties, err = s.repo.CountProperties(ctx); err != nil {
		return o, err
	}
	byStatus, err := s.repo.CountRoomsByStatus(ctx)
	if err != nil {
		return o, err
	}
	for _, n := range byStatus {
		o.TotalRooms += n
	}
	o.OccupiedRooms = byStatus[models.RoomStatusOccupied]
	o.VacantRooms = byStatus[models.RoomStatusVacant]
	if o.TotalRooms > 0 {
		o.OccupancyRate = math.Round(float64(o.OccupiedRooms)/float64(o.TotalRooms)*10000) / 10000
	}
	if o.ActiveTenants, err = s.repo.CountTenantsByStatus(ctx, models.TenantStatusActive); err != nil {
		return o, err
	}
	return o, nil
}
