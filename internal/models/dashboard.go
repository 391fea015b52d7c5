package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodFigures holds the money and tenant counts of one reporting window
type PeriodFigures struct {
	From             string          `json:"from"`
	To               string          `json:"to"`
	Collections      decimal.Decimal `json:"collections"`
	CollectionsCount int64           `json:"collections_count"`
	Expenses         decimal.Decimal `json:"expenses"`
	Profit           decimal.Decimal `json:"profit"`
	NewTenants       int64           `json:"new_tenants"`
}

// NewPeriodFigures computes profit = collections − expenses for the window
func NewPeriodFigures(from, to time.Time, collections decimal.Decimal, count int64, expenses decimal.Decimal, newTenants int64) PeriodFigures {
	return PeriodFigures{
		From:             from.Format(DateLayout),
		To:               to.Format(DateLayout),
		Collections:      collections,
		CollectionsCount: count,
		Expenses:         expenses,
		Profit:           collections.Sub(expenses),
		NewTenants:       newTenants,
	}
}

// OverallFigures holds the portfolio totals
type OverallFigures struct {
	TotalProperties int64   `json:"total_properties"`
	TotalRooms      int64   `json:"total_rooms"`
	OccupiedRooms   int64   `json:"occupied_rooms"`
	VacantRooms     int64   `json:"vacant_rooms"`
	OccupancyRate   float64 `json:"occupancy_rate"`
	ActiveTenants   int64   `json:"active_tenants"`
}

// Dashboard is the stateless KPI snapshot computed from one reference day
type Dashboard struct {
	Today             string         `json:"today"`
	Currency          string         `json:"currency"`
	TodayFigures      PeriodFigures  `json:"today_figures"`
	WeekFigures       PeriodFigures  `json:"week_figures"`
	MonthFigures      PeriodFigures  `json:"month_figures"`
	Overall           OverallFigures `json:"overall"`
	RecentCollections string         `json:"recent_collections"`
	RecentTenants     string         `json:"recent_tenants"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

// FormatRecentCollections renders "• {date} - {tenant} - {amount} {currency}" lines
func FormatRecentCollections(collections []Collection) string {
	if len(collections) == 0 {
		return "No recent collections"
	}
	lines := make([]string, 0, len(collections))
	for _, c := range collections {
		lines = append(lines, fmt.Sprintf("• %s - %s - %s %s",
			c.Date.Format(DateLayout), c.Tenant.Name, c.AmountCollected.StringFixed(2), c.Currency))
	}
	return strings.Join(lines, "\n")
}

// FormatRecentTenants renders "• {name} - {mobile} - {status}" lines
func FormatRecentTenants(tenants []Tenant) string {
	if len(tenants) == 0 {
		return "No recent tenants"
	}
	lines := make([]string, 0, len(tenants))
	for _, t := range tenants {
		lines = append(lines, fmt.Sprintf("• %s - %s - %s", t.Name, t.Mobile, t.Status))
	}
	return strings.Join(lines, "\n")
}
