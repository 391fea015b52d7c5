package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/config"
	"github.com/sjperalta/rentdesk-api/internal/database"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/internal/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testEnv is a fully wired service layer over a throwaway sqlite file
type testEnv struct {
	t     *testing.T
	ctx   context.Context
	db    *gorm.DB
	repos *repository.Repositories
	svcs  *Services
	today time.Time

	seq int
}

func newTestEnv(t *testing.T, today time.Time) *testEnv {
	t.Helper()
	dir := t.TempDir()

	dsn := filepath.Join(dir, "rentdesk.db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), database.NewConfig(gormlogger.Default.LogMode(gormlogger.Silent)))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	store, err := storage.NewLocalStorage(filepath.Join(dir, "files"))
	require.NoError(t, err)

	cfg := &config.Config{
		Currency:          "AED",
		ExpiryWarningDays: 30,
		StoragePath:       filepath.Join(dir, "files"),
	}
	repos := repository.NewRepositories(db)
	return &testEnv{
		t:     t,
		ctx:   context.Background(),
		db:    db,
		repos: repos,
		svcs:  newServices(repos, nil, store, cfg, FixedClock(today), time.UTC),
		today: models.DateOf(today),
	}
}

func (e *testEnv) next() int {
	e.seq++
	return e.seq
}

// newRoom creates a property with one flat holding a single vacant room
func (e *testEnv) newRoom(rent, deposit int64) *models.Room {
	e.t.Helper()
	n := e.next()
	property := &models.Property{Name: fmt.Sprintf("Tower %d", n), Code: fmt.Sprintf("T%d", n)}
	require.NoError(e.t, e.svcs.Property.CreateProperty(e.ctx, SystemActor, property))

	flat := &models.Flat{PropertyID: property.ID, FlatNumber: "101"}
	require.NoError(e.t, e.svcs.Property.CreateFlat(e.ctx, SystemActor, flat, 1, nil))
	require.Len(e.t, flat.Rooms, 1)

	room := flat.Rooms[0]
	room.RentAmount = decimal.NewFromInt(rent)
	room.DepositAmount = decimal.NewFromInt(deposit)
	require.NoError(e.t, e.repos.Room.Update(e.ctx, &room))
	return &room
}

func (e *testEnv) newTenant(name string) *models.Tenant {
	e.t.Helper()
	tenant := &models.Tenant{
		Name:   name,
		Mobile: fmt.Sprintf("+97150000%04d", e.next()),
		Email:  fmt.Sprintf("tenant%d@example.com", e.seq),
	}
	require.NoError(e.t, e.svcs.Tenant.Create(e.ctx, SystemActor, tenant))
	return tenant
}

func (e *testEnv) draftAgreement(tenant *models.Tenant, room *models.Room, start, end time.Time) *models.Agreement {
	e.t.Helper()
	agreement := &models.Agreement{
		TenantID:  tenant.ID,
		RoomID:    room.ID,
		StartDate: start,
		EndDate:   end,
	}
	require.NoError(e.t, e.svcs.Agreement.Create(e.ctx, SystemActor, agreement))
	return agreement
}

// activeAgreement lets a fresh room to a fresh tenant for a year starting at start
func (e *testEnv) activeAgreement(start time.Time, mutate func(*models.Agreement)) *models.Agreement {
	e.t.Helper()
	room := e.newRoom(1500, 3000)
	tenant := e.newTenant(fmt.Sprintf("Tenant %d", e.next()))
	agreement := &models.Agreement{
		TenantID:  tenant.ID,
		RoomID:    room.ID,
		StartDate: start,
		EndDate:   start.AddDate(1, 0, -1),
	}
	if mutate != nil {
		mutate(agreement)
	}
	require.NoError(e.t, e.svcs.Agreement.Create(e.ctx, SystemActor, agreement))
	activated, err := e.svcs.Agreement.Activate(e.ctx, SystemActor, agreement.ID)
	require.NoError(e.t, err)
	return activated
}

// postedInvoice creates and posts a single-line invoice on the agreement
func (e *testEnv) postedInvoice(a *models.Agreement, amount int64) *models.Invoice {
	e.t.Helper()
	agreementID := a.ID
	invoice := &models.Invoice{
		AgreementID: &agreementID,
		Lines: []models.InvoiceLine{{
			Description: "Monthly rent",
			PriceUnit:   decimal.NewFromInt(amount),
		}},
	}
	require.NoError(e.t, e.svcs.Invoice.Create(e.ctx, SystemActor, invoice))
	posted, err := e.svcs.Invoice.Post(e.ctx, SystemActor, invoice.ID)
	require.NoError(e.t, err)
	return posted
}

func requireMoney(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.Equal(t, expected, actual.StringFixed(2))
}
