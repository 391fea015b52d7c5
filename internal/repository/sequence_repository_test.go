package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sjperalta/rentdesk-api/internal/database"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "repo.db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), database.NewConfig(gormlogger.Default.LogMode(gormlogger.Silent)))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestSequenceRepository_Next_KeepsYearsApart(t *testing.T) {
	repo := NewSequenceRepository(openTestDB(t))
	ctx := context.Background()

	steps := []struct {
		year int
		want string
	}{
		{2024, "INV/2024/00001"},
		{2025, "INV/2025/00001"},
		{2024, "INV/2024/00002"},
		{2025, "INV/2025/00002"},
		{2024, "INV/2024/00003"},
	}
	for _, step := range steps {
		got, err := repo.Next(ctx, models.SequenceInvoice, step.year)
		require.NoError(t, err)
		assert.Equal(t, step.want, got)
	}

	receipt, err := repo.Next(ctx, models.SequenceReceipt, 2024)
	require.NoError(t, err)
	assert.Equal(t, "RCP/2024/00001", receipt)
}

func TestSequenceRepository_Next_UnknownCode(t *testing.T) {
	repo := NewSequenceRepository(openTestDB(t))
	_, err := repo.Next(context.Background(), "voucher", 2024)
	assert.Error(t, err)
}
