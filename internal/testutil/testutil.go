package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dayflow/core/internal/adapters/repository"
	"github.com/dayflow/core/internal/infrastructure/config"
	"github.com/dayflow/core/internal/infrastructure/database"
	"github.com/dayflow/core/internal/infrastructure/logger"
	"github.com/dayflow/core/internal/ports"
)

// SetupTestDB opens an in-memory sqlite database with the full schema
// applied and returns it with the three repositories built on it.
func SetupTestDB(t *testing.T) (*database.DB, ports.ItemRepository, ports.MoodRepository, ports.SettingsRepository) {
	t.Helper()

	cfg := config.DatabaseConfig{
		Path:         ":memory:",
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.MigrateUp())

	return db,
		repository.NewItemRepository(db),
		repository.NewMoodRepository(db),
		repository.NewSettingsRepository(db)
}

// Logger returns a no-op logger for tests.
func Logger() *logger.Logger {
	return logger.NewNop()
}

// StrPtr returns a pointer to the given string.
func StrPtr(s string) *string {
	return &s
}
