package migrate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowncoffee/rown-backend/pkg/config"
	"github.com/rowncoffee/rown-backend/pkg/db"
	"github.com/rowncoffee/rown-backend/pkg/logger"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
	require.NoError(t, ValidateDir("migrations"))
}

func TestOrdersMigrationContainsSchema(t *testing.T) {
	content := readMigration(t, "*_create_orders_tables.sql")

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"payment_method IN ('cash', 'qris')",
		"payment_status IN ('cash', 'pending')",
		"payment_proof_url TEXT",
		"CREATE TABLE IF NOT EXISTS order_items",
		"REFERENCES orders (order_id)",
		"price_at_order NUMERIC(12,2)",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestProductsMigrationContainsSchema(t *testing.T) {
	content := readMigration(t, "*_create_products_table.sql")
	assert.Contains(t, content, "CREATE TABLE IF NOT EXISTS products")
	assert.Contains(t, content, "is_available BOOLEAN NOT NULL DEFAULT TRUE")
	assert.Contains(t, content, "price NUMERIC(12,2)")
}

func TestCreateSQLMigration(t *testing.T) {
	prev := now
	now = func() time.Time { return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prev })

	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Order Notes!")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20250601093000_add_order_notes.sql"), path)

	_, err = CreateSQLMigration(dir, "add order notes")
	require.Error(t, err, "same version and name should not be overwritten")

	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, ValidateDir(dir))
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := fs.Glob(Embedded(), "migrations/"+pattern)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := fs.ReadFile(Embedded(), matches[0])
	require.NoError(t, err)
	return strings.TrimSpace(string(data))
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	ctx := context.Background()
	prod := &config.Config{
		App:          config.AppConfig{Env: "prod"},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}
	require.NoError(t, MaybeRunDev(ctx, prod, logger.Nop(), &db.Client{}))

	devWithoutFlag := &config.Config{App: config.AppConfig{Env: "dev"}}
	require.NoError(t, MaybeRunDev(ctx, devWithoutFlag, logger.Nop(), &db.Client{}))

	require.NoError(t, MaybeRunDev(ctx, devWithoutFlag, logger.Nop(), nil))
}
