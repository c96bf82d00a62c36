package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/config"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}
