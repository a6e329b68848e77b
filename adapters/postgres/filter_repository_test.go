package postgres

import (
	"context"
	"os"
	"testing"

	"resultsdash/domain/core"
	"resultsdash/internal/migration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against the database in TEST_DATABASE_URL, e.g. postgres://localhost/resultsdash_test?sslmode=disable
func TestFilterRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, migration.NewRunner().Run(ctx, db))

	repo := NewFilterRepository(db)
	id := core.NewSessionID()
	t.Cleanup(func() { repo.DeleteFilter(ctx, id) })

	_, ok, err := repo.LoadFilter(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SaveFilter(ctx, id, "leading-party-by-issue"))
	require.NoError(t, repo.SaveFilter(ctx, id, "strength-of-political-parties&party=green"))

	filter, ok, err := repo.LoadFilter(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "strength-of-political-parties&party=green", filter)

	require.NoError(t, repo.DeleteFilter(ctx, id))
	_, ok, err = repo.LoadFilter(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}
