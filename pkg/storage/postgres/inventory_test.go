package postgres_test

import (
	"context"
	"fmt"
	"subhunt/pkg/domain"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPgSQL_StoreRun(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	ctx := context.Background()

	run, err := pg.StoreRun(ctx, domain.DiscoveryRun{
		Domain:         "example.com",
		Mode:           domain.ScanModeComplete,
		SubdomainCount: 12,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, uuid.UUID(run.ID))
	require.Equal(t, "example.com", run.Domain)
	require.Equal(t, domain.ScanModeComplete, run.Mode)
	require.Equal(t, 12, run.SubdomainCount)
	require.False(t, run.CreatedAt.IsZero())
}

func TestPgSQL_UpsertSubdomains(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	run1, err := pg.StoreRun(ctx, newRun("example.com"))
	require.NoError(t, err)
	run2, err := pg.StoreRun(ctx, newRun("example.com"))
	require.NoError(t, err)

	t.Run("first run inserts everything", func(t *testing.T) {
		inserted, err := pg.UpsertSubdomains(ctx, run1.ID, "example.com",
			[]string{"b.example.com", "a.example.com", "a.example.com"}, first)
		require.NoError(t, err)
		require.Equal(t, []string{"a.example.com", "b.example.com"}, inserted)
	})

	t.Run("second run reports only new names", func(t *testing.T) {
		inserted, err := pg.UpsertSubdomains(ctx, run2.ID, "example.com",
			[]string{"a.example.com", "c.example.com"}, second)
		require.NoError(t, err)
		require.Equal(t, []string{"c.example.com"}, inserted)
	})

	t.Run("inventory keeps first and last seen", func(t *testing.T) {
		subs, err := pg.Subdomains(ctx, "example.com")
		require.NoError(t, err)
		require.Len(t, subs, 3)

		require.Equal(t, "a.example.com", subs[0].Name)
		require.True(t, subs[0].FirstSeenAt.Equal(first))
		require.True(t, subs[0].LastSeenAt.Equal(second))
		require.Equal(t, run2.ID, subs[0].LastRunID)

		require.Equal(t, "b.example.com", subs[1].Name)
		require.True(t, subs[1].LastSeenAt.Equal(first))
		require.Equal(t, run1.ID, subs[1].LastRunID)

		require.Equal(t, "c.example.com", subs[2].Name)
		require.True(t, subs[2].FirstSeenAt.Equal(second))
	})

	t.Run("domains are isolated", func(t *testing.T) {
		subs, err := pg.Subdomains(ctx, "other.example")
		require.NoError(t, err)
		require.Empty(t, subs)
	})

	t.Run("empty input", func(t *testing.T) {
		inserted, err := pg.UpsertSubdomains(ctx, run2.ID, "example.com", nil, second)
		require.NoError(t, err)
		require.Empty(t, inserted)
	})
}

func TestPgSQL_UpsertSubdomains_Batches(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	run, err := pg.StoreRun(ctx, newRun("big.example"))
	require.NoError(t, err)

	names := make([]string, 0, 2500)
	for i := 0; i < 2500; i++ {
		names = append(names, fmt.Sprintf("host%04d.big.example", i))
	}

	inserted, err := pg.UpsertSubdomains(ctx, run.ID, "big.example", names, time.Now())
	require.NoError(t, err)
	require.Len(t, inserted, 2500)

	subs, err := pg.Subdomains(ctx, "big.example")
	require.NoError(t, err)
	require.Len(t, subs, 2500)
}
