package postgres_test

import (
	"context"
	"testing"
	"time"

	"domainscan/pkg/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	moonURL = "https://get.unstoppabledomains.com/moon"
	ethURL  = "https://get.unstoppabledomains.com/eth"
)

// newRun builds a run started `ago` before now with a successful moon result
// and a failed eth result.
func newRun(t *testing.T, ago time.Duration) domain.ScanRun {
	t.Helper()

	started := time.Now().UTC().Add(-ago).Truncate(time.Microsecond)
	price := 1250.0

	return domain.ScanRun{
		ID:         domain.ScanID(uuid.New()),
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Results: []domain.PartnerScanResult{
			{
				URL:     moonURL,
				Partner: "moon",
				Domains: []domain.DomainEntry{
					domain.NewDomainEntry("alice.moon", domain.StatusSold, "Sold", &price),
					domain.NewDomainEntry("bob.moon", domain.StatusAvailable, "Buy Now", nil),
				},
				Skipped:   1,
				ScannedAt: started.Add(time.Second),
			},
			{
				URL:        ethURL,
				Partner:    "eth",
				Domains:    []domain.DomainEntry{},
				FetchError: "TIMEOUT: page load exceeded 5s",
				ScannedAt:  started.Add(2 * time.Second),
			},
		},
	}
}

func TestPgSQL_StoreScanRun(t *testing.T) {
	pg := newTestPgSQL(t)

	ctx := context.Background()

	latest, err := pg.LatestRun(ctx)
	require.NoError(t, err)
	require.Nil(t, latest)

	older := newRun(t, time.Hour)
	newer := newRun(t, 0)
	newer.Cancelled = true
	require.NoError(t, pg.StoreScanRun(ctx, older))
	require.NoError(t, pg.StoreScanRun(ctx, newer))

	t.Run("latest run", func(t *testing.T) {
		got, err := pg.LatestRun(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, newer.ID, got.ID)
		require.True(t, got.Cancelled)
		require.Len(t, got.Results, 2)
		require.Equal(t, moonURL, got.Results[0].URL)
		require.Equal(t, ethURL, got.Results[1].URL)

		moon := got.Results[0]
		require.Len(t, moon.Domains, 2)
		require.Equal(t, domain.StatusSold, moon.Domains[0].Status)
		require.InDelta(t, 1250, *moon.Domains[0].Price, 1e-9)
		require.Nil(t, moon.Domains[1].Price)
		require.Equal(t, 1, moon.Skipped)

		eth := got.Results[1]
		require.True(t, eth.Failed())
		require.Empty(t, eth.Domains)
	})

	t.Run("run by id", func(t *testing.T) {
		got, err := pg.RunByID(ctx, older.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.True(t, got.StartedAt.Equal(older.StartedAt))

		missing, err := pg.RunByID(ctx, domain.ScanID(uuid.New()))
		require.NoError(t, err)
		require.Nil(t, missing)
	})

	t.Run("partner history", func(t *testing.T) {
		history, err := pg.PartnerHistory(ctx, moonURL, 10)
		require.NoError(t, err)
		require.Len(t, history, 2)
		require.Equal(t, newer.ID, history[0].ScanID)
		require.Equal(t, older.ID, history[1].ScanID)
		require.Equal(t, 1, history[0].Result.TotalSold())

		limited, err := pg.PartnerHistory(ctx, moonURL, 1)
		require.NoError(t, err)
		require.Len(t, limited, 1)

		none, err := pg.PartnerHistory(ctx, "https://get.unstoppabledomains.com/nope", 10)
		require.NoError(t, err)
		require.Empty(t, none)
	})

	t.Run("latest result", func(t *testing.T) {
		entry, err := pg.LatestResult(ctx, ethURL)
		require.NoError(t, err)
		require.NotNil(t, entry)
		require.Equal(t, newer.ID, entry.ScanID)
		require.Equal(t, "TIMEOUT: page load exceeded 5s", entry.Result.FetchError)

		entry, err = pg.LatestResult(ctx, "https://get.unstoppabledomains.com/nope")
		require.NoError(t, err)
		require.Nil(t, entry)
	})

	t.Run("duplicate run id is rejected", func(t *testing.T) {
		require.Error(t, pg.StoreScanRun(ctx, older))
	})
}
