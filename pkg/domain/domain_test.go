package domain_test

import (
	"encoding/json"
	"testing"

	"domainscan/pkg/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPartnerName(t *testing.T) {
	cases := map[string]string{
		"https://get.unstoppabledomains.com/moon/":     "moon",
		"https://get.unstoppabledomains.com/moon":      "moon",
		"https://get.unstoppabledomains.com/Moon/?x=1": "moon",
		"https://get.unstoppabledomains.com/a/b#frag":  "b",
		"moon": "moon",
		"":     "",
	}

	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			require.Equal(t, want, domain.PartnerName(in))
		})
	}
}

func TestPartner_DisplayName(t *testing.T) {
	require.Equal(t, "moon", domain.Partner{URL: "https://x.com/moon/"}.DisplayName())
	require.Equal(t, "Moon DAO", domain.Partner{URL: "https://x.com/moon/", Name: "Moon DAO"}.DisplayName())
}

func TestNewDomainEntry_Price(t *testing.T) {
	price := 10.0
	negative := -1.0

	require.NotNil(t, domain.NewDomainEntry("a.moon", domain.StatusSold, "Sold", &price).Price)
	require.NotNil(t, domain.NewDomainEntry("a.moon", domain.StatusAvailable, "Buy", &price).Price)
	require.Nil(t, domain.NewDomainEntry("a.moon", domain.StatusComingSoon, "Soon", &price).Price)
	require.Nil(t, domain.NewDomainEntry("a.moon", domain.StatusUnknown, "??", &price).Price)
	require.Nil(t, domain.NewDomainEntry("a.moon", domain.StatusSold, "Sold", &negative).Price)
	require.Nil(t, domain.NewDomainEntry("a.moon", domain.StatusSold, "Sold", nil).Price)

	e := domain.NewDomainEntry("a.moon", domain.StatusSold, "Sold", &price)
	price = 99
	require.InDelta(t, 10, *e.Price, 0, "entry keeps its own copy of the price")
}

func TestPartnerScanResult_Counts(t *testing.T) {
	p := 5.0
	r := domain.PartnerScanResult{Domains: []domain.DomainEntry{
		domain.NewDomainEntry("a.moon", domain.StatusSold, "Sold", &p),
		domain.NewDomainEntry("b.moon", domain.StatusSold, "Sold", nil),
		domain.NewDomainEntry("c.moon", domain.StatusAvailable, "Buy", &p),
		domain.NewDomainEntry("d.moon", domain.StatusComingSoon, "Soon", nil),
		domain.NewDomainEntry("e.moon", domain.StatusUnknown, "??", nil),
	}}

	require.True(t, r.HasDomains())
	require.False(t, r.Failed())
	require.Equal(t, 5, r.TotalDomains())
	require.Equal(t, 2, r.TotalSold())
	require.Equal(t, 1, r.TotalAvailable())
	require.Equal(t, 1, r.TotalComingSoon())
	require.InDelta(t, 5, r.SoldValue(), 1e-9)

	require.True(t, domain.PartnerScanResult{FetchError: "TIMEOUT"}.Failed())
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range []domain.Status{domain.StatusSold, domain.StatusAvailable, domain.StatusComingSoon, domain.StatusUnknown} {
		require.True(t, s.Valid())
	}
	require.False(t, domain.Status("reserved").Valid())
}

func TestPriorityTier_Rank(t *testing.T) {
	require.Less(t, domain.PriorityNone.Rank(), domain.PriorityOK.Rank())
	require.Less(t, domain.PriorityOK.Rank(), domain.PriorityMedium.Rank())
	require.Less(t, domain.PriorityMedium.Rank(), domain.PriorityHigh.Rank())
}

func TestScanID_JSON(t *testing.T) {
	id := domain.ScanID(uuid.MustParse("6f1c2a52-3b1e-4c55-9a8e-2f5d0f7b9c11"))

	b, err := json.Marshal(domain.ScanRun{ID: id})
	require.NoError(t, err)
	require.Contains(t, string(b), `"id":"6f1c2a52-3b1e-4c55-9a8e-2f5d0f7b9c11"`)

	var run domain.ScanRun
	require.NoError(t, json.Unmarshal(b, &run))
	require.Equal(t, id, run.ID)
}
