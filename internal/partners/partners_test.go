package partners_test

import (
	"os"
	"path/filepath"
	"testing"

	"domainscan/internal/partners"
	"domainscan/pkg/domain"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	list, err := partners.Default()
	require.NoError(t, err)
	require.NotEmpty(t, list)

	launched := 0
	for _, p := range list {
		require.NotEmpty(t, p.URL)
		if p.Launched {
			launched++
		}
	}
	require.Positive(t, launched)
	require.Less(t, launched, len(list), "built-in list has not launched partners")
}

func TestSelect_DefaultList(t *testing.T) {
	list, err := partners.Default()
	require.NoError(t, err)

	launchedOnly := partners.Select(list, false)
	all := partners.Select(list, true)
	require.Greater(t, len(all), len(launchedOnly))

	seen := map[string]bool{}
	for i, p := range all {
		require.False(t, seen[p.URL], "duplicate partner %s", p.URL)
		seen[p.URL] = true
		if i > 0 {
			require.LessOrEqual(t, domain.PartnerName(all[i-1].URL), domain.PartnerName(p.URL))
		}
	}
}

func TestSelect(t *testing.T) {
	list := []domain.Partner{
		{URL: "https://get.example.com/zeta/", Launched: true},
		{URL: "https://GET.example.com/alpha", Launched: true},
		{URL: "https://get.example.com/beta/", Launched: false},
		{URL: "https://get.example.com/alpha/", Launched: true},
		{URL: "https://get.example.com/gamma/", Name: "Gamma", Launched: true},
	}

	got := partners.Select(list, false)
	require.Equal(t, []string{
		"https://get.example.com/alpha",
		"https://get.example.com/gamma",
		"https://get.example.com/zeta",
	}, partners.URLs(got))
	require.Equal(t, "alpha", got[0].Name)
	require.Equal(t, "Gamma", got[1].Name)

	require.Len(t, partners.Select(list, true), 4)

	kept := partners.Select([]domain.Partner{
		{URL: "https://get.example.com/b/", Launched: true},
		{URL: "not a url", Launched: true},
	}, false)
	require.Len(t, kept, 2, "an unparsable url is kept for the scan to report")
	require.Contains(t, partners.URLs(kept), "not a url")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partners.yml")
	require.NoError(t, os.WriteFile(path, []byte(`partners:
  - url: https://get.example.com/one/
    launched: true
  - url: https://get.example.com/two/
    name: Two
`), 0o600))

	list, err := partners.Load(path)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.True(t, list[0].Launched)
	require.False(t, list[1].Launched)
	require.Equal(t, "Two", list[1].Name)

	_, err = partners.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)

	_, err = partners.Parse([]byte("partners: ["))
	require.Error(t, err)
}
