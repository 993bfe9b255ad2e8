package classifier_test

import (
	"os"
	"path/filepath"
	"testing"

	"domainscan/internal/classifier"
	"domainscan/pkg/domain"

	"github.com/stretchr/testify/require"
)

func newDefault(t *testing.T) *classifier.Classifier {
	t.Helper()

	v, err := classifier.DefaultVocabulary()
	require.NoError(t, err)

	return classifier.New(v)
}

func TestClassify_DefaultVocabulary(t *testing.T) {
	c := newDefault(t)

	cases := []struct {
		raw  string
		want domain.Status
	}{
		{raw: " SOLD ", want: domain.StatusSold},
		{raw: "sold", want: domain.StatusSold},
		{raw: "Taken", want: domain.StatusSold},
		{raw: "Sold Out", want: domain.StatusSold},
		{raw: "Buy Now", want: domain.StatusAvailable},
		{raw: "available", want: domain.StatusAvailable},
		{raw: "Add-to-cart", want: domain.StatusAvailable},
		{raw: "coming soon!!", want: domain.StatusComingSoon},
		{raw: "Not yet available", want: domain.StatusComingSoon},
		{raw: "Available on Jan 5", want: domain.StatusComingSoon},
		{raw: "Launching 2025", want: domain.StatusComingSoon},
		{raw: "pending review", want: domain.StatusUnknown},
		{raw: "", want: domain.StatusUnknown},
		{raw: "   ", want: domain.StatusUnknown},
		{raw: "soldier", want: domain.StatusUnknown},
		{raw: "launchingpad", want: domain.StatusUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			require.Equal(t, tc.want, c.Classify(tc.raw))
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	c := newDefault(t)

	for _, raw := range []string{" SOLD ", "Buy Now", "coming soon!!", "pending review"} {
		first := c.Classify(raw)
		for i := 0; i < 5; i++ {
			require.Equal(t, first, c.Classify(raw), "classification of %q changed", raw)
		}
		require.Equal(t, first, c.Classify(classifier.Normalize(raw)), "normalized label must classify the same")
	}
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "coming soon", classifier.Normalize("  Coming\tSOON!! "))
	require.Equal(t, "add to cart", classifier.Normalize("add-to-cart"))
	require.Equal(t, "", classifier.Normalize("!!!"))
}

func TestVocabulary_Validate(t *testing.T) {
	cases := []struct {
		name string
		yml  string
		ok   bool
	}{
		{
			name: "valid",
			yml:  "version: v1\nrules:\n  - status: sold\n    exact: [gone]\n",
			ok:   true,
		},
		{
			name: "missing version",
			yml:  "rules:\n  - status: sold\n    exact: [gone]\n",
		},
		{
			name: "unknown is not a target",
			yml:  "version: v1\nrules:\n  - status: unknown\n    exact: [what]\n",
		},
		{
			name: "invalid status",
			yml:  "version: v1\nrules:\n  - status: reserved\n    exact: [held]\n",
		},
		{
			name: "rule without phrases",
			yml:  "version: v1\nrules:\n  - status: sold\n",
		},
		{
			name: "conflicting phrase",
			yml:  "version: v1\nrules:\n  - status: sold\n    exact: [done]\n  - status: available\n    exact: [DONE!]\n",
		},
		{
			name: "broken yaml",
			yml:  "version: [",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := classifier.ParseVocabulary([]byte(tc.yml))
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestLoadVocabulary_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yml")
	require.NoError(t, os.WriteFile(path, []byte(`version: custom-1
rules:
  - status: sold
    exact: [gone]
  - status: coming_soon
    prefix: [drops]
`), 0o600))

	v, err := classifier.LoadVocabulary(path)
	require.NoError(t, err)

	c := classifier.New(v)
	require.Equal(t, "custom-1", c.Version())
	require.Equal(t, domain.StatusSold, c.Classify("GONE"))
	require.Equal(t, domain.StatusComingSoon, c.Classify("drops friday"))
	require.Equal(t, domain.StatusUnknown, c.Classify("sold"), "custom table replaces the default one")

	_, err = classifier.LoadVocabulary(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)

	def, err := classifier.LoadVocabulary("")
	require.NoError(t, err)
	require.NotEmpty(t, def.Version)
}
