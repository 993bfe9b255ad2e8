// Package partners holds the list of partner landing pages and the rules used to
// pick the pages a scan visits.
package partners

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"domainscan/pkg/domain"
	"domainscan/pkg/serrors"

	"gopkg.in/yaml.v3"
)

//go:embed partners.yml
var defaultList []byte

type file struct {
	Partners []domain.Partner `yaml:"partners"`
}

// Default returns the built-in partner list.
func Default() ([]domain.Partner, error) {
	return Parse(defaultList)
}

// Load reads a partner list from a YAML file. An empty path returns the
// built-in list.
func Load(path string) ([]domain.Partner, error) {
	if path == "" {
		return Default()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read partner list %s: %w", path, err)
	}

	return Parse(b)
}

// Parse decodes a YAML partner list.
func Parse(b []byte) ([]domain.Partner, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not decode partner list")
	}

	return f.Partners, nil
}

// Select builds the scan list from a partner list, the way it is fed to a
// scan:
//   - not launched partners are dropped unless includeNotLaunched is set
//   - URLs are normalized, and duplicates are removed keeping the first
//     occurrence
//   - the result is ordered by partner subpage name so runs are reproducible
//
// A URL that cannot be normalized is kept as written. The scan records it as a
// failed partner instead of dropping it.
func Select(list []domain.Partner, includeNotLaunched bool) []domain.Partner {
	seen := make(map[string]struct{}, len(list))
	out := make([]domain.Partner, 0, len(list))
	for _, p := range list {
		if !p.Launched && !includeNotLaunched {
			continue
		}

		if normalized, err := NormalizeURL(p.URL); err == nil {
			p.URL = normalized
		}
		if _, ok := seen[p.URL]; ok {
			continue
		}
		seen[p.URL] = struct{}{}

		p.Name = p.DisplayName()
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return domain.PartnerName(out[i].URL) < domain.PartnerName(out[j].URL)
	})

	return out
}

// URLs returns the page addresses of the given partners in order.
func URLs(list []domain.Partner) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.URL
	}

	return out
}
