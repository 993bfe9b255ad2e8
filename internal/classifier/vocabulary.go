package classifier

import (
	_ "embed"
	"fmt"
	"os"

	"domainscan/pkg/domain"

	"gopkg.in/yaml.v3"
)

// defaultVocabulary is the canonical label table shipped with the binary.
//
//go:embed vocabulary.yml
var defaultVocabulary []byte

// Rule maps a set of normalized phrases to a status.
type Rule struct {
	// Status is the status assigned when one of the phrases matches.
	Status domain.Status `yaml:"status"`
	// Exact phrases must equal the normalized label.
	Exact []string `yaml:"exact"`
	// Prefix phrases must start the normalized label at a word boundary.
	Prefix []string `yaml:"prefix"`
}

// Vocabulary is a versioned label table. It is data, loaded independently of the
// classification algorithm, so it can evolve without code changes.
type Vocabulary struct {
	Version string `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

// DefaultVocabulary returns the embedded vocabulary.
func DefaultVocabulary() (Vocabulary, error) {
	return ParseVocabulary(defaultVocabulary)
}

// LoadVocabulary reads a vocabulary file. An empty path yields the embedded default.
func LoadVocabulary(path string) (Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("could not read vocabulary file: %w", err)
	}

	return ParseVocabulary(b)
}

// ParseVocabulary decodes and validates a YAML vocabulary.
func ParseVocabulary(b []byte) (Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(b, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("could not decode vocabulary: %w", err)
	}
	if err := v.Validate(); err != nil {
		return Vocabulary{}, err
	}

	return v, nil
}

// Validate checks that every rule targets a concrete status and that no phrase is
// claimed by two different statuses.
func (v Vocabulary) Validate() error {
	if v.Version == "" {
		return fmt.Errorf("vocabulary has no version")
	}

	seen := map[string]domain.Status{}
	for i, r := range v.Rules {
		if !r.Status.Valid() || r.Status == domain.StatusUnknown {
			return fmt.Errorf("rule %d: invalid status %q", i, r.Status)
		}
		if len(r.Exact) == 0 && len(r.Prefix) == 0 {
			return fmt.Errorf("rule %d (%s): no phrases", i, r.Status)
		}
		for _, p := range append(append([]string{}, r.Exact...), r.Prefix...) {
			n := Normalize(p)
			if n == "" {
				return fmt.Errorf("rule %d (%s): empty phrase", i, r.Status)
			}
			if prev, ok := seen[n]; ok && prev != r.Status {
				return fmt.Errorf("phrase %q mapped to both %s and %s", n, prev, r.Status)
			}
			seen[n] = r.Status
		}
	}

	return nil
}
