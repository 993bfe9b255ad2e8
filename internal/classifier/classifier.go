// Package classifier maps raw domain card labels to a fixed set of statuses.
//
// Classification is a pure function of the label and the vocabulary: there is no
// I/O and no hidden state, so the same label always yields the same status.
package classifier

import (
	"strings"
	"unicode"

	"domainscan/pkg/domain"
)

type prefixRule struct {
	phrase string
	status domain.Status
}

// Classifier classifies labels against a compiled Vocabulary.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	version  string
	exact    map[string]domain.Status
	prefixes []prefixRule
}

// New compiles the vocabulary. Earlier rules win when phrases repeat.
func New(v Vocabulary) *Classifier {
	c := &Classifier{
		version: v.Version,
		exact:   make(map[string]domain.Status),
	}
	for _, r := range v.Rules {
		for _, p := range r.Exact {
			n := Normalize(p)
			if _, ok := c.exact[n]; !ok {
				c.exact[n] = r.Status
			}
		}
		for _, p := range r.Prefix {
			c.prefixes = append(c.prefixes, prefixRule{phrase: Normalize(p), status: r.Status})
		}
	}

	return c
}

// Version returns the version of the vocabulary the classifier was built from.
func (c *Classifier) Version() string { return c.version }

// Classify returns the status for a raw label, or StatusUnknown when nothing matches.
func (c *Classifier) Classify(raw string) domain.Status {
	n := Normalize(raw)
	if n == "" {
		return domain.StatusUnknown
	}
	if s, ok := c.exact[n]; ok {
		return s
	}
	for _, p := range c.prefixes {
		if strings.HasPrefix(n, p.phrase) && (len(n) == len(p.phrase) || n[len(p.phrase)] == ' ') {
			return p.status
		}
	}

	return domain.StatusUnknown
}

// Normalize lower-cases the label, turns punctuation into spaces and collapses
// runs of whitespace, so " SOLD " and "sold" or "coming soon!!" and "coming soon"
// compare equal.
func Normalize(raw string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, raw)

	return strings.Join(strings.Fields(mapped), " ")
}
