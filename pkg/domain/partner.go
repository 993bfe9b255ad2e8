package domain

import "strings"

// Partner describes a partner landing page that offers premium domains.
type Partner struct {
	// URL is the landing page address.
	URL string `json:"url" yaml:"url"`
	// Name is the short partner name. It is derived from URL when empty.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Launched is false for partners whose page is not public yet.
	Launched bool `json:"launched" yaml:"launched"`
}

// PartnerName returns the last non-empty path segment of a partner URL,
// e.g. "moon" for "https://get.unstoppabledomains.com/moon/".
func PartnerName(URL string) string {
	trimmed := URL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.TrimRight(trimmed, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}

	return strings.ToLower(trimmed)
}

// DisplayName returns Name, or the name derived from URL when Name is empty.
func (p Partner) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}

	return PartnerName(p.URL)
}
