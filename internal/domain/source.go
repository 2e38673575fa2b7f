package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Source is a named raw URL of one corpus text.
type Source struct {
	name string
	url  string
}

// NewSource validates and creates a Source.
func NewSource(name, rawURL string) (Source, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Source{}, fmt.Errorf("source name is required")
	}
	if err := ValidateURL(rawURL); err != nil {
		return Source{}, fmt.Errorf("source %q: %w", name, err)
	}
	return Source{name: name, url: rawURL}, nil
}

// Name returns the display name of the source.
func (s Source) Name() string { return s.name }

// URL returns the raw URL of the source text.
func (s Source) URL() string { return s.url }

// ValidateURL checks that rawURL is an absolute http or https URL with a host.
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return nil
}
