package domain

import (
	"context"
	"time"
)

// KeyPrefix is the default prefix for every key the service writes to a cache store.
const KeyPrefix = "corpusdash:"

// Fetcher is the shared remote retrieval contract between layers.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Document, error)
}

// HealthChecker verifies availability of an upstream dependency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Document is a fetched remote resource decoded to UTF-8.
type Document struct {
	URL         string    `json:"url"`
	Body        []byte    `json:"body"`
	ContentType string    `json:"content_type,omitempty"`
	Charset     string    `json:"charset,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Text returns the document body as a string.
func (d Document) Text() string { return string(d.Body) }

// IsEmpty reports whether the document has no content.
func (d Document) IsEmpty() bool { return len(d.Body) == 0 }
