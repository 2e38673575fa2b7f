package jsonsearch

import (
	"context"

	"github.com/kailas-cloud/corpusdash/internal/domain"
)

// Fetcher retrieves the JSON document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (domain.Document, error)
}
