package corpus

import (
	"context"

	"github.com/kailas-cloud/corpusdash/internal/domain"
)

// Fetcher retrieves a source text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (domain.Document, error)
}
