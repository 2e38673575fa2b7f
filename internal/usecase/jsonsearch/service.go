package jsonsearch

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/corpusdash/internal/domain"
	"github.com/kailas-cloud/corpusdash/internal/domain/jsondoc"
	"github.com/kailas-cloud/corpusdash/internal/metrics"
)

// DefaultMaxMatches caps the match list when no limit is configured.
const DefaultMaxMatches = 500

// Request is one JSON search.
type Request struct {
	URL   string
	Query string
	// Path optionally restricts matches to gjson paths matching this glob.
	Path string
}

// Result is the search outcome for one document.
type Result struct {
	URL string
	jsondoc.Result
}

// Service fetches a user-supplied JSON document and searches it.
type Service struct {
	fetcher    Fetcher
	maxMatches int
}

// New creates a JSON search service.
func New(fetcher Fetcher, maxMatches int) *Service {
	if maxMatches <= 0 {
		maxMatches = DefaultMaxMatches
	}
	return &Service{fetcher: fetcher, maxMatches: maxMatches}
}

// Search validates the URL, fetches the document and looks for the query.
func (s *Service) Search(ctx context.Context, req Request) (Result, error) {
	if err := domain.ValidateURL(req.URL); err != nil {
		return Result{}, err //nolint:wrapcheck // already carries ErrInvalidURL context
	}

	doc, err := s.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return Result{}, fmt.Errorf("fetch json: %w", err)
	}

	res, err := jsondoc.Search(doc.Body, req.Query, jsondoc.Options{
		MaxMatches:  s.maxMatches,
		PathPattern: req.Path,
	})
	if err != nil {
		return Result{}, fmt.Errorf("search %s: %w", req.URL, err)
	}

	metrics.SearchMatchesTotal.WithLabelValues("json").Add(float64(len(res.Matches)))
	return Result{URL: req.URL, Result: res}, nil
}
