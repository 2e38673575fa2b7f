package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/corpusdash/internal/domain/query"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/mode"
)

// MaxLimit is the largest accepted row limit.
const MaxLimit = 100_000

// Request is a validated corpus search.
type Request struct {
	query   query.Query
	sources []string
	limit   int
}

// New compiles the query and normalizes the source subset.
// An empty sources list selects every configured source; limit 0 returns all rows.
func New(raw string, m mode.Mode, sources []string, limit int) (Request, error) {
	q, err := query.Compile(raw, m)
	if err != nil {
		return Request{}, err
	}
	if limit < 0 {
		return Request{}, fmt.Errorf("limit must not be negative")
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var names []string
	seen := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		names = append(names, s)
	}

	return Request{query: q, sources: names, limit: limit}, nil
}

// Query returns the compiled query.
func (r *Request) Query() query.Query { return r.query }

// Mode returns the evaluation mode.
func (r *Request) Mode() mode.Mode { return r.query.Mode() }

// Sources returns the requested source names in request order, nil for all.
func (r *Request) Sources() []string { return r.sources }

// Limit returns the maximum number of rows, 0 for no limit.
func (r *Request) Limit() int { return r.limit }
