package corpusdash

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/corpusdash/internal/domain/query"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/mode"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/request"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/result"
	jsonsearchuc "github.com/kailas-cloud/corpusdash/internal/usecase/jsonsearch"
)

// Evaluate reports whether tokens satisfy the boolean query. Empty or
// malformed queries evaluate to false.
func Evaluate(q string, tokens []string) bool {
	return query.Evaluate(q, tokens)
}

// EvaluateMode is Evaluate with an explicit evaluation mode.
func EvaluateMode(q string, m Mode, tokens []string) bool {
	cq, err := query.Compile(q, mode.Mode(m))
	if err != nil {
		return false
	}
	return cq.Match(tokens)
}

// SearchBuilder is a fluent builder for corpus searches.
type SearchBuilder struct {
	client  *Client
	query   string
	mode    Mode
	sources []string
	limit   int
}

// Search starts a corpus search for the given query.
func (c *Client) Search(q string) *SearchBuilder {
	return &SearchBuilder{client: c, query: q}
}

// Mode sets the evaluation mode. Defaults to the client default.
func (b *SearchBuilder) Mode(m Mode) *SearchBuilder {
	b.mode = m
	return b
}

// Sources restricts the search to the named sources.
func (b *SearchBuilder) Sources(names ...string) *SearchBuilder {
	b.sources = append(b.sources, names...)
	return b
}

// Limit caps the number of returned rows. Counts still cover every match.
func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	b.limit = n
	return b
}

// Do executes the search.
func (b *SearchBuilder) Do(ctx context.Context) (report *SearchReport, err error) {
	start := time.Now()
	defer func() { b.client.obs.observe("search", start, err) }()

	m := mode.Mode(b.mode)
	if m == "" {
		m = b.client.defaultMode
	}
	req, err := request.New(b.query, m, b.sources, b.limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	r, err := b.client.corpusSvc.Search(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromInternalReport(&r), nil
}

// Sources fetches every configured source and reports its sentence count.
func (c *Client) Sources(ctx context.Context) (infos []SourceInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("sources", start, err) }()

	statuses, err := c.corpusSvc.Sources(ctx)
	if err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}
	infos = make([]SourceInfo, len(statuses))
	for i, s := range statuses {
		infos[i] = SourceInfo{Name: s.Name, URL: s.URL, Sentences: s.Sentences, Err: s.Err}
	}
	return infos, nil
}

// JSONOption tunes a JSON search.
type JSONOption func(*jsonsearchuc.Request)

// WithPath keeps only matches whose gjson path matches the glob pattern.
func WithPath(pattern string) JSONOption {
	return func(r *jsonsearchuc.Request) { r.Path = pattern }
}

// SearchJSON fetches the JSON document at url and looks for q
// case-insensitively in its keys and values.
func (c *Client) SearchJSON(ctx context.Context, url, q string, opts ...JSONOption) (res *JSONResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search_json", start, err) }()

	req := jsonsearchuc.Request{URL: url, Query: q}
	for _, o := range opts {
		o(&req)
	}

	r, err := c.jsonSvc.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search json: %w", err)
	}

	matches := make([]JSONMatch, len(r.Matches))
	for i, m := range r.Matches {
		matches[i] = JSONMatch{Path: m.Path, Kind: JSONMatchKind(m.Kind), Value: m.Value}
	}
	return &JSONResult{
		URL:       r.URL,
		Found:     r.Found,
		Matches:   matches,
		Truncated: r.Truncated,
		Document:  r.Document,
	}, nil
}

func fromInternalReport(r *result.Report) *SearchReport {
	out := &SearchReport{
		Query:     r.Query,
		Mode:      Mode(r.Mode),
		Rows:      make([]Row, len(r.Rows)),
		Counts:    make([]SourceCount, len(r.Counts)),
		Warnings:  r.Warnings,
		Total:     r.Total(),
		Truncated: r.Truncated,
	}
	for i := range r.Rows {
		row := &r.Rows[i]
		out.Rows[i] = Row{Source: row.Source(), Index: row.Index(), Sentence: row.Sentence()}
	}
	for i, c := range r.Counts {
		out.Counts[i] = SourceCount{Source: c.Source, Sentences: c.Sentences, Matches: c.Matches}
	}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, SourceFailure{Source: f.Source, Reason: f.Reason})
	}
	return out
}
