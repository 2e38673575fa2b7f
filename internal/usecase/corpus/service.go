package corpus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/corpusdash/internal/domain"
	"github.com/kailas-cloud/corpusdash/internal/domain/query"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/request"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/result"
	"github.com/kailas-cloud/corpusdash/internal/domain/text"
	"github.com/kailas-cloud/corpusdash/internal/metrics"
)

// DefaultConcurrency bounds parallel source fetches.
const DefaultConcurrency = 4

// Health check bounds: a probe waits at most HealthCheckTimeout, and a
// finished check is reused for HealthCheckTTL.
const (
	HealthCheckTimeout = 3 * time.Second
	HealthCheckTTL     = 30 * time.Second
)

// NoTextWarning is reported when none of the selected sources yielded a sentence.
const NoTextWarning = "no source returned any text; check the configured source URLs"

// Service searches the sentences of a fixed, ordered list of sources.
type Service struct {
	sources     []domain.Source
	byName      map[string]domain.Source
	fetcher     Fetcher
	concurrency int
	logger      *zap.Logger

	health        healthState
	healthTimeout time.Duration
	healthTTL     time.Duration
	now           func() time.Time
}

// healthState is the last sources check and the one in flight, if any.
type healthState struct {
	mu      sync.Mutex
	err     error
	checked time.Time
	running chan struct{}
}

// New creates a corpus service over sources, kept in the given order.
func New(sources []domain.Source, fetcher Fetcher, concurrency int, logger *zap.Logger) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	byName := make(map[string]domain.Source, len(sources))
	for _, src := range sources {
		byName[src.Name()] = src
	}
	return &Service{
		sources:       sources,
		byName:        byName,
		fetcher:       fetcher,
		concurrency:   concurrency,
		logger:        logger,
		healthTimeout: HealthCheckTimeout,
		healthTTL:     HealthCheckTTL,
		now:           time.Now,
	}
}

// SourceNames returns the configured source names in order.
func (s *Service) SourceNames() []string {
	names := make([]string, len(s.sources))
	for i, src := range s.sources {
		names[i] = src.Name()
	}
	return names
}

// fetched is the split text of one source, or the reason it is missing.
type fetched struct {
	source    domain.Source
	sentences []string
	err       error
}

// Search evaluates the request against every sentence of the selected
// sources. Unreachable sources are reported in Failures, never as an error.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Report, error) {
	selected, err := s.selectSources(req.Sources())
	if err != nil {
		return result.Report{}, err
	}

	texts, err := s.fetchAll(ctx, selected)
	if err != nil {
		return result.Report{}, err
	}

	q := req.Query()
	report := result.Report{
		Query:    q.Raw(),
		Mode:     q.Mode(),
		Counts:   make([]result.SourceCount, 0, len(texts)),
		Warnings: q.Warnings(),
	}
	scanned := 0

	for _, t := range texts {
		count := result.SourceCount{Source: t.source.Name(), Sentences: len(t.sentences)}
		if t.err != nil {
			report.Failures = append(report.Failures, result.SourceFailure{
				Source: t.source.Name(),
				Reason: failureReason(t.err),
			})
		}
		for i, sentence := range t.sentences {
			if !q.MatchSet(query.NewTokenSet(text.Words(sentence))) {
				continue
			}
			count.Matches++
			if req.Limit() > 0 && len(report.Rows) >= req.Limit() {
				report.Truncated = true
				continue
			}
			report.Rows = append(report.Rows, result.NewRow(t.source.Name(), i+1, sentence))
		}
		scanned += len(t.sentences)
		report.Counts = append(report.Counts, count)
	}

	if scanned == 0 && len(texts) > 0 {
		report.Warnings = append(report.Warnings, NoTextWarning)
	}

	metrics.SentencesScannedTotal.Add(float64(scanned))
	metrics.SearchMatchesTotal.WithLabelValues(string(q.Mode())).Add(float64(report.Total()))

	if w := q.Warnings(); len(w) > 0 {
		s.logger.Warn("Query relies on legacy evaluation quirks",
			zap.String("query", q.Raw()),
			zap.Strings("warnings", w),
		)
	}
	s.logger.Debug("Corpus search finished",
		zap.String("query", q.Raw()),
		zap.String("mode", string(q.Mode())),
		zap.Int("sources", len(texts)),
		zap.Int("sentences", scanned),
		zap.Int("matches", report.Total()),
		zap.Int("failures", len(report.Failures)),
	)

	return report, nil
}

// Sources fetches every configured source and reports its sentence count.
func (s *Service) Sources(ctx context.Context) ([]result.SourceStatus, error) {
	texts, err := s.fetchAll(ctx, s.sources)
	if err != nil {
		return nil, err
	}
	out := make([]result.SourceStatus, len(texts))
	for i, t := range texts {
		out[i] = result.SourceStatus{
			Name:      t.source.Name(),
			URL:       t.source.URL(),
			Sentences: len(t.sentences),
		}
		if t.err != nil {
			out[i].Err = failureReason(t.err)
		}
	}
	return out, nil
}

// HealthCheck fails only when no source can be fetched. The check runs
// detached from ctx; a probe that outlives healthTimeout gets the previous
// result, nil before the first check finishes.
func (s *Service) HealthCheck(ctx context.Context) error {
	h := &s.health
	h.mu.Lock()
	if !h.checked.IsZero() && s.now().Sub(h.checked) < s.healthTTL {
		err := h.err
		h.mu.Unlock()
		return err
	}
	if h.running == nil {
		done := make(chan struct{})
		h.running = done
		go func() {
			defer close(done)
			err := s.checkSources(context.WithoutCancel(ctx))
			h.mu.Lock()
			h.err, h.checked, h.running = err, s.now(), nil
			h.mu.Unlock()
		}()
	}
	running, last := h.running, h.err
	h.mu.Unlock()

	timer := time.NewTimer(s.healthTimeout)
	defer timer.Stop()
	select {
	case <-running:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.err
	case <-timer.C:
		s.logger.Warn("Sources health check still running, reporting previous result",
			zap.Duration("timeout", s.healthTimeout))
		return last
	case <-ctx.Done():
		return last
	}
}

func (s *Service) checkSources(ctx context.Context) error {
	texts, err := s.fetchAll(ctx, s.sources)
	if err != nil {
		return err
	}
	var errs []error
	for _, t := range texts {
		if t.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.source.Name(), t.err))
		}
	}
	if len(texts) > 0 && len(errs) == len(texts) {
		return fmt.Errorf("all %d sources unavailable: %w", len(texts), errors.Join(errs...))
	}
	return nil
}

func (s *Service) selectSources(names []string) ([]domain.Source, error) {
	if len(names) == 0 {
		return s.sources, nil
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := s.byName[n]; !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrSourceNotFound, n)
		}
		want[n] = struct{}{}
	}
	// Configured order, not request order.
	out := make([]domain.Source, 0, len(want))
	for _, src := range s.sources {
		if _, ok := want[src.Name()]; ok {
			out = append(out, src)
		}
	}
	return out, nil
}

// fetchAll fetches and splits sources concurrently. Per-source failures are
// recorded in the result; only cancellation of ctx is returned as an error.
func (s *Service) fetchAll(ctx context.Context, sources []domain.Source) ([]fetched, error) {
	out := make([]fetched, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			out[i].source = src
			doc, err := s.fetcher.Fetch(gctx, src.URL())
			if err != nil {
				s.logger.Warn("Source unavailable",
					zap.String("source", src.Name()),
					zap.String("url", src.URL()),
					zap.Error(err),
				)
				out[i].err = err
				return nil
			}
			out[i].sentences = text.SplitSentences(doc.Text())
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch sources: %w", err)
	}
	return out, nil
}

// failureReason is the client-safe description of a fetch failure.
func failureReason(err error) string {
	var fe *domain.FetchError
	switch {
	case errors.As(err, &fe):
		return fe.Error()
	case errors.Is(err, domain.ErrDocumentTooLarge):
		return domain.ErrDocumentTooLarge.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "fetch failed: timeout"
	default:
		return domain.ErrFetchFailed.Error()
	}
}
