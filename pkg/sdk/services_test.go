package corpusdash

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/corpusdash/internal/domain"
	"github.com/kailas-cloud/corpusdash/internal/domain/jsondoc"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/mode"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/request"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/corpusdash/internal/usecase/health"
	jsonsearchuc "github.com/kailas-cloud/corpusdash/internal/usecase/jsonsearch"
)

// --- Evaluate ---

func TestEvaluate(t *testing.T) {
	tokens := []string{"祥子", "拉", "车"}
	tests := []struct {
		query string
		want  bool
	}{
		{"祥子 AND 车", true},
		{"祥子 AND NOT 车", false},
		{"马车 OR 车", true},
		{"", false},
		{"(祥子", false},
	}
	for _, tt := range tests {
		if got := Evaluate(tt.query, tokens); got != tt.want {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestEvaluateMode(t *testing.T) {
	tokens := []string{"b"}
	if !EvaluateMode("c AND (a OR b)", ModeLegacy, tokens) {
		t.Error("legacy mode should ignore grouping")
	}
	if EvaluateMode("c AND (a OR b)", ModeBoolean, tokens) {
		t.Error("boolean mode should honour grouping")
	}
	if EvaluateMode("b", "fuzzy", tokens) {
		t.Error("unknown mode must evaluate to false")
	}
}

// --- SearchBuilder ---

func TestSearchBuilder_Do(t *testing.T) {
	var got *request.Request
	mock := &mockCorpusUC{
		searchFn: func(_ context.Context, req *request.Request) (result.Report, error) {
			got = req
			return result.Report{
				Query: req.Query().Raw(),
				Mode:  req.Mode(),
				Rows:  []result.Row{result.NewRow("骆驼祥子", 3, "祥子/nr 拉/v 车/n")},
				Counts: []result.SourceCount{
					{Source: "骆驼祥子", Sentences: 10, Matches: 2},
					{Source: "半生缘", Sentences: 0, Matches: 0},
				},
				Failures:  []result.SourceFailure{{Source: "半生缘", Reason: "fetch failed"}},
				Truncated: true,
			}, nil
		},
	}

	c := testClient(mock, nil)
	report, err := c.Search("祥子 AND 车").Mode(ModeLegacy).Sources("骆驼祥子", "半生缘").Limit(1).Do(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Mode() != mode.Legacy {
		t.Errorf("mode = %q, want legacy", got.Mode())
	}
	if got.Limit() != 1 {
		t.Errorf("limit = %d, want 1", got.Limit())
	}
	if diff := cmp.Diff([]string{"骆驼祥子", "半生缘"}, got.Sources()); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}

	want := &SearchReport{
		Query: "祥子 AND 车",
		Mode:  ModeLegacy,
		Rows:  []Row{{Source: "骆驼祥子", Index: 3, Sentence: "祥子/nr 拉/v 车/n"}},
		Counts: []SourceCount{
			{Source: "骆驼祥子", Sentences: 10, Matches: 2},
			{Source: "半生缘", Sentences: 0, Matches: 0},
		},
		Failures:  []SourceFailure{{Source: "半生缘", Reason: "fetch failed"}},
		Total:     2,
		Truncated: true,
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchBuilder_DefaultMode(t *testing.T) {
	var got mode.Mode
	mock := &mockCorpusUC{
		searchFn: func(_ context.Context, req *request.Request) (result.Report, error) {
			got = req.Mode()
			return result.Report{}, nil
		},
	}

	c := testClient(mock, nil)
	c.defaultMode = mode.Legacy
	if _, err := c.Search("a").Do(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != mode.Legacy {
		t.Errorf("mode = %q, want client default legacy", got)
	}
}

func TestSearchBuilder_InvalidQuery(t *testing.T) {
	mock := &mockCorpusUC{
		searchFn: func(context.Context, *request.Request) (result.Report, error) {
			t.Fatal("service must not be called")
			return result.Report{}, nil
		},
	}

	_, err := testClient(mock, nil).Search("  ").Do(context.Background())
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestSearchBuilder_ServiceError(t *testing.T) {
	mock := &mockCorpusUC{
		searchFn: func(context.Context, *request.Request) (result.Report, error) {
			return result.Report{}, domain.ErrSourceNotFound
		},
	}

	_, err := testClient(mock, nil).Search("a").Sources("红楼梦").Do(context.Background())
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

// --- Sources ---

func TestSources(t *testing.T) {
	mock := &mockCorpusUC{
		sourcesFn: func(context.Context) ([]result.SourceStatus, error) {
			return []result.SourceStatus{
				{Name: "a", URL: "https://example.com/a", Sentences: 5},
				{Name: "b", URL: "https://example.com/b", Err: "fetch failed: timeout"},
			}, nil
		},
	}

	infos, err := testClient(mock, nil).Sources(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []SourceInfo{
		{Name: "a", URL: "https://example.com/a", Sentences: 5},
		{Name: "b", URL: "https://example.com/b", Err: "fetch failed: timeout"},
	}
	if diff := cmp.Diff(want, infos); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
}

func TestSources_Error(t *testing.T) {
	mock := &mockCorpusUC{
		sourcesFn: func(context.Context) ([]result.SourceStatus, error) {
			return nil, context.Canceled
		},
	}
	if _, err := testClient(mock, nil).Sources(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// --- SearchJSON ---

func TestSearchJSON(t *testing.T) {
	var got jsonsearchuc.Request
	mock := &mockJSONUC{
		searchFn: func(_ context.Context, req jsonsearchuc.Request) (jsonsearchuc.Result, error) {
			got = req
			return jsonsearchuc.Result{
				URL: req.URL,
				Result: jsondoc.Result{
					Found:    true,
					Matches:  []jsondoc.Match{{Path: "users.0.name", Kind: jsondoc.KindString, Value: "Alice"}},
					Document: []byte("{}"),
				},
			}, nil
		},
	}

	res, err := testClient(nil, mock).SearchJSON(context.Background(),
		"https://example.com/a.json", "alice", WithPath("users.*"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Path != "users.*" || got.Query != "alice" {
		t.Errorf("request = %+v", got)
	}
	want := &JSONResult{
		URL:      "https://example.com/a.json",
		Found:    true,
		Matches:  []JSONMatch{{Path: "users.0.name", Kind: JSONString, Value: "Alice"}},
		Document: []byte("{}"),
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchJSON_Error(t *testing.T) {
	mock := &mockJSONUC{
		searchFn: func(context.Context, jsonsearchuc.Request) (jsonsearchuc.Result, error) {
			return jsonsearchuc.Result{}, domain.ErrInvalidJSON
		},
	}
	_, err := testClient(nil, mock).SearchJSON(context.Background(), "https://example.com/a", "x")
	if !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("expected ErrInvalidJSON, got %v", err)
	}
}

// --- Health ---

func TestHealth(t *testing.T) {
	c := testClient(nil, nil)
	c.healthSvc = &mockHealthUC{
		checkFn: func(context.Context) healthuc.Report {
			return healthuc.Report{
				Status: healthuc.Degraded,
				Checks: map[string]healthuc.CheckResult{"cache": healthuc.CheckOK, "sources": healthuc.CheckError},
			}
		},
	}

	h := c.Health(context.Background())
	want := HealthStatus{Status: "degraded", Checks: map[string]string{"cache": "ok", "sources": "error"}}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("health mismatch (-want +got):\n%s", diff)
	}
}

// --- observer ---

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("search", time.Now(), nil)
	obs.observe("search", time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("search", "ok")); got != 1 {
		t.Errorf("ok count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("search", "error")); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}

func TestObserver_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("first observer: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second observer: %v", err)
	}
	if first.metrics.operations != second.metrics.operations {
		t.Error("expected the registered counter to be reused")
	}
}

func TestObserver_Nil(t *testing.T) {
	var obs *observer
	obs.observe("ping", time.Now(), nil)
}
