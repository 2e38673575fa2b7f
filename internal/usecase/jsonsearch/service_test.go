package jsonsearch

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/corpusdash/internal/domain"
)

// --- Mocks ---

type mockFetcher struct {
	body   string
	err    error
	called bool
}

func (m *mockFetcher) Fetch(_ context.Context, url string) (domain.Document, error) {
	m.called = true
	if m.err != nil {
		return domain.Document{}, m.err
	}
	return domain.Document{URL: url, Body: []byte(m.body)}, nil
}

// --- Tests ---

const docURL = "https://example.com/data.json"

func TestSearch_Found(t *testing.T) {
	f := &mockFetcher{body: `{"title":"骆驼祥子","chapters":[{"name":"Rickshaw"}]}`}
	svc := New(f, 0)

	res, err := svc.Search(context.Background(), Request{URL: docURL, Query: "rickshaw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Found {
		t.Error("expected Found")
	}
	if len(res.Matches) != 1 || res.Matches[0].Path != "chapters.0.name" {
		t.Errorf("unexpected matches: %+v", res.Matches)
	}
	if res.URL != docURL {
		t.Errorf("URL = %q", res.URL)
	}
}

func TestSearch_NotFound(t *testing.T) {
	svc := New(&mockFetcher{body: `{"a":1}`}, 0)

	res, err := svc.Search(context.Background(), Request{URL: docURL, Query: "zzz"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found {
		t.Error("expected not found")
	}
	if len(res.Document) == 0 {
		t.Error("document should still be returned")
	}
}

func TestSearch_PathAndCap(t *testing.T) {
	body := `{"a":{"x":"hit","y":"hit","z":"hit"},"b":{"x":"hit"}}`
	svc := New(&mockFetcher{body: body}, 2)

	res, err := svc.Search(context.Background(), Request{URL: docURL, Query: "hit", Path: "a.*"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Matches) != 2 || !res.Truncated {
		t.Errorf("len=%d truncated=%v, want 2 and true", len(res.Matches), res.Truncated)
	}
	for _, m := range res.Matches {
		if m.Path[0] != 'a' {
			t.Errorf("path filter not applied: %q", m.Path)
		}
	}
}

func TestSearch_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com/a.json", "not a url", "https://"} {
		f := &mockFetcher{}
		_, err := New(f, 0).Search(context.Background(), Request{URL: u, Query: "a"})
		if !errors.Is(err, domain.ErrInvalidURL) {
			t.Errorf("URL %q: expected ErrInvalidURL, got %v", u, err)
		}
		if f.called {
			t.Errorf("URL %q: fetcher must not be called", u)
		}
	}
}

func TestSearch_FetchError(t *testing.T) {
	f := &mockFetcher{err: domain.NewFetchError(docURL, 503)}
	_, err := New(f, 0).Search(context.Background(), Request{URL: docURL, Query: "a"})
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestSearch_InvalidJSON(t *testing.T) {
	f := &mockFetcher{body: "<html>not json</html>"}
	_, err := New(f, 0).Search(context.Background(), Request{URL: docURL, Query: "a"})
	if !errors.Is(err, domain.ErrInvalidJSON) {
		t.Fatalf("expected ErrInvalidJSON, got %v", err)
	}
}

func TestNew_DefaultMaxMatches(t *testing.T) {
	if svc := New(&mockFetcher{}, 0); svc.maxMatches != DefaultMaxMatches {
		t.Errorf("maxMatches = %d, want %d", svc.maxMatches, DefaultMaxMatches)
	}
}
