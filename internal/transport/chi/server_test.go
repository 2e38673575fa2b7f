package chi

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdash/internal/domain"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/mode"
	"github.com/kailas-cloud/corpusdash/internal/transport/api"
	corpusuc "github.com/kailas-cloud/corpusdash/internal/usecase/corpus"
	healthuc "github.com/kailas-cloud/corpusdash/internal/usecase/health"
	jsonsearchuc "github.com/kailas-cloud/corpusdash/internal/usecase/jsonsearch"
)

const (
	urlXiangzi = "https://example.com/xiangzi_pos.txt"
	urlHuniu   = "https://example.com/huniu_pos.txt"
	urlDoc     = "https://example.com/doc.json"
)

// --- Mocks ---

type stubFetcher struct {
	docs map[string]string
	errs map[string]error
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (domain.Document, error) {
	if err, ok := f.errs[url]; ok {
		return domain.Document{}, err
	}
	body, ok := f.docs[url]
	if !ok {
		return domain.Document{}, domain.NewFetchError(url, http.StatusNotFound)
	}
	return domain.Document{URL: url, Body: []byte(body)}, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newFetcher() *stubFetcher {
	return &stubFetcher{
		docs: map[string]string{
			urlXiangzi: "祥子/nr 拉/v 车/n 。祥子/nr 笑/v 了/u 。",
			urlHuniu:   "虎妞/nr 拉/v 车/n ！",
			urlDoc:     `{"name":"Alice","tags":["x","alice"],"age":30}`,
		},
		errs: map[string]error{},
	}
}

type testEnv struct {
	fetcher *stubFetcher
	pinger  *stubPinger
	keys    []string
}

func (e *testEnv) router(t *testing.T) http.Handler {
	t.Helper()
	a, err := domain.NewSource("骆驼祥子", urlXiangzi)
	if err != nil {
		t.Fatal(err)
	}
	b, err := domain.NewSource("虎妞", urlHuniu)
	if err != nil {
		t.Fatal(err)
	}
	corpus := corpusuc.New([]domain.Source{a, b}, e.fetcher, 2, zap.NewNop())
	js := jsonsearchuc.New(e.fetcher, 0)
	health := healthuc.New(e.pinger, corpus)
	srv := NewServer(corpus, js, health, mode.Boolean, zap.NewNop())
	return NewRouter(srv, e.keys, zap.NewNop())
}

func newEnv() *testEnv {
	return &testEnv{fetcher: newFetcher(), pinger: &stubPinger{}}
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code api.ErrorResponseCode) api.ErrorResponse {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, status, rr.Body.String())
	}
	resp := decode[api.ErrorResponse](t, rr)
	if resp.Code != code {
		t.Errorf("code: got %s, want %s", resp.Code, code)
	}
	return resp
}

// --- Corpus search ---

func TestSearchCorpus_Post(t *testing.T) {
	h := newEnv().router(t)

	rr := do(t, h, http.MethodPost, "/api/v1/search", `{"query":"祥子 AND 车"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[api.SearchResponse](t, rr)

	want := api.SearchResponse{
		Query: "祥子 AND 车",
		Mode:  "boolean",
		Total: 1,
		Rows:  []api.SearchRow{{Source: "骆驼祥子", Index: 1, Sentence: "祥子/nr 拉/v 车/n"}},
		Counts: []api.SourceCount{
			{Source: "骆驼祥子", Sentences: 2, Matches: 1},
			{Source: "虎妞", Sentences: 1, Matches: 0},
		},
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchCorpus_PostLegacyMode(t *testing.T) {
	h := newEnv().router(t)

	rr := do(t, h, http.MethodPost, "/api/v1/search", `{"query":"NOT 祥子","mode":"LEGACY"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[api.SearchResponse](t, rr)
	if resp.Mode != "legacy" {
		t.Errorf("mode: got %q, want legacy", resp.Mode)
	}
	if resp.Total != 3 {
		t.Errorf("total: got %d, want 3", resp.Total)
	}
	if len(resp.Warnings) == 0 {
		t.Error("expected a legacy warning for leading NOT")
	}
}

func TestSearchCorpus_GetWithLimit(t *testing.T) {
	h := newEnv().router(t)

	rr := do(t, h, http.MethodGet, "/api/v1/search?q=%E8%BD%A6&limit=1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[api.SearchResponse](t, rr)
	if resp.Total != 2 {
		t.Errorf("total: got %d, want 2", resp.Total)
	}
	if len(resp.Rows) != 1 || !resp.Truncated {
		t.Errorf("expected 1 truncated row, got %d rows truncated=%v", len(resp.Rows), resp.Truncated)
	}
}

func TestSearchCorpus_GetSourceFilter(t *testing.T) {
	h := newEnv().router(t)

	rr := do(t, h, http.MethodGet, "/api/v1/search?q=%E8%BD%A6&source=%E8%99%8E%E5%A6%9E", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[api.SearchResponse](t, rr)
	want := []api.SourceCount{{Source: "虎妞", Sentences: 1, Matches: 1}}
	if diff := cmp.Diff(want, resp.Counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchCorpus_CSV(t *testing.T) {
	h := newEnv().router(t)

	rr := do(t, h, http.MethodGet, "/api/v1/search?q=%E8%BD%A6&format=csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type: got %q", ct)
	}
	if got := rr.Header().Get("X-Total-Matches"); got != "2" {
		t.Errorf("X-Total-Matches: got %q, want 2", got)
	}

	records, err := csv.NewReader(rr.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	want := [][]string{
		{"source", "index", "sentence"},
		{"骆驼祥子", "1", "祥子/nr 拉/v 车/n"},
		{"虎妞", "1", "虎妞/nr 拉/v 车/n"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchCorpus_SourceFailure(t *testing.T) {
	env := newEnv()
	env.fetcher.errs[urlHuniu] = domain.NewFetchError(urlHuniu, http.StatusServiceUnavailable)
	h := env.router(t)

	rr := do(t, h, http.MethodPost, "/api/v1/search", `{"query":"车"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[api.SearchResponse](t, rr)
	if resp.Total != 1 {
		t.Errorf("total: got %d, want 1", resp.Total)
	}
	if len(resp.Failures) != 1 || resp.Failures[0].Source != "虎妞" {
		t.Fatalf("failures: got %+v", resp.Failures)
	}
	if !strings.Contains(resp.Failures[0].Reason, "503") {
		t.Errorf("reason should carry the status: %q", resp.Failures[0].Reason)
	}
}

func TestSearchCorpus_Errors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
		code   api.ErrorResponseCode
	}{
		{"bad body", http.MethodPost, "/api/v1/search", `{"query":`, http.StatusBadRequest, api.ErrorResponseCodeBadRequest},
		{"empty query", http.MethodPost, "/api/v1/search", `{"query":"  "}`, http.StatusBadRequest, api.ErrorResponseCodeInvalidQuery},
		{"unbalanced", http.MethodPost, "/api/v1/search", `{"query":"(祥子"}`, http.StatusBadRequest, api.ErrorResponseCodeInvalidQuery},
		{"bad mode", http.MethodPost, "/api/v1/search", `{"query":"a","mode":"fuzzy"}`, http.StatusBadRequest, api.ErrorResponseCodeValidationFailed},
		{"negative limit", http.MethodPost, "/api/v1/search", `{"query":"a","limit":-1}`, http.StatusBadRequest, api.ErrorResponseCodeValidationFailed},
		{"unknown source", http.MethodPost, "/api/v1/search", `{"query":"a","sources":["红楼梦"]}`, http.StatusNotFound, api.ErrorResponseCodeSourceNotFound},
		{"missing q", http.MethodGet, "/api/v1/search", "", http.StatusBadRequest, api.ErrorResponseCodeBadRequest},
		{"bad limit", http.MethodGet, "/api/v1/search?q=a&limit=ten", "", http.StatusBadRequest, api.ErrorResponseCodeBadRequest},
		{"bad format", http.MethodGet, "/api/v1/search?q=a&format=xml", "", http.StatusBadRequest, api.ErrorResponseCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newEnv().router(t)
			expectError(t, do(t, h, tt.method, tt.target, tt.body), tt.status, tt.code)
		})
	}
}

func TestSearchCorpus_InvalidQueryMessage(t *testing.T) {
	h := newEnv().router(t)

	resp := expectError(t, do(t, h, http.MethodPost, "/api/v1/search", `{"query":""}`),
		http.StatusBadRequest, api.ErrorResponseCodeInvalidQuery)
	if !strings.HasPrefix(resp.Message, "invalid query") {
		t.Errorf("message: got %q", resp.Message)
	}
}

// --- Sources ---

func TestListSources(t *testing.T) {
	env := newEnv()
	env.fetcher.errs[urlHuniu] = errors.New("dial tcp: connection refused")
	h := env.router(t)

	rr := do(t, h, http.MethodGet, "/api/v1/sources", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[api.SourceListResponse](t, rr)
	if len(resp.Items) != 2 {
		t.Fatalf("items: got %d, want 2", len(resp.Items))
	}
	if resp.Items[0].Name != "骆驼祥子" || resp.Items[0].Sentences != 2 || resp.Items[0].Error != nil {
		t.Errorf("items[0]: got %+v", resp.Items[0])
	}
	if resp.Items[1].Error == nil || *resp.Items[1].Error != "fetch failed" {
		t.Errorf("items[1] error: got %v", resp.Items[1].Error)
	}
}

// --- JSON search ---

func TestSearchJSON_Post(t *testing.T) {
	h := newEnv().router(t)

	rr := do(t, h, http.MethodPost, "/api/v1/json/search", fmt.Sprintf(`{"url":%q,"query":"ALICE"}`, urlDoc))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[api.JSONSearchResponse](t, rr)
	if !resp.Found {
		t.Error("expected found")
	}
	want := []api.JSONMatch{
		{Path: "name", Kind: "string", Value: "Alice"},
		{Path: "tags.1", Kind: "string", Value: "alice"},
	}
	if diff := cmp.Diff(want, resp.Matches); diff != "" {
		t.Errorf("matches mismatch (-want +got):\n%s", diff)
	}
	if len(resp.Document) == 0 {
		t.Error("expected document in response")
	}
}

func TestSearchJSON_GetWithPath(t *testing.T) {
	h := newEnv().router(t)

	rr := do(t, h, http.MethodGet, "/api/v1/json/search?url="+urlDoc+"&q=alice&path=tags.*", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[api.JSONSearchResponse](t, rr)
	if len(resp.Matches) != 1 || resp.Matches[0].Path != "tags.1" {
		t.Errorf("matches: got %+v", resp.Matches)
	}
}

func TestSearchJSON_Errors(t *testing.T) {
	env := newEnv()
	env.fetcher.docs["https://example.com/broken.json"] = `{"a":`
	env.fetcher.errs["https://example.com/huge.json"] = fmt.Errorf("read body: %w", domain.ErrDocumentTooLarge)
	env.fetcher.errs["https://example.com/down.json"] = fmt.Errorf("get: %w", domain.ErrFetchFailed)
	h := env.router(t)

	tests := []struct {
		name   string
		url    string
		status int
		code   api.ErrorResponseCode
	}{
		{"bad scheme", "ftp://example.com/a.json", http.StatusBadRequest, api.ErrorResponseCodeInvalidURL},
		{"empty url", "", http.StatusBadRequest, api.ErrorResponseCodeInvalidURL},
		{"not found", "https://example.com/missing.json", http.StatusBadGateway, api.ErrorResponseCodeFetchFailed},
		{"unreachable", "https://example.com/down.json", http.StatusBadGateway, api.ErrorResponseCodeFetchFailed},
		{"invalid json", "https://example.com/broken.json", http.StatusUnprocessableEntity, api.ErrorResponseCodeInvalidJSON},
		{"too large", "https://example.com/huge.json", http.StatusRequestEntityTooLarge, api.ErrorResponseCodeDocumentTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := fmt.Sprintf(`{"url":%q,"query":"a"}`, tt.url)
			expectError(t, do(t, h, http.MethodPost, "/api/v1/json/search", body), tt.status, tt.code)
		})
	}
}

func TestSearchJSON_FetchErrorMessage(t *testing.T) {
	h := newEnv().router(t)

	body := `{"url":"https://example.com/missing.json","query":"a"}`
	resp := expectError(t, do(t, h, http.MethodPost, "/api/v1/json/search", body),
		http.StatusBadGateway, api.ErrorResponseCodeFetchFailed)
	if !strings.Contains(resp.Message, "404") {
		t.Errorf("message should carry the upstream status: %q", resp.Message)
	}
}

// --- Health, auth, routing ---

func TestHealthCheck(t *testing.T) {
	env := newEnv()
	h := env.router(t)

	rr := do(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[api.HealthResponse](t, rr)
	if resp.Status != api.HealthResponseStatusOk {
		t.Errorf("status: got %s", resp.Status)
	}

	env.pinger.err = errors.New("connection refused")
	rr = do(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rr.Code)
	}
	resp = decode[api.HealthResponse](t, rr)
	if resp.Status != api.HealthResponseStatusDegraded {
		t.Errorf("status: got %s, want degraded", resp.Status)
	}
	if resp.Checks[healthuc.CheckCache] != "error" {
		t.Errorf("cache check: got %s", resp.Checks[healthuc.CheckCache])
	}
}

func TestRouter_Auth(t *testing.T) {
	env := newEnv()
	env.keys = []string{"secret"}
	h := env.router(t)

	expectError(t, do(t, h, http.MethodGet, "/api/v1/sources", ""),
		http.StatusUnauthorized, api.ErrorResponseCodeUnauthorized)

	if rr := do(t, h, http.MethodGet, "/health", ""); rr.Code != http.StatusOK {
		t.Errorf("health must be exempt: got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sources", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("authorized: got %d", rr.Code)
	}
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	h := newEnv().router(t)

	expectError(t, do(t, h, http.MethodGet, "/api/v1/collections", ""),
		http.StatusNotFound, api.ErrorResponseCodeNotFound)
	expectError(t, do(t, h, http.MethodDelete, "/api/v1/search", ""),
		http.StatusMethodNotAllowed, api.ErrorResponseCodeMethodNotAllowed)
}

func TestRouter_RequestID(t *testing.T) {
	h := newEnv().router(t)

	rr := do(t, h, http.MethodGet, "/health", "")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := JSONRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	expectError(t, rr, http.StatusInternalServerError, api.ErrorResponseCodeInternalError)
}

func TestSafeDomainMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"internal", errors.New("redis: pool exhausted"), "internal error"},
		{"wrapped query", fmt.Errorf("build: %w", fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)),
			"invalid query: query is required"},
		{"too large", fmt.Errorf("fetch json: %w", domain.ErrDocumentTooLarge), "document too large"},
		{"plain fetch", fmt.Errorf("fetch json: %w", domain.ErrFetchFailed), "fetch failed"},
		{"status", fmt.Errorf("fetch json: %w", domain.NewFetchError("https://x", 500)),
			"fetch failed: https://x returned status 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := safeDomainMessage(tt.err); got != tt.want {
				t.Errorf("safeDomainMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
