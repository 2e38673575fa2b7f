package corpusdash

import (
	"context"

	"github.com/kailas-cloud/corpusdash/internal/domain/search/request"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/corpusdash/internal/usecase/health"
	jsonsearchuc "github.com/kailas-cloud/corpusdash/internal/usecase/jsonsearch"
)

// --- corpusUseCase mock ---

type mockCorpusUC struct {
	searchFn  func(ctx context.Context, req *request.Request) (result.Report, error)
	sourcesFn func(ctx context.Context) ([]result.SourceStatus, error)
}

func (m *mockCorpusUC) Search(ctx context.Context, req *request.Request) (result.Report, error) {
	return m.searchFn(ctx, req)
}

func (m *mockCorpusUC) Sources(ctx context.Context) ([]result.SourceStatus, error) {
	return m.sourcesFn(ctx)
}

// --- jsonUseCase mock ---

type mockJSONUC struct {
	searchFn func(ctx context.Context, req jsonsearchuc.Request) (jsonsearchuc.Result, error)
}

func (m *mockJSONUC) Search(ctx context.Context, req jsonsearchuc.Request) (jsonsearchuc.Result, error) {
	return m.searchFn(ctx, req)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealthUC) Check(ctx context.Context) healthuc.Report {
	return m.checkFn(ctx)
}

// --- helpers ---

func testClient(corpusSvc corpusUseCase, jsonSvc jsonUseCase) *Client {
	return &Client{
		corpusSvc:   corpusSvc,
		jsonSvc:     jsonSvc,
		defaultMode: "boolean",
	}
}
