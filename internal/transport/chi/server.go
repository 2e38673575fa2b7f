package chi

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdash/internal/domain"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/mode"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/request"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/result"
	"github.com/kailas-cloud/corpusdash/internal/logger"
	"github.com/kailas-cloud/corpusdash/internal/transport/api"
	corpusuc "github.com/kailas-cloud/corpusdash/internal/usecase/corpus"
	healthuc "github.com/kailas-cloud/corpusdash/internal/usecase/health"
	jsonsearchuc "github.com/kailas-cloud/corpusdash/internal/usecase/jsonsearch"
)

// Output formats of GET /api/v1/search.
const (
	formatJSON = "json"
	formatCSV  = "csv"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements api.ServerInterface for the chi router.
type Server struct {
	corpus        *corpusuc.Service
	json          *jsonsearchuc.Service
	health        *healthuc.Service
	defaultMode   mode.Mode
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ api.ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server. defaultMode applies to searches that
// do not name a mode.
func NewServer(
	corpus *corpusuc.Service,
	jsonSearch *jsonsearchuc.Service,
	health *healthuc.Service,
	defaultMode mode.Mode,
	logger *zap.Logger,
) *Server {
	s := &Server{
		corpus:      corpus,
		json:        jsonSearch,
		health:      health,
		defaultMode: defaultMode.OrDefault(),
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, api.ErrorResponseCodeInvalidQuery),
		sentinelHandler(domain.ErrInvalidURL, http.StatusBadRequest, api.ErrorResponseCodeInvalidURL),
		sentinelHandler(domain.ErrSourceNotFound, http.StatusNotFound, api.ErrorResponseCodeSourceNotFound),
		sentinelHandler(domain.ErrDocumentTooLarge,
			http.StatusRequestEntityTooLarge, api.ErrorResponseCodeDocumentTooLarge),
		sentinelHandler(domain.ErrFetchFailed, http.StatusBadGateway, api.ErrorResponseCodeFetchFailed),
		sentinelHandler(domain.ErrInvalidJSON, http.StatusUnprocessableEntity, api.ErrorResponseCodeInvalidJSON),
	}
	return s
}

// ListSources handles GET /api/v1/sources.
func (s *Server) ListSources(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.corpus.Sources(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]api.Source, len(statuses))
	for i, st := range statuses {
		items[i] = sourceToAPI(st)
	}
	writeJSON(w, http.StatusOK, api.SourceListResponse{Items: items})
}

// SearchCorpus handles POST /api/v1/search.
func (s *Server) SearchCorpus(w http.ResponseWriter, r *http.Request) {
	var body api.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, api.ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := s.searchRequest(body.Query, body.Mode, body.Sources, body.Limit)
	if err != nil {
		s.handleRequestError(w, r, err)
		return
	}
	s.search(w, r, &req, formatJSON)
}

// SearchCorpusGet handles GET /api/v1/search.
func (s *Server) SearchCorpusGet(w http.ResponseWriter, r *http.Request, params api.SearchCorpusGetParams) {
	format := formatJSON
	if params.Format != nil && *params.Format != "" {
		format = strings.ToLower(*params.Format)
	}
	if format != formatJSON && format != formatCSV {
		writeError(w, http.StatusBadRequest, api.ErrorResponseCodeValidationFailed,
			"format must be json or csv")
		return
	}

	req, err := s.searchRequest(params.Q, params.Mode, params.Source, params.Limit)
	if err != nil {
		s.handleRequestError(w, r, err)
		return
	}
	s.search(w, r, &req, format)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, req *request.Request, format string) {
	report, err := s.corpus.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if format == formatCSV {
		writeCSV(w, &report)
		return
	}
	writeJSON(w, http.StatusOK, reportToAPI(&report))
}

// searchRequest resolves the mode and builds a validated domain request.
func (s *Server) searchRequest(q string, m *string, sources *[]string, limit *int) (request.Request, error) {
	sm := s.defaultMode
	if m != nil && *m != "" {
		sm = mode.Mode(strings.ToLower(*m))
		if !sm.IsValid() {
			return request.Request{}, errors.New("mode must be boolean or legacy")
		}
	}
	var names []string
	if sources != nil {
		names = *sources
	}
	return request.New(q, sm, names, derefInt(limit)) //nolint:wrapcheck // mapped by handleRequestError
}

// SearchJSON handles POST /api/v1/json/search.
func (s *Server) SearchJSON(w http.ResponseWriter, r *http.Request) {
	var body api.JSONSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, api.ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.searchJSON(w, r, jsonsearchuc.Request{
		URL:   body.URL,
		Query: body.Query,
		Path:  derefString(body.Path),
	})
}

// SearchJSONGet handles GET /api/v1/json/search.
func (s *Server) SearchJSONGet(w http.ResponseWriter, r *http.Request, params api.SearchJSONGetParams) {
	s.searchJSON(w, r, jsonsearchuc.Request{
		URL:   params.URL,
		Query: derefString(params.Q),
		Path:  derefString(params.Path),
	})
}

func (s *Server) searchJSON(w http.ResponseWriter, r *http.Request, req jsonsearchuc.Request) {
	res, err := s.json.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	matches := make([]api.JSONMatch, len(res.Matches))
	for i, m := range res.Matches {
		matches[i] = api.JSONMatch{Path: m.Path, Kind: string(m.Kind), Value: m.Value}
	}
	writeJSON(w, http.StatusOK, api.JSONSearchResponse{
		URL:       res.URL,
		Query:     req.Query,
		Found:     res.Found,
		Truncated: res.Truncated,
		Matches:   matches,
		Document:  json.RawMessage(res.Document),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]api.HealthResponseChecks, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = api.HealthResponseChecks(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, api.HealthResponse{
		Status: api.HealthResponseStatus(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code api.ErrorResponseCode, message string) {
	writeJSON(w, status, api.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// writeCSV streams the rows as source,index,sentence. The total goes into a header.
func writeCSV(w http.ResponseWriter, report *result.Report) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="search.csv"`)
	w.Header().Set("X-Total-Matches", strconv.Itoa(report.Total()))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"source", "index", "sentence"})
	for i := range report.Rows {
		row := &report.Rows[i]
		_ = cw.Write([]string{row.Source(), strconv.Itoa(row.Index()), row.Sentence()})
	}
	cw.Flush()
}

// detailedSentinels carry client-input errors whose full text is safe to return.
var detailedSentinels = []error{
	domain.ErrInvalidQuery,
	domain.ErrInvalidURL,
	domain.ErrSourceNotFound,
}

// safeDomainMessage returns a client-facing message without exposing internals.
func safeDomainMessage(err error) string {
	for _, s := range detailedSentinels {
		if errors.Is(err, s) {
			return detailMessage(err, s)
		}
	}
	sentinels := []error{
		domain.ErrDocumentTooLarge,
		domain.ErrInvalidJSON,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		return fe.Error()
	}
	if errors.Is(err, domain.ErrFetchFailed) {
		return domain.ErrFetchFailed.Error()
	}
	return "internal error"
}

// detailMessage trims wrapping context added above the sentinel.
func detailMessage(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()); i > 0 {
		return msg[i:]
	}
	return msg
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code api.ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, api.ErrorResponseCodeInternalError, "internal error")
}

// handleRequestError maps request construction failures: query errors go
// through the domain mapping, everything else is a validation failure.
func (s *Server) handleRequestError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrInvalidQuery) {
		s.handleDomainError(w, r, err)
		return
	}
	writeError(w, http.StatusBadRequest, api.ErrorResponseCodeValidationFailed, err.Error())
}

func reportToAPI(r *result.Report) api.SearchResponse {
	rows := make([]api.SearchRow, len(r.Rows))
	for i := range r.Rows {
		row := &r.Rows[i]
		rows[i] = api.SearchRow{Source: row.Source(), Index: row.Index(), Sentence: row.Sentence()}
	}
	counts := make([]api.SourceCount, len(r.Counts))
	for i, c := range r.Counts {
		counts[i] = api.SourceCount{Source: c.Source, Sentences: c.Sentences, Matches: c.Matches}
	}
	var failures []api.SourceFailure
	for _, f := range r.Failures {
		failures = append(failures, api.SourceFailure{Source: f.Source, Reason: f.Reason})
	}
	return api.SearchResponse{
		Query:     r.Query,
		Mode:      string(r.Mode),
		Total:     r.Total(),
		Truncated: r.Truncated,
		Rows:      rows,
		Counts:    counts,
		Failures:  failures,
		Warnings:  r.Warnings,
	}
}

func sourceToAPI(st result.SourceStatus) api.Source {
	src := api.Source{Name: st.Name, URL: st.URL, Sentences: st.Sentences}
	if st.Err != "" {
		e := st.Err
		src.Error = &e
	}
	return src
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
