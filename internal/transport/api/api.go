// Package api defines the corpusdash HTTP contract: wire types, the server
// interface and the chi routing that binds query parameters onto it.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorResponseCode is a machine-readable error code.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest       ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized     ErrorResponseCode = "unauthorized"
	ErrorResponseCodeValidationFailed ErrorResponseCode = "validation_failed"
	ErrorResponseCodeInvalidQuery     ErrorResponseCode = "invalid_query"
	ErrorResponseCodeInvalidURL       ErrorResponseCode = "invalid_url"
	ErrorResponseCodeSourceNotFound   ErrorResponseCode = "source_not_found"
	ErrorResponseCodeFetchFailed      ErrorResponseCode = "fetch_failed"
	ErrorResponseCodeInvalidJSON      ErrorResponseCode = "invalid_json"
	ErrorResponseCodeDocumentTooLarge ErrorResponseCode = "document_too_large"
	ErrorResponseCodeInternalError    ErrorResponseCode = "internal_error"
	ErrorResponseCodeNotAcceptable    ErrorResponseCode = "not_acceptable"
	ErrorResponseCodeMethodNotAllowed ErrorResponseCode = "method_not_allowed"
	ErrorResponseCodeNotFound         ErrorResponseCode = "not_found"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// HealthResponseStatus is the overall service status.
type HealthResponseStatus string

// Health statuses.
const (
	HealthResponseStatusOk       HealthResponseStatus = "ok"
	HealthResponseStatusDegraded HealthResponseStatus = "degraded"
	HealthResponseStatusError    HealthResponseStatus = "error"
)

// HealthResponseChecks is the result of one named check.
type HealthResponseChecks string

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status HealthResponseStatus            `json:"status"`
	Checks map[string]HealthResponseChecks `json:"checks"`
}

// Source describes one configured corpus text.
type Source struct {
	Name      string  `json:"name"`
	URL       string  `json:"url"`
	Sentences int     `json:"sentences"`
	Error     *string `json:"error,omitempty"`
}

// SourceListResponse is the body of GET /api/v1/sources.
type SourceListResponse struct {
	Items []Source `json:"items"`
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query   string    `json:"query"`
	Mode    *string   `json:"mode,omitempty"`
	Sources *[]string `json:"sources,omitempty"`
	Limit   *int      `json:"limit,omitempty"`
}

// SearchRow is one matching sentence.
type SearchRow struct {
	Source   string `json:"source"`
	Index    int    `json:"index"`
	Sentence string `json:"sentence"`
}

// SourceCount is the per-source tally of a search.
type SourceCount struct {
	Source    string `json:"source"`
	Sentences int    `json:"sentences"`
	Matches   int    `json:"matches"`
}

// SourceFailure is a source that could not be searched.
type SourceFailure struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// SearchResponse is the body of a corpus search.
type SearchResponse struct {
	Query     string          `json:"query"`
	Mode      string          `json:"mode"`
	Total     int             `json:"total"`
	Truncated bool            `json:"truncated"`
	Rows      []SearchRow     `json:"rows"`
	Counts    []SourceCount   `json:"counts"`
	Failures  []SourceFailure `json:"failures,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
}

// JSONSearchRequest is the body of POST /api/v1/json/search.
type JSONSearchRequest struct {
	URL   string  `json:"url"`
	Query string  `json:"query"`
	Path  *string `json:"path,omitempty"`
}

// JSONMatch is one hit inside a JSON document.
type JSONMatch struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// JSONSearchResponse is the body of a JSON search.
type JSONSearchResponse struct {
	URL       string          `json:"url"`
	Query     string          `json:"query"`
	Found     bool            `json:"found"`
	Truncated bool            `json:"truncated"`
	Matches   []JSONMatch     `json:"matches"`
	Document  json.RawMessage `json:"document"`
}

// SearchCorpusGetParams are the query parameters of GET /api/v1/search.
type SearchCorpusGetParams struct {
	Q      string    `form:"q" json:"q"`
	Mode   *string   `form:"mode,omitempty" json:"mode,omitempty"`
	Source *[]string `form:"source,omitempty" json:"source,omitempty"`
	Limit  *int      `form:"limit,omitempty" json:"limit,omitempty"`
	Format *string   `form:"format,omitempty" json:"format,omitempty"`
}

// SearchJSONGetParams are the query parameters of GET /api/v1/json/search.
type SearchJSONGetParams struct {
	URL  string  `form:"url" json:"url"`
	Q    *string `form:"q,omitempty" json:"q,omitempty"`
	Path *string `form:"path,omitempty" json:"path,omitempty"`
}

// ServerInterface is implemented by the HTTP handlers.
type ServerInterface interface {
	// GET /health
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// GET /metrics
	Metrics(w http.ResponseWriter, r *http.Request)
	// GET /api/v1/sources
	ListSources(w http.ResponseWriter, r *http.Request)
	// POST /api/v1/search
	SearchCorpus(w http.ResponseWriter, r *http.Request)
	// GET /api/v1/search
	SearchCorpusGet(w http.ResponseWriter, r *http.Request, params SearchCorpusGetParams)
	// POST /api/v1/json/search
	SearchJSON(w http.ResponseWriter, r *http.Request)
	// GET /api/v1/json/search
	SearchJSONGet(w http.ResponseWriter, r *http.Request, params SearchJSONGetParams)
}

// MiddlewareFunc wraps a single route handler.
type MiddlewareFunc func(http.Handler) http.Handler

// InvalidParamFormatError reports a query parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ServerInterfaceWrapper binds request parameters and dispatches to the ServerInterface.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, h http.Handler) {
	for _, middleware := range siw.HandlerMiddlewares {
		h = middleware(h)
	}
	h.ServeHTTP(w, r)
}

// HealthCheck operation middleware.
func (siw *ServerInterfaceWrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.HealthCheck))
}

// Metrics operation middleware.
func (siw *ServerInterfaceWrapper) Metrics(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.Metrics))
}

// ListSources operation middleware.
func (siw *ServerInterfaceWrapper) ListSources(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.ListSources))
}

// SearchCorpus operation middleware.
func (siw *ServerInterfaceWrapper) SearchCorpus(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.SearchCorpus))
}

// SearchCorpusGet operation middleware.
func (siw *ServerInterfaceWrapper) SearchCorpusGet(w http.ResponseWriter, r *http.Request) {
	var params SearchCorpusGetParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, true, "q", query, &params.Q); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "q", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "mode", query, &params.Mode); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "mode", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "source", query, &params.Source); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "source", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &params.Limit); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "format", query, &params.Format); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "format", Err: err})
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.SearchCorpusGet(w, r, params)
	}))
}

// SearchJSON operation middleware.
func (siw *ServerInterfaceWrapper) SearchJSON(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.SearchJSON))
}

// SearchJSONGet operation middleware.
func (siw *ServerInterfaceWrapper) SearchJSONGet(w http.ResponseWriter, r *http.Request) {
	var params SearchJSONGetParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, true, "url", query, &params.URL); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "url", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "q", query, &params.Q); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "q", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "path", query, &params.Path); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "path", Err: err})
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.SearchJSONGet(w, r, params)
	}))
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates an http.Handler with routing matching the API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions registers every route of si on the base router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/health", wrapper.HealthCheck)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/metrics", wrapper.Metrics)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/api/v1/sources", wrapper.ListSources)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/api/v1/search", wrapper.SearchCorpus)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/api/v1/search", wrapper.SearchCorpusGet)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/api/v1/json/search", wrapper.SearchJSON)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/api/v1/json/search", wrapper.SearchJSONGet)
	})

	return r
}
