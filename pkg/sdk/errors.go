package corpusdash

import "github.com/kailas-cloud/corpusdash/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery     = domain.ErrInvalidQuery
	ErrSourceNotFound   = domain.ErrSourceNotFound
	ErrInvalidURL       = domain.ErrInvalidURL
	ErrFetchFailed      = domain.ErrFetchFailed
	ErrDocumentTooLarge = domain.ErrDocumentTooLarge
	ErrInvalidJSON      = domain.ErrInvalidJSON
)
