package health

import "context"

// CachePinger checks fetch cache backend availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// SourceChecker checks that the corpus sources can be fetched.
type SourceChecker interface {
	HealthCheck(ctx context.Context) error
}
