package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Check names reported in Report.Checks.
const (
	CheckCache   = "cache"
	CheckSources = "sources"
)

// Service coordinates health checks.
type Service struct {
	cache   CachePinger
	sources SourceChecker
}

// New creates a Service. sources can be nil to skip the upstream check.
func New(cache CachePinger, sources SourceChecker) *Service {
	return &Service{cache: cache, sources: sources}
}

// Check runs health checks against all components. Any failed check is
// Degraded; when the cache and the sources both fail the service is Unhealthy.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[CheckCache] = result(s.cache.Ping(ctx))
	if s.sources != nil {
		checks[CheckSources] = result(s.sources.HealthCheck(ctx))
	}

	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed == len(checks) && len(checks) > 1:
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
