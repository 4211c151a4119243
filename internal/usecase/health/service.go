package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the storage backend is unreachable.
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
	Status    Status
	Checks    map[string]CheckResult
	Documents int
}

// Service coordinates health checks.
type Service struct {
	db    DBPinger
	index IndexCounter
}

// New creates a Service. index can be nil.
func New(db DBPinger, index IndexCounter) *Service {
	return &Service{db: db, index: index}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	report := Report{Status: Healthy, Checks: checks}

	if err := s.db.Ping(ctx); err != nil {
		checks["storage"] = CheckError
		report.Status = Unhealthy
	} else {
		checks["storage"] = CheckOK
	}

	if s.index != nil {
		n, err := s.index.Count(ctx)
		if err != nil {
			checks["index"] = CheckError
			if report.Status == Healthy {
				report.Status = Degraded
			}
		} else {
			checks["index"] = CheckOK
			report.Documents = n
		}
	}

	return report
}
