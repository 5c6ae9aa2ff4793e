package ports

//go:generate mockgen -source=health.go -destination=mocks/mock_health.go -package=mocks

import "context"

// HealthChecker is a dependency probed by GET /health. Ping returns nil when
// the dependency answers; Name keys it in the report.
type HealthChecker interface {
	Name() string
	Ping(ctx context.Context) error
}
