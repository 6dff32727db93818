package observability

import (
	"context"
	"fmt"

	"github.com/uptrace/uptrace-go/uptrace"

	"github.com/GHILLIExSTEW/sportfeed/internal/config"
)

// SetupUptrace configures the OpenTelemetry SDK against Uptrace and
// returns a shutdown hook. When tracing is disabled it returns a no-op.
func SetupUptrace(cfg config.Config) (func(context.Context) error, error) {
	if !cfg.UptraceEnabled {
		return func(context.Context) error { return nil }, nil
	}
	if cfg.UptraceDSN == "" {
		return nil, fmt.Errorf("uptrace dsn is required")
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
	)

	return uptrace.Shutdown, nil
}
