package observability

import (
	"fmt"
	"runtime"

	"github.com/grafana/pyroscope-go"

	"github.com/GHILLIExSTEW/sportfeed/internal/config"
)

// StartPyroscope attaches the continuous profiler. Returns nil when
// profiling is disabled.
func StartPyroscope(cfg config.Config) (*pyroscope.Profiler, error) {
	if !cfg.PyroscopeEnabled {
		return nil, nil
	}
	if cfg.PyroscopeServerAddress == "" {
		return nil, fmt.Errorf("pyroscope server address is required")
	}

	runtime.SetMutexProfileFraction(5)
	runtime.SetBlockProfileRate(5)

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.PyroscopeAppName,
		ServerAddress:   cfg.PyroscopeServerAddress,
		AuthToken:       cfg.PyroscopeAuthToken,
		UploadRate:      cfg.PyroscopeUploadRate,
		Tags: map[string]string{
			"env":     cfg.AppEnv,
			"version": cfg.ServiceVersion,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockCount,
			pyroscope.ProfileBlockDuration,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}

	return profiler, nil
}
