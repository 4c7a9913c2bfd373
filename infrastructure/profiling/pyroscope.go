package profiling

import (
	"fmt"
	"os"
	"runtime"

	"github.com/grafana/pyroscope-go"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
)

// Profiler wraps a running Pyroscope agent. A nil *Profiler is valid.
type Profiler struct {
	profiler *pyroscope.Profiler
}

// StartPyroscope starts continuous profiling when ENABLE_CONTINUOUS_PROFILING=true.
// It returns a nil profiler and nil error when profiling is disabled.
func StartPyroscope(serviceName string, log logger.Logger) (*Profiler, error) {
	if os.Getenv("ENABLE_CONTINUOUS_PROFILING") != "true" {
		return nil, nil //nolint:nilnil // disabled is not an error
	}

	serverURL := envOr("PYROSCOPE_SERVER_URL", "http://pyroscope:4040")
	appName := "north-cloud." + serviceName

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	p, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   serverURL,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
		Tags: map[string]string{
			"environment": envOr("PYROSCOPE_ENVIRONMENT", "development"),
			"version":     envOr("APP_VERSION", "unknown"),
			"hostname":    hostname,
			"go_version":  runtime.Version(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}

	log.Info("Pyroscope profiling started",
		logger.String("application", appName),
		logger.String("server", serverURL),
	)
	return &Profiler{profiler: p}, nil
}

// Stop flushes and stops the agent.
func (p *Profiler) Stop() error {
	if p == nil || p.profiler == nil {
		return nil
	}
	return p.profiler.Stop()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
