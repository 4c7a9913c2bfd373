// Package profiling starts the env-gated pprof endpoint and Pyroscope agent.
package profiling

import (
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
)

const defaultPprofPort = "6060"

// StartPprofServer serves /debug/pprof on localhost when ENABLE_PROFILING=true.
func StartPprofServer(log logger.Logger) {
	if os.Getenv("ENABLE_PROFILING") != "true" {
		return
	}

	port := os.Getenv("PPROF_PORT")
	if port == "" {
		port = defaultPprofPort
	}
	addr := "localhost:" + port

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("Starting pprof server", logger.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("pprof server error", logger.Error(err))
		}
	}()
}
