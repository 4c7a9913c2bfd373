// Package context bounds connectivity probes run at startup and by /health.
package context

import (
	"context"
	"time"
)

// PingTimeout bounds a single probe.
const PingTimeout = 5 * time.Second

// Probe adapts a context-aware ping to the func() error shape health checks
// take. Every call runs under a fresh PingTimeout deadline.
func Probe(ping func(context.Context) error) func() error {
	return ProbeWithin(PingTimeout, ping)
}

// ProbeWithin is Probe with an explicit deadline.
func ProbeWithin(d time.Duration, ping func(context.Context) error) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), d)
		defer cancel()
		return ping(ctx)
	}
}
