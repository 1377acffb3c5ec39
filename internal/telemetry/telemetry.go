// Package telemetry exposes the detector's own run counters on an optional
// Prometheus endpoint. It is strictly outside the cooperative detection
// loop described in spec.md §5: counters are incremented by the
// orchestrator but never read by it, and the HTTP server runs on its own
// goroutine, never touching the graph.
package telemetry

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/carriercomm/ddos-detection/pkg/ddoslog"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counters holds the run-scoped metrics the orchestrator updates.
type Counters struct {
	FlowsProcessed prometheus.Counter
	FlowsDropped   prometheus.Counter
	AttacksDetected *prometheus.CounterVec
}

// NewCounters registers a fresh counter set against its own registry, so
// multiple runs in the same process (tests) never collide.
func NewCounters() (*Counters, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Counters{
		FlowsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "flows_processed_total",
			Help: "Total number of flow records successfully parsed and distributed.",
		}),
		FlowsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "flows_dropped_total",
			Help: "Total number of input lines dropped: parse failures or delayed records.",
		}),
		AttacksDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attacks_detected_total",
			Help: "Total number of interval detection passes that flagged an attack, by kind.",
		}, []string{"kind"}),
	}, reg
}

// Serve starts a promhttp handler on addr and blocks until ctx is
// cancelled. Callers should run it in its own goroutine; a failure to
// bind is logged, not fatal — metrics are observability, not the core.
//
// The handler is wrapped the way the teacher wraps every HTTP handler it
// ever serves (cmd/cc-backend/server.go): a recovery middleware so a panic
// inside promhttp's handler can't take the whole process down, and a
// logging middleware reusing the detector's own log package instead of
// net/http's bare default.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	var handler http.Handler = mux
	handler = handlers.CustomLoggingHandler(io.Discard, handler, logMetricsRequest)
	handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(handler)

	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		ddoslog.Warnf("metrics server stopped: %v", err)
	}
}

func logMetricsRequest(_ io.Writer, params handlers.LogFormatterParams) {
	ddoslog.Debugf("%s %s (%d, %dms)",
		params.Request.Method, params.URL.RequestURI(),
		params.StatusCode, time.Since(params.TimeStamp).Milliseconds())
}
