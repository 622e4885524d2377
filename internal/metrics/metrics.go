// Package metrics provides Prometheus instrumentation for the batch jobs.
//
// Key metrics:
//   - per-job market counts (processed, skipped, failed)
//   - rows written per table
//   - write retry attempts
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MarketsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "marketsignals_markets_processed_total", Help: "Markets fully processed per job"},
		[]string{"job"},
	)
	MarketsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "marketsignals_markets_skipped_total", Help: "Markets skipped (no data or no linkage) per job"},
		[]string{"job"},
	)
	MarketsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "marketsignals_markets_failed_total", Help: "Markets that errored per job"},
		[]string{"job"},
	)
	RowsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "marketsignals_rows_written_total", Help: "Rows written per table"},
		[]string{"table"},
	)
	WriteRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "marketsignals_write_retries_total", Help: "Batch write retry attempts per table"},
		[]string{"table"},
	)
	BufferDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "marketsignals_buffer_depth", Help: "Rows queued between workers and the writer"},
		[]string{"job"},
	)
)

func init() {
	prometheus.MustRegister(
		MarketsProcessed, MarketsSkipped, MarketsFailed,
		RowsWritten, WriteRetries, BufferDepth,
	)
}

// Serve exposes the metrics endpoint in the background. Callers shut the
// returned server down with the rest of the process.
func Serve(addr, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
