package worker

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/logger/log"
)

var (
	jobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glassbid_worker_jobs_processed_total",
			Help: "Main-queue jobs processed, by outcome.",
		},
		[]string{"result"},
	)
	rendersProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glassbid_worker_renders_processed_total",
			Help: "Render requests processed, by kind and outcome.",
		},
		[]string{"kind", "result"},
	)
	cyclesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "glassbid_worker_cycles_skipped_total",
			Help: "Poll cycles skipped by the disk pressure guard.",
		},
	)
	diskUsagePct = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "glassbid_worker_disk_usage_pct",
			Help: "Used percentage of the scratch volume.",
		},
	)
	memoryUsageMB = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "glassbid_worker_memory_usage_mb",
			Help: "Worker resident set size in MiB.",
		},
	)
	pendingRenders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "glassbid_worker_pending_renders",
			Help: "PENDING rows in the render queue.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		jobsProcessed,
		rendersProcessed,
		cyclesSkipped,
		diskUsagePct,
		memoryUsageMB,
		pendingRenders,
	)
}

// serveMetrics exposes /metrics on the given port. Failures are logged, not
// fatal; metrics are an observability convenience.
func serveMetrics(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	go func() {
		log.Infof("metrics listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Errorf("metrics server stopped: %v", err)
		}
	}()
}
