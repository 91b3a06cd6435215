package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthFailures counts rejected bearer tokens by reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frontrow_auth_failures_total",
		Help: "Total number of bearer tokens that did not yield a principal",
	}, []string{"reason"})

	// PoolInFlight is the number of requests currently holding a worker slot.
	PoolInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "frontrow_worker_pool_in_flight",
		Help: "Requests currently executing inside the worker pool",
	})

	// PoolRejected counts requests shed because no worker slot freed up in time.
	PoolRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frontrow_worker_pool_rejected_total",
		Help: "Requests rejected because the worker pool was saturated",
	})
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the process-wide HTTP metrics collector. The collector
// registers with the default registry once; later calls reuse it.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// MetricsMiddleware records request counts and latencies.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}
