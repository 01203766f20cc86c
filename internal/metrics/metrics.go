package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes.
const (
	LoginNew          = "new"
	LoginReturning    = "returning"
	LoginNameMismatch = "name_mismatch"
	LoginFailed       = "failed"
)

// Scan outcomes.
const (
	ScanDetected = "detected"
	ScanNone     = "none"
	ScanError    = "error"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "winbin",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "winbin",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "winbin",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "winbin",
			Subsystem: "accounts",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		},
		[]string{"result"},
	)

	bottlesRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "winbin",
			Subsystem: "ledger",
			Name:      "bottles_recorded_total",
			Help:      "Bottles durably added to accounts.",
		},
	)

	coinsEarned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "winbin",
			Subsystem: "ledger",
			Name:      "coins_earned_total",
			Help:      "EcoCoins credited for bottles.",
		},
	)

	coinsRedeemed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "winbin",
			Subsystem: "ledger",
			Name:      "coins_redeemed_total",
			Help:      "EcoCoins spent on redemptions.",
		},
	)

	scans = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "winbin",
			Subsystem: "classifier",
			Name:      "scans_total",
			Help:      "Classifier calls by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		logins,
		bottlesRecorded,
		coinsEarned,
		coinsRedeemed,
		scans,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies labelled by route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		httpInFlight.Inc()
		start := time.Now()
		err := c.Next()
		httpInFlight.Dec()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// RecordLogin counts a login attempt.
func RecordLogin(result string) {
	logins.WithLabelValues(result).Inc()
}

// RecordBottle counts a confirmed bottle and the coins it earned.
func RecordBottle(coins int64) {
	bottlesRecorded.Inc()
	coinsEarned.Add(float64(coins))
}

// RecordRedemption counts coins spent.
func RecordRedemption(coins int64) {
	coinsRedeemed.Add(float64(coins))
}

// RecordScan counts a classifier call.
func RecordScan(outcome string) {
	scans.WithLabelValues(outcome).Inc()
}
