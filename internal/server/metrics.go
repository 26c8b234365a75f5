package server

import (
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jgoulah/taxistats/internal/report"
)

// metrics holds the collectors of one server. Each server has its own
// registry so several can live in one process.
type metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	rows        prometheus.Gauge
	nulls       prometheus.Gauge
	adfStat     prometheus.Gauge
	adfPValue   prometheus.Gauge
	generatedAt prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taxistats_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taxistats_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taxistats_report_rows",
			Help: "Observations in the served report",
		}),
		nulls: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taxistats_report_nulls",
			Help: "Missing cells in the served report",
		}),
		adfStat: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taxistats_adf_statistic",
			Help: "Augmented Dickey-Fuller statistic of the daily series",
		}),
		adfPValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taxistats_adf_p_value",
			Help: "Augmented Dickey-Fuller p-value of the daily series",
		}),
		generatedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taxistats_report_generated_timestamp_seconds",
			Help: "Unix time the served report was built",
		}),
	}
	m.registry.MustRegister(m.requests, m.duration, m.rows, m.nulls, m.adfStat, m.adfPValue, m.generatedAt)
	return m
}

// observeReport updates the report gauges. A report without a stationarity
// result exports NaN.
func (m *metrics) observeReport(rep *report.Report) {
	s := rep.Summary()
	m.rows.Set(float64(s.Rows))
	m.nulls.Set(float64(s.Nulls))
	m.generatedAt.Set(float64(rep.GeneratedAt.Unix()))

	m.adfStat.Set(math.NaN())
	m.adfPValue.Set(math.NaN())
	if s.ADF != nil {
		m.adfStat.Set(s.ADF.Statistic)
		m.adfPValue.Set(s.ADF.PValue)
	}
}

func (m *metrics) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		// route template keeps label cardinality low
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}

		method := c.Request().Method
		m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
		return err
	}
}

func (m *metrics) handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
