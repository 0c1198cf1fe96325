package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "distribution_login_total",
			Help: "Total number of admin login attempts",
		},
	)

	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "distribution_register_total",
			Help: "Total number of admin registrations",
		},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "distribution_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Responses by status class (2xx, 4xx, 5xx)
	StatusCategoryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "distribution_http_status_category_total",
			Help: "Total number of responses by status category",
		},
		[]string{"category", "method", "endpoint"},
	)

	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "distribution_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // missing_token, invalid_token, invalid_password, ...
	)

	AgentOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "distribution_agent_operations_total",
			Help: "Total number of agent operations",
		},
		[]string{"operation"}, // create, update, delete, list, get
	)

	UploadCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "distribution_uploads_total",
			Help: "Total number of list uploads by format and outcome",
		},
		[]string{"format", "outcome"}, // outcome: success, parse_error, too_large, no_agents, no_valid_rows, persistence_error, error
	)

	RowsParsedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "distribution_rows_parsed_total",
			Help: "Rows read from uploaded files",
		},
		[]string{"format"},
	)

	RowsDroppedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "distribution_rows_dropped_total",
			Help: "Rows dropped because FirstName or Phone was empty",
		},
		[]string{"format"},
	)

	ItemsDistributedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "distribution_items_distributed_total",
			Help: "List items persisted by uploads",
		},
	)

	ItemsDeletedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "distribution_items_deleted_total",
			Help: "List items deleted",
		},
		[]string{"scope"}, // item, file
	)

	EventPublishErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "distribution_event_publish_errors_total",
			Help: "Distribution events that could not be published",
		},
	)
)

// Histogram metrics
var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "distribution_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "distribution_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // query, insert, update, delete
	)

	UploadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "distribution_upload_duration_seconds",
			Help:    "Time to parse, distribute and persist one upload",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	UploadSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "distribution_upload_size_bytes",
			Help:    "Size of uploaded files",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)
)

// Gauge metrics
var (
	AgentsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "distribution_agents",
			Help: "Number of agents seen by the last roster read",
		},
	)

	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "distribution_info",
			Help: "Information about the distribution service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(StatusCategoryCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(AgentOperationCounter)
	prometheus.MustRegister(UploadCounter)
	prometheus.MustRegister(RowsParsedCounter)
	prometheus.MustRegister(RowsDroppedCounter)
	prometheus.MustRegister(ItemsDistributedCounter)
	prometheus.MustRegister(ItemsDeletedCounter)
	prometheus.MustRegister(EventPublishErrorCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(UploadDuration)
	prometheus.MustRegister(UploadSize)

	prometheus.MustRegister(AgentsGauge)
	prometheus.MustRegister(InfoGauge)

	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures a database operation. Use as
// defer prometheus.TrackDBOperation("query")(time.Now()).
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(start).Seconds())
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			StatusCategoryCounter.With(prometheus.Labels{
				"category": statusCategory(c.Response().Status),
				"method":   method,
				"endpoint": endpoint,
			}).Inc()

			return err
		}
	}
}

func statusCategory(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	}
	return "2xx"
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordAgentOperation records an agent operation
func RecordAgentOperation(operation string) {
	AgentOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordUpload records the outcome of one upload
func RecordUpload(format, outcome string, started time.Time) {
	UploadCounter.With(prometheus.Labels{"format": format, "outcome": outcome}).Inc()
	UploadDuration.With(prometheus.Labels{"format": format}).Observe(time.Since(started).Seconds())
}

// RecordRows records parsed and dropped row counts for one file
func RecordRows(format string, parsed, dropped int) {
	RowsParsedCounter.With(prometheus.Labels{"format": format}).Add(float64(parsed))
	RowsDroppedCounter.With(prometheus.Labels{"format": format}).Add(float64(dropped))
}

// RecordDeleted records deleted list items
func RecordDeleted(scope string, count int64) {
	ItemsDeletedCounter.With(prometheus.Labels{"scope": scope}).Add(float64(count))
}

// UpdateAgents updates the agents gauge
func UpdateAgents(count int) {
	AgentsGauge.Set(float64(count))
}
