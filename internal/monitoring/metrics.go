package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
	DBQueryDuration     *prometheus.HistogramVec

	// Business metrics
	UsersRegistered  prometheus.Counter
	SessionsIssued   prometheus.Counter
	ListingsCreated  prometheus.Counter
	ListingsDeleted  prometheus.Counter
	ReviewsSubmitted prometheus.Counter
	RatingValues     prometheus.Histogram

	// Authorization metrics
	GuardDecisions *prometheus.CounterVec
}

var metrics *Metrics

// Init initializes all Prometheus metrics
func Init() *Metrics {
	if metrics != nil {
		return metrics
	}

	metrics = &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		// Database metrics
		DBConnectionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Database query duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_type"},
		),

		// Business metrics
		UsersRegistered: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "users_registered_total",
				Help: "Total number of users registered",
			},
		),
		SessionsIssued: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sessions_issued_total",
				Help: "Total number of sessions issued",
			},
		),
		ListingsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "listings_created_total",
				Help: "Total number of listings created",
			},
		),
		ListingsDeleted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "listings_deleted_total",
				Help: "Total number of listings deleted",
			},
		),
		ReviewsSubmitted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "reviews_submitted_total",
				Help: "Total number of reviews submitted",
			},
		),
		RatingValues: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "review_rating_values",
				Help:    "Distribution of submitted review ratings",
				Buckets: []float64{1, 2, 3, 4, 5},
			},
		),

		// Authorization metrics
		GuardDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guard_decisions_total",
				Help: "Guard check outcomes by guard and decision",
			},
			[]string{"guard", "decision"},
		),
	}

	return metrics
}

// Get returns the global metrics instance
func Get() *Metrics {
	if metrics == nil {
		return Init()
	}
	return metrics
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinHandler returns a Gin-compatible handler for Prometheus metrics
func GinHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// MetricsMiddleware is a Gin middleware for collecting HTTP metrics
func MetricsMiddleware() gin.HandlerFunc {
	m := Get()
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		// Track in-flight requests
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		// Process request
		c.Next()

		// Record metrics
		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// RecordDBQuery records a database query duration
func RecordDBQuery(queryType string, duration time.Duration) {
	Get().DBQueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
}

// SetDBConnections sets database connection metrics
func SetDBConnections(active, idle int) {
	Get().DBConnectionsActive.Set(float64(active))
	Get().DBConnectionsIdle.Set(float64(idle))
}

// RecordUserRegistered records a user registration
func RecordUserRegistered() {
	Get().UsersRegistered.Inc()
}

// RecordSessionIssued records an issued session
func RecordSessionIssued() {
	Get().SessionsIssued.Inc()
}

// RecordListingCreated records a listing creation
func RecordListingCreated() {
	Get().ListingsCreated.Inc()
}

// RecordListingDeleted records a listing deletion
func RecordListingDeleted() {
	Get().ListingsDeleted.Inc()
}

// RecordReviewSubmitted records a review submission and its rating value
func RecordReviewSubmitted(ratingValue int) {
	m := Get()
	m.ReviewsSubmitted.Inc()
	m.RatingValues.Observe(float64(ratingValue))
}

// RecordGuardDecision records a guard check outcome
func RecordGuardDecision(guardName, decision string) {
	Get().GuardDecisions.WithLabelValues(guardName, decision).Inc()
}
