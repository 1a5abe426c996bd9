package monitoring

import "github.com/prometheus/client_golang/prometheus"

var (
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "status"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	// Reactions 按动作 (like/dislike/favorite/unfavorite) 和结果 (ok/noop/not_found/rejected/error) 计数
	Reactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "post_reactions_total",
			Help: "Total number of post reaction attempts",
		},
		[]string{"action", "outcome"},
	)

	ScoreQueueDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "score_queue_dropped_total",
			Help: "Hot score updates dropped because the queue was full",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HttpRequestsTotal,
		HttpRequestDuration,
		ActiveConnections,
		Reactions,
		ScoreQueueDropped,
	)
}
