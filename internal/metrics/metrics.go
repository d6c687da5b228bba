package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "befriends_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "befriends_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BetsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "befriends_bets_created_total",
			Help: "Total number of bets created",
		},
		[]string{"privacy"},
	)

	BetsSettledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "befriends_bets_settled_total",
			Help: "Total number of bets settled",
		},
		[]string{"outcome"},
	)

	BetsDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "befriends_bets_deleted_total",
			Help: "Total number of bets deleted by their creator",
		},
	)

	SettlementRacesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "befriends_settlement_races_total",
			Help: "Settlement attempts that lost the conditional status update",
		},
	)

	PointsMovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "befriends_points_moved_total",
			Help: "Total points moved through the ledger",
		},
		[]string{"tx_type"},
	)

	RefundFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "befriends_refund_failures_total",
			Help: "Individual refund credits that failed during bulk refunds",
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "befriends_notifications_total",
			Help: "Total number of notifications processed",
		},
		[]string{"subject", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "befriends_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)

	SweepRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "befriends_sweep_runs_total",
			Help: "Total number of settlement sweep runs",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBetCreated(privacy string) {
	BetsCreatedTotal.WithLabelValues(privacy).Inc()
}

func RecordBetSettled(outcome string) {
	BetsSettledTotal.WithLabelValues(outcome).Inc()
}

func RecordBetDeleted() {
	BetsDeletedTotal.Inc()
}

func RecordSettlementRace() {
	SettlementRacesTotal.Inc()
}

func RecordPointsMoved(txType string, amount int64) {
	if amount < 0 {
		amount = -amount
	}
	PointsMovedTotal.WithLabelValues(txType).Add(float64(amount))
}

func RecordRefundFailure() {
	RefundFailuresTotal.Inc()
}

func RecordNotification(subject, status string) {
	NotificationsTotal.WithLabelValues(subject, status).Inc()
}

func RecordSweepRun() {
	SweepRunsTotal.Inc()
}
