package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics. It doubles as the external
// observability collaborator for persistence failures: the notification
// service reports every store error here in addition to returning it.
type Metrics struct {
	// Notification metrics
	NotificationsCreated  *prometheus.CounterVec
	NotificationsDeduped  prometheus.Counter
	NotificationsRead     prometheus.Counter
	NotificationsDeleted  prometheus.Counter
	PersistenceFailures   *prometheus.CounterVec
	FanoutBatchSize       prometheus.Histogram

	// Realtime metrics
	SessionsActive    prometheus.Gauge
	SessionsTotal     prometheus.Counter
	HandshakeRejected prometheus.Counter
	FramesPushed      *prometheus.CounterVec
	FramesDropped     *prometheus.CounterVec
	ForcedDisconnects prometheus.Counter
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		NotificationsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Total number of notifications persisted",
		}, []string{"category"}),
		NotificationsDeduped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_deduplicated_total",
			Help:      "Admin notifications suppressed by the duplicate window",
		}),
		NotificationsRead: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_read_total",
			Help:      "Notifications transitioned to read",
		}),
		NotificationsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_deleted_total",
			Help:      "Notifications deleted by their recipient",
		}),
		PersistenceFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Notification store operations that returned an error",
		}, []string{"operation"}),
		FanoutBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "admin_fanout_batch_size",
			Help:      "Number of records inserted per admin fan-out",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),

		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Currently connected realtime sessions",
		}),
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total accepted realtime sessions",
		}),
		HandshakeRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_rejected_total",
			Help:      "Connection attempts rejected before a session was created",
		}),
		FramesPushed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_pushed_total",
			Help:      "Outbound event frames delivered to session buffers",
		}, []string{"event"}),
		FramesDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Outbound event frames dropped because a session buffer was full",
		}, []string{"event"}),
		ForcedDisconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forced_disconnects_total",
			Help:      "Sessions terminated through the disconnect API",
		}),
	}
}

// NewTestMetrics creates an unregistered metrics set for use in tests,
// avoiding duplicate registration on the default registry.
func NewTestMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		NotificationsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_created_total",
		}, []string{"category"}),
		NotificationsDeduped: factory.NewCounter(prometheus.CounterOpts{
			Name: "notifications_deduplicated_total",
		}),
		NotificationsRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "notifications_read_total",
		}),
		NotificationsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "notifications_deleted_total",
		}),
		PersistenceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "persistence_failures_total",
		}, []string{"operation"}),
		FanoutBatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "admin_fanout_batch_size",
		}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sessions_active",
		}),
		SessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "sessions_total",
		}),
		HandshakeRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "handshake_rejected_total",
		}),
		FramesPushed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frames_pushed_total",
		}, []string{"event"}),
		FramesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frames_dropped_total",
		}, []string{"event"}),
		ForcedDisconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "forced_disconnects_total",
		}),
	}
}
