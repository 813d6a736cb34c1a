package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BrokerHealthy is 1 while the RabbitMQ connection and channel are open
	BrokerHealthy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "traintracker_broker_healthy",
		Help: "Connection status of the notification broker (1 for UP, 0 for DOWN)",
	})

	// NotificationsPublished counts ingest events by broker answer
	// status: acked, nacked, error
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traintracker_notifications_total",
		Help: "Ingest events published to the broker",
	}, []string{"status"})
)
