package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parley_active_connections",
		Help: "Number of live websocket connections",
	})

	messagesPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_messages_persisted_total",
		Help: "Messages appended to the ledger by kind",
	}, []string{"kind"})

	eventsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_events_delivered_total",
		Help: "Events queued to a connection by type",
	}, []string{"type"})
)

func ConnectionOpened() { activeConnections.Inc() }
func ConnectionClosed() { activeConnections.Dec() }

func MessagePersisted(kind string) { messagesPersisted.WithLabelValues(kind).Inc() }

func EventDelivered(eventType string) { eventsDelivered.WithLabelValues(eventType).Inc() }
