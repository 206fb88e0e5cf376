package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the order core, served on the separate
// metrics port.
var (
	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cafe_orders_placed_total",
		Help: "Orders successfully placed",
	})

	AllocationExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cafe_allocation_exhausted_total",
		Help: "Order placements that ran out of sequence retries",
	})

	ItemMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafe_item_mutations_total",
		Help: "Item completions and cancellations",
	}, []string{"action"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafe_events_published_total",
		Help: "Events emitted on the bus",
	}, []string{"topic"})

	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cafe_websocket_clients",
		Help: "Currently connected websocket viewers",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cafe_queue_depth",
		Help: "Active items across in-flight orders at last board fetch",
	})
)
