// v1
// metrics.go

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "metersim_"

var (
	registerOnce sync.Once

	eventsPublished prometheus.Counter
	eventsDropped   prometheus.Counter
	subscribers     prometheus.Gauge

	brokerPublishes prometheus.Counter
	brokerFailures  prometheus.Counter

	controlActions *prometheus.CounterVec
)

// Init registers the simulator's collectors. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		eventsPublished = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "events_published_total",
			Help: "Total meter_reading events fanned out to subscribers.",
		})
		eventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "subscriber_events_dropped_total",
			Help: "Events dropped because a subscriber buffer was full.",
		})
		subscribers = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "subscribers",
			Help: "Currently connected real-time subscribers.",
		})
		brokerPublishes = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "broker_publish_total",
			Help: "Snapshots successfully published to the external broker.",
		})
		brokerFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "broker_publish_failures_total",
			Help: "Failed broker connect/publish attempts.",
		})
		controlActions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "control_actions_total",
			Help: "Control actions by action and result.",
		}, []string{"action", "result"})

		prometheus.MustRegister(
			eventsPublished,
			eventsDropped,
			subscribers,
			brokerPublishes,
			brokerFailures,
			controlActions,
		)
	})
}

// IncEventPublished counts one fan-out of a broadcast event.
func IncEventPublished() {
	if eventsPublished != nil {
		eventsPublished.Inc()
	}
}

// IncEventDropped counts one event lost to a full subscriber buffer.
func IncEventDropped() {
	if eventsDropped != nil {
		eventsDropped.Inc()
	}
}

// AddSubscribers moves the subscriber gauge by delta.
func AddSubscribers(delta int) {
	if subscribers != nil {
		subscribers.Add(float64(delta))
	}
}

// IncBrokerPublish counts one successful broker publish.
func IncBrokerPublish() {
	if brokerPublishes != nil {
		brokerPublishes.Inc()
	}
}

// IncBrokerFailure counts one failed broker attempt.
func IncBrokerFailure() {
	if brokerFailures != nil {
		brokerFailures.Inc()
	}
}

// IncControlAction counts one processed control action.
func IncControlAction(action, result string) {
	if controlActions != nil {
		controlActions.WithLabelValues(action, result).Inc()
	}
}
