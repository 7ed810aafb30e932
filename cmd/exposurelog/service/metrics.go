package service

import "github.com/prometheus/client_golang/prometheus"

const MetricMessageWrites = "message_writes_total"

// CounterMessageWrites counts rows written by action: added, edited, invalidated.
var CounterMessageWrites = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "exposurelog",
		Name:      MetricMessageWrites,
		Help:      "Message rows written, by action.",
	},
	[]string{"action"},
)

func init() {
	prometheus.MustRegister(CounterMessageWrites)
}
