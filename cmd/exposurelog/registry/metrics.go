package registry

import "github.com/prometheus/client_golang/prometheus"

const MetricResolutions = "exposure_resolutions_total"

// CounterResolutions counts Resolve calls by outcome:
// found, cached, not_found, multiple or error.
var CounterResolutions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "exposurelog",
		Name:      MetricResolutions,
		Help:      "Exposure resolutions by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(CounterResolutions)
}
