package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all eventdesk metrics
const namespace = "eventdesk"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo is a gauge that exposes application version information as labels
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// Session metrics

// SessionEventsTotal counts session lifecycle transitions
var SessionEventsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_total",
		Help:      "Total number of session lifecycle events",
	},
	[]string{"event", "result"}, // event: signup|signin|signout, result: success|failure
)

// ForcedLogoutsTotal counts sessions cleared because the backend rejected the token
var ForcedLogoutsTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forced_logouts_total",
		Help:      "Total number of sessions cleared after an unauthorized response",
	},
)

// RegistrationRejectionsTotal counts participant adds stopped before reaching the backend
var RegistrationRejectionsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registration_rejections_total",
		Help:      "Total number of participant registrations rejected client-side",
	},
	[]string{"reason"}, // reason: capacity|duplicate
)

// Init registers runtime collectors and sets version information
func Init(version, commit, buildDate string) {
	// Registering twice (tests, repeated CLI setup) is harmless
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := Registry.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				panic(err)
			}
		}
	}

	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
// A CLI process is too short-lived to scrape, so metrics are flushed on exit.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
