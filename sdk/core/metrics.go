package core

import (
	log "github.com/sirupsen/logrus"

	"github.com/oneclient/core-go/internal/events"
)

// drainMetricsAsMaps drains the metrics event buffer and flattens each
// event into the loose map shape exchange.SendMetrics expects on the wire.
func drainMetricsAsMaps() []map[string]any {
	drained := events.Metrics.LockAndDrain()
	out := make([]map[string]any, len(drained))
	for i, e := range drained {
		m := map[string]any{"level": e.Level, "msg": e.Message}
		for k, v := range e.Fields {
			m[k] = v
		}
		out[i] = m
	}
	return out
}

func obslogWarn(err error) {
	log.WithError(err).Warn("core: send_metrics transport error")
}
