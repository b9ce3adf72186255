package simulation

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/sherine-k/roundabout/pkg/simulation"

type metrics struct {
	ticks         metric.Int64Counter
	stopsStarted  metric.Int64Counter
	stopsDone     metric.Int64Counter
	rejections    metric.Int64Counter
	stopDurations metric.Float64Histogram
}

// newMetrics registers the simulator instruments. Registration errors leave
// a no-op instrument in place, so they are not fatal.
func newMetrics(m metric.Meter) *metrics {
	ret := &metrics{}
	ret.ticks, _ = m.Int64Counter("roundabout.ticks",
		metric.WithDescription("number of simulated ticks"))
	ret.stopsStarted, _ = m.Int64Counter("roundabout.stops.started",
		metric.WithDescription("emergency stops injected"))
	ret.stopsDone, _ = m.Int64Counter("roundabout.stops.completed",
		metric.WithDescription("emergency stops completed"))
	ret.rejections, _ = m.Int64Counter("roundabout.requests.rejected",
		metric.WithDescription("stop or reconfiguration requests rejected"))
	ret.stopDurations, _ = m.Float64Histogram("roundabout.stop.duration",
		metric.WithDescription("configured duration of completed stops"),
		metric.WithUnit("s"))
	return ret
}

func (m *metrics) rejected(kind string) {
	m.rejections.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("request", kind)))
}
