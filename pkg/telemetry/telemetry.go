// Package telemetry sets up OpenTelemetry metrics for the simulator.
package telemetry

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const scope = "github.com/sherine-k/roundabout"

type Telemetry struct {
	provider *sdkmetric.MeterProvider
}

// Setup installs a global meter provider that periodically writes metrics
// as JSON to w. The final state is written on Shutdown.
func Setup(w io.Writer, interval time.Duration) (*Telemetry, error) {
	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(provider)
	return &Telemetry{provider: provider}, nil
}

// Meter returns the meter the simulator should record to.
func (t *Telemetry) Meter() metric.Meter {
	return t.provider.Meter(scope)
}

// Shutdown flushes pending metrics and stops the provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.provider.ForceFlush(ctx),
		t.provider.Shutdown(ctx),
	)
}
