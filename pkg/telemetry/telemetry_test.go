package telemetry

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesMetricsOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	tel, err := Setup(&buf, time.Hour)
	require.NoError(t, err)

	counter, err := tel.Meter().Int64Counter("roundabout.test")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	require.NoError(t, tel.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "roundabout.test")
}
