package qcmd_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	qcmd "github.com/wagiedev/qcmd-go"
)

func activeGauge(m *qcmd.Metrics, mode string) float64 {
	return testutil.ToFloat64(m.ExecutionsActive.WithLabelValues(mode))
}

func TestMetrics_Command(t *testing.T) {
	m := qcmd.NewMetrics(prometheus.NewRegistry())
	rec := &recorder{}

	_, err := qcmd.Command(context.Background(), "echo hi", rec.callback, qcmd.WithMetrics(m))
	require.NoError(t, err)

	require.InDelta(t, 1, testutil.ToFloat64(m.ExecutionsStarted.WithLabelValues("pipe")), 0)
	require.InDelta(t, 0, activeGauge(m, "pipe"), 0)
	require.InDelta(t, 3, testutil.ToFloat64(m.BytesStreamed.WithLabelValues("pipe")), 0)
}

func TestMetrics_LaunchThenStream(t *testing.T) {
	ctx := context.Background()
	m := qcmd.NewMetrics(prometheus.NewRegistry())
	r := qcmd.New(qcmd.WithMetrics(m))

	child, err := r.Launch(ctx, "echo hi")
	require.NoError(t, err)
	require.InDelta(t, 1, activeGauge(m, "pipe"), 0)

	rec := &recorder{}

	_, err = r.Stream(ctx, child, rec.callback)
	require.NoError(t, err)
	require.InDelta(t, 0, activeGauge(m, "pipe"), 0, "closing the stream ends the execution")
	require.InDelta(t, 3, testutil.ToFloat64(m.BytesStreamed.WithLabelValues("pipe")), 0)

	require.NoError(t, child.Wait())
	require.InDelta(t, 0, activeGauge(m, "pipe"), 0, "reaping must not decrement twice")
}

func TestMetrics_LaunchStreamWithOtherOptions(t *testing.T) {
	ctx := context.Background()
	m := qcmd.NewMetrics(prometheus.NewRegistry())

	child, err := qcmd.Launch(ctx, "echo hi", qcmd.WithMetrics(m))
	require.NoError(t, err)

	rec := &recorder{}

	// The stream is read without metrics; the launch still balances.
	_, err = qcmd.Stream(ctx, child, rec.callback)
	require.NoError(t, err)
	require.NoError(t, child.Wait())

	require.InDelta(t, 0, activeGauge(m, "pipe"), 0)
}

func TestMetrics_PTYSession(t *testing.T) {
	requirePTY(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	m := qcmd.NewMetrics(prometheus.NewRegistry())
	rec := &recorder{}

	err := qcmd.WithPTY(ctx, []string{"echo", "hi"}, func(c *qcmd.ChildProcess) error {
		_, err := qcmd.Stream(ctx, c, rec.callback)

		return err
	}, qcmd.WithMetrics(m), qcmd.WithRegistry(qcmd.NewRegistry(nil)))
	require.NoError(t, err)
	require.Contains(t, rec.output(), "hi")

	require.InDelta(t, 1, testutil.ToFloat64(m.ExecutionsStarted.WithLabelValues("pty")), 0)
	require.InDelta(t, 0, activeGauge(m, "pty"), 0)
}
