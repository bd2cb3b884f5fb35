package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialhub/internal/metrics"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ConnOpened()
	m.ConnOpened()
	m.ConnClosed()
	m.SetOnline(3)
	m.Event("sendMessage", "ok")
	m.Event("sendMessage", "ok")
	m.Notification("like_post", "merged")

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4)

	n, err := testutil.GatherAndCount(reg, "socialhub_events_handled_total", "socialhub_notifications_upserted_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, mf := range families {
		switch mf.GetName() {
		case "socialhub_ws_connections":
			assert.Equal(t, 1.0, mf.GetMetric()[0].GetGauge().GetValue())
		case "socialhub_online_users":
			assert.Equal(t, 3.0, mf.GetMetric()[0].GetGauge().GetValue())
		case "socialhub_events_handled_total":
			assert.Equal(t, 2.0, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ConnOpened()
		m.ConnClosed()
		m.SetOnline(1)
		m.Event("x", "y")
		m.Notification("x", "y")
	})
}
