package events

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialhub/internal/domain"
	"socialhub/internal/metrics"
	"socialhub/internal/service"
)

func TestDeliverSkippedWithoutNotification(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := &Router{
		metrics: metrics.New(reg),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	assert.NotPanics(t, func() {
		r.deliver(context.Background(), domain.TypeMessage, nil, service.OutcomeSkipped)
	})

	want := `
# HELP socialhub_notifications_upserted_total Notification ledger writes by type and outcome.
# TYPE socialhub_notifications_upserted_total counter
socialhub_notifications_upserted_total{outcome="skipped",type="message"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want), "socialhub_notifications_upserted_total"))
}
