package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.Record("rating-reconcile", 250*time.Millisecond, nil)
	m.Record("rating-reconcile", time.Second, errors.New("boom"))
	m.Record("", time.Millisecond, nil)

	expected := `
# HELP lcc_cron_job_runs_total Cron job executions, by outcome.
# TYPE lcc_cron_job_runs_total counter
lcc_cron_job_runs_total{job="rating-reconcile",outcome="failure"} 1
lcc_cron_job_runs_total{job="rating-reconcile",outcome="success"} 1
lcc_cron_job_runs_total{job="unknown",outcome="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "lcc_cron_job_runs_total"))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	sum, err := fetchHistogramSum(mfs, "lcc_cron_job_duration_seconds", "job", "rating-reconcile")
	require.NoError(t, err)
	assert.InDelta(t, 1.25, sum, 0.001)

	count, err := testutil.GatherAndCount(reg, "lcc_cron_job_last_success_timestamp_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestOutboxMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)

	m.Inc("order_created", OutboxPublished)
	m.Inc("order_created", OutboxPublished)
	m.Inc("review_submitted", OutboxParked)
	m.ObserveBatch(40 * time.Millisecond)

	expected := `
# HELP lcc_outbox_events_total Outbox rows handled by the publisher, by event type and outcome.
# TYPE lcc_outbox_events_total counter
lcc_outbox_events_total{event_type="order_created",outcome="published"} 2
lcc_outbox_events_total{event_type="review_submitted",outcome="parked"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "lcc_outbox_events_total"))

	count, err := testutil.GatherAndCount(reg, "lcc_outbox_batch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetricsNilSafe(t *testing.T) {
	var cron *CronJobMetrics
	cron.Record("job", time.Second, nil)
	NewCronJobMetrics(nil).Record("job", time.Second, errors.New("x"))

	var outbox *OutboxMetrics
	outbox.Inc("order_created", OutboxRetried)
	NewOutboxMetrics(nil).ObserveBatch(time.Second)
}
