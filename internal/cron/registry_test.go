package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedJob string

func (n namedJob) Name() string              { return string(n) }
func (n namedJob) Run(context.Context) error { return nil }

type dailyJob struct{ namedJob }

func (dailyJob) Every() time.Duration { return 24 * time.Hour }

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	registry, err := NewRegistry(namedJob("rating-reconcile"), nil, namedJob("outbox-retention"))
	require.NoError(t, err)

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "rating-reconcile", jobs[0].Name())
	assert.Equal(t, "outbox-retention", jobs[1].Name())

	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0])

	job, ok := registry.Lookup("outbox-retention")
	require.True(t, ok)
	assert.Equal(t, "outbox-retention", job.Name())
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	_, err := NewRegistry(namedJob("notification-cleanup"), namedJob("notification-cleanup"))
	require.Error(t, err)

	registry, err := NewRegistry()
	require.NoError(t, err)
	require.Error(t, registry.Register(namedJob("")))
}

func TestJobPeriod(t *testing.T) {
	assert.Zero(t, jobPeriod(namedJob("every-tick")))
	assert.Equal(t, 24*time.Hour, jobPeriod(dailyJob{namedJob("daily")}))
}
