package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logiccrafts/connect-backend/pkg/config"
)

func TestResourceName(t *testing.T) {
	c := &Client{projectID: "artisan-prod"}

	cases := []struct {
		kind, in, want string
	}{
		{kindSubscription, "notifications-sub", "projects/artisan-prod/subscriptions/notifications-sub"},
		{kindSubscription, " projects/other/subscriptions/x ", "projects/other/subscriptions/x"},
		{kindSubscription, "   ", ""},
		{kindTopic, "domain-events", "projects/artisan-prod/topics/domain-events"},
		{kindTopic, "projects/other/topics/y", "projects/other/topics/y"},
		// a subscription path is not a topic path
		{kindTopic, "projects/other/subscriptions/x", "projects/artisan-prod/topics/projects/other/subscriptions/x"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.resourceName(tc.kind, tc.in), "%s %q", tc.kind, tc.in)
	}

	assert.Empty(t, (&Client{}).resourceName(kindTopic, "domain-events"))
}

func TestNilClient(t *testing.T) {
	var c *Client
	assert.Empty(t, c.resourceName(kindTopic, "domain-events"))
	assert.Nil(t, c.Publisher("domain-events"))
	assert.Nil(t, c.DomainSubscription())
	assert.ErrorIs(t, c.Ping(context.Background()), errNotInitialized)
	assert.NoError(t, c.Close())
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{ProjectID: "  "}, config.PubSubConfig{}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)
}

func TestClientOptions(t *testing.T) {
	assert.Nil(t, clientOptions(config.GCPConfig{}))
	assert.Len(t, clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`}), 1)
}
