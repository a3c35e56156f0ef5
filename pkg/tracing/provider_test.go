package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgadmin/pkg/configuration"
)

func TestSetup_NoopWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), configuration.TracingOptions{Enabled: true}, "orgadmin")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, shutdown(ctx))
}

func TestSetup_NoopWhenDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), configuration.TracingOptions{
		Enabled:  false,
		Endpoint: "http://localhost:4318",
	}, "orgadmin")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_CreatesProvider(t *testing.T) {
	// non-routable, nothing is exported before shutdown
	shutdown, err := Setup(context.Background(), configuration.TracingOptions{
		Enabled:     true,
		Endpoint:    "http://192.0.2.1:4318",
		SampleRatio: 1,
	}, "orgadmin")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
