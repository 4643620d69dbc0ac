package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSettingsDefaults(t *testing.T) {
	s := NewSettings()
	require.NotNil(t, s)

	assert.Equal(t, "atomengine", s.ServiceName)
	assert.True(t, s.Engine.DrainOnStop)
	assert.Equal(t, "USER", s.Engine.DefaultPermissionLevel)
	assert.Equal(t, 100*time.Millisecond, s.Engine.CommitIdleWait)
	assert.Equal(t, 3, s.Engine.CommitRetries)

	require.NotNil(t, s.Store.StoreURL)
	assert.Equal(t, "sqlite", s.Store.StoreURL.Scheme)
	assert.Equal(t, "/engine", s.Store.StoreURL.Path)
	assert.Equal(t, 10*time.Minute, s.Store.CacheTTL)

	assert.False(t, s.Kafka.Enabled)
	assert.Equal(t, "atom-events", s.Kafka.EventsTopic)
	assert.InDelta(t, 0.01, s.Tracing.SampleRate, 1e-9)

	assert.Empty(t, s.GRPC.ListenAddress)
	assert.Equal(t, 64*1024*1024, s.GRPC.MaxMessageSize)
}

func TestGetDurationFallsBack(t *testing.T) {
	assert.Equal(t, 3*time.Second, getDuration("no_such_setting_for_test", 3*time.Second))
}
