package sysinfo

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	c := NewCollector(t.TempDir())

	snap, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runtime.Version(), snap.GoVersion)
	assert.NotEmpty(t, snap.OS)
	assert.GreaterOrEqual(t, snap.MemUsage, 0.0)
	assert.LessOrEqual(t, snap.DiskUsage, 100.0)
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollectReusesRecentSnapshot(t *testing.T) {
	c := NewCollector("")
	c.MaxAge = time.Hour

	first, err := c.Collect(context.Background())
	require.NoError(t, err)
	second, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.CollectedAt, second.CollectedAt)
	second.Hostname = "mutated"
	third, _ := c.Collect(context.Background())
	assert.NotEqual(t, "mutated", third.Hostname, "callers get copies")
}
