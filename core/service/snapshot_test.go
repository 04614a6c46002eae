package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"argus/utils/docker"

	"github.com/docker/docker/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectTo(api *fakeAPI) docker.ConnectFunc {
	return func(ctx context.Context) (docker.API, error) {
		return api, nil
	}
}

func failToConnect(err error) docker.ConnectFunc {
	return func(ctx context.Context) (docker.API, error) {
		return nil, err
	}
}

func TestBuildSnapshot(t *testing.T) {
	api := twoContainerFake()
	api.version = types.Version{Version: "27.3.1"}

	svc := NewSnapshotService(connectTo(api), nil, fastOpts)

	before := time.Now().UTC()
	snapshot, err := svc.Build(context.Background())

	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Len(t, snapshot.Running, 1)
	assert.Len(t, snapshot.Stopped, 1)
	assert.Equal(t, "27.3.1", snapshot.Host.DockerVersion)
	assert.NotNil(t, snapshot.Networks)
	assert.False(t, snapshot.GeneratedAt.Before(before))
	// The per-request connection is discarded after the snapshot.
	assert.True(t, api.closed)
}

func TestBuildShortCircuitsWhenDaemonUnreachable(t *testing.T) {
	svc := NewSnapshotService(failToConnect(errors.New("socket missing")), nil, fastOpts)

	snapshot, err := svc.Build(context.Background())

	require.Error(t, err)
	assert.Nil(t, snapshot)
	assert.Contains(t, err.Error(), "socket missing")
}

func TestProbe(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		api := newFakeAPI()
		svc := NewSnapshotService(connectTo(api), nil, fastOpts)

		result := svc.Probe(context.Background())

		assert.True(t, result.Reachable)
		assert.Empty(t, result.Error)
		assert.False(t, result.CheckedAt.IsZero())
		assert.True(t, api.closed)
	})

	t.Run("unreachable", func(t *testing.T) {
		svc := NewSnapshotService(failToConnect(errors.New("permission denied")), nil, fastOpts)

		result := svc.Probe(context.Background())

		assert.False(t, result.Reachable)
		assert.Contains(t, result.Error, "permission denied")
	})
}

func TestConcurrentBuildsDoNotShareState(t *testing.T) {
	// Each Build opens its own connection and assembles its own snapshot,
	// so concurrent page views must not interfere.
	svc := NewSnapshotService(func(ctx context.Context) (docker.API, error) {
		return twoContainerFake(), nil
	}, nil, fastOpts)

	const n = 4
	results := make(chan *Snapshot, n)
	for i := 0; i < n; i++ {
		go func() {
			snapshot, err := svc.Build(context.Background())
			assert.NoError(t, err)
			results <- snapshot
		}()
	}

	for i := 0; i < n; i++ {
		snapshot := <-results
		require.NotNil(t, snapshot)
		assert.Len(t, snapshot.Running, 1)
		assert.Len(t, snapshot.Stopped, 1)
	}
}
