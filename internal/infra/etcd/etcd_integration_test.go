//go:build integration

package etcd

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"workqueue-lambdas/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	clientv3 "go.etcd.io/etcd/client/v3"
)

func startEtcd(t *testing.T) *clientv3.Client {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "quay.io/coreos/etcd:v3.6.6",
			ExposedPorts: []string{"2379/tcp"},
			Cmd: []string{"etcd",
				"--listen-client-urls=http://0.0.0.0:2379",
				"--advertise-client-urls=http://0.0.0.0:2379"},
			WaitingFor: wait.ForListeningPort("2379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	endpoint, err := c.Endpoint(ctx, "")
	require.NoError(t, err)
	cli, err := NewClient(ctx, []string{endpoint}, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { cli.Close() })
	return cli
}

func TestLeaderElection(t *testing.T) {
	cli := startEtcd(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	first := NewEtcdLeaderElectionManager(cli, "node-a", 2*time.Second, logger)
	second := NewEtcdLeaderElectionManager(cli, "node-b", 2*time.Second, logger)

	_, err := first.Campaign(ctx)
	require.NoError(t, err)
	assert.True(t, first.IsLeader())

	waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = second.Campaign(waitCtx)
	assert.Error(t, err, "second node waits while the first leads")
	assert.False(t, second.IsLeader())

	require.NoError(t, first.Resign(ctx))
	assert.False(t, first.IsLeader())

	_, err = second.Campaign(ctx)
	require.NoError(t, err)
	assert.True(t, second.IsLeader())
}

func TestLocker(t *testing.T) {
	cli := startEtcd(t)
	locker := NewEtcdLocker(cli)
	ctx := context.Background()

	lock, err := locker.Lock(ctx, "dispatch")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "dispatch")
	assert.ErrorIs(t, err, domain.ErrLockNotAcquired)

	require.NoError(t, lock.Unlock(ctx))
	again, err := locker.Lock(ctx, "dispatch")
	require.NoError(t, err)
	require.NoError(t, again.Unlock(ctx))
}
