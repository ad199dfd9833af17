package dispatcher

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamescrafters/tiersolve/internal/model"
	"github.com/gamescrafters/tiersolve/internal/tierdb"
	"github.com/gamescrafters/tiersolve/internal/worker"
)

func TestDistributedDispatcherRoundTrip(t *testing.T) {
	managerConn, workerConn := net.Pipe()

	g := &singleTierGame{tier: 1, size: 2}
	dir, err := tierdb.NewFileDirectory(t.TempDir())
	require.NoError(t, err)
	w := worker.New(g, dir, 1, model.Remoteness(5), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = RunWorkerSide(ctx, workerConn, w, 10*time.Millisecond)
	}()

	d := NewDistributedDispatcher([]io.ReadWriter{managerConn})
	defer d.Close()

	outcome, err := d.Dispatch(ctx, g.tier, worker.Options{})
	require.NoError(t, err)
	assert.True(t, outcome.Solved)
}

func TestDistributedDispatcherReportsLoaded(t *testing.T) {
	managerConn, workerConn := net.Pipe()

	g := &singleTierGame{tier: 1, size: 1}
	dir, err := tierdb.NewFileDirectory(t.TempDir())
	require.NoError(t, err)
	w := worker.New(g, dir, 1, model.Remoteness(5), nil)
	_, err = w.Solve(context.Background(), g.tier, worker.Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = RunWorkerSide(ctx, workerConn, w, 10*time.Millisecond)
	}()

	d := NewDistributedDispatcher([]io.ReadWriter{managerConn})
	defer d.Close()

	outcome, err := d.Dispatch(ctx, g.tier, worker.Options{})
	require.NoError(t, err)
	assert.True(t, outcome.Loaded)
}
