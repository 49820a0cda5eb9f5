package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mazesync/maze"
	"mazesync/protocol"
	"mazesync/server"
)

func startServer(t *testing.T) (*server.Hub, string) {
	t.Helper()
	reg, err := server.NewRegistry(server.RegistryConfig{
		GridSize:  12,
		WorldSize: protocol.WorldSize,
		Spawn:     protocol.Position{Color: "green"},
		Shuffler:  maze.NewShuffler(3),
	})
	require.NoError(t, err)
	h := server.NewHub(reg, nil, zaptest.NewLogger(t).Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	srv := httptest.NewServer(server.NewRouter(h, server.RouterOptions{SendBuffer: 64}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-h.Done()
	})
	return h, "ws" + strings.TrimPrefix(srv.URL, "http") + server.URIWebSocket
}

func dial(t *testing.T, url string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, url, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	go func() { _ = c.Run() }()
	t.Cleanup(c.Close)
	return c
}

func TestClientShadowState(t *testing.T) {
	h, url := startServer(t)
	a := dial(t, url)
	b := dial(t, url)

	assert.Equal(t, a.Grid().Rows(), b.Grid().Rows())
	assert.Equal(t, a.Epoch(), b.Epoch())
	assert.Contains(t, b.Players(), a.Identity())
	assert.NotContains(t, b.Players(), b.Identity())
	require.Eventually(t, func() bool {
		_, ok := a.Players()[b.Identity()]
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	pos := protocol.Position{X: 20, Y: 30, Color: "red"}
	require.NoError(t, a.SendMove(pos))
	require.Eventually(t, func() bool {
		return b.Players()[a.Identity()] == pos
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, pos, h.Registry().Players()[a.Identity()])
	assert.Equal(t, pos, a.Self())

	b.Close()
	require.Eventually(t, func() bool {
		_, ok := a.Players()[b.Identity()]
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
	require.ErrorIs(t, b.SendMove(pos), ErrClosed)
}

func TestFrameLoopReportsPredictedMoves(t *testing.T) {
	h, url := startServer(t)
	a := dial(t, url)
	g := a.Grid()
	spawn := a.Self()
	assert.False(t, maze.Blocked(g, DefaultWorldSize/12, spawn.X, spawn.Y, DefaultRadius))

	// 出生格朝哪边打通就往哪边走
	in := Input{Right: g.IsOpen(0, 0, maze.East), Down: !g.IsOpen(0, 0, maze.East)}
	loop := &FrameLoop{
		Client: a,
		Input:  func() Input { return in },
		Frame:  time.Millisecond,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	pred := loop.Run(ctx)

	assert.NotEqual(t, spawn, pred.Pos)
	assert.False(t, maze.Blocked(g, DefaultWorldSize/12, pred.Pos.X, pred.Pos.Y, pred.Radius))
	require.Eventually(t, func() bool {
		return h.Registry().Players()[a.Identity()] == pred.Pos
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFrameLoopKeepsPredictingAfterClose(t *testing.T) {
	_, url := startServer(t)
	a := dial(t, url)
	a.Close()

	g := a.Grid()
	in := Input{Right: g.IsOpen(0, 0, maze.East), Down: !g.IsOpen(0, 0, maze.East)}
	frames := 0
	loop := &FrameLoop{
		Client:  a,
		Input:   func() Input { return in },
		Frame:   time.Millisecond,
		OnFrame: func(*Predictor) { frames++ },
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	pred := loop.Run(ctx)

	assert.Greater(t, frames, 1)
	assert.NotEqual(t, a.Self(), pred.Pos, "prediction continues locally")
}
