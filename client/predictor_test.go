package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mazesync/maze"
	"mazesync/protocol"
)

// hallway 2x2 网格，只有 (0,0) 与 (1,0) 之间打通
func hallway(t *testing.T) *maze.Grid {
	t.Helper()
	g, err := maze.NewGrid(2)
	require.NoError(t, err)
	require.NoError(t, g.Open(0, 0, maze.East))
	return g
}

func TestPredictorMovesThroughOpening(t *testing.T) {
	g := hallway(t)
	p := NewPredictor(protocol.Position{X: 25, Y: 25}, 50)

	moved := false
	for i := 0; i < 30; i++ {
		moved = p.Step(g, Input{Right: true}) || moved
	}
	assert.True(t, moved)
	assert.Greater(t, p.Pos.X, 50.0, "crossed into the east cell")
	assert.Equal(t, 25.0, p.Pos.Y)
	assert.False(t, maze.Blocked(g, 50, p.Pos.X, p.Pos.Y, p.Radius))
}

func TestPredictorStopsAtWall(t *testing.T) {
	g := hallway(t)
	p := NewPredictor(protocol.Position{X: 25, Y: 25}, 50)

	for i := 0; i < 100; i++ {
		p.Step(g, Input{Down: true})
		require.False(t, maze.Blocked(g, 50, p.Pos.X, p.Pos.Y, p.Radius), "frame %d", i)
	}
	assert.Less(t, p.Pos.Y+p.Radius, 50.0)
}

func TestPredictorKeyReleaseStops(t *testing.T) {
	g := hallway(t)
	p := NewPredictor(protocol.Position{X: 25, Y: 25}, 50)

	p.Step(g, Input{Right: true})
	require.NotZero(t, p.VelX)
	pos := p.Pos

	assert.False(t, p.Step(g, Input{}))
	assert.Zero(t, p.VelX)
	assert.Equal(t, pos, p.Pos)
}

func TestPredictorSpeedIsCapped(t *testing.T) {
	g, err := maze.Generate(1, nil)
	require.NoError(t, err)
	p := NewPredictor(protocol.Position{X: 500, Y: 500}, 1000)
	p.Radius = 0
	p.Acceleration = 100

	p.Step(g, Input{Left: true, Up: true})
	assert.LessOrEqual(t, -p.VelX, p.MaxSpeed)
	assert.LessOrEqual(t, -p.VelY, p.MaxSpeed)
	assert.InDelta(t, 500-p.MaxSpeed, p.Pos.X, 1e-9)
}
