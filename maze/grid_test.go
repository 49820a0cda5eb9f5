package maze

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSymmetric(t *testing.T, g *Grid) {
	t.Helper()
	for y := 0; y < g.Size(); y++ {
		for x := 0; x < g.Size(); x++ {
			for _, d := range Directions {
				if !g.IsOpen(x, y, d) {
					continue
				}
				nx, ny, ok := g.Neighbor(x, y, d)
				require.True(t, ok, "cell %d,%d open %s towards the outside", x, y, d)
				assert.True(t, g.IsOpen(nx, ny, d.Opposite()), "cell %d,%d %s not mirrored", x, y, d)
			}
		}
	}
}

func TestDirectionTables(t *testing.T) {
	for _, d := range Directions {
		assert.Equal(t, d, d.Opposite().Opposite())
		ox, oy := d.Offset()
		px, py := d.Opposite().Offset()
		assert.Equal(t, 0, ox+px)
		assert.Equal(t, 0, oy+py)
		assert.Equal(t, 1, ox*ox+oy*oy)
	}
	assert.Equal(t, "west", West.String())
	assert.False(t, Direction(7).Valid())
}

func TestNewGridRejectsEmpty(t *testing.T) {
	_, err := NewGrid(0)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestOpenIsSymmetric(t *testing.T) {
	g, err := NewGrid(3)
	require.NoError(t, err)

	require.NoError(t, g.Open(1, 1, North))
	assert.True(t, g.IsOpen(1, 1, North))
	assert.True(t, g.IsOpen(1, 0, South))
	assertSymmetric(t, g)

	require.NoError(t, g.Open(1, 1, West))
	assert.True(t, g.IsOpen(0, 1, East))
	assert.Equal(t, 2, g.OpenEdges())
	assertSymmetric(t, g)
}

func TestOpenOutOfBoundsLeavesGridUntouched(t *testing.T) {
	g, err := NewGrid(2)
	require.NoError(t, err)

	require.ErrorIs(t, g.Open(0, 0, North), ErrOutOfBounds)
	require.ErrorIs(t, g.Open(1, 0, East), ErrOutOfBounds)
	require.ErrorIs(t, g.Open(5, 5, South), ErrOutOfBounds)
	assert.Equal(t, [][]int{{0, 0}, {0, 0}}, g.Rows())
}

func TestGridWireFormat(t *testing.T) {
	g, err := NewGrid(2)
	require.NoError(t, err)
	require.NoError(t, g.Open(0, 0, East))
	require.NoError(t, g.Open(0, 0, South))

	b, err := json.Marshal(g)
	require.NoError(t, err)
	// N=1 S=2 E=4 W=8
	assert.JSONEq(t, `[[6,8],[1,0]]`, string(b))

	var back Grid
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, g.Rows(), back.Rows())
}

func TestFromRowsValidates(t *testing.T) {
	_, err := FromRows([][]int{{4, 0}, {0, 0}})
	require.ErrorIs(t, err, ErrInvalidMask, "east open without west mirror")

	_, err = FromRows([][]int{{0, 0}, {0}})
	require.ErrorIs(t, err, ErrInvalidMask)

	_, err = FromRows([][]int{{16}})
	require.ErrorIs(t, err, ErrInvalidMask)

	_, err = FromRows(nil)
	require.ErrorIs(t, err, ErrInvalidSize)
}
