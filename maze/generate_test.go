package maze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedOrder 不打乱方向，始终按 N,S,E,W 扫描
type fixedOrder struct{}

func (fixedOrder) Shuffle(int, func(i, j int)) {}

func reachable(g *Grid) int {
	seen := make([]bool, g.Size()*g.Size())
	seen[0] = true
	queue := []cell{{0, 0}}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, d := range Directions {
			if !g.IsOpen(c.x, c.y, d) {
				continue
			}
			nx, ny, _ := g.Neighbor(c.x, c.y, d)
			if i := ny*g.Size() + nx; !seen[i] {
				seen[i] = true
				queue = append(queue, cell{nx, ny})
			}
		}
	}
	n := 0
	for _, s := range seen {
		if s {
			n++
		}
	}
	return n
}

func TestGenerateIsPerfectMaze(t *testing.T) {
	for size := 1; size <= 24; size++ {
		for seed := uint64(0); seed < 5; seed++ {
			g, err := Generate(size, NewShuffler(seed))
			require.NoError(t, err)
			require.Equal(t, size, g.Size())
			assert.Equal(t, size*size-1, g.OpenEdges(), "size=%d seed=%d", size, seed)
			assert.Equal(t, size*size, reachable(g), "size=%d seed=%d", size, seed)
			assertSymmetric(t, g)
		}
	}
}

func TestGenerateSingleCell(t *testing.T) {
	g, err := Generate(1, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0}}, g.Rows())
}

func TestGenerateRejectsBadSize(t *testing.T) {
	_, err := Generate(0, nil)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestGenerateIsReproducible(t *testing.T) {
	a, err := Generate(12, NewShuffler(42))
	require.NoError(t, err)
	b, err := Generate(12, NewShuffler(42))
	require.NoError(t, err)
	assert.Equal(t, a.Rows(), b.Rows())
}

func TestGenerateFixedOrder(t *testing.T) {
	g, err := Generate(4, fixedOrder{})
	require.NoError(t, err)

	assert.NotZero(t, g.Rows()[0][0])
	for y, row := range g.Rows() {
		for x, v := range row {
			assert.NotZero(t, v, "cell %d,%d left closed", x, y)
		}
	}
	// N 与 W 在 (0,0) 越界，第一步必然向南
	assert.True(t, g.IsOpen(0, 0, South))
	assert.Equal(t, 15, g.OpenEdges())
}

func TestGenerateLargeGridDoesNotRecurse(t *testing.T) {
	g, err := Generate(300, NewShuffler(7))
	require.NoError(t, err)
	assert.Equal(t, 300*300-1, g.OpenEdges())
}
