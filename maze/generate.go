package maze

import (
	"math/rand/v2"
)

// Shuffler 提供方向顺序的随机排列；*rand.Rand 即满足该接口
// 测试中可注入固定种子或不打乱的实现，以复现迷宫
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// NewShuffler 返回基于 PCG 的带种子随机源
func NewShuffler(seed uint64) Shuffler {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// DefaultShuffler 使用进程级随机源（并发安全）
var DefaultShuffler Shuffler = globalShuffler{}

type cell struct{ x, y int }

// Generate 以 (0,0) 为起点，用显式栈的随机深度优先“挖墙”生成完美迷宫
// 结果的连通图是覆盖全部 N² 个格子的生成树
func Generate(size int, s Shuffler) (*Grid, error) {
	g, err := NewGrid(size)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = DefaultShuffler
	}

	stack := make([]cell, 1, size*size)
	stack[0] = cell{0, 0}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]

		dirs := Directions
		s.Shuffle(len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })

		carved := false
		for _, d := range dirs {
			nx, ny, ok := g.Neighbor(cur.x, cur.y, d)
			if !ok || g.Visited(nx, ny) {
				continue
			}
			// 掩码为 0 即未访问；入栈的格子在 Open 后必然非 0
			if err := g.Open(cur.x, cur.y, d); err != nil {
				return nil, err
			}
			stack = append(stack, cell{nx, ny})
			carved = true
			break
		}
		if !carved {
			stack = stack[:len(stack)-1]
		}
	}
	return g, nil
}
