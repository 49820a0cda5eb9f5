package maze

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds = errors.New("maze: cell out of bounds")
	ErrInvalidSize = errors.New("maze: grid size must be at least 1")
	ErrInvalidMask = errors.New("maze: invalid cell mask")
)

// Grid 是 N×N 的墙格：每个格子用 4 bit 记录已打通的方向
// 不变量：若 (x,y) 向 d 打通，则相邻格子向 d.Opposite() 也打通
type Grid struct {
	size  int
	cells []uint8 // 行优先：cells[y*size+x]
}

// NewGrid 创建一个全部封闭的网格
func NewGrid(size int) (*Grid, error) {
	if size < 1 {
		return nil, ErrInvalidSize
	}
	return &Grid{size: size, cells: make([]uint8, size*size)}, nil
}

// Size 返回边长 N
func (g *Grid) Size() int { return g.size }

// InBounds 判断坐标是否在 [0,N) 范围内
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.size && y >= 0 && y < g.size
}

// Neighbor 返回 (x,y) 在方向 d 上的相邻格子，越界时 ok=false
func (g *Grid) Neighbor(x, y int, d Direction) (nx, ny int, ok bool) {
	ox, oy := d.Offset()
	nx, ny = x+ox, y+oy
	return nx, ny, g.InBounds(nx, ny)
}

// IsOpen 判断格子 (x,y) 的方向 d 是否可通行；越界一律视为不可通行
func (g *Grid) IsOpen(x, y int, d Direction) bool {
	if !g.InBounds(x, y) || !d.Valid() {
		return false
	}
	return g.cells[y*g.size+x]&d.bit() != 0
}

// Visited 判断格子是否已有任一方向被打通
func (g *Grid) Visited(x, y int) bool {
	return g.InBounds(x, y) && g.cells[y*g.size+x] != 0
}

// Open 同时打通 (x,y) 的 d 方向与相邻格子的反方向
// 任一侧越界时返回 ErrOutOfBounds，网格保持不变
func (g *Grid) Open(x, y int, d Direction) error {
	if !d.Valid() {
		return fmt.Errorf("open %d,%d: %w", x, y, ErrInvalidMask)
	}
	if !g.InBounds(x, y) {
		return fmt.Errorf("open %d,%d %s: %w", x, y, d, ErrOutOfBounds)
	}
	nx, ny, ok := g.Neighbor(x, y, d)
	if !ok {
		return fmt.Errorf("open %d,%d %s: %w", x, y, d, ErrOutOfBounds)
	}
	g.cells[y*g.size+x] |= d.bit()
	g.cells[ny*g.size+nx] |= d.Opposite().bit()
	return nil
}

// OpenEdges 统计无向通路数量（完美迷宫应为 N²-1）
func (g *Grid) OpenEdges() int {
	n := 0
	for y := 0; y < g.size; y++ {
		for x := 0; x < g.size; x++ {
			// 只数 South/East，避免重复计数
			if g.IsOpen(x, y, South) {
				n++
			}
			if g.IsOpen(x, y, East) {
				n++
			}
		}
	}
	return n
}

// Rows 导出线协议格式：grid[y][x]，取值 0-15
func (g *Grid) Rows() [][]int {
	rows := make([][]int, g.size)
	for y := range rows {
		row := make([]int, g.size)
		for x := range row {
			row[x] = int(g.cells[y*g.size+x])
		}
		rows[y] = row
	}
	return rows
}

// FromRows 从线协议格式重建网格，并校验方阵、取值范围与对称性
func FromRows(rows [][]int) (*Grid, error) {
	g, err := NewGrid(len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != g.size {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %w", y, len(row), g.size, ErrInvalidMask)
		}
		for x, v := range row {
			if v < 0 || v > 15 {
				return nil, fmt.Errorf("cell %d,%d = %d: %w", x, y, v, ErrInvalidMask)
			}
			g.cells[y*g.size+x] = uint8(v)
		}
	}
	for y := 0; y < g.size; y++ {
		for x := 0; x < g.size; x++ {
			for _, d := range Directions {
				if !g.IsOpen(x, y, d) {
					continue
				}
				nx, ny, ok := g.Neighbor(x, y, d)
				if !ok || !g.IsOpen(nx, ny, d.Opposite()) {
					return nil, fmt.Errorf("cell %d,%d %s not mirrored: %w", x, y, d, ErrInvalidMask)
				}
			}
		}
	}
	return g, nil
}

func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Rows())
}

func (g *Grid) UnmarshalJSON(b []byte) error {
	var rows [][]int
	if err := json.Unmarshal(b, &rows); err != nil {
		return err
	}
	parsed, err := FromRows(rows)
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}
