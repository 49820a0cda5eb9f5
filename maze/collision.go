package maze

import "math"

// CellOf 将连续坐标映射到格子坐标：floor(x/cellSize), floor(y/cellSize)
func CellOf(x, y, cellSize float64) (int, int) {
	return int(math.Floor(x / cellSize)), int(math.Floor(y / cellSize))
}

// CellCenter 返回格子 (cx,cy) 的中心点
func CellCenter(cx, cy int, cellSize float64) (float64, float64) {
	return (float64(cx) + 0.5) * cellSize, (float64(cy) + 0.5) * cellSize
}

// Blocked 判断半径为 radius 的圆心 (x,y) 是否处于非法位置
//
// 这是圆与轴对齐墙体的近似检测：只看当前格子的掩码，圆在某一侧
// 触及或越过格子边界且该侧没有打通时视为碰撞；越过的是迷宫外沿时
// 不在此判定，仅由越界规则（圆心所在格子出界）处理。
func Blocked(g *Grid, cellSize, x, y, radius float64) bool {
	if g == nil || cellSize <= 0 || math.IsNaN(x) || math.IsNaN(y) {
		return true
	}
	cx, cy := CellOf(x, y, cellSize)
	if !g.InBounds(cx, cy) {
		return true
	}

	left := float64(cx) * cellSize
	top := float64(cy) * cellSize
	right := left + cellSize
	bottom := top + cellSize

	crossed := [4]bool{
		North: y-radius <= top,
		South: y+radius >= bottom,
		East:  x+radius >= right,
		West:  x-radius <= left,
	}
	for _, d := range Directions {
		if !crossed[d] || g.IsOpen(cx, cy, d) {
			continue
		}
		if _, _, ok := g.Neighbor(cx, cy, d); ok {
			return true
		}
	}
	return false
}
