package maze

// Direction 是迷宫格子的四个方向之一
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

// Directions 按固定顺序列出全部方向
var Directions = [4]Direction{North, South, East, West}

var (
	dx       = [4]int{North: 0, South: 0, East: 1, West: -1}
	dy       = [4]int{North: -1, South: 1, East: 0, West: 0}
	opposite = [4]Direction{North: South, South: North, East: West, West: East}
	// 存储与线协议使用的位编码：N=1 S=2 E=4 W=8
	bits = [4]uint8{North: 1, South: 2, East: 4, West: 8}
)

// Offset 返回该方向的单位偏移 (dx, dy)，y 轴向下
func (d Direction) Offset() (int, int) {
	return dx[d], dy[d]
}

// Opposite 返回相反方向
func (d Direction) Opposite() Direction {
	return opposite[d]
}

// Valid 判断是否为四个合法方向之一
func (d Direction) Valid() bool {
	return d >= North && d <= West
}

func (d Direction) bit() uint8 {
	return bits[d]
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	default:
		return "invalid"
	}
}
