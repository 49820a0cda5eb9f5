package client

import (
	"math"

	"mazesync/maze"
	"mazesync/protocol"
)

// 浏览器客户端使用的手感参数
const (
	DefaultMaxSpeed     = 25.0
	DefaultAcceleration = 0.95
	DefaultFriction     = 0.92
	DefaultRadius       = protocol.PlayerRadius
	stopThreshold       = 0.01
)

// Input 一帧内按住的方向键
type Input struct {
	Up, Down, Left, Right bool
}

// Predictor 客户端本地预测：把输入积分为速度与位置，提交前先做碰撞检测
type Predictor struct {
	Pos      protocol.Position
	VelX     float64
	VelY     float64
	CellSize float64

	MaxSpeed     float64
	Acceleration float64
	Friction     float64
	Radius       float64
}

// NewPredictor 以出生点与格子尺寸创建预测器
func NewPredictor(spawn protocol.Position, cellSize float64) *Predictor {
	return &Predictor{
		Pos:          spawn,
		CellSize:     cellSize,
		MaxSpeed:     DefaultMaxSpeed,
		Acceleration: DefaultAcceleration,
		Friction:     DefaultFriction,
		Radius:       DefaultRadius,
	}
}

// Step 推进一帧，返回位置是否改变（改变时调用方应上报 move）
func (p *Predictor) Step(g *maze.Grid, in Input) bool {
	p.accelerate(in)

	moved := false
	nx, ny := p.Pos.X+p.VelX, p.Pos.Y+p.VelY
	if (p.VelX != 0 || p.VelY != 0) && !maze.Blocked(g, p.CellSize, nx, ny, p.Radius) {
		p.Pos.X, p.Pos.Y = nx, ny
		moved = true
	} else {
		// 撞墙时只清零会单独撞墙的轴，另一轴保留
		if maze.Blocked(g, p.CellSize, p.Pos.X+p.VelX, p.Pos.Y, p.Radius) {
			p.VelX = 0
		}
		if maze.Blocked(g, p.CellSize, p.Pos.X, p.Pos.Y+p.VelY, p.Radius) {
			p.VelY = 0
		}
	}

	p.VelX *= p.Friction
	p.VelY *= p.Friction
	if math.Abs(p.VelX) < stopThreshold {
		p.VelX = 0
	}
	if math.Abs(p.VelY) < stopThreshold {
		p.VelY = 0
	}
	return moved
}

func (p *Predictor) accelerate(in Input) {
	switch {
	case in.Up && !in.Down:
		p.VelY = math.Max(p.VelY-p.Acceleration, -p.MaxSpeed)
	case in.Down && !in.Up:
		p.VelY = math.Min(p.VelY+p.Acceleration, p.MaxSpeed)
	default:
		// 松开该轴按键立即停止
		p.VelY = 0
	}
	switch {
	case in.Left && !in.Right:
		p.VelX = math.Max(p.VelX-p.Acceleration, -p.MaxSpeed)
	case in.Right && !in.Left:
		p.VelX = math.Min(p.VelX+p.Acceleration, p.MaxSpeed)
	default:
		p.VelX = 0
	}
}
