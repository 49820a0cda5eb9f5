package client

import (
	"context"
	"time"

	"mazesync/protocol"
)

// DefaultWorldSize 画布边长（像素），格子尺寸 = 画布 / N
const DefaultWorldSize = protocol.WorldSize

// FrameLoop 每帧：读取输入 -> 预测 -> 上报；连接关闭后停止上报但继续预测
type FrameLoop struct {
	Client    *Client
	Input     func() Input
	Frame     time.Duration // 帧间隔，默认 1/60 秒
	WorldSize float64
	// OnFrame 每帧结束时调用（渲染钩子），可为 nil
	OnFrame func(p *Predictor)
}

// Run 运行直到 ctx 结束，返回最终的预测器状态
func (l *FrameLoop) Run(ctx context.Context) *Predictor {
	frame := l.Frame
	if frame <= 0 {
		frame = time.Second / 60
	}
	world := l.WorldSize
	if world <= 0 {
		world = DefaultWorldSize
	}
	c := l.Client
	grid := c.Grid()
	pred := NewPredictor(c.Self(), world/float64(grid.Size()))

	ticker := time.NewTicker(frame)
	defer ticker.Stop()
	sending := true
	for {
		select {
		case <-ctx.Done():
			return pred
		case <-ticker.C:
		}
		var in Input
		if l.Input != nil {
			in = l.Input()
		}
		if pred.Step(grid, in) && sending {
			if err := c.SendMove(pred.Pos); err != nil {
				sending = false
				c.log.Infow("stopped sending", "err", err)
			}
		}
		if l.OnFrame != nil {
			l.OnFrame(pred)
		}
	}
}
