// mazebot 是无界面的测试客户端：连接服务端后随机按方向键在迷宫里游走
package main

import (
	"context"
	"flag"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mazesync/client"
)

func main() {
	var (
		url    string
		world  float64
		change time.Duration
	)
	flag.StringVar(&url, "url", "ws://localhost:8080/ws", "server websocket url")
	flag.Float64Var(&world, "world", client.DefaultWorldSize, "canvas size in pixels")
	flag.DurationVar(&change, "turn", 700*time.Millisecond, "how often the bot picks a new direction")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c, err := client.Dial(ctx, url, log)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer c.Close()
	go func() {
		if err := c.Run(); err != nil {
			log.Warnf("connection lost: %v", err)
		}
	}()

	var (
		in       client.Input
		lastTurn time.Time
	)
	loop := &client.FrameLoop{
		Client:    c,
		WorldSize: world,
		Input: func() client.Input {
			if time.Since(lastTurn) >= change {
				lastTurn = time.Now()
				in = randomInput()
			}
			return in
		},
		OnFrame: func(p *client.Predictor) {
			if p.VelX == 0 && p.VelY == 0 {
				// 撞墙后尽快换方向
				lastTurn = time.Time{}
			}
		},
	}
	pred := loop.Run(ctx)
	log.Infow("bot stopped", "x", pred.Pos.X, "y", pred.Pos.Y, "others", len(c.Players()))
}

func randomInput() client.Input {
	switch rand.IntN(4) {
	case 0:
		return client.Input{Up: true}
	case 1:
		return client.Input{Down: true}
	case 2:
		return client.Input{Left: true}
	default:
		return client.Input{Right: true}
	}
}
