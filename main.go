package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mazesync/config"
	"mazesync/maze"
	"mazesync/protocol"
	"mazesync/server"
)

// mazesync 入口：启动 HTTP + WebSocket 服务与单线程事件循环
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	// 命令行参数覆盖环境变量
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "server listen address, e.g. :8080")
	flag.IntVar(&cfg.GridSize, "grid", cfg.GridSize, "maze edge length for new epochs")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "rolling log file, empty for stderr only")
	flag.StringVar(&cfg.WebDir, "web", cfg.WebDir, "static files for the browser client, empty (default) to disable")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if err := server.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	reg, err := server.NewRegistry(server.RegistryConfig{
		GridSize:  cfg.GridSize,
		WorldSize: cfg.WorldSize,
		Spawn:     protocol.Position{Color: cfg.DefaultColor},
		Shuffler:  maze.DefaultShuffler,
	})
	if err != nil {
		server.Log.Fatalf("registry: %v", err)
	}
	hub := server.NewHub(reg, &server.Metrics{}, server.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.NewRouter(hub, server.RouterOptions{SendBuffer: cfg.SendBuffer, WebDir: cfg.WebDir}),
	}

	go func() {
		server.Log.Infof("mazesync listening on %s; websocket at ws://localhost%v%s", cfg.Addr, cfg.Addr, server.URIWebSocket)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		server.Log.Warnf("shutdown: %v", err)
	}
	cancel()
	<-hub.Done()
}
