package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"mazesync/protocol"
)

// Config 服务端配置
type Config struct {
	Addr     string // HTTP/WebSocket 监听地址
	LogFile  string // 滚动日志文件，空则只写 stderr
	LogLevel string // zap 日志级别：debug / info / warn / error
	WebDir   string // 浏览器客户端静态资源目录，空则不挂载

	GridSize     int     // 新纪元迷宫边长
	WorldSize    float64 // 画布边长（像素），出生点取格子 (0,0) 中心
	DefaultColor string  // 新玩家颜色
	SendBuffer   int     // 每个连接的发送队列长度
}

// Default 未设置任何变量时的配置
func Default() Config {
	return Config{
		Addr:         ":8080",
		LogFile:      "app.log",
		LogLevel:     "debug",
		GridSize:     12,
		WorldSize:    protocol.WorldSize,
		DefaultColor: protocol.DefaultColor,
		SendBuffer:   64,
	}
}

// Load 先读取可选的 .env，再用 MAZE_* 环境变量覆盖默认值；.env 不存在不算错误
func Load(files ...string) (Config, error) {
	// godotenv 不会覆盖已存在的环境变量
	_ = godotenv.Load(files...)

	c := Default()
	var err error
	c.Addr = getEnv("MAZE_ADDR", c.Addr)
	c.LogFile = getEnvAllowEmpty("MAZE_LOG_FILE", c.LogFile)
	c.LogLevel = getEnv("MAZE_LOG_LEVEL", c.LogLevel)
	c.WebDir = getEnvAllowEmpty("MAZE_WEB_DIR", c.WebDir)
	c.DefaultColor = getEnv("MAZE_DEFAULT_COLOR", c.DefaultColor)

	if c.GridSize, err = getEnvAsInt("MAZE_GRID_SIZE", c.GridSize); err != nil {
		return Config{}, err
	}
	if c.SendBuffer, err = getEnvAsInt("MAZE_SEND_BUFFER", c.SendBuffer); err != nil {
		return Config{}, err
	}
	if c.WorldSize, err = getEnvAsFloat("MAZE_WORLD_SIZE", c.WorldSize); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// Validate 拒绝会让服务不可用的取值
func (c Config) Validate() error {
	if c.GridSize < 1 {
		return fmt.Errorf("grid size must be at least 1, got %d", c.GridSize)
	}
	if c.WorldSize <= 0 {
		return fmt.Errorf("world size must be positive, got %g", c.WorldSize)
	}
	// 格子必须放得下一个玩家，否则出生点就在墙里
	if cell := c.WorldSize / float64(c.GridSize); cell <= 2*protocol.PlayerRadius {
		return fmt.Errorf("grid size %d gives %gpx cells, need more than %gpx", c.GridSize, cell, 2*protocol.PlayerRadius)
	}
	if c.SendBuffer < 1 {
		return fmt.Errorf("send buffer must be at least 1, got %d", c.SendBuffer)
	}
	return nil
}

// getEnv 空值视为未设置
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// getEnvAllowEmpty 显式设置为空也生效，用于“空即关闭”的选项
func getEnvAllowEmpty(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	valueStr, ok := os.LookupEnv(key)
	if !ok || valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be an integer: %w", key, err)
	}
	return value, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	valueStr, ok := os.LookupEnv(key)
	if !ok || valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be a number: %w", key, err)
	}
	return value, nil
}
