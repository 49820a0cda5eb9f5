// Package client 是无界面的迷宫客户端：维护其他玩家的影子状态，
// 用本地迷宫副本做移动预测，并把提交的位置上报给服务端。
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mazesync/maze"
	"mazesync/protocol"
)

var (
	ErrNotJoined = errors.New("client: server did not send init")
	ErrClosed    = errors.New("client: connection closed")
)

const (
	writeWait   = 5 * time.Second
	initTimeout = 5 * time.Second
)

// Client 一个已加入的连接
type Client struct {
	conn *websocket.Conn
	log  *zap.SugaredLogger

	writeMu sync.Mutex

	mu       sync.RWMutex
	identity string
	epoch    uint64
	grid     *maze.Grid
	self     protocol.Position
	players  map[string]protocol.Position // 其他玩家

	done      chan struct{}
	closeOnce sync.Once
}

// Dial 建立连接并等待 init；返回时已拿到身份、迷宫与玩家快照
func Dial(ctx context.Context, url string, logger *zap.SugaredLogger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	deadline := time.Now().Add(initTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)
	_, b, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read init: %w", err)
	}
	m, err := protocol.DecodeServer(b)
	if err != nil || m.Type != protocol.TypeInit {
		conn.Close()
		return nil, ErrNotJoined
	}
	_ = conn.SetReadDeadline(time.Time{})

	players := make(map[string]protocol.Position, len(m.Players))
	for id, pos := range m.Players {
		if id != m.Identity {
			players[id] = pos
		}
	}
	c := &Client{
		conn:     conn,
		log:      logger.With("player", m.Identity),
		identity: m.Identity,
		epoch:    m.Epoch,
		grid:     m.Grid,
		self:     m.Position,
		players:  players,
		done:     make(chan struct{}),
	}
	c.log.Infow("joined", "epoch", m.Epoch, "players", len(players), "size", m.Grid.Size())
	return c, nil
}

// Run 读取服务端消息并更新影子状态，直到连接断开
func (c *Client) Run() error {
	defer c.Close()
	for {
		_, b, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return nil
			default:
			}
			return fmt.Errorf("read: %w", err)
		}
		m, err := protocol.DecodeServer(b)
		if err != nil {
			c.log.Debugw("dropped message", "err", err)
			continue
		}
		c.apply(m)
	}
}

func (c *Client) apply(m protocol.ServerMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// 自己的位置以本地预测为准，忽略服务端回显
	if m.Identity == c.identity {
		return
	}
	switch m.Type {
	case protocol.TypeNewPlayer, protocol.TypeUpdate:
		c.players[m.Identity] = m.Position
	case protocol.TypeRemovePlayer:
		delete(c.players, m.Identity)
	}
}

// SendMove 上报本地提交的位置
func (c *Client) SendMove(pos protocol.Position) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	c.mu.Lock()
	c.self = pos
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(protocol.NewMove(pos)); err != nil {
		return fmt.Errorf("send move: %w", err)
	}
	return nil
}

// Close 发送关闭帧并断开连接；可重复调用
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = c.conn.Close()
	})
}

// Done 在连接关闭后关闭
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Identity() string { return c.identity }

func (c *Client) Epoch() uint64 { return c.epoch }

// Grid 本纪元迷宫的本地副本
func (c *Client) Grid() *maze.Grid { return c.grid }

// Self 自己最近一次提交的位置
func (c *Client) Self() protocol.Position {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.self
}

// Players 其他玩家位置的副本
func (c *Client) Players() map[string]protocol.Position {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]protocol.Position, len(c.players))
	for id, pos := range c.players {
		out[id] = pos
	}
	return out
}
