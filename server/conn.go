package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mazesync/protocol"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1 << 16
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func NewClientConn(ws *websocket.Conn, buffer int) *ClientConn {
	if buffer < 1 {
		buffer = 1
	}
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则返回 false，由 Hub 关闭连接）
func (c *ClientConn) Enqueue(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// Close 关闭底层连接；可重复调用
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期发送 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端的 move，交给 Hub；退出时通知 Hub 移除玩家
func (c *ClientConn) readPump(h *Hub, playerID string) {
	defer func() {
		if err := h.Leave(playerID); err != nil {
			h.log.Debugw("leave after hub stop", "player", playerID, "err", err)
		}
		c.Close()
	}()
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debugw("read error", "player", playerID, "err", err)
			}
			return
		}
		mv, err := protocol.DecodeMove(payload)
		if err != nil {
			// 无法解析的消息静默丢弃，不回复对端
			h.metrics.IncMalformedDropped()
			h.log.Debugw("dropped message", "player", playerID, "err", err)
			continue
		}
		if err := h.Move(playerID, mv.Position); err != nil {
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 无鉴权：允许所有来源
		return true
	},
}

// HandleWS 返回 WebSocket 接入处理器：每个连接即一个玩家会话
func HandleWS(h *Hub, sendBuffer int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warnw("upgrade error", "err", err)
			return
		}

		client := NewClientConn(ws, sendBuffer)
		playerID, err := h.Join(client)
		if err != nil {
			h.log.Warnw("join rejected", "err", err)
			client.Close()
			return
		}

		go client.writePump()
		go client.readPump(h, playerID)
	}
}
