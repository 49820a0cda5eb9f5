package server

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mazesync/protocol"
)

var (
	ErrHubClosed    = errors.New("hub closed")
	ErrPeerOverflow = errors.New("peer send queue overflow")
)

// Peer 是一个已加入的连接的发送端
type Peer interface {
	// Enqueue 非阻塞入队，队列满或连接已关闭时返回 false；
	// 返回 false 后 Hub 会关闭并移除该连接
	Enqueue(b []byte) bool
	Close()
}

type joinResult struct {
	id  string
	err error
}

type joinRequest struct {
	peer  Peer
	reply chan joinResult
}

type moveRequest struct {
	id   string
	pos  protocol.Position
	done chan struct{}
}

type leaveRequest struct {
	id   string
	done chan struct{}
}

// Hub 单线程事件循环：每个事件（加入 / 移动 / 离开）都在此完成
// “修改注册表 -> 广播”后才处理下一个，外部观察不到中间状态
type Hub struct {
	reg     *Registry
	metrics *Metrics
	log     *zap.SugaredLogger

	peers map[string]Peer // 仅由 Run 协程访问

	joins  chan joinRequest
	moves  chan moveRequest
	leaves chan leaveRequest
	done   chan struct{}
}

// NewHub 创建事件循环；logger 为 nil 时使用包级 Log
func NewHub(reg *Registry, metrics *Metrics, logger *zap.SugaredLogger) *Hub {
	if metrics == nil {
		metrics = &Metrics{}
	}
	if logger == nil {
		logger = Log
	}
	return &Hub{
		reg:     reg,
		metrics: metrics,
		log:     logger,
		peers:   make(map[string]Peer),
		joins:   make(chan joinRequest),
		moves:   make(chan moveRequest, 256),
		leaves:  make(chan leaveRequest, 64),
		done:    make(chan struct{}),
	}
}

func (h *Hub) Registry() *Registry { return h.reg }
func (h *Hub) Metrics() *Metrics   { return h.metrics }

// Done 在 Run 退出后关闭
func (h *Hub) Done() <-chan struct{} { return h.done }

// Run 处理事件直到 ctx 结束；退出时关闭所有连接
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("hub loop started")
	defer func() {
		for id, p := range h.peers {
			p.Close()
			delete(h.peers, id)
		}
		close(h.done)
		h.log.Info("hub loop stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-h.joins:
			start := time.Now()
			id, err := h.handleJoin(req.peer)
			req.reply <- joinResult{id: id, err: err}
			h.metrics.AddEvent(time.Since(start).Nanoseconds())
		case req := <-h.moves:
			start := time.Now()
			h.handleMove(req.id, req.pos)
			close(req.done)
			h.metrics.AddEvent(time.Since(start).Nanoseconds())
		case req := <-h.leaves:
			start := time.Now()
			h.handleLeave(req.id)
			close(req.done)
			h.metrics.AddEvent(time.Since(start).Nanoseconds())
		}
	}
}

// Join 注册新连接：先给它发 init，再向其他连接广播 new-player
func (h *Hub) Join(peer Peer) (string, error) {
	reply := make(chan joinResult, 1)
	select {
	case h.joins <- joinRequest{peer: peer, reply: reply}:
	case <-h.done:
		return "", ErrHubClosed
	}
	res := <-reply
	return res.id, res.err
}

// Move 转发一次位置上报，返回时已广播完毕
func (h *Hub) Move(id string, pos protocol.Position) error {
	req := moveRequest{id: id, pos: pos, done: make(chan struct{})}
	select {
	case h.moves <- req:
	case <-h.done:
		return ErrHubClosed
	}
	return h.wait(req.done)
}

// Leave 移除连接并广播 remove-player，返回时已广播完毕
func (h *Hub) Leave(id string) error {
	req := leaveRequest{id: id, done: make(chan struct{})}
	select {
	case h.leaves <- req:
	case <-h.done:
		return ErrHubClosed
	}
	return h.wait(req.done)
}

func (h *Hub) wait(done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-h.done:
		// 请求可能在退出前已被处理
		select {
		case <-done:
			return nil
		default:
			return ErrHubClosed
		}
	}
}

func (h *Hub) handleJoin(peer Peer) (string, error) {
	j, err := h.reg.Connect()
	if err != nil {
		h.log.Errorw("connect failed", "err", err)
		return "", err
	}
	h.metrics.IncConnects()
	if j.NewEpoch {
		h.metrics.IncEpochsStarted()
		h.log.Infow("new epoch", "epoch", j.Epoch, "size", j.Grid.Size())
	}

	initMsg, err := protocol.Encode(protocol.NewInit(j.Identity, j.Position, j.Others, j.Grid, j.Epoch))
	if err != nil {
		h.reg.Disconnect(j.Identity)
		return "", err
	}
	if !peer.Enqueue(initMsg) {
		// 其他连接尚未得知此玩家，无需广播 remove-player
		h.metrics.IncSendsDropped()
		h.metrics.IncPeersEvicted()
		peer.Close()
		h.reg.Disconnect(j.Identity)
		return "", ErrPeerOverflow
	}
	h.peers[j.Identity] = peer

	h.broadcast(protocol.NewPlayer(j.Identity, j.Position), j.Identity)
	h.log.Infow("player connected", "player", j.Identity, "players", len(h.peers), "epoch", j.Epoch)
	return j.Identity, nil
}

func (h *Hub) handleMove(id string, pos protocol.Position) {
	if !h.reg.Move(id, pos) {
		h.metrics.IncMovesUnknown()
		return
	}
	h.metrics.IncMovesRelayed()
	h.broadcast(protocol.NewUpdate(id, pos), id)
}

func (h *Hub) handleLeave(id string) {
	delete(h.peers, id)
	h.removePlayer(id)
}

// removePlayer 从注册表移除并广播 remove-player
func (h *Hub) removePlayer(id string) {
	removed, epochEnded := h.reg.Disconnect(id)
	if !removed {
		return
	}
	h.metrics.IncDisconnects()
	h.broadcast(protocol.NewRemovePlayer(id), id)
	h.log.Infow("player disconnected", "player", id, "players", len(h.peers))
	if epochEnded {
		h.log.Infow("epoch ended, maze discarded")
	}
}

// evict 结束发送队列溢出的连接：关闭、移出 Hub，并通知其余连接
// 之后该连接读泵的 Leave 不会再重复广播
func (h *Hub) evict(id string) {
	p, ok := h.peers[id]
	if !ok {
		return
	}
	delete(h.peers, id)
	p.Close()
	h.metrics.IncPeersEvicted()
	h.log.Warnw("send queue overflow, session closed", "player", id)
	h.removePlayer(id)
}

// broadcast 发给除 except 以外的所有已加入连接
// 入队失败的连接不再视为已加入：先完成本次广播，再逐个驱逐
func (h *Hub) broadcast(msg any, except string) {
	b, err := protocol.Encode(msg)
	if err != nil {
		h.log.Errorw("encode broadcast", "err", err)
		return
	}
	var failed []string
	for id, p := range h.peers {
		if id == except {
			continue
		}
		if !p.Enqueue(b) {
			h.metrics.IncSendsDropped()
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		h.evict(id)
	}
}
