package server

import (
	"sync/atomic"
)

// Metrics 记录运行期的关键指标（用于监控与调试）
type Metrics struct {
	Connects         int64 // 加入的连接数
	Disconnects      int64 // 离开的连接数
	MovesRelayed     int64 // 被接受并转发的 move
	MovesUnknown     int64 // 来自未知身份的 move
	MalformedDropped int64 // 无法解析而丢弃的入站消息
	SendsDropped     int64 // 因对端队列满或已关闭而未能入队的发送
	PeersEvicted     int64 // 因发送队列溢出被关闭的连接
	EpochsStarted    int64 // 生成迷宫的次数
	EventCount       int64 // 事件循环处理的事件数
	TotalEventNs     int64 // 事件处理累计耗时（纳秒）
}

func (m *Metrics) IncConnects()         { atomic.AddInt64(&m.Connects, 1) }
func (m *Metrics) IncDisconnects()      { atomic.AddInt64(&m.Disconnects, 1) }
func (m *Metrics) IncMovesRelayed()     { atomic.AddInt64(&m.MovesRelayed, 1) }
func (m *Metrics) IncMovesUnknown()     { atomic.AddInt64(&m.MovesUnknown, 1) }
func (m *Metrics) IncMalformedDropped() { atomic.AddInt64(&m.MalformedDropped, 1) }
func (m *Metrics) IncSendsDropped()     { atomic.AddInt64(&m.SendsDropped, 1) }
func (m *Metrics) IncPeersEvicted()     { atomic.AddInt64(&m.PeersEvicted, 1) }
func (m *Metrics) IncEpochsStarted()    { atomic.AddInt64(&m.EpochsStarted, 1) }
func (m *Metrics) AddEvent(ns int64) {
	atomic.AddInt64(&m.EventCount, 1)
	atomic.AddInt64(&m.TotalEventNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	events := atomic.LoadInt64(&m.EventCount)
	total := atomic.LoadInt64(&m.TotalEventNs)
	var avgMs float64
	if events > 0 {
		avgMs = float64(total) / float64(events) / 1e6
	}
	return map[string]any{
		"connects":          atomic.LoadInt64(&m.Connects),
		"disconnects":       atomic.LoadInt64(&m.Disconnects),
		"moves_relayed":     atomic.LoadInt64(&m.MovesRelayed),
		"moves_unknown":     atomic.LoadInt64(&m.MovesUnknown),
		"malformed_dropped": atomic.LoadInt64(&m.MalformedDropped),
		"sends_dropped":     atomic.LoadInt64(&m.SendsDropped),
		"peers_evicted":     atomic.LoadInt64(&m.PeersEvicted),
		"epochs_started":    atomic.LoadInt64(&m.EpochsStarted),
		"event_count":       events,
		"avg_event_ms":      avgMs,
	}
}
