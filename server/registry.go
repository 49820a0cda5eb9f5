package server

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"

	"mazesync/maze"
	"mazesync/protocol"
)

// ErrCellTooSmall 格子放不下一个玩家（格子尺寸必须大于玩家直径）
var ErrCellTooSmall = errors.New("cell smaller than player diameter")

// RegistryConfig 注册表的构造参数
type RegistryConfig struct {
	GridSize int               // 新纪元迷宫边长
	Spawn    protocol.Position // 新玩家出生点；WorldSize > 0 时只取其颜色
	// WorldSize 画布边长；> 0 时出生点取左上角格子中心，并拒绝放不下玩家的边长
	WorldSize float64
	Shuffler  maze.Shuffler // 迷宫方向随机源，nil 时使用全局随机源
	NewID     func() string // 身份生成器，nil 时使用随机 UUID
}

// Join 是 Connect 的结果
type Join struct {
	Identity string
	Position protocol.Position
	Others   map[string]protocol.Position // 不含自己
	Grid     *maze.Grid
	Epoch    uint64
	NewEpoch bool // 本次连接开启了新纪元（生成了新迷宫）
}

// Registry 服务端权威状态：玩家身份 -> 位置，以及当前纪元共享的迷宫
// 纪元：在线人数 0->1 时生成迷宫，1->0 时丢弃
type Registry struct {
	mu deadlock.Mutex

	players   map[string]protocol.Position
	grid      *maze.Grid
	epoch     uint64
	gridSize  int
	world     float64
	spawn     protocol.Position // 本纪元出生点
	baseSpawn protocol.Position
	shuffler  maze.Shuffler
	newID     func() string
}

// NewRegistry 创建空注册表（尚无迷宫）
func NewRegistry(c RegistryConfig) (*Registry, error) {
	if err := checkGridSize(c.GridSize, c.WorldSize); err != nil {
		return nil, fmt.Errorf("new registry: %w", err)
	}
	if c.Shuffler == nil {
		c.Shuffler = maze.DefaultShuffler
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	return &Registry{
		players:   make(map[string]protocol.Position),
		gridSize:  c.GridSize,
		world:     c.WorldSize,
		spawn:     c.Spawn,
		baseSpawn: c.Spawn,
		shuffler:  c.Shuffler,
		newID:     c.NewID,
	}, nil
}

// Connect 分配唯一身份与出生点；若为本纪元第一位玩家则生成迷宫
// 迷宫对每个加入者都返回，中途加入的客户端也能渲染
func (r *Registry) Connect() (Join, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	newEpoch := false
	if r.grid == nil {
		g, err := maze.Generate(r.gridSize, r.shuffler)
		if err != nil {
			return Join{}, fmt.Errorf("generate maze: %w", err)
		}
		r.grid = g
		r.spawn = r.spawnFor(g.Size())
		r.epoch++
		newEpoch = true
	}

	others := make(map[string]protocol.Position, len(r.players))
	for id, pos := range r.players {
		others[id] = pos
	}

	id := r.newID()
	for {
		if _, taken := r.players[id]; !taken {
			break
		}
		id = r.newID()
	}
	r.players[id] = r.spawn

	return Join{
		Identity: id,
		Position: r.spawn,
		Others:   others,
		Grid:     r.grid,
		Epoch:    r.epoch,
		NewEpoch: newEpoch,
	}, nil
}

// Move 直接信任客户端上报的位置并覆盖，不做碰撞校验
// 未知身份返回 false
func (r *Registry) Move(id string, pos protocol.Position) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[id]; !ok {
		return false
	}
	r.players[id] = pos
	return true
}

// Disconnect 移除玩家；最后一人离开时丢弃迷宫，结束本纪元
func (r *Registry) Disconnect(id string) (removed, epochEnded bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[id]; !ok {
		return false, false
	}
	delete(r.players, id)
	if len(r.players) == 0 {
		r.grid = nil
		return true, true
	}
	return true, false
}

// Players 返回玩家位置的只读副本
func (r *Registry) Players() map[string]protocol.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]protocol.Position, len(r.players))
	for id, pos := range r.players {
		out[id] = pos
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Grid 当前纪元的迷宫，无人在线时为 nil；纪元内迷宫不可变
func (r *Registry) Grid() *maze.Grid {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.grid
}

func (r *Registry) Epoch() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.epoch
}

func (r *Registry) GridSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gridSize
}

// SetGridSize 修改下一纪元的迷宫边长，当前迷宫不受影响
func (r *Registry) SetGridSize(n int) error {
	if err := checkGridSize(n, r.world); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gridSize = n
	return nil
}

// spawnFor 边长为 n 的迷宫的出生点：格子 (0,0) 的中心
func (r *Registry) spawnFor(n int) protocol.Position {
	if r.world <= 0 {
		return r.baseSpawn
	}
	x, y := maze.CellCenter(0, 0, r.world/float64(n))
	return protocol.Position{X: x, Y: y, Color: r.baseSpawn.Color}
}

// checkGridSize 出生在格子中心的玩家不能碰到四面墙
func checkGridSize(n int, world float64) error {
	if n < 1 {
		return maze.ErrInvalidSize
	}
	if world > 0 && world/float64(n) <= 2*protocol.PlayerRadius {
		return fmt.Errorf("grid size %d in %.0fpx world: %w", n, world, ErrCellTooSmall)
	}
	return nil
}
