// Package protocol 定义服务端与客户端之间的 JSON 消息（每条 WebSocket 文本消息一个对象）
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"mazesync/maze"
)

// 消息类型
const (
	TypeInit         = "init"
	TypeNewPlayer    = "new-player"
	TypeUpdate       = "update"
	TypeRemovePlayer = "remove-player"
	TypeMove         = "move"
)

// DefaultColor 位置未携带颜色时客户端使用的颜色
const DefaultColor = "green"

// 画布边长与玩家半径（像素），格子尺寸 = WorldSize / N
const (
	WorldSize    = 600.0
	PlayerRadius = 10.0
)

var (
	ErrUnknownType = errors.New("protocol: unknown message type")
	ErrMalformed   = errors.New("protocol: malformed message")
)

// Position 世界（像素）坐标，颜色可选
type Position struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color,omitempty"`
}

// ColorOrDefault 返回颜色，缺省时为 DefaultColor
func (p Position) ColorOrDefault() string {
	if p.Color == "" {
		return DefaultColor
	}
	return p.Color
}

// Init 仅发给新加入的连接，是唯一携带迷宫的消息
// Players 为其他已在线玩家的快照（不含自己），自己的出生点在 Position
type Init struct {
	Type     string              `json:"type"`
	Identity string              `json:"identity"`
	Position Position            `json:"position"`
	Players  map[string]Position `json:"players"`
	Grid     *maze.Grid          `json:"grid"`
	Epoch    uint64              `json:"epoch"`
}

// PlayerEvent 用于 new-player 与 update
type PlayerEvent struct {
	Type     string   `json:"type"`
	Identity string   `json:"identity"`
	Position Position `json:"position"`
}

type RemovePlayer struct {
	Type     string `json:"type"`
	Identity string `json:"identity"`
}

// Move 客户端上报的位置（服务端不做校验）
type Move struct {
	Type     string   `json:"type"`
	Position Position `json:"position"`
}

func NewInit(id string, pos Position, players map[string]Position, g *maze.Grid, epoch uint64) Init {
	if players == nil {
		players = map[string]Position{}
	}
	return Init{Type: TypeInit, Identity: id, Position: pos, Players: players, Grid: g, Epoch: epoch}
}

func NewPlayer(id string, pos Position) PlayerEvent {
	return PlayerEvent{Type: TypeNewPlayer, Identity: id, Position: pos}
}

func NewUpdate(id string, pos Position) PlayerEvent {
	return PlayerEvent{Type: TypeUpdate, Identity: id, Position: pos}
}

func NewRemovePlayer(id string) RemovePlayer {
	return RemovePlayer{Type: TypeRemovePlayer, Identity: id}
}

func NewMove(pos Position) Move {
	return Move{Type: TypeMove, Position: pos}
}

// Encode 序列化任一消息
func Encode(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

type envelope struct {
	Type string `json:"type"`
}

// PeekType 读取 type 字段
func PeekType(b []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return env.Type, nil
}

// DecodeMove 解析客户端消息；只接受 move，且必须带 position
func DecodeMove(b []byte) (Move, error) {
	t, err := PeekType(b)
	if err != nil {
		return Move{}, err
	}
	if t != TypeMove {
		return Move{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	var raw struct {
		Position *Position `json:"position"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return Move{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.Position == nil {
		return Move{}, fmt.Errorf("%w: move without position", ErrMalformed)
	}
	return Move{Type: TypeMove, Position: *raw.Position}, nil
}

// ServerMessage 是客户端解码后的服务端消息，按 Type 读取对应字段
type ServerMessage struct {
	Type     string              `json:"type"`
	Identity string              `json:"identity"`
	Position Position            `json:"position"`
	Players  map[string]Position `json:"players,omitempty"`
	Grid     *maze.Grid          `json:"grid,omitempty"`
	Epoch    uint64              `json:"epoch,omitempty"`
}

// DecodeServer 解析服务端下发的消息
func DecodeServer(b []byte) (ServerMessage, error) {
	var m ServerMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return ServerMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch m.Type {
	case TypeInit:
		if m.Identity == "" || m.Grid == nil {
			return ServerMessage{}, fmt.Errorf("%w: incomplete init", ErrMalformed)
		}
	case TypeNewPlayer, TypeUpdate, TypeRemovePlayer:
		if m.Identity == "" {
			return ServerMessage{}, fmt.Errorf("%w: missing identity", ErrMalformed)
		}
	case "":
		return ServerMessage{}, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return ServerMessage{}, fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	return m, nil
}
