package server

import (
	"encoding/json"
	"net/http"

	"mazesync/protocol"
)

// HandleAdminConfig 读取或热更新下一纪元的迷宫边长
// GET  /admin/config  返回当前配置
// POST /admin/config  以 JSON 载荷更新，例如 {"gridSize":8}
func HandleAdminConfig(h *Hub) http.HandlerFunc {
	type cfg struct {
		GridSize *int `json:"gridSize,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		reg := h.Registry()
		switch r.Method {
		case http.MethodGet:
			size := reg.GridSize()
			writeJSON(w, http.StatusOK, cfg{GridSize: &size})
		case http.MethodPost:
			var body cfg
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
			if body.GridSize != nil {
				if err := reg.SetGridSize(*body.GridSize); err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			h.log.Infof("config updated: gridSize=%d (next epoch)", reg.GridSize())
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleAdminPlayers 输出当前纪元与玩家快照
// GET /admin/players
func HandleAdminPlayers(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg := h.Registry()
		payload := struct {
			Epoch    uint64                       `json:"epoch"`
			GridSize int                          `json:"gridSize"`
			Active   bool                         `json:"active"`
			Players  map[string]protocol.Position `json:"players"`
		}{
			Epoch:    reg.Epoch(),
			GridSize: reg.GridSize(),
			Active:   reg.Grid() != nil,
			Players:  reg.Players(),
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

// HandleMetrics 输出运行指标
// GET /metrics
func HandleMetrics(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"players": h.Registry().Len(),
			"epoch":   h.Registry().Epoch(),
			"metrics": h.Metrics().Snapshot(),
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
