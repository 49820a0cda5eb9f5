package server

import (
	"net/http"

	"github.com/matryer/way"
)

const URIWebSocket = "/ws"

// RouterOptions 路由相关配置
type RouterOptions struct {
	SendBuffer int    // 每个连接的发送队列长度
	WebDir     string // 浏览器客户端静态资源目录，空则不挂载
}

// NewRouter 注册 WebSocket、管理与监控接口；静态资源必须最后注册（前缀匹配）
func NewRouter(h *Hub, opts RouterOptions) *way.Router {
	r := way.NewRouter()
	r.HandleFunc(http.MethodGet, URIWebSocket, HandleWS(h, opts.SendBuffer))
	r.HandleFunc(http.MethodGet, "/metrics", HandleMetrics(h))
	r.HandleFunc(http.MethodGet, "/admin/players", HandleAdminPlayers(h))
	r.HandleFunc(http.MethodGet, "/admin/config", HandleAdminConfig(h))
	r.HandleFunc(http.MethodPost, "/admin/config", HandleAdminConfig(h))
	r.HandleFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if opts.WebDir != "" {
		r.Handle(http.MethodGet, "/...", http.FileServer(http.Dir(opts.WebDir)))
	}
	return r
}
