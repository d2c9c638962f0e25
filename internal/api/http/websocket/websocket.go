package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	// 前端部署域不固定，暂不校验来源
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// 心跳节奏要比夜晚的自动结算超时（默认 10 秒）更敏感：
// 阶段切换的广播不能落在一条早已死掉的连接上
const (
	HEARTBEAT_INTERVAL = 15 * time.Second
	HEARTBEAT_TIMEOUT  = 30 * time.Second
)

// pongHandler 收到客户端 pong 时顺延读超时
func pongHandler(conn *websocket.Conn) func(string) error {
	return func(string) error {
		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		return nil
	}
}
