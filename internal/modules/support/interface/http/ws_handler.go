package http

import (
	nethttp "net/http"
	"strings"

	"UnyraSupport/pkg/util/myjwt"
	"UnyraSupport/pkg/ws"
	"UnyraSupport/pkg/zlog"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WsHandler websocket接入：前端连上后接收tool_start等进度事件
type WsHandler struct {
	hub *ws.Hub
}

// NewWsHandler 创建WsHandler
func NewWsHandler(hub *ws.Hub) *WsHandler {
	return &WsHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *nethttp.Request) bool {
		return true
	},
}

// Connect 建立websocket连接
//
// 路由: GET /wss?token=xxx
// 浏览器原生WebSocket不支持自定义Header，token走URL参数，这里手动校验
func (h *WsHandler) Connect(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		c.AbortWithStatus(nethttp.StatusUnauthorized)
		return
	}

	claims, err := myjwt.ParseToken(token)
	if err != nil || claims == nil || claims.Email == "" {
		c.AbortWithStatus(nethttp.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Error(err.Error())
		return
	}

	client := ws.NewClient(claims.Email, conn)
	h.hub.Register(client)
	go client.WritePump()

	// 读循环只用于感知断连，收到的消息丢弃
	go func() {
		defer h.hub.Unregister(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
