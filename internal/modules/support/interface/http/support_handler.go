package http

import (
	"strings"

	supportRequest "UnyraSupport/internal/modules/support/application/dto/request"
	"UnyraSupport/internal/modules/support/application/service"
	"UnyraSupport/pkg/back"
	"UnyraSupport/pkg/ws"
	"UnyraSupport/pkg/xerr"
	"UnyraSupport/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SupportHandler 支持对话HTTP Handler
type SupportHandler struct {
	chatSvc    service.ChatService
	accountSvc service.AccountService
	ticketSvc  service.TicketService
	hub        *ws.Hub
}

// NewSupportHandler 创建SupportHandler
func NewSupportHandler(chatSvc service.ChatService, accountSvc service.AccountService, ticketSvc service.TicketService, hub *ws.Hub) *SupportHandler {
	return &SupportHandler{
		chatSvc:    chatSvc,
		accountSvc: accountSvc,
		ticketSvc:  ticketSvc,
		hub:        hub,
	}
}

// ListAccounts 获取子账户目录
//
// 路由: GET /support/accounts
// 鉴权: 需要JWT
func (h *SupportHandler) ListAccounts(c *gin.Context) {
	data, err := h.accountSvc.ListAccounts(c.Request.Context())
	if err != nil {
		zlog.Error("list accounts failed", zap.Error(err))
	}
	back.Result(c, data, err)
}

// StartSession 选择子账户并开启新会话
//
// 路由: POST /support/session/start
// 鉴权: 需要JWT
// 请求体: SessionStartRequest
func (h *SupportHandler) StartSession(c *gin.Context) {
	var req supportRequest.SessionStartRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error("session start bind error", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.chatSvc.StartSession(c.Request.Context(), req)
	if err != nil {
		zlog.Error("session start failed", zap.Error(err), zap.String("account_id", req.AccountID))
	}
	back.Result(c, data, err)
}

// Send 发送一轮用户消息
//
// 路由: POST /support/chat/send
// 鉴权: 需要JWT
// 请求体: ChatSendRequest
// 工具进度通过websocket推送到当前登录email
func (h *SupportHandler) Send(c *gin.Context) {
	var req supportRequest.ChatSendRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error("chat send bind error", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	email := strings.TrimSpace(c.GetString("email"))

	onToolStart := func(toolName string) {
		if email != "" && h.hub != nil {
			h.hub.SendToolStart(email, toolName)
		}
	}

	data, err := h.chatSvc.SendTurn(c.Request.Context(), req, onToolStart)
	if err != nil {
		zlog.Error("chat send failed", zap.Error(err), zap.String("email", email))
	}
	back.Result(c, data, err)
}

// ListTickets 查询工单列表
//
// 路由: POST /support/tickets/list
// 鉴权: 需要JWT；client角色强制只看自己email的工单
// 请求体: TicketListRequest
func (h *SupportHandler) ListTickets(c *gin.Context) {
	var req supportRequest.TicketListRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error("ticket list bind error", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	if c.GetString("role") != "admin" {
		req.Email = c.GetString("email")
	}

	data, err := h.ticketSvc.ListTickets(c.Request.Context(), req)
	if err != nil {
		zlog.Error("ticket list failed", zap.Error(err))
	}
	back.Result(c, data, err)
}
