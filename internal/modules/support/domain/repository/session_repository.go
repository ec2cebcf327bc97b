package repository

import (
	"context"

	"UnyraSupport/internal/modules/support/domain/conversation"
)

// SupportSessionRepository 支持会话仓储
type SupportSessionRepository interface {
	// CreateSession 创建新会话，同时把该子账户之前的active会话置为replaced
	CreateSession(ctx context.Context, session *conversation.SupportSession) error

	// GetSessionByID 按会话ID查询，未找到返回 (nil, nil)
	GetSessionByID(ctx context.Context, sessionId string) (*conversation.SupportSession, error)

	// UpdateSessionMode 更新会话模式（live降级为fallback时）
	UpdateSessionMode(ctx context.Context, sessionId string, mode string) error

	// TouchSession 更新会话的最后活动时间
	TouchSession(ctx context.Context, sessionId string) error
}

// SupportMessageRepository 支持消息仓储
type SupportMessageRepository interface {
	// AppendMessage 追加一条消息（消息只追加不修改）
	AppendMessage(ctx context.Context, msg *conversation.SupportMessage) error

	// ListMessages 按时间正序返回会话消息
	ListMessages(ctx context.Context, sessionId string, limit int) ([]*conversation.SupportMessage, error)
}
