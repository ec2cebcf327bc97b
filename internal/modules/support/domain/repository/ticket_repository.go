package repository

import (
	"context"

	"UnyraSupport/internal/modules/support/domain/ticket"
)

// SupportTicketRepository 本地工单镜像仓储
type SupportTicketRepository interface {
	// SaveTicket 落库一条工单镜像（append成功后调用）
	SaveTicket(ctx context.Context, t *ticket.SupportTicket) error

	// UpdateTicketLinkageByRow 按行号引用更新状态与任务关联字段（与表格侧的update语义一致）
	UpdateTicketLinkageByRow(ctx context.Context, rowRef string, status, unyraTaskId, taskError string) error

	// CountTicketsByRequester 按请求人email统计工单数（大小写不敏感）
	CountTicketsByRequester(ctx context.Context, requesterEmail string) (int64, error)
}
