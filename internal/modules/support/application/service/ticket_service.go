package service

import (
	"context"
	"fmt"
	"strings"

	"UnyraSupport/internal/modules/support/application/dto/request"
	"UnyraSupport/internal/modules/support/application/dto/respond"
	"UnyraSupport/internal/modules/support/domain/repository"
	"UnyraSupport/internal/modules/support/infrastructure/sheets"
	"UnyraSupport/pkg/zlog"

	"go.uber.org/zap"
)

// TicketService 工单查询服务接口
type TicketService interface {
	// ListTickets 从工单表格查询工单，email非空时按请求人过滤
	ListTickets(ctx context.Context, req request.TicketListRequest) (*respond.TicketListRespond, error)

	// CountByRequester 本地镜像中某请求人的工单总数
	CountByRequester(ctx context.Context, email string) (int64, error)
}

type ticketServiceImpl struct {
	sheets     *sheets.Client
	ticketRepo repository.SupportTicketRepository
}

// NewTicketService 创建TicketService。ticketRepo可为nil（无数据库部署）。
func NewTicketService(sheetsClient *sheets.Client, ticketRepo repository.SupportTicketRepository) TicketService {
	return &ticketServiceImpl{sheets: sheetsClient, ticketRepo: ticketRepo}
}

func (s *ticketServiceImpl) ListTickets(ctx context.Context, req request.TicketListRequest) (*respond.TicketListRespond, error) {
	email := strings.TrimSpace(req.Email)

	result := s.sheets.ListTickets(ctx, email)
	if !result.OK {
		zlog.Error("ticket list failed", zap.String("email", email), zap.String("error", result.Error))
		return nil, fmt.Errorf("ticket log query failed: %s", result.Error)
	}

	items := make([]respond.TicketItem, 0, len(result.Tickets))
	for _, t := range result.Tickets {
		items = append(items, respond.TicketItem{
			TicketID:       t.TicketID,
			RowID:          t.RowID,
			CreatedAt:      t.CreatedAt,
			RequesterName:  t.RequesterName,
			RequesterEmail: t.RequesterEmail,
			LocationName:   t.LocationName,
			Area:           t.Area,
			Severity:       t.Severity,
			Subject:        t.Subject,
			PriorityScore:  t.PriorityScore,
			Status:         t.Status,
			UnyraTaskID:    t.UnyraTaskID,
			TaskError:      t.TaskError,
		})
	}
	return &respond.TicketListRespond{Tickets: items, Total: len(items)}, nil
}

func (s *ticketServiceImpl) CountByRequester(ctx context.Context, email string) (int64, error) {
	if s.ticketRepo == nil {
		return 0, nil
	}
	return s.ticketRepo.CountTicketsByRequester(ctx, email)
}
