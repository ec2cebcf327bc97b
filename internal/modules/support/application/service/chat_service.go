package service

import (
	"context"
	"fmt"
	"strings"

	"UnyraSupport/internal/modules/support/application/dto/request"
	"UnyraSupport/internal/modules/support/application/dto/respond"
	"UnyraSupport/internal/modules/support/domain/conversation"
	"UnyraSupport/internal/modules/support/infrastructure/orchestrator"
	"UnyraSupport/pkg/xerr"
)

// ChatService 支持对话服务接口
type ChatService interface {
	// StartSession 选择子账户并开启新会话（旧会话被整体替换）
	StartSession(ctx context.Context, req request.SessionStartRequest) (*respond.SessionStartRespond, error)

	// SendTurn 发送一轮消息，返回最终答案与可能的建单确认。
	// onToolStart 每个工具开始执行时回调一次（可为nil）。
	SendTurn(ctx context.Context, req request.ChatSendRequest, onToolStart orchestrator.ToolStartFunc) (*respond.ChatSendRespond, error)
}

type chatServiceImpl struct {
	orch       *orchestrator.Orchestrator
	accountSvc AccountService
}

// NewChatService 创建ChatService
func NewChatService(orch *orchestrator.Orchestrator, accountSvc AccountService) ChatService {
	return &chatServiceImpl{orch: orch, accountSvc: accountSvc}
}

func (s *chatServiceImpl) StartSession(ctx context.Context, req request.SessionStartRequest) (*respond.SessionStartRespond, error) {
	acc, err := s.accountSvc.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	sess := s.orch.StartSession(ctx, *acc)
	return &respond.SessionStartRespond{
		SessionID:   sess.ID,
		AccountID:   acc.ID,
		AccountName: acc.Name,
		Mode:        sess.Mode,
	}, nil
}

func (s *chatServiceImpl) SendTurn(ctx context.Context, req request.ChatSendRequest, onToolStart orchestrator.ToolStartFunc) (*respond.ChatSendRespond, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" && len(req.Attachments) == 0 {
		return nil, xerr.ErrParam
	}

	attachments, err := buildAttachments(req.Attachments)
	if err != nil {
		return nil, err
	}

	answer, err := s.orch.SendTurn(ctx, text, attachments, onToolStart)
	if err != nil {
		if err == orchestrator.ErrSessionNotInitialized {
			return nil, xerr.ErrNoSession
		}
		return nil, err
	}

	sess := s.orch.CurrentSession()
	resp := &respond.ChatSendRespond{Answer: answer}
	if sess != nil {
		resp.SessionID = sess.ID
		resp.Mode = sess.Mode
	}

	display, conf := orchestrator.ExtractTicketConfirmation(answer)
	if conf != nil {
		resp.Answer = display
		resp.Confirmation = toConfirmationView(conf)
	}
	return resp, nil
}

func buildAttachments(payloads []request.AttachmentPayload) ([]conversation.Attachment, error) {
	if len(payloads) == 0 {
		return nil, nil
	}

	attachments := make([]conversation.Attachment, 0, len(payloads))
	for i, p := range payloads {
		if strings.TrimSpace(p.MimeType) == "" || strings.TrimSpace(p.Data) == "" {
			return nil, fmt.Errorf("attachment %d: mime_type and data are required", i)
		}
		kind := p.Kind
		switch kind {
		case conversation.AttachmentImage, conversation.AttachmentVideo, conversation.AttachmentAudio:
		case "":
			kind = conversation.AttachmentImage
		default:
			return nil, fmt.Errorf("attachment %d: unknown kind %q", i, p.Kind)
		}
		attachments = append(attachments, conversation.Attachment{
			Kind:     kind,
			MimeType: p.MimeType,
			Data:     p.Data,
		})
	}
	return attachments, nil
}

func toConfirmationView(conf *orchestrator.TicketConfirmation) *respond.TicketConfirmationView {
	view := &respond.TicketConfirmationView{
		TicketCreated: conf.TicketCreated,
		Status:        conf.Status,
		TaskError:     conf.TaskError,
	}
	if conf.Sheet != nil {
		view.Sheet = &respond.SheetRefView{
			TicketID: conf.Sheet.TicketID,
			RowID:    conf.Sheet.RowID,
			SheetURL: conf.Sheet.SheetURL,
		}
	}
	if conf.UnyraTask != nil {
		view.UnyraTask = &respond.TaskRefView{
			UnyraTaskID: conf.UnyraTask.UnyraTaskID,
			TaskURL:     conf.UnyraTask.TaskURL,
		}
	}
	return view
}
