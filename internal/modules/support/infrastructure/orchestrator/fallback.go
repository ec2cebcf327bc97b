package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"UnyraSupport/internal/modules/support/domain/conversation"
	"UnyraSupport/internal/modules/support/domain/ticket"
	"UnyraSupport/pkg/zlog"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// mock路径的固定文案（西语），与live路径的语气保持一致
const (
	fallbackGreetingReply = "Hola. Veo que tienes un problema. (Modo Mock: La API Key no es válida, pero puedo simular la creación de tickets). Si me pides 'crea un ticket', generaré uno de prueba."
	fallbackDefaultReply  = "Estoy en modo de prueba (Mock) porque no se detectó una API Key válida. Pídeme 'crea un ticket' para probar esa funcionalidad."
)

// runFallbackTurn 确定性mock路径：不访问任何外部服务，
// 按固定规则对用户文本分流，id用进程内自增序号生成，结果可复现。
func (o *Orchestrator) runFallbackTurn(ctx context.Context, sess *Session, text string, attachments []conversation.Attachment, onToolStart ToolStartFunc) (string, error) {
	if o.mockLatency > 0 {
		time.Sleep(o.mockLatency)
	}

	lower := strings.ToLower(text)
	var answer string

	switch {
	case strings.Contains(lower, "ticket") && strings.Contains(lower, "crea"):
		answer = o.mockTicketCreation(sess, onToolStart)
	case strings.Contains(lower, "hola") || strings.Contains(lower, "problema"):
		answer = fallbackGreetingReply
	default:
		answer = fallbackDefaultReply
	}

	userMsg := buildUserMessage(text, attachments)
	modelMsg := &schema.Message{Role: schema.Assistant, Content: answer}
	o.commitTurn(ctx, sess, userMsg, []*schema.Message{modelMsg}, answer, text, attachments)

	return answer, nil
}

// mockTicketCreation 模拟一次完整的建单流程：通知一次工具开始，
// 生成确定性的任务id与票据id，并给出与live路径同构的确认JSON。
func (o *Orchestrator) mockTicketCreation(sess *Session, onToolStart ToolStartFunc) string {
	if onToolStart != nil {
		onToolStart(ToolCreateUnyraTask)
	}
	if o.mockLatency > 0 {
		time.Sleep(o.mockLatency)
	}

	seq := 1000 + o.mockSeq.Add(1)
	year := time.Now().Year()
	taskID := fmt.Sprintf("TASK-%d", seq)
	ticketID := fmt.Sprintf("TCK-%d-%d", year, seq)
	score := ticket.ComputePriorityScore(ticket.SeverityS3, ticket.PriorityFactors{})

	zlog.Info("mock ticket created",
		zap.String("session_id", sess.ID),
		zap.String("ticket_id", ticketID),
		zap.String("task_id", taskID))

	var b strings.Builder
	b.WriteString("He creado un ticket de prueba para tu solicitud.\n\n")
	b.WriteString(fmt.Sprintf("- Ticket: %s (severidad S3, prioridad %d)\n", ticketID, score))
	b.WriteString(fmt.Sprintf("- Tarea Unyra: %s\n", taskID))
	b.WriteString(fmt.Sprintf("- Subcuenta: %s\n\n", sess.Account.Name))
	b.WriteString("```json\n")
	b.WriteString(fmt.Sprintf(`{
  "ticket_created": true,
  "sheet": {
    "ticket_id": "%s",
    "row_id": "%d",
    "sheet_url": "https://docs.google.com/spreadsheets/mock"
  },
  "unyra_task": {
    "unyra_task_id": "%s",
    "task_url": "https://app.unyra.net/v2/location/%s/tasks"
  },
  "status": "new"
}`, ticketID, seq, taskID, sess.Account.ID))
	b.WriteString("\n```")

	return b.String()
}
