package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"UnyraSupport/internal/modules/support/domain/account"
	"UnyraSupport/internal/modules/support/domain/conversation"
	"UnyraSupport/internal/modules/support/domain/repository"
	"UnyraSupport/internal/modules/support/infrastructure/llm"
	"UnyraSupport/internal/modules/support/infrastructure/sheets"
	"UnyraSupport/internal/modules/support/infrastructure/unyra"
	"UnyraSupport/pkg/util"
	"UnyraSupport/pkg/zlog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// 会话模式：live走真实模型，fallback走确定性mock路径
const (
	ModeLive     = "live"
	ModeFallback = "fallback"
)

// 单轮对话里工具调用的轮数上限，防止模型无限来回要工具
const maxToolRounds = 8

// 调试触发词：用户文本包含它时强制走mock路径
const mockTriggerToken = "mock_error"

var (
	ErrSessionNotInitialized = errors.New("session not initialized")
	ErrTurnInFlight          = errors.New("another turn is still in flight")
	ErrToolLoopExceeded      = errors.New("tool call loop exceeded maximum rounds")
)

// 连接/提供方错误时给用户的兜底文案（原样面向用户，西语）
const providerErrorReply = "Lo siento, hubo un error de conexión con la IA. (Verifica tu API Key)."

// 模型最终回复为空时的哨兵文案，不作为错误处理
const emptyAnswerSentinel = "No response generated."

// ToolStartFunc 每个工具开始执行前回调一次，调用方用来渲染进度
type ToolStartFunc func(toolName string)

// Session 一次子账户选择对应的会话；切换子账户时整体替换，不做字段级修改
type Session struct {
	ID        string
	Account   account.Account
	Mode      string
	CreatedAt time.Time

	// 完整对话记录，首条为system提示词；只在编排器锁内追加
	transcript []*schema.Message
}

// Orchestrator 对话编排器：持有唯一的活跃会话，驱动 模型→工具→模型 的回合循环
type Orchestrator struct {
	chatModel model.BaseChatModel
	chatMeta  llm.ChatModelMeta
	sheets    *sheets.Client
	unyra     *unyra.Client

	// 仓储都可为nil：没有数据库时编排器照常工作，只是不留痕
	sessionRepo repository.SupportSessionRepository
	messageRepo repository.SupportMessageRepository
	ticketRepo  repository.SupportTicketRepository

	toolInfos []*schema.ToolInfo
	turnGraph compose.Runnable[*turnRequest, *turnResult]

	// mock路径的模拟延迟与自增序号（确定性id）
	mockLatency time.Duration
	mockSeq     atomic.Int64

	mu           sync.Mutex
	session      *Session
	turnInFlight bool
}

// Option 编排器可选项
type Option func(*Orchestrator)

// WithRepositories 注入持久化仓储
func WithRepositories(sessionRepo repository.SupportSessionRepository, messageRepo repository.SupportMessageRepository, ticketRepo repository.SupportTicketRepository) Option {
	return func(o *Orchestrator) {
		o.sessionRepo = sessionRepo
		o.messageRepo = messageRepo
		o.ticketRepo = ticketRepo
	}
}

// WithMockLatency 覆盖mock路径的模拟延迟（测试用0）
func WithMockLatency(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.mockLatency = d
	}
}

// New 创建编排器。chatModel可为nil，此时所有会话直接进入fallback模式。
func New(chatModel model.BaseChatModel, chatMeta llm.ChatModelMeta, sheetsClient *sheets.Client, unyraClient *unyra.Client, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		chatModel:   chatModel,
		chatMeta:    chatMeta,
		sheets:      sheetsClient,
		unyra:       unyraClient,
		toolInfos:   buildToolInfos(),
		mockLatency: 800 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(o)
	}

	if chatModel != nil {
		r, err := o.buildTurnGraph(context.Background())
		if err != nil {
			return nil, err
		}
		o.turnGraph = r
	}
	return o, nil
}

// StartSession 为选中的子账户建立全新会话，丢弃之前的会话。
// 模型不可用时不报错，会话标记为fallback，后续轮次走mock路径。
func (o *Orchestrator) StartSession(ctx context.Context, acc account.Account) *Session {
	mode := ModeLive
	if o.chatModel == nil {
		mode = ModeFallback
	}

	sess := &Session{
		ID:        util.GenerateSessionID(),
		Account:   acc,
		Mode:      mode,
		CreatedAt: time.Now(),
		transcript: []*schema.Message{
			{Role: schema.System, Content: buildSystemPrompt(acc)},
		},
	}

	o.mu.Lock()
	o.session = sess
	o.mu.Unlock()

	zlog.Info("support session started",
		zap.String("session_id", sess.ID),
		zap.String("account_id", acc.ID),
		zap.String("mode", mode),
		zap.String("provider", o.chatMeta.Provider))

	o.persistSessionStart(ctx, sess)
	return sess
}

// CurrentSession 返回当前活跃会话（可能为nil）
func (o *Orchestrator) CurrentSession() *Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// SendTurn 处理一轮用户输入：attachments在前、text在后组装成一条用户消息，
// 提交模型并循环处理工具调用，直到模型给出纯文本回复。
// 每轮恰好返回一个最终答案；提供方认证错误触发一次降级重试，且只重试一次。
func (o *Orchestrator) SendTurn(ctx context.Context, text string, attachments []conversation.Attachment, onToolStart ToolStartFunc) (string, error) {
	o.mu.Lock()
	sess := o.session
	if sess == nil {
		o.mu.Unlock()
		return "", ErrSessionNotInitialized
	}
	if o.turnInFlight {
		o.mu.Unlock()
		return "", ErrTurnInFlight
	}
	o.turnInFlight = true
	mode := sess.Mode
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.turnInFlight = false
		o.mu.Unlock()
	}()

	if mode == ModeFallback || strings.Contains(strings.ToLower(text), mockTriggerToken) {
		return o.runFallbackTurn(ctx, sess, text, attachments, onToolStart)
	}

	answer, err := o.runLiveTurn(ctx, sess, text, attachments, onToolStart)
	if err == nil {
		return answer, nil
	}
	if errors.Is(err, ErrToolLoopExceeded) {
		return "", err
	}

	if isAuthError(err) {
		// 降级为fallback并用mock路径重试同一轮；直接调用而非重入SendTurn，天然只重试一次
		zlog.Warn("provider auth error, downgrading session to fallback",
			zap.String("session_id", sess.ID), zap.Error(err))
		o.downgradeSession(ctx, sess)
		return o.runFallbackTurn(ctx, sess, text, attachments, onToolStart)
	}

	zlog.Error("live turn failed", zap.String("session_id", sess.ID), zap.Error(err))
	return providerErrorReply, nil
}

// runLiveTurn 真实模型路径：走回合流水线
func (o *Orchestrator) runLiveTurn(ctx context.Context, sess *Session, text string, attachments []conversation.Attachment, onToolStart ToolStartFunc) (string, error) {
	userMsg := buildUserMessage(text, attachments)

	o.mu.Lock()
	msgs := make([]*schema.Message, len(sess.transcript), len(sess.transcript)+1)
	copy(msgs, sess.transcript)
	o.mu.Unlock()
	msgs = append(msgs, userMsg)

	result, err := o.runTurnLoop(ctx, msgs, onToolStart)
	if err != nil {
		return "", err
	}

	answer := strings.TrimSpace(result.Answer)
	if answer == "" {
		answer = emptyAnswerSentinel
	}

	o.commitTurn(ctx, sess, userMsg, result.AppendedMsgs, answer, text, attachments)
	return answer, nil
}

// commitTurn 把本轮消息并入会话记录并落库。
// 若会话在本轮进行中被整体替换（切换子账户），结果不得记入新会话。
func (o *Orchestrator) commitTurn(ctx context.Context, sess *Session, userMsg *schema.Message, appended []*schema.Message, answer, rawText string, attachments []conversation.Attachment) {
	o.mu.Lock()
	current := o.session
	if current == sess {
		sess.transcript = append(sess.transcript, userMsg)
		sess.transcript = append(sess.transcript, appended...)
	}
	o.mu.Unlock()

	if current != sess {
		zlog.Warn("turn result discarded: session was replaced mid-turn",
			zap.String("stale_session_id", sess.ID))
		return
	}

	o.persistMessage(ctx, sess.ID, conversation.RoleUser, rawText, attachments, false)
	o.persistMessage(ctx, sess.ID, conversation.RoleModel, answer, nil, false)
	if o.sessionRepo != nil {
		if err := o.sessionRepo.TouchSession(ctx, sess.ID); err != nil {
			zlog.Error("session touch failed", zap.Error(err))
		}
	}
}

func (o *Orchestrator) downgradeSession(ctx context.Context, sess *Session) {
	o.mu.Lock()
	sess.Mode = ModeFallback
	o.mu.Unlock()

	if o.sessionRepo != nil {
		if err := o.sessionRepo.UpdateSessionMode(ctx, sess.ID, ModeFallback); err != nil {
			zlog.Error("session mode update failed", zap.Error(err))
		}
	}
}

// buildUserMessage 附件在前（按给定顺序，内联二进制带MIME类型），文本在后
func buildUserMessage(text string, attachments []conversation.Attachment) *schema.Message {
	if len(attachments) == 0 {
		return &schema.Message{Role: schema.User, Content: text}
	}

	parts := make([]schema.ChatMessagePart, 0, len(attachments)+1)
	for _, att := range attachments {
		dataURL := "data:" + att.MimeType + ";base64," + att.Data
		switch att.Kind {
		case conversation.AttachmentVideo:
			parts = append(parts, schema.ChatMessagePart{
				Type:     schema.ChatMessagePartTypeVideoURL,
				VideoURL: &schema.ChatMessageVideoURL{URL: dataURL, MIMEType: att.MimeType},
			})
		case conversation.AttachmentAudio:
			parts = append(parts, schema.ChatMessagePart{
				Type:     schema.ChatMessagePartTypeAudioURL,
				AudioURL: &schema.ChatMessageAudioURL{URL: dataURL, MIMEType: att.MimeType},
			})
		default:
			parts = append(parts, schema.ChatMessagePart{
				Type:     schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{URL: dataURL, MIMEType: att.MimeType},
			})
		}
	}
	if text != "" {
		parts = append(parts, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeText,
			Text: text,
		})
	}

	return &schema.Message{Role: schema.User, MultiContent: parts}
}

// isAuthError 判断是否为凭据/认证类错误，这类错误触发降级而不是直接报错
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "api key") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "401") ||
		strings.Contains(msg, "400")
}

func (o *Orchestrator) persistSessionStart(ctx context.Context, sess *Session) {
	if o.sessionRepo == nil {
		return
	}
	now := time.Now()
	record := &conversation.SupportSession{
		SessionId: sess.ID,
		AccountId: sess.Account.ID,
		Status:    conversation.SessionStatusActive,
		Mode:      sess.Mode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.sessionRepo.CreateSession(ctx, record); err != nil {
		zlog.Error("session persist failed", zap.Error(err), zap.String("session_id", sess.ID))
	}
}

func (o *Orchestrator) persistMessage(ctx context.Context, sessionID, role, content string, attachments []conversation.Attachment, isError bool) {
	if o.messageRepo == nil {
		return
	}

	attachmentsJSON := ""
	if len(attachments) > 0 {
		// 只存附件元数据，不存二进制内容
		metas := make([]map[string]string, 0, len(attachments))
		for _, att := range attachments {
			metas = append(metas, map[string]string{"kind": att.Kind, "mime_type": att.MimeType})
		}
		if raw, err := json.Marshal(metas); err == nil {
			attachmentsJSON = string(raw)
		}
	}

	msg := &conversation.SupportMessage{
		MessageId:       util.GenerateShortUUID(),
		SessionId:       sessionID,
		Role:            role,
		Content:         content,
		AttachmentsJson: attachmentsJSON,
		IsError:         isError,
		CreatedAt:       time.Now(),
	}
	if err := o.messageRepo.AppendMessage(ctx, msg); err != nil {
		zlog.Error("message persist failed", zap.Error(err), zap.String("session_id", sessionID))
	}
}
