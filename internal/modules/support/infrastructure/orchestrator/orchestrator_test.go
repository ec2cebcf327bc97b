package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"UnyraSupport/internal/modules/support/domain/account"
	"UnyraSupport/internal/modules/support/domain/conversation"
	"UnyraSupport/internal/modules/support/domain/ticket"
	"UnyraSupport/internal/modules/support/infrastructure/llm"
	"UnyraSupport/internal/modules/support/infrastructure/sheets"
	"UnyraSupport/internal/modules/support/infrastructure/unyra"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// scriptedModel 按给定顺序回放响应的假模型
type scriptedModel struct {
	mu         sync.Mutex
	responses  []*schema.Message
	err        error
	calls      [][]*schema.Message
	repeatLast bool
	onGenerate func()
}

func (m *scriptedModel) Generate(ctx context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	snapshot := make([]*schema.Message, len(in))
	copy(snapshot, in)
	m.calls = append(m.calls, snapshot)
	hook := m.onGenerate

	var resp *schema.Message
	err := m.err
	if err == nil {
		if len(m.responses) == 0 {
			m.mu.Unlock()
			return nil, errors.New("scripted model exhausted")
		}
		resp = m.responses[0]
		if !m.repeatLast || len(m.responses) > 1 {
			m.responses = m.responses[1:]
		}
	}
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (m *scriptedModel) Stream(ctx context.Context, in []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported in scripted model")
}

func (m *scriptedModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *scriptedModel) call(i int) []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}

type linkageUpdate struct {
	RowRef      string
	Status      string
	UnyraTaskID string
	TaskError   string
}

type memoryTicketRepo struct {
	mu      sync.Mutex
	saved   []*ticket.SupportTicket
	linkage []linkageUpdate
}

func (r *memoryTicketRepo) SaveTicket(_ context.Context, t *ticket.SupportTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, t)
	return nil
}

func (r *memoryTicketRepo) UpdateTicketLinkageByRow(_ context.Context, rowRef string, status, unyraTaskId, taskError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.linkage = append(r.linkage, linkageUpdate{RowRef: rowRef, Status: status, UnyraTaskID: unyraTaskId, TaskError: taskError})
	return nil
}

func (r *memoryTicketRepo) CountTicketsByRequester(_ context.Context, email string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, t := range r.saved {
		if strings.EqualFold(t.RequesterEmail, email) {
			count++
		}
	}
	return count, nil
}

type memorySessionRepo struct {
	mu       sync.Mutex
	sessions []*conversation.SupportSession
	modes    map[string]string
}

func (r *memorySessionRepo) CreateSession(_ context.Context, s *conversation.SupportSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
	return nil
}

func (r *memorySessionRepo) GetSessionByID(_ context.Context, sessionId string) (*conversation.SupportSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.SessionId == sessionId {
			return s, nil
		}
	}
	return nil, nil
}

func (r *memorySessionRepo) UpdateSessionMode(_ context.Context, sessionId string, mode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.modes == nil {
		r.modes = make(map[string]string)
	}
	r.modes[sessionId] = mode
	return nil
}

func (r *memorySessionRepo) TouchSession(_ context.Context, _ string) error { return nil }

type memoryMessageRepo struct {
	mu       sync.Mutex
	messages []*conversation.SupportMessage
}

func (r *memoryMessageRepo) AppendMessage(_ context.Context, m *conversation.SupportMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}

func (r *memoryMessageRepo) ListMessages(_ context.Context, sessionId string, _ int) ([]*conversation.SupportMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*conversation.SupportMessage
	for _, m := range r.messages {
		if m.SessionId == sessionId {
			out = append(out, m)
		}
	}
	return out, nil
}

func newSheetsTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Action string `json:"action"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("sheets server: bad body: %v", err)
		}
		switch body.Action {
		case "append":
			fmt.Fprint(w, `{"ok":true,"ticket_id":"TCK-2025-0001","row_id":"7","sheet_url":"https://docs.google.com/spreadsheets/d/test"}`)
		case "update":
			fmt.Fprint(w, `{"ok":true}`)
		case "get_tickets":
			fmt.Fprint(w, `{"ok":true,"tickets":[]}`)
		default:
			fmt.Fprintf(w, `{"ok":false,"error":"unknown action %s"}`, body.Action)
		}
	}))
}

func newUnyraTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/contacts/search"):
			fmt.Fprint(w, `{"contacts":[{"id":"contact_1"}]}`)
		case r.URL.Path == "/contacts/":
			fmt.Fprint(w, `{"contact":{"id":"contact_new"}}`)
		case r.URL.Path == "/tasks":
			fmt.Fprint(w, `{"id":"task_77"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

type testEnv struct {
	orch        *Orchestrator
	model       *scriptedModel
	ticketRepo  *memoryTicketRepo
	sessionRepo *memorySessionRepo
	messageRepo *memoryMessageRepo
}

func newTestEnv(t *testing.T, m *scriptedModel) *testEnv {
	t.Helper()

	sheetsSrv := newSheetsTestServer(t)
	t.Cleanup(sheetsSrv.Close)
	unyraSrv := newUnyraTestServer(t)
	t.Cleanup(unyraSrv.Close)

	ticketRepo := &memoryTicketRepo{}
	sessionRepo := &memorySessionRepo{}
	messageRepo := &memoryMessageRepo{}

	var chatModel model.BaseChatModel
	if m != nil {
		chatModel = m
	}
	orch, err := New(
		chatModel,
		llm.ChatModelMeta{Provider: "test", Model: "scripted"},
		sheets.NewClient(sheetsSrv.URL, "sheet_test", "Tickets", 5),
		unyra.NewClient(unyraSrv.URL, "test-key", "loc_1", "", 5),
		WithRepositories(sessionRepo, messageRepo, ticketRepo),
		WithMockLatency(0),
	)
	if err != nil {
		t.Fatalf("orchestrator init: %v", err)
	}

	return &testEnv{
		orch:        orch,
		model:       m,
		ticketRepo:  ticketRepo,
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
	}
}

func testAccount() account.Account {
	return account.Account{
		ID:         "loc_1",
		Name:       "Clinica Vida",
		AdminEmail: "admin@clinicavida.com",
		Plan:       "Standard",
		Status:     account.StatusActive,
	}
}

func TestSendTurnWithoutSession(t *testing.T) {
	env := newTestEnv(t, &scriptedModel{})

	_, err := env.orch.SendTurn(context.Background(), "hola", nil, nil)
	if !errors.Is(err, ErrSessionNotInitialized) {
		t.Fatalf("err = %v, want ErrSessionNotInitialized", err)
	}
}

func TestSendTurnPlainAnswer(t *testing.T) {
	m := &scriptedModel{responses: []*schema.Message{
		{Role: schema.Assistant, Content: "Hola, ¿en qué puedo ayudarte?"},
	}}
	env := newTestEnv(t, m)

	sess := env.orch.StartSession(context.Background(), testAccount())
	if sess.Mode != ModeLive {
		t.Fatalf("mode = %s, want live", sess.Mode)
	}

	answer, err := env.orch.SendTurn(context.Background(), "hola", nil, nil)
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	if answer != "Hola, ¿en qué puedo ayudarte?" {
		t.Errorf("answer = %q", answer)
	}

	if m.callCount() != 1 {
		t.Fatalf("model calls = %d, want 1", m.callCount())
	}
	sent := m.call(0)
	if len(sent) != 2 {
		t.Fatalf("model received %d messages, want 2", len(sent))
	}
	if sent[0].Role != schema.System || !strings.Contains(sent[0].Content, "Clinica Vida") {
		t.Errorf("first message should be the system prompt with account context, got role=%s", sent[0].Role)
	}
	if sent[1].Role != schema.User || sent[1].Content != "hola" {
		t.Errorf("second message should be the user turn, got %+v", sent[1])
	}

	// 会话记录应包含 system + user + assistant
	if got := len(sess.transcript); got != 3 {
		t.Errorf("transcript length = %d, want 3", got)
	}

	msgs, _ := env.messageRepo.ListMessages(context.Background(), sess.ID, 0)
	if len(msgs) != 2 {
		t.Errorf("persisted messages = %d, want 2 (user + model)", len(msgs))
	}
}

func TestSendTurnAttachmentsBeforeText(t *testing.T) {
	m := &scriptedModel{responses: []*schema.Message{
		{Role: schema.Assistant, Content: "Veo la captura."},
	}}
	env := newTestEnv(t, m)
	env.orch.StartSession(context.Background(), testAccount())

	attachments := []conversation.Attachment{
		{Kind: conversation.AttachmentImage, MimeType: "image/png", Data: "aGVsbG8="},
	}
	if _, err := env.orch.SendTurn(context.Background(), "mira este error", attachments, nil); err != nil {
		t.Fatalf("SendTurn: %v", err)
	}

	sent := m.call(0)
	userMsg := sent[len(sent)-1]
	if len(userMsg.MultiContent) != 2 {
		t.Fatalf("multi content parts = %d, want 2", len(userMsg.MultiContent))
	}
	if userMsg.MultiContent[0].Type != schema.ChatMessagePartTypeImageURL {
		t.Errorf("first part should be the attachment, got %s", userMsg.MultiContent[0].Type)
	}
	if !strings.HasPrefix(userMsg.MultiContent[0].ImageURL.URL, "data:image/png;base64,") {
		t.Errorf("attachment should be an inline data url, got %q", userMsg.MultiContent[0].ImageURL.URL)
	}
	if userMsg.MultiContent[1].Type != schema.ChatMessagePartTypeText || userMsg.MultiContent[1].Text != "mira este error" {
		t.Errorf("last part should be the text, got %+v", userMsg.MultiContent[1])
	}
}

func TestSendTurnToolFlow(t *testing.T) {
	rowArgs := `{"row":{"created_at":"2025-03-10T12:00:00Z","requester_name":"Ana","requester_email":"ana@clinicavida.com","location_name":"Clinica Vida","location_id":"loc_1","area":"facturación","severity":"S2","subject":"No salen las facturas","description":"d","steps_to_reproduce":"s","expected_result":"e","actual_result":"a","attachments":"[]","priority_score":80,"status":"new"}}`
	taskArgs := `{"task":{"locationId":"loc_1","tags":["unyra-support"],"title":"[S2] No salen las facturas","description":"d","severity":"S2","area":"facturación","priority_score":80,"requester_email":"ana@clinicavida.com"}}`
	updateArgs := `{"row_id":"7","patch":{"status":"new","unyra_task_id":"task_77"}}`
	finalAnswer := "Tu ticket TCK-2025-0001 quedó registrado.\n```json\n{\"ticket_created\": true, \"sheet\": {\"ticket_id\": \"TCK-2025-0001\", \"row_id\": \"7\", \"sheet_url\": \"u\"}, \"unyra_task\": {\"unyra_task_id\": \"task_77\", \"task_url\": \"t\"}, \"status\": \"new\"}\n```"

	m := &scriptedModel{responses: []*schema.Message{
		{Role: schema.Assistant, ToolCalls: []schema.ToolCall{
			{ID: "call_1", Function: schema.FunctionCall{Name: ToolAppendSheet, Arguments: rowArgs}},
		}},
		{Role: schema.Assistant, ToolCalls: []schema.ToolCall{
			{ID: "call_2", Function: schema.FunctionCall{Name: ToolCreateUnyraTask, Arguments: taskArgs}},
		}},
		{Role: schema.Assistant, ToolCalls: []schema.ToolCall{
			{ID: "call_3", Function: schema.FunctionCall{Name: ToolUpdateSheet, Arguments: updateArgs}},
		}},
		{Role: schema.Assistant, Content: finalAnswer},
	}}
	env := newTestEnv(t, m)
	env.orch.StartSession(context.Background(), testAccount())

	var toolEvents []string
	answer, err := env.orch.SendTurn(context.Background(), "crea el ticket por favor", nil, func(name string) {
		toolEvents = append(toolEvents, name)
	})
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	if answer != finalAnswer {
		t.Errorf("answer = %q", answer)
	}

	wantEvents := []string{ToolAppendSheet, ToolCreateUnyraTask, ToolUpdateSheet}
	if len(toolEvents) != len(wantEvents) {
		t.Fatalf("tool events = %v, want %v", toolEvents, wantEvents)
	}
	for i := range wantEvents {
		if toolEvents[i] != wantEvents[i] {
			t.Errorf("tool event %d = %s, want %s", i, toolEvents[i], wantEvents[i])
		}
	}

	// 第二次模型调用要带上call_1的工具结果
	second := m.call(1)
	toolMsg := second[len(second)-1]
	if toolMsg.Role != schema.Tool || toolMsg.ToolCallID != "call_1" {
		t.Fatalf("expected tool reply for call_1, got role=%s id=%s", toolMsg.Role, toolMsg.ToolCallID)
	}
	if !strings.Contains(toolMsg.Content, "TCK-2025-0001") {
		t.Errorf("tool reply should carry the appended ticket id: %q", toolMsg.Content)
	}

	// append成功要落一条本地镜像
	if len(env.ticketRepo.saved) != 1 {
		t.Fatalf("mirrored tickets = %d, want 1", len(env.ticketRepo.saved))
	}
	mirror := env.ticketRepo.saved[0]
	if mirror.TicketId != "TCK-2025-0001" || mirror.RowRef != "7" || mirror.AccountId != "loc_1" {
		t.Errorf("unexpected mirror: %+v", mirror)
	}

	// update成功要同步镜像的任务关联
	if len(env.ticketRepo.linkage) != 1 {
		t.Fatalf("linkage updates = %d, want 1", len(env.ticketRepo.linkage))
	}
	link := env.ticketRepo.linkage[0]
	if link.RowRef != "7" || link.UnyraTaskID != "task_77" {
		t.Errorf("unexpected linkage update: %+v", link)
	}
}

func TestSendTurnUnknownTool(t *testing.T) {
	m := &scriptedModel{responses: []*schema.Message{
		{Role: schema.Assistant, ToolCalls: []schema.ToolCall{
			{ID: "call_x", Function: schema.FunctionCall{Name: "fetch_weather", Arguments: "{}"}},
		}},
		{Role: schema.Assistant, Content: "No puedo hacer eso."},
	}}
	env := newTestEnv(t, m)
	env.orch.StartSession(context.Background(), testAccount())

	answer, err := env.orch.SendTurn(context.Background(), "qué clima hace", nil, nil)
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	if answer != "No puedo hacer eso." {
		t.Errorf("answer = %q", answer)
	}

	second := m.call(1)
	toolMsg := second[len(second)-1]
	if toolMsg.ToolCallID != "call_x" || !strings.Contains(toolMsg.Content, "Unknown tool fetch_weather") {
		t.Errorf("unexpected tool reply: %+v", toolMsg)
	}
}

func TestSendTurnToolLoopCap(t *testing.T) {
	rowArgs := `{"row":{"created_at":"2025-03-10T12:00:00Z","requester_name":"Ana","requester_email":"a@b.c","location_name":"X","area":"otros","severity":"S4","subject":"s","description":"d","steps_to_reproduce":"s","expected_result":"e","actual_result":"a","attachments":"[]","priority_score":10,"status":"new"}}`
	m := &scriptedModel{
		repeatLast: true,
		responses: []*schema.Message{
			{Role: schema.Assistant, ToolCalls: []schema.ToolCall{
				{ID: "call_loop", Function: schema.FunctionCall{Name: ToolAppendSheet, Arguments: rowArgs}},
			}},
		},
	}
	env := newTestEnv(t, m)
	sess := env.orch.StartSession(context.Background(), testAccount())

	_, err := env.orch.SendTurn(context.Background(), "crea el ticket", nil, nil)
	if !errors.Is(err, ErrToolLoopExceeded) {
		t.Fatalf("err = %v, want ErrToolLoopExceeded", err)
	}

	// 中断的轮次不得写入会话记录
	if got := len(sess.transcript); got != 1 {
		t.Errorf("transcript length = %d, want 1 (system only)", got)
	}
}

func TestSendTurnAuthErrorDowngradesOnce(t *testing.T) {
	m := &scriptedModel{err: errors.New("401 Unauthorized: invalid api key")}
	env := newTestEnv(t, m)
	sess := env.orch.StartSession(context.Background(), testAccount())

	answer, err := env.orch.SendTurn(context.Background(), "hola", nil, nil)
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	if !strings.Contains(answer, "Modo Mock") {
		t.Errorf("expected mock greeting, got %q", answer)
	}
	if sess.Mode != ModeFallback {
		t.Errorf("session mode = %s, want fallback", sess.Mode)
	}
	if m.callCount() != 1 {
		t.Errorf("model calls = %d, want exactly 1 (single downgrade retry)", m.callCount())
	}
	if got := env.sessionRepo.modes[sess.ID]; got != ModeFallback {
		t.Errorf("persisted mode = %q, want fallback", got)
	}

	// 降级后的轮次不再碰模型
	var toolEvents []string
	answer, err = env.orch.SendTurn(context.Background(), "crea un ticket", nil, func(name string) {
		toolEvents = append(toolEvents, name)
	})
	if err != nil {
		t.Fatalf("SendTurn after downgrade: %v", err)
	}
	if m.callCount() != 1 {
		t.Errorf("model calls after downgrade = %d, want still 1", m.callCount())
	}
	if len(toolEvents) != 1 || toolEvents[0] != ToolCreateUnyraTask {
		t.Errorf("tool events = %v, want one create_unyra_task", toolEvents)
	}

	display, conf := ExtractTicketConfirmation(answer)
	if conf == nil {
		t.Fatalf("mock creation should embed a confirmation, answer=%q", answer)
	}
	if conf.Status != "new" || conf.Sheet == nil || !strings.HasPrefix(conf.Sheet.TicketID, "TCK-") {
		t.Errorf("unexpected confirmation: %+v", conf)
	}
	if !strings.Contains(display, "ticket de prueba") {
		t.Errorf("display text lost the prose: %q", display)
	}
}

func TestSendTurnProviderErrorReply(t *testing.T) {
	m := &scriptedModel{err: errors.New("connection reset by peer")}
	env := newTestEnv(t, m)
	sess := env.orch.StartSession(context.Background(), testAccount())

	answer, err := env.orch.SendTurn(context.Background(), "hola", nil, nil)
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	if answer != providerErrorReply {
		t.Errorf("answer = %q, want provider error reply", answer)
	}
	// 非认证错误不触发降级
	if sess.Mode != ModeLive {
		t.Errorf("session mode = %s, want live", sess.Mode)
	}
}

func TestSendTurnMockTriggerToken(t *testing.T) {
	m := &scriptedModel{responses: []*schema.Message{
		{Role: schema.Assistant, Content: "never used"},
	}}
	env := newTestEnv(t, m)
	env.orch.StartSession(context.Background(), testAccount())

	answer, err := env.orch.SendTurn(context.Background(), "prueba mock_error ahora", nil, nil)
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	if m.callCount() != 0 {
		t.Errorf("model calls = %d, want 0", m.callCount())
	}
	if !strings.Contains(answer, "Mock") {
		t.Errorf("expected mock reply, got %q", answer)
	}
}

func TestFallbackDeterministicIDs(t *testing.T) {
	env := newTestEnv(t, nil)

	sess := env.orch.StartSession(context.Background(), testAccount())
	if sess.Mode != ModeFallback {
		t.Fatalf("mode without model = %s, want fallback", sess.Mode)
	}

	first, err := env.orch.SendTurn(context.Background(), "crea un ticket", nil, nil)
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	second, err := env.orch.SendTurn(context.Background(), "crea un ticket", nil, nil)
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}

	if !strings.Contains(first, "TASK-1001") || !strings.Contains(first, "-1001") {
		t.Errorf("first mock ids should use sequence 1001: %q", first)
	}
	if !strings.Contains(second, "TASK-1002") {
		t.Errorf("second mock ids should use sequence 1002: %q", second)
	}

	year := fmt.Sprintf("TCK-%d-1001", time.Now().Year())
	if !strings.Contains(first, year) {
		t.Errorf("ticket id should embed the current year: want %s in %q", year, first)
	}
}

func TestSessionReplacedMidTurnDiscardsResult(t *testing.T) {
	m := &scriptedModel{responses: []*schema.Message{
		{Role: schema.Assistant, Content: "respuesta tardía"},
	}}
	env := newTestEnv(t, m)

	otherAccount := account.Account{ID: "loc_2", Name: "Gimnasio Fuerte", AdminEmail: "x@y.z", Plan: "Standard", Status: account.StatusActive}
	m.onGenerate = func() {
		// 模拟用户在本轮进行中切换子账户
		env.orch.StartSession(context.Background(), otherAccount)
	}

	env.orch.StartSession(context.Background(), testAccount())
	answer, err := env.orch.SendTurn(context.Background(), "hola", nil, nil)
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	if answer != "respuesta tardía" {
		t.Errorf("answer = %q", answer)
	}

	current := env.orch.CurrentSession()
	if current.Account.ID != "loc_2" {
		t.Fatalf("current session account = %s, want loc_2", current.Account.ID)
	}
	// 迟到的结果不得写入新会话
	if got := len(current.transcript); got != 1 {
		t.Errorf("new session transcript length = %d, want 1 (system only)", got)
	}
	msgs, _ := env.messageRepo.ListMessages(context.Background(), current.ID, 0)
	if len(msgs) != 0 {
		t.Errorf("new session has %d persisted messages, want 0", len(msgs))
	}
}

func TestSendTurnRejectsConcurrentTurn(t *testing.T) {
	m := &scriptedModel{responses: []*schema.Message{
		{Role: schema.Assistant, Content: "ok"},
	}}
	env := newTestEnv(t, m)
	env.orch.StartSession(context.Background(), testAccount())

	var nested error
	m.onGenerate = func() {
		_, nested = env.orch.SendTurn(context.Background(), "otra", nil, nil)
	}

	if _, err := env.orch.SendTurn(context.Background(), "hola", nil, nil); err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	if !errors.Is(nested, ErrTurnInFlight) {
		t.Errorf("nested err = %v, want ErrTurnInFlight", nested)
	}
}

func TestSendTurnEmptyAnswerSentinel(t *testing.T) {
	m := &scriptedModel{responses: []*schema.Message{
		{Role: schema.Assistant, Content: "   "},
	}}
	env := newTestEnv(t, m)
	env.orch.StartSession(context.Background(), testAccount())

	answer, err := env.orch.SendTurn(context.Background(), "hola", nil, nil)
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	if answer != emptyAnswerSentinel {
		t.Errorf("answer = %q, want sentinel", answer)
	}
}
