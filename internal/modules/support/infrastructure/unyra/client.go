package unyra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"UnyraSupport/internal/config"
	"UnyraSupport/internal/modules/support/domain/account"
	"UnyraSupport/pkg/zlog"

	"go.uber.org/zap"
)

const defaultAPIVersion = "2021-07-28"

// TaskAttachment 任务附件引用
type TaskAttachment struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// TaskMetadata 任务附加上下文（工单里的期望/实际结果等）
type TaskMetadata struct {
	LocationName   string `json:"location_name,omitempty"`
	ExpectedResult string `json:"expected_result,omitempty"`
	ActualResult   string `json:"actual_result,omitempty"`
	ErrorText      string `json:"error_text,omitempty"`
}

// TaskArgs create_unyra_task工具的参数，字段名与工具schema一致，模型产出的JSON直接反序列化
type TaskArgs struct {
	LocationID     string           `json:"locationId,omitempty"`
	AssignedTo     string           `json:"assignedTo,omitempty"`
	DueDate        string           `json:"dueDate,omitempty"`
	Tags           []string         `json:"tags"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Severity       string           `json:"severity"`
	Area           string           `json:"area"`
	PriorityScore  int              `json:"priority_score"`
	SheetTicketID  string           `json:"sheet_ticket_id,omitempty"`
	RequesterEmail string           `json:"requester_email"`
	Attachments    []TaskAttachment `json:"attachments,omitempty"`
	Metadata       *TaskMetadata    `json:"metadata,omitempty"`
}

// TaskResult createTask的返回；失败也走返回值，不向上抛错
type TaskResult struct {
	OK        bool   `json:"ok"`
	TaskID    string `json:"unyra_task_id"`
	TaskURL   string `json:"task_url"`
	ContactID string `json:"contact_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Client CRM任务平台适配器：联系人查找/创建 + 任务创建 + 子账户目录
type Client struct {
	apiBase    string
	apiKey     string
	locationID string
	apiVersion string
	httpClient *http.Client
}

func NewClient(apiBase, apiKey, locationID, apiVersion string, timeoutSeconds int) *Client {
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	timeout := 30 * time.Second
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return &Client{
		apiBase:    strings.TrimRight(strings.TrimSpace(apiBase), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		locationID: strings.TrimSpace(locationID),
		apiVersion: apiVersion,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func NewClientFromConfig(conf *config.Config) *Client {
	return NewClient(
		conf.UnyraConfig.APIBase,
		conf.UnyraConfig.APIKey,
		conf.UnyraConfig.LocationID,
		conf.UnyraConfig.APIVersion,
		conf.UnyraConfig.TimeoutSeconds,
	)
}

// ListAccounts 拉取当前凭据可见的全部子账户并归一化。
// 凭据缺失返回空列表而不是错误，调用方据此优雅降级。
func (c *Client) ListAccounts(ctx context.Context) ([]account.Account, error) {
	if c.apiKey == "" {
		zlog.Warn("unyra list accounts skipped: api key not configured")
		return []account.Account{}, nil
	}

	var out struct {
		Locations []struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"locations"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/locations/search?limit=100", nil, &out); err != nil {
		zlog.Error("unyra list accounts failed", zap.Error(err))
		return []account.Account{}, nil
	}

	accounts := make([]account.Account, 0, len(out.Locations))
	for _, loc := range out.Locations {
		name := loc.Name
		if name == "" {
			name = "Unnamed Location"
		}
		email := loc.Email
		if email == "" {
			email = "no-email"
		}
		accounts = append(accounts, account.Account{
			ID:         loc.ID,
			Name:       name,
			AdminEmail: email,
			// 上游目录接口不稳定返回套餐信息，先给默认值
			Plan:   "Standard",
			Status: account.StatusActive,
		})
	}
	return accounts, nil
}

// EnsureContact 按email查找联系人，不存在则创建，返回联系人ID。
// 每次任务创建前都要调，租户侧目录才是事实来源，不做本地缓存。
func (c *Client) EnsureContact(ctx context.Context, email, displayName string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("requester email is required")
	}

	path := fmt.Sprintf("/contacts/search?query=%s&locationId=%s", url.QueryEscape(email), url.QueryEscape(c.locationID))
	var searchOut struct {
		Contacts []struct {
			ID string `json:"id"`
		} `json:"contacts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &searchOut); err != nil {
		return "", err
	}
	if len(searchOut.Contacts) > 0 {
		return searchOut.Contacts[0].ID, nil
	}

	if displayName == "" {
		displayName = "Support User"
	}
	body := map[string]interface{}{
		"locationId": c.locationID,
		"email":      email,
		"name":       displayName,
		"tags":       []string{"unyra-support"},
	}
	var createOut struct {
		Contact struct {
			ID string `json:"id"`
		} `json:"contact"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/contacts/", body, &createOut); err != nil {
		return "", err
	}
	if createOut.Contact.ID == "" {
		return "", fmt.Errorf("contact create returned empty id")
	}
	return createOut.Contact.ID, nil
}

// CreateTask 先确保联系人存在，再创建绑定该联系人的任务。
// 到期时间缺省为24小时后。任何失败都折叠进返回值，不会越过本边界抛错。
func (c *Client) CreateTask(ctx context.Context, args *TaskArgs) *TaskResult {
	if c.apiKey == "" {
		zlog.Warn("unyra create task skipped: api key not configured")
		return &TaskResult{OK: false, TaskID: "ERR-CFG", Error: "configuration missing"}
	}
	if args == nil {
		return &TaskResult{OK: false, Error: "task args are required"}
	}

	displayName := ""
	if args.Metadata != nil {
		displayName = args.Metadata.LocationName
	}
	contactID, err := c.EnsureContact(ctx, args.RequesterEmail, displayName)
	if err != nil {
		zlog.Error("unyra ensure contact failed", zap.Error(err), zap.String("email", args.RequesterEmail))
		return &TaskResult{OK: false, TaskID: "ERR-API", Error: err.Error()}
	}

	dueDate := strings.TrimSpace(args.DueDate)
	if dueDate == "" {
		dueDate = time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	}

	body := map[string]interface{}{
		"contactId": contactID,
		"title":     args.Title,
		"body":      args.Description,
		"dueDate":   dueDate,
		"status":    "incomplete",
	}
	if args.AssignedTo != "" {
		body["assignedTo"] = args.AssignedTo
	}

	var out struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/tasks", body, &out); err != nil {
		zlog.Error("unyra create task failed", zap.Error(err))
		return &TaskResult{OK: false, TaskID: "ERR-API", ContactID: contactID, Error: err.Error()}
	}
	if out.ID == "" {
		msg := out.Message
		if msg == "" {
			msg = "failed to create task"
		}
		return &TaskResult{OK: false, TaskID: "ERR-API", ContactID: contactID, Error: msg}
	}

	locationID := args.LocationID
	if locationID == "" {
		locationID = c.locationID
	}
	zlog.Info("unyra task created", zap.String("task_id", out.ID), zap.String("contact_id", contactID))
	return &TaskResult{
		OK:        true,
		TaskID:    out.ID,
		TaskURL:   fmt.Sprintf("https://app.unyra.net/v2/location/%s/tasks", locationID),
		ContactID: contactID,
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Version", c.apiVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errOut struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &errOut) == nil && errOut.Message != "" {
			return fmt.Errorf("unyra api %d: %s", resp.StatusCode, errOut.Message)
		}
		return fmt.Errorf("unyra api status %d", resp.StatusCode)
	}
	return json.Unmarshal(data, out)
}
