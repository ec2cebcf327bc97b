package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"UnyraSupport/internal/config"
	"UnyraSupport/internal/modules/support/domain/ticket"
	"UnyraSupport/pkg/zlog"

	"go.uber.org/zap"
)

// 配置/网络故障时返回的占位工单号，让编排器能把部分失败报告给用户而不是抛错
const (
	errTicketIDNetwork = "ERR-NET"
	errTicketIDConfig  = "ERR-CFG"
)

// AppendResult append动作的返回
type AppendResult struct {
	OK       bool   `json:"ok"`
	TicketID string `json:"ticket_id"`
	RowID    string `json:"row_id"`
	SheetURL string `json:"sheet_url"`
	Error    string `json:"error,omitempty"`
}

// UpdateResult update动作的返回
type UpdateResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ListedTicket get_tickets返回的工单行（带表格侧生成的工单号与行号）
type ListedTicket struct {
	TicketID string `json:"ticket_id"`
	RowID    string `json:"row_id"`
	ticket.Row
}

// ListResult get_tickets动作的返回
type ListResult struct {
	OK      bool           `json:"ok"`
	Tickets []ListedTicket `json:"tickets"`
	Error   string         `json:"error,omitempty"`
}

// Client 工单日志适配器：把工单行写入外部表格（Apps Script Web App端点）
type Client struct {
	scriptURL     string
	spreadsheetID string
	sheetName     string
	httpClient    *http.Client
}

func NewClient(scriptURL, spreadsheetID, sheetName string, timeoutSeconds int) *Client {
	if sheetName == "" {
		sheetName = "Tickets"
	}
	timeout := 30 * time.Second
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return &Client{
		scriptURL:     strings.TrimSpace(scriptURL),
		spreadsheetID: strings.TrimSpace(spreadsheetID),
		sheetName:     sheetName,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

func NewClientFromConfig(conf *config.Config) *Client {
	return NewClient(
		conf.SheetsConfig.ScriptURL,
		conf.SheetsConfig.SpreadsheetID,
		conf.SheetsConfig.SheetName,
		conf.SheetsConfig.TimeoutSeconds,
	)
}

// AppendTicket 追加一行工单；工单号与行号由表格端生成。
// 传输失败不抛错，返回 ok=false 与占位错误码。
func (c *Client) AppendTicket(ctx context.Context, row *ticket.Row) *AppendResult {
	if c.scriptURL == "" {
		zlog.Warn("sheets append skipped: script url not configured")
		return &AppendResult{OK: false, TicketID: errTicketIDConfig, RowID: "0", Error: "configuration missing"}
	}

	body := map[string]interface{}{
		"action":         "append",
		"payload":        row,
		"sheet_name":     c.sheetName,
		"spreadsheet_id": c.spreadsheetID,
	}

	var result AppendResult
	if err := c.post(ctx, body, &result); err != nil {
		zlog.Error("sheets append failed", zap.Error(err))
		return &AppendResult{OK: false, TicketID: errTicketIDNetwork, RowID: "0", Error: err.Error()}
	}

	zlog.Info("sheets append done",
		zap.Bool("ok", result.OK),
		zap.String("ticket_id", result.TicketID),
		zap.String("row_id", result.RowID))
	return &result
}

// UpdateTicket 按行号引用更新工单行，只修改patch中出现的字段。
// 行定位用的是append返回的行号，不按工单号搜索，调用方必须保留row_id。
func (c *Client) UpdateTicket(ctx context.Context, rowID string, patch *ticket.Patch) *UpdateResult {
	if c.scriptURL == "" {
		return &UpdateResult{OK: false, Error: "configuration missing"}
	}

	body := map[string]interface{}{
		"action": "update",
		"payload": map[string]interface{}{
			"row_id": rowID,
			"patch":  patch,
		},
		"sheet_name":     c.sheetName,
		"spreadsheet_id": c.spreadsheetID,
	}

	var result UpdateResult
	if err := c.post(ctx, body, &result); err != nil {
		zlog.Error("sheets update failed", zap.Error(err), zap.String("row_id", rowID))
		return &UpdateResult{OK: false, Error: err.Error()}
	}
	return &result
}

// ListTickets 返回全部工单行，email非空时按请求人过滤（服务端大小写不敏感匹配）
func (c *Client) ListTickets(ctx context.Context, requesterEmail string) *ListResult {
	if c.scriptURL == "" {
		return &ListResult{OK: false, Tickets: []ListedTicket{}, Error: "configuration missing"}
	}

	body := map[string]interface{}{
		"action":         "get_tickets",
		"email":          strings.TrimSpace(requesterEmail),
		"spreadsheet_id": c.spreadsheetID,
	}

	var result ListResult
	if err := c.post(ctx, body, &result); err != nil {
		zlog.Error("sheets list failed", zap.Error(err))
		return &ListResult{OK: false, Tickets: []ListedTicket{}, Error: err.Error()}
	}
	if result.Tickets == nil {
		result.Tickets = []ListedTicket{}
	}
	return &result
}

func (c *Client) post(ctx context.Context, body interface{}, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.scriptURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	// Apps Script Web App 不处理OPTIONS预检，text/plain可以绕开
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
