package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"UnyraSupport/internal/modules/support/domain/ticket"
	"UnyraSupport/internal/modules/support/infrastructure/unyra"
	"UnyraSupport/pkg/zlog"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// 模型可调用的工具名，调度表是封闭的：未知名字走默认分支返回结构化错误
const (
	ToolCreateUnyraTask = "create_unyra_task"
	ToolAppendSheet     = "append_to_google_sheet"
	ToolUpdateSheet     = "update_google_sheet_ticket"
)

var ticketStatusEnum = []string{
	ticket.StatusNew, ticket.StatusInProgress, ticket.StatusWaitingUser,
	ticket.StatusResolved, ticket.StatusTaskFailed,
}

var severityEnum = []string{
	ticket.SeverityS1, ticket.SeverityS2, ticket.SeverityS3, ticket.SeverityS4,
}

// buildToolInfos 声明给模型的工具schema
func buildToolInfos() []*schema.ToolInfo {
	rowParams := map[string]*schema.ParameterInfo{
		"created_at":         {Type: schema.String, Desc: "ISO 8601", Required: true},
		"requester_name":     {Type: schema.String, Required: true},
		"requester_email":    {Type: schema.String, Required: true},
		"location_name":      {Type: schema.String, Required: true},
		"location_id":        {Type: schema.String},
		"area":               {Type: schema.String, Required: true},
		"severity":           {Type: schema.String, Enum: severityEnum, Required: true},
		"subject":            {Type: schema.String, Required: true},
		"description":        {Type: schema.String, Required: true},
		"steps_to_reproduce": {Type: schema.String, Required: true},
		"expected_result":    {Type: schema.String, Required: true},
		"actual_result":      {Type: schema.String, Required: true},
		"error_text":         {Type: schema.String},
		"attachments":        {Type: schema.String, Desc: "JSON-stringified array of {type,url}", Required: true},
		"priority_score":     {Type: schema.Integer, Required: true},
		"status":             {Type: schema.String, Enum: ticketStatusEnum, Required: true},
		"unyra_task_id":      {Type: schema.String},
		"task_error":         {Type: schema.String},
	}

	taskParams := map[string]*schema.ParameterInfo{
		"locationId":     {Type: schema.String},
		"assignedTo":     {Type: schema.String, Desc: "Support agent/user ID; if unknown, omit."},
		"dueDate":        {Type: schema.String, Desc: "ISO 8601"},
		"tags":           {Type: schema.Array, ElemInfo: &schema.ParameterInfo{Type: schema.String}, Required: true},
		"title":          {Type: schema.String, Required: true},
		"description":    {Type: schema.String, Required: true},
		"severity":       {Type: schema.String, Enum: severityEnum, Required: true},
		"area":           {Type: schema.String, Required: true},
		"priority_score": {Type: schema.Integer, Required: true},
		"sheet_ticket_id": {
			Type: schema.String,
			Desc: "Use ticket_id if available, else row_id.",
		},
		"requester_email": {Type: schema.String, Required: true},
		"attachments": {
			Type: schema.Array,
			ElemInfo: &schema.ParameterInfo{
				Type: schema.Object,
				SubParams: map[string]*schema.ParameterInfo{
					"type": {Type: schema.String, Required: true},
					"url":  {Type: schema.String, Required: true},
				},
			},
		},
		"metadata": {
			Type: schema.Object,
			SubParams: map[string]*schema.ParameterInfo{
				"location_name":   {Type: schema.String},
				"expected_result": {Type: schema.String},
				"actual_result":   {Type: schema.String},
				"error_text":      {Type: schema.String},
			},
		},
	}

	patchParams := map[string]*schema.ParameterInfo{
		"status":        {Type: schema.String, Enum: ticketStatusEnum},
		"unyra_task_id": {Type: schema.String},
		"task_error":    {Type: schema.String},
	}

	return []*schema.ToolInfo{
		{
			Name: ToolAppendSheet,
			Desc: "Append a new support ticket row into Google Sheets and return row_id/ticket_id.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"row": {Type: schema.Object, SubParams: rowParams, Required: true},
			}),
		},
		{
			Name: ToolCreateUnyraTask,
			Desc: "Create an internal support task in Unyra via API and return unyra_task_id.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"task": {Type: schema.Object, SubParams: taskParams, Required: true},
			}),
		},
		{
			Name: ToolUpdateSheet,
			Desc: "Update an existing ticket row with task linkage fields.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"row_id": {Type: schema.String, Required: true},
				"patch":  {Type: schema.Object, SubParams: patchParams, Required: true},
			}),
		},
	}
}

// dispatchToolCall 按名字把模型的工具调用派发给适配器，结果序列化为tool消息。
// 参数解析失败和未知工具都折叠成结构化错误payload，循环必须能继续。
func (o *Orchestrator) dispatchToolCall(ctx context.Context, tc schema.ToolCall, onToolStart ToolStartFunc) *schema.Message {
	name := strings.TrimSpace(tc.Function.Name)
	args := tc.Function.Arguments

	if onToolStart != nil {
		onToolStart(name)
	}

	zlog.Info("support tool dispatch",
		zap.String("tool_name", name),
		zap.String("tool_id", tc.ID))

	var payload interface{}
	switch name {
	case ToolAppendSheet:
		payload = o.execAppendSheet(ctx, args)
	case ToolCreateUnyraTask:
		payload = o.execCreateTask(ctx, args)
	case ToolUpdateSheet:
		payload = o.execUpdateSheet(ctx, args)
	default:
		payload = map[string]string{"error": fmt.Sprintf("Unknown tool %s", name)}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte(`{"error":"tool result serialization failed"}`)
	}
	return &schema.Message{
		Role:       schema.Tool,
		Content:    string(raw),
		ToolCallID: tc.ID,
	}
}

func (o *Orchestrator) execAppendSheet(ctx context.Context, args string) interface{} {
	var in struct {
		Row *ticket.Row `json:"row"`
	}
	if err := json.Unmarshal([]byte(args), &in); err != nil || in.Row == nil {
		return map[string]string{"error": "invalid arguments for append_to_google_sheet"}
	}

	res := o.sheets.AppendTicket(ctx, in.Row)
	if res.OK {
		o.mirrorAppendedTicket(ctx, in.Row, res.TicketID, res.RowID, res.SheetURL)
	}
	return res
}

func (o *Orchestrator) execCreateTask(ctx context.Context, args string) interface{} {
	var in struct {
		Task *unyra.TaskArgs `json:"task"`
	}
	if err := json.Unmarshal([]byte(args), &in); err != nil {
		return map[string]string{"error": "invalid arguments for create_unyra_task"}
	}
	taskArgs := in.Task
	if taskArgs == nil {
		// 模型偶尔不包task层，直接给参数对象
		taskArgs = &unyra.TaskArgs{}
		if err := json.Unmarshal([]byte(args), taskArgs); err != nil {
			return map[string]string{"error": "invalid arguments for create_unyra_task"}
		}
	}
	return o.unyra.CreateTask(ctx, taskArgs)
}

func (o *Orchestrator) execUpdateSheet(ctx context.Context, args string) interface{} {
	var in struct {
		RowID string        `json:"row_id"`
		Patch *ticket.Patch `json:"patch"`
	}
	if err := json.Unmarshal([]byte(args), &in); err != nil || in.RowID == "" || in.Patch == nil {
		return map[string]string{"error": "invalid arguments for update_google_sheet_ticket"}
	}

	res := o.sheets.UpdateTicket(ctx, in.RowID, in.Patch)
	if res.OK {
		o.mirrorTicketLinkage(ctx, in.RowID, in.Patch)
	}
	return res
}

// mirrorAppendedTicket append成功后写一条本地镜像，用于工单数量展示与审计。
// 镜像失败只记日志，不影响会话流程。
func (o *Orchestrator) mirrorAppendedTicket(ctx context.Context, row *ticket.Row, ticketID, rowID, sheetURL string) {
	if o.ticketRepo == nil {
		return
	}

	accountID := row.LocationID
	o.mu.Lock()
	if accountID == "" && o.session != nil {
		accountID = o.session.Account.ID
	}
	o.mu.Unlock()

	now := time.Now()
	mirror := &ticket.SupportTicket{
		TicketId:       ticketID,
		RowRef:         rowID,
		AccountId:      accountID,
		RequesterEmail: row.RequesterEmail,
		Area:           row.Area,
		Severity:       row.Severity,
		Subject:        row.Subject,
		PriorityScore:  row.PriorityScore,
		Status:         row.Status,
		UnyraTaskId:    row.UnyraTaskID,
		TaskError:      row.TaskError,
		SheetUrl:       sheetURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := o.ticketRepo.SaveTicket(ctx, mirror); err != nil {
		zlog.Error("ticket mirror save failed", zap.Error(err), zap.String("ticket_id", ticketID))
	}
}

func (o *Orchestrator) mirrorTicketLinkage(ctx context.Context, rowRef string, patch *ticket.Patch) {
	if o.ticketRepo == nil || patch == nil {
		return
	}
	if patch.UnyraTaskID == "" && patch.Status == "" && patch.TaskError == "" {
		return
	}
	if err := o.ticketRepo.UpdateTicketLinkageByRow(ctx, rowRef, patch.Status, patch.UnyraTaskID, patch.TaskError); err != nil {
		zlog.Error("ticket mirror linkage update failed", zap.Error(err), zap.String("row_ref", rowRef))
	}
}
