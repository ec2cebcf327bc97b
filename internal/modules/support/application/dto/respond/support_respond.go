package respond

// AccountItem 子账户列表项
type AccountItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AdminEmail string `json:"admin_email"`
	Plan       string `json:"plan"`
	Status     string `json:"status"`
}

// AccountListRespond 子账户列表响应
type AccountListRespond struct {
	Accounts []AccountItem `json:"accounts"`
	Total    int           `json:"total"`
}

// SessionStartRespond 开启会话响应
type SessionStartRespond struct {
	SessionID   string `json:"session_id"`
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	Mode        string `json:"mode"` // live / fallback
}

// SheetRefView 确认块里的表格票据引用
type SheetRefView struct {
	TicketID string `json:"ticket_id"`
	RowID    string `json:"row_id"`
	SheetURL string `json:"sheet_url"`
}

// TaskRefView 确认块里的Unyra任务引用
type TaskRefView struct {
	UnyraTaskID string `json:"unyra_task_id"`
	TaskURL     string `json:"task_url"`
}

// TicketConfirmationView 从回复中提取出的建单确认
type TicketConfirmationView struct {
	TicketCreated bool          `json:"ticket_created"`
	Sheet         *SheetRefView `json:"sheet,omitempty"`
	UnyraTask     *TaskRefView  `json:"unyra_task,omitempty"`
	Status        string        `json:"status"`
	TaskError     string        `json:"task_error,omitempty"`
}

// ChatSendRespond 一轮对话的响应
type ChatSendRespond struct {
	SessionID    string                  `json:"session_id"`
	Mode         string                  `json:"mode"`
	Answer       string                  `json:"answer"`                 // 去掉确认JSON块后的展示文本
	Confirmation *TicketConfirmationView `json:"confirmation,omitempty"` // 本轮建单确认（如有）
}

// TicketItem 工单列表项
type TicketItem struct {
	TicketID       string `json:"ticket_id"`
	RowID          string `json:"row_id"`
	CreatedAt      string `json:"created_at"`
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`
	LocationName   string `json:"location_name"`
	Area           string `json:"area"`
	Severity       string `json:"severity"`
	Subject        string `json:"subject"`
	PriorityScore  int    `json:"priority_score"`
	Status         string `json:"status"`
	UnyraTaskID    string `json:"unyra_task_id,omitempty"`
	TaskError      string `json:"task_error,omitempty"`
}

// TicketListRespond 工单列表响应
type TicketListRespond struct {
	Tickets []TicketItem `json:"tickets"`
	Total   int          `json:"total"`
}

// LoginRespond 登录响应
type LoginRespond struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
