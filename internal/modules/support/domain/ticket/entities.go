package ticket

import "time"

// 工单严重度
const (
	SeverityS1 = "S1"
	SeverityS2 = "S2"
	SeverityS3 = "S3"
	SeverityS4 = "S4"
)

// 工单状态
const (
	StatusNew         = "new"
	StatusInProgress  = "in_progress"
	StatusWaitingUser = "waiting_user"
	StatusResolved    = "resolved"
	StatusTaskFailed  = "task_failed" // 表格行写入成功但CRM任务创建失败
)

// Row 工单表格行（与Apps Script端点的append payload一一对应）
type Row struct {
	CreatedAt        string `json:"created_at"`
	RequesterName    string `json:"requester_name"`
	RequesterEmail   string `json:"requester_email"`
	LocationName     string `json:"location_name"`
	LocationID       string `json:"location_id,omitempty"`
	Area             string `json:"area"`
	Severity         string `json:"severity"`
	Subject          string `json:"subject"`
	Description      string `json:"description"`
	StepsToReproduce string `json:"steps_to_reproduce"`
	ExpectedResult   string `json:"expected_result"`
	ActualResult     string `json:"actual_result"`
	ErrorText        string `json:"error_text,omitempty"`
	Attachments      string `json:"attachments"` // JSON字符串化的 [{type,url}] 数组
	PriorityScore    int    `json:"priority_score"`
	Status           string `json:"status"`
	UnyraTaskID      string `json:"unyra_task_id,omitempty"`
	TaskError        string `json:"task_error,omitempty"`
}

// Patch 工单行的部分更新，仅携带存在的字段
type Patch struct {
	Status      string `json:"status,omitempty"`
	UnyraTaskID string `json:"unyra_task_id,omitempty"`
	TaskError   string `json:"task_error,omitempty"`
}

// SupportTicket 本地工单镜像表：append成功后落库，用于工单数量展示与审计
type SupportTicket struct {
	Id             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	TicketId       string    `gorm:"column:ticket_id;type:varchar(32);uniqueIndex;not null"` // 表格端生成的工单号（TCK-YYYY-NNNN）
	RowRef         string    `gorm:"column:row_ref;type:varchar(16);not null"`               // 表格中的行号引用
	AccountId      string    `gorm:"column:account_id;type:varchar(64);index"`
	RequesterEmail string    `gorm:"column:requester_email;type:varchar(128);index"`
	Area           string    `gorm:"column:area;type:varchar(64)"`
	Severity       string    `gorm:"column:severity;type:varchar(4)"`
	Subject        string    `gorm:"column:subject;type:varchar(255)"`
	PriorityScore  int       `gorm:"column:priority_score"`
	Status         string    `gorm:"column:status;type:varchar(16);not null"`
	UnyraTaskId    string    `gorm:"column:unyra_task_id;type:varchar(64)"`
	TaskError      string    `gorm:"column:task_error;type:varchar(255)"`
	SheetUrl       string    `gorm:"column:sheet_url;type:varchar(255)"`
	CreatedAt      time.Time `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt      time.Time `gorm:"column:updated_at;type:datetime;not null"`
}

func (SupportTicket) TableName() string {
	return "support_ticket"
}
