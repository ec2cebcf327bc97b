package request

// SessionStartRequest 选择子账户并开启新会话的请求
type SessionStartRequest struct {
	AccountID string `json:"account_id"` // 子账户ID（必填）
}

// AttachmentPayload 随消息上传的附件（内联base64）
type AttachmentPayload struct {
	Kind     string `json:"kind"`      // image/video/audio
	MimeType string `json:"mime_type"` // 如 image/png
	Data     string `json:"data"`      // base64编码的内容
}

// ChatSendRequest 发送一轮用户消息的请求
type ChatSendRequest struct {
	Text        string              `json:"text"`        // 用户文本（有附件时可为空）
	Attachments []AttachmentPayload `json:"attachments"` // 附件列表（可空）
}

// TicketListRequest 查询工单列表的请求
type TicketListRequest struct {
	Email string `json:"email"` // 按请求人email过滤（可空，空则返回全部）
}

// LoginRequest 运营端登录请求
type LoginRequest struct {
	Email      string `json:"email"`
	AccessCode string `json:"access_code"`
}
