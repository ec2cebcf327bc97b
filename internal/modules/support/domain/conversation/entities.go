package conversation

import (
	"time"
)

const (
	SessionStatusActive   int8 = 1 // 活跃会话
	SessionStatusReplaced int8 = 0 // 已被替换（切换子账户后）
)

// 消息角色
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// 附件类型
const (
	AttachmentImage = "image"
	AttachmentVideo = "video"
	AttachmentAudio = "audio"
)

// Attachment 随用户消息携带的内联附件，归属于消息本身，创建后不可变
type Attachment struct {
	Kind     string `json:"kind"`      // image/video/audio
	MimeType string `json:"mime_type"` // 具体MIME类型
	Data     string `json:"data"`      // base64内联数据或外部引用URL
}

// SupportSession 支持会话表：每个活跃子账户同一时刻只有一条active记录
type SupportSession struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SessionId string    `gorm:"column:session_id;type:char(21);uniqueIndex;not null"` // 会话唯一ID（对外使用）
	AccountId string    `gorm:"column:account_id;type:varchar(64);index;not null"`    // 绑定的子账户ID
	Status    int8      `gorm:"column:status;type:tinyint;not null;default:1"`        // 状态：1=active, 0=replaced
	Mode      string    `gorm:"column:mode;type:varchar(16);not null"`                // live / fallback
	CreatedAt time.Time `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:datetime;not null"`
}

func (SupportSession) TableName() string {
	return "support_session"
}

// SupportMessage 支持会话消息表（追加写，创建后不再修改）
type SupportMessage struct {
	Id              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	MessageId       string    `gorm:"column:message_id;type:char(32);uniqueIndex;not null"`
	SessionId       string    `gorm:"column:session_id;type:char(21);index;not null"`
	Role            string    `gorm:"column:role;type:varchar(8);not null"` // user / model
	Content         string    `gorm:"column:content;type:mediumtext"`
	AttachmentsJson string    `gorm:"column:attachments_json;type:json"` // 附件元数据（JSON数组，不含二进制内容）
	IsError         bool      `gorm:"column:is_error;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;type:datetime;not null;index:idx_session_time"`
}

func (SupportMessage) TableName() string {
	return "support_message"
}
