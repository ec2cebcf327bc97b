package account

// 子账户状态
const (
	StatusActive  = "active"
	StatusPastDue = "past_due"
	StatusChurned = "churned"
)

// Account 租户子账户（来自CRM平台的location，归一化后的统一记录）
// 会话生命周期内不可变，切换子账户时整体替换会话
type Account struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AdminEmail string `json:"admin_email"`
	Plan       string `json:"plan"`
	Status     string `json:"status"`
}
