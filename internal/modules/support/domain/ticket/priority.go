package ticket

import "time"

// 优先级基础分（按严重度）
var severityBaseScore = map[string]int{
	SeverityS1: 90,
	SeverityS2: 70,
	SeverityS3: 40,
	SeverityS4: 10,
}

// 未指定到期时间时按严重度给出的默认偏移
var severityDueOffset = map[string]time.Duration{
	SeverityS1: 4 * time.Hour,
	SeverityS2: 24 * time.Hour,
	SeverityS3: 72 * time.Hour,
	SeverityS4: 7 * 24 * time.Hour,
}

// PriorityFactors 优先级加减项，来自助手对问题的判断
type PriorityFactors struct {
	MultipleUsers   bool // 影响多个用户 +10
	PaymentsImpact  bool // 影响支付/销售 +10
	DeadlineSoon    bool // 截止时间 < 72h +10
	HasWorkaround   bool // 存在明确的临时解决方案 -10
}

// ComputePriorityScore 按严重度基础分加减修正项计算优先级，结果截断到 [0,100]
func ComputePriorityScore(severity string, f PriorityFactors) int {
	score, ok := severityBaseScore[severity]
	if !ok {
		score = severityBaseScore[SeverityS4]
	}
	if f.MultipleUsers {
		score += 10
	}
	if f.PaymentsImpact {
		score += 10
	}
	if f.DeadlineSoon {
		score += 10
	}
	if f.HasWorkaround {
		score -= 10
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// DefaultDueDate 未指定到期时间时，按严重度偏移给出RFC3339格式的默认到期时间
func DefaultDueDate(severity string, now time.Time) string {
	offset, ok := severityDueOffset[severity]
	if !ok {
		offset = severityDueOffset[SeverityS4]
	}
	return now.Add(offset).Format(time.RFC3339)
}
