package orchestrator

import (
	"encoding/json"
	"regexp"
	"strings"
)

// SheetRef 确认JSON里的表格票据引用
type SheetRef struct {
	TicketID string `json:"ticket_id"`
	RowID    string `json:"row_id"`
	SheetURL string `json:"sheet_url"`
}

// TaskRef 确认JSON里的Unyra任务引用
type TaskRef struct {
	UnyraTaskID string `json:"unyra_task_id"`
	TaskURL     string `json:"task_url"`
}

// TicketConfirmation 模型最终回复中嵌入的建单确认块
type TicketConfirmation struct {
	TicketCreated bool      `json:"ticket_created"`
	Sheet         *SheetRef `json:"sheet,omitempty"`
	UnyraTask     *TaskRef  `json:"unyra_task,omitempty"`
	Status        string    `json:"status"`
	TaskError     string    `json:"task_error,omitempty"`
}

var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractTicketConfirmation 从模型回复文本里提取建单确认JSON。
// 优先找```json围栏块，其次找文本中最后一个包含 "ticket_created": true 的平衡花括号片段。
// 返回去掉JSON块后的展示文本；解析失败时视为无确认，原文原样返回。
func ExtractTicketConfirmation(text string) (string, *TicketConfirmation) {
	if !strings.Contains(text, "ticket_created") {
		return text, nil
	}

	if m := fencedJSONPattern.FindStringSubmatchIndex(text); m != nil {
		raw := text[m[2]:m[3]]
		if conf := parseConfirmation(raw); conf != nil {
			display := strings.TrimSpace(text[:m[0]] + text[m[1]:])
			return display, conf
		}
	}

	if start, end, ok := lastConfirmationSpan(text); ok {
		raw := text[start:end]
		if conf := parseConfirmation(raw); conf != nil {
			display := strings.TrimSpace(text[:start] + text[end:])
			return display, conf
		}
	}

	return text, nil
}

func parseConfirmation(raw string) *TicketConfirmation {
	var conf TicketConfirmation
	if err := json.Unmarshal([]byte(raw), &conf); err != nil {
		return nil
	}
	if !conf.TicketCreated {
		return nil
	}
	return &conf
}

// lastConfirmationSpan 找文本中最后一个包含确认标记的平衡{...}片段。
// 花括号计数时跳过字符串字面量，避免值里的括号干扰配对。
func lastConfirmationSpan(text string) (int, int, bool) {
	bestStart, bestEnd := -1, -1

	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		end, ok := matchBrace(text, i)
		if !ok {
			continue
		}
		if strings.Contains(text[i:end], "ticket_created") {
			bestStart, bestEnd = i, end
		}
		i = end - 1
	}

	if bestStart < 0 {
		return 0, 0, false
	}
	return bestStart, bestEnd, true
}

func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}
