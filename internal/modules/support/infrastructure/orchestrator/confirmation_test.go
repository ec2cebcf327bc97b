package orchestrator

import (
	"strings"
	"testing"
)

func TestExtractTicketConfirmationFenced(t *testing.T) {
	text := "Listo, tu ticket fue creado.\n\n```json\n" +
		`{
  "ticket_created": true,
  "sheet": {
    "ticket_id": "TCK-2025-0042",
    "row_id": "17",
    "sheet_url": "https://docs.google.com/spreadsheets/d/abc"
  },
  "unyra_task": {
    "unyra_task_id": "task_9",
    "task_url": "https://app.unyra.net/v2/location/loc1/tasks"
  },
  "status": "new"
}` + "\n```\n\nAvísame si necesitas algo más."

	display, conf := ExtractTicketConfirmation(text)
	if conf == nil {
		t.Fatal("expected a confirmation, got nil")
	}
	if !conf.TicketCreated {
		t.Error("TicketCreated should be true")
	}
	if conf.Sheet == nil || conf.Sheet.TicketID != "TCK-2025-0042" || conf.Sheet.RowID != "17" {
		t.Errorf("unexpected sheet ref: %+v", conf.Sheet)
	}
	if conf.UnyraTask == nil || conf.UnyraTask.UnyraTaskID != "task_9" {
		t.Errorf("unexpected task ref: %+v", conf.UnyraTask)
	}
	if conf.Status != "new" {
		t.Errorf("status = %q, want new", conf.Status)
	}
	if strings.Contains(display, "ticket_created") {
		t.Errorf("display text still contains JSON: %q", display)
	}
	if !strings.Contains(display, "Listo, tu ticket fue creado.") || !strings.Contains(display, "Avísame") {
		t.Errorf("display text lost surrounding prose: %q", display)
	}
}

func TestExtractTicketConfirmationBareJSON(t *testing.T) {
	text := `Ticket registrado. {"ticket_created": true, "sheet": {"ticket_id": "TCK-2025-0001", "row_id": "2", "sheet_url": "u"}, "status": "new"}`

	display, conf := ExtractTicketConfirmation(text)
	if conf == nil {
		t.Fatal("expected a confirmation from bare JSON")
	}
	if conf.Sheet == nil || conf.Sheet.TicketID != "TCK-2025-0001" {
		t.Errorf("unexpected sheet ref: %+v", conf.Sheet)
	}
	if strings.Contains(display, "{") {
		t.Errorf("display text still contains JSON: %q", display)
	}
}

func TestExtractTicketConfirmationTaskFailed(t *testing.T) {
	text := "El ticket quedó registrado pero la tarea falló.\n```json\n" +
		`{"ticket_created": true, "sheet": {"ticket_id": "TCK-2025-0007", "row_id": "9", "sheet_url": "u"}, "status": "task_failed", "task_error": "ERR-API: contact lookup failed"}` +
		"\n```"

	_, conf := ExtractTicketConfirmation(text)
	if conf == nil {
		t.Fatal("expected a confirmation")
	}
	if conf.Status != "task_failed" {
		t.Errorf("status = %q, want task_failed", conf.Status)
	}
	if conf.TaskError == "" {
		t.Error("task_error should survive extraction")
	}
	if conf.UnyraTask != nil {
		t.Errorf("unyra_task should be absent, got %+v", conf.UnyraTask)
	}
}

func TestExtractTicketConfirmationNone(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"plain text", "Hola, ¿en qué puedo ayudarte hoy?"},
		{"ticket_created false", `{"ticket_created": false, "status": "new"}`},
		{"malformed json", "```json\n{\"ticket_created\": true, \"status\": \n```"},
		{"marker inside prose only", "El campo ticket_created aparece cuando se crea un ticket."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			display, conf := ExtractTicketConfirmation(tt.text)
			if conf != nil {
				t.Errorf("expected no confirmation, got %+v", conf)
			}
			if display != tt.text {
				t.Errorf("text should be untouched when nothing is extracted: %q", display)
			}
		})
	}
}

func TestExtractTicketConfirmationBracesInStrings(t *testing.T) {
	text := `Hecho. {"ticket_created": true, "sheet": {"ticket_id": "TCK-2025-0010", "row_id": "3", "sheet_url": "https://x/{id}"}, "status": "new"}`

	_, conf := ExtractTicketConfirmation(text)
	if conf == nil {
		t.Fatal("brace inside a string value broke extraction")
	}
	if conf.Sheet == nil || conf.Sheet.SheetURL != "https://x/{id}" {
		t.Errorf("unexpected sheet ref: %+v", conf.Sheet)
	}
}

func TestExtractTicketConfirmationIdempotent(t *testing.T) {
	text := "Listo.\n```json\n" +
		`{"ticket_created": true, "sheet": {"ticket_id": "TCK-2025-0002", "row_id": "5", "sheet_url": "u"}, "status": "new"}` +
		"\n```"

	display, conf := ExtractTicketConfirmation(text)
	if conf == nil {
		t.Fatal("expected a confirmation")
	}

	again, confAgain := ExtractTicketConfirmation(display)
	if confAgain != nil {
		t.Errorf("second pass should find nothing, got %+v", confAgain)
	}
	if again != display {
		t.Errorf("second pass mutated the text: %q", again)
	}
}
