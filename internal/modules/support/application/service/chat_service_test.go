package service

import (
	"testing"

	"UnyraSupport/internal/modules/support/application/dto/request"
	"UnyraSupport/internal/modules/support/domain/conversation"
	"UnyraSupport/internal/modules/support/infrastructure/orchestrator"
)

func TestBuildAttachments(t *testing.T) {
	tests := []struct {
		name     string
		payloads []request.AttachmentPayload
		wantKind []string
		wantErr  bool
	}{
		{"empty", nil, nil, false},
		{
			"image and audio",
			[]request.AttachmentPayload{
				{Kind: "image", MimeType: "image/png", Data: "aGVsbG8="},
				{Kind: "audio", MimeType: "audio/mpeg", Data: "aGVsbG8="},
			},
			[]string{conversation.AttachmentImage, conversation.AttachmentAudio},
			false,
		},
		{
			"kind defaults to image",
			[]request.AttachmentPayload{{MimeType: "image/jpeg", Data: "aGVsbG8="}},
			[]string{conversation.AttachmentImage},
			false,
		},
		{
			"unknown kind rejected",
			[]request.AttachmentPayload{{Kind: "document", MimeType: "application/pdf", Data: "aGVsbG8="}},
			nil,
			true,
		},
		{
			"missing mime rejected",
			[]request.AttachmentPayload{{Kind: "image", Data: "aGVsbG8="}},
			nil,
			true,
		},
		{
			"missing data rejected",
			[]request.AttachmentPayload{{Kind: "image", MimeType: "image/png"}},
			nil,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildAttachments(tt.payloads)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("buildAttachments: %v", err)
			}
			if len(got) != len(tt.wantKind) {
				t.Fatalf("attachments = %d, want %d", len(got), len(tt.wantKind))
			}
			for i, kind := range tt.wantKind {
				if got[i].Kind != kind {
					t.Errorf("attachment %d kind = %s, want %s", i, got[i].Kind, kind)
				}
			}
		})
	}
}

func TestToConfirmationView(t *testing.T) {
	conf := &orchestrator.TicketConfirmation{
		TicketCreated: true,
		Sheet:         &orchestrator.SheetRef{TicketID: "TCK-2025-0001", RowID: "7", SheetURL: "u"},
		UnyraTask:     &orchestrator.TaskRef{UnyraTaskID: "task_77", TaskURL: "t"},
		Status:        "new",
	}

	view := toConfirmationView(conf)
	if view.Sheet == nil || view.Sheet.TicketID != "TCK-2025-0001" {
		t.Errorf("sheet ref lost: %+v", view.Sheet)
	}
	if view.UnyraTask == nil || view.UnyraTask.UnyraTaskID != "task_77" {
		t.Errorf("task ref lost: %+v", view.UnyraTask)
	}
	if view.Status != "new" || !view.TicketCreated {
		t.Errorf("unexpected view: %+v", view)
	}

	partial := &orchestrator.TicketConfirmation{
		TicketCreated: true,
		Sheet:         &orchestrator.SheetRef{TicketID: "TCK-2025-0002", RowID: "9", SheetURL: "u"},
		Status:        "task_failed",
		TaskError:     "ERR-API: contact lookup failed",
	}
	view = toConfirmationView(partial)
	if view.UnyraTask != nil {
		t.Errorf("absent task ref should stay nil: %+v", view.UnyraTask)
	}
	if view.TaskError == "" {
		t.Error("task_error lost")
	}
}
