package persistence

import (
	"context"
	"strings"
	"time"

	"UnyraSupport/internal/modules/support/domain/repository"
	"UnyraSupport/internal/modules/support/domain/ticket"

	"gorm.io/gorm"
)

type supportTicketRepositoryImpl struct {
	db *gorm.DB
}

func NewSupportTicketRepository(db *gorm.DB) repository.SupportTicketRepository {
	return &supportTicketRepositoryImpl{db: db}
}

func (r *supportTicketRepositoryImpl) SaveTicket(ctx context.Context, t *ticket.SupportTicket) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *supportTicketRepositoryImpl) UpdateTicketLinkageByRow(ctx context.Context, rowRef string, status, unyraTaskId, taskError string) error {
	rowRef = strings.TrimSpace(rowRef)
	if rowRef == "" {
		return nil
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if status != "" {
		updates["status"] = status
	}
	if unyraTaskId != "" {
		updates["unyra_task_id"] = unyraTaskId
	}
	if taskError != "" {
		updates["task_error"] = taskError
	}

	return r.db.WithContext(ctx).Model(&ticket.SupportTicket{}).
		Where("row_ref = ?", rowRef).
		Updates(updates).Error
}

func (r *supportTicketRepositoryImpl) CountTicketsByRequester(ctx context.Context, requesterEmail string) (int64, error) {
	requesterEmail = strings.TrimSpace(strings.ToLower(requesterEmail))
	if requesterEmail == "" {
		return 0, nil
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&ticket.SupportTicket{}).
		Where("LOWER(requester_email) = ?", requesterEmail).
		Count(&count).Error
	return count, err
}
