package persistence

import (
	"context"
	"strings"
	"time"

	"UnyraSupport/internal/modules/support/domain/conversation"
	"UnyraSupport/internal/modules/support/domain/repository"

	"gorm.io/gorm"
)

type supportSessionRepositoryImpl struct {
	db *gorm.DB
}

func NewSupportSessionRepository(db *gorm.DB) repository.SupportSessionRepository {
	return &supportSessionRepositoryImpl{db: db}
}

func (r *supportSessionRepositoryImpl) CreateSession(ctx context.Context, session *conversation.SupportSession) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 同一子账户同时只保留一个active会话
		err := tx.Model(&conversation.SupportSession{}).
			Where("account_id = ? AND status = ?", session.AccountId, conversation.SessionStatusActive).
			Updates(map[string]interface{}{
				"status":     conversation.SessionStatusReplaced,
				"updated_at": time.Now(),
			}).Error
		if err != nil {
			return err
		}
		return tx.Create(session).Error
	})
}

func (r *supportSessionRepositoryImpl) GetSessionByID(ctx context.Context, sessionId string) (*conversation.SupportSession, error) {
	sessionId = strings.TrimSpace(sessionId)
	if sessionId == "" {
		return nil, nil
	}

	var session conversation.SupportSession
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Take(&session).Error
	if err == nil {
		return &session, nil
	}
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return nil, err
}

func (r *supportSessionRepositoryImpl) UpdateSessionMode(ctx context.Context, sessionId string, mode string) error {
	sessionId = strings.TrimSpace(sessionId)
	if sessionId == "" {
		return nil
	}

	return r.db.WithContext(ctx).Model(&conversation.SupportSession{}).
		Where("session_id = ?", sessionId).
		Updates(map[string]interface{}{
			"mode":       mode,
			"updated_at": time.Now(),
		}).Error
}

func (r *supportSessionRepositoryImpl) TouchSession(ctx context.Context, sessionId string) error {
	sessionId = strings.TrimSpace(sessionId)
	if sessionId == "" {
		return nil
	}

	return r.db.WithContext(ctx).Model(&conversation.SupportSession{}).
		Where("session_id = ?", sessionId).
		Update("updated_at", time.Now()).Error
}

type supportMessageRepositoryImpl struct {
	db *gorm.DB
}

func NewSupportMessageRepository(db *gorm.DB) repository.SupportMessageRepository {
	return &supportMessageRepositoryImpl{db: db}
}

func (r *supportMessageRepositoryImpl) AppendMessage(ctx context.Context, msg *conversation.SupportMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *supportMessageRepositoryImpl) ListMessages(ctx context.Context, sessionId string, limit int) ([]*conversation.SupportMessage, error) {
	sessionId = strings.TrimSpace(sessionId)
	if sessionId == "" {
		return []*conversation.SupportMessage{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var messages []*conversation.SupportMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("created_at ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
