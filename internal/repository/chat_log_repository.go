package repository

import (
	"fmt"

	"gorm.io/gorm"

	"docuchat/internal/model"
)

type ChatLogRepository struct {
	db *gorm.DB
}

func NewChatLogRepository(db *gorm.DB) *ChatLogRepository {
	return &ChatLogRepository{db: db}
}

func (r *ChatLogRepository) Create(log *model.ChatLog) error {
	if err := r.db.Create(log).Error; err != nil {
		return fmt.Errorf("create chat log failed: %w", err)
	}
	return nil
}

// ListBySessionID returns all turns for the session in chronological order.
// ID breaks ties for turns created within the same timestamp granularity.
func (r *ChatLogRepository) ListBySessionID(sessionID string) ([]model.ChatLog, error) {
	var logs []model.ChatLog
	if err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").Order("id ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list chat logs failed: %w", err)
	}
	return logs, nil
}

// History expands the session's turns into (human, ai) message pairs.
// An unknown session yields an empty slice, not an error.
func (r *ChatLogRepository) History(sessionID string) ([]model.ChatMessage, error) {
	logs, err := r.ListBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	messages := make([]model.ChatMessage, 0, len(logs)*2)
	for _, l := range logs {
		messages = append(messages,
			model.ChatMessage{Role: model.RoleHuman, Content: l.UserQuery},
			model.ChatMessage{Role: model.RoleAI, Content: l.ModelResponse},
		)
	}
	return messages, nil
}
