package model

import "time"

// ChatLog is one chat turn: the user's question and the model's answer.
// Rows are append-only; the system never mutates or deletes them.
type ChatLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SessionID     string    `gorm:"size:64;not null;index" json:"session_id"`
	UserQuery     string    `gorm:"type:text;not null" json:"user_query"`
	ModelResponse string    `gorm:"type:text;not null" json:"model_response"`
	ModelName     string    `gorm:"size:64;not null" json:"model_name"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// ChatMessage is the history wire shape consumed by the conversation chain.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
