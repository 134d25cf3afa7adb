package model

import (
	"time"
)

// AIQAHistory 存储 AI 问答记录
type AIQAHistory struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	SessionID string    `gorm:"size:50;index" json:"session_id"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	Source    string    `gorm:"size:20" json:"source"` // document 或 ai
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (AIQAHistory) TableName() string {
	return "ai_qa_histories"
}
