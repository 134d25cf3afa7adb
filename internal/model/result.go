package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// 违规次数达到该值时标记本次作答
const FlagViolationThreshold = 10

// swagger:model Result
type Result struct {
	BaseModel
	UserID               uint           `gorm:"index;not null" json:"user_id"`
	TestID               uint           `gorm:"index;not null" json:"test_id"`
	Score                float64        `gorm:"not null" json:"score"`
	TotalQuestions       int            `gorm:"not null" json:"total_questions"`
	CorrectAnswers       int            `gorm:"not null" json:"correct_answers"`
	TimeTakenMinutes     float64        `gorm:"not null" json:"time_taken_minutes"`
	Answers              datatypes.JSON `gorm:"not null" json:"answers"`
	ProctoringViolations int            `gorm:"default:0" json:"proctoring_violations"`
	IsFlagged            bool           `gorm:"default:false" json:"is_flagged"`
	CompletedAt          time.Time      `json:"completed_at"`

	ProctorLogs []ProctorLog `gorm:"foreignKey:ResultID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Result) TableName() string {
	return "results"
}

func (r *Result) AnswerMap() map[string]string {
	answers := map[string]string{}
	if len(r.Answers) == 0 {
		return answers
	}
	_ = json.Unmarshal(r.Answers, &answers)
	return answers
}

// swagger:model ProctorLog
type ProctorLog struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ResultID      uint      `gorm:"index;not null" json:"result_id"`
	UserID        uint      `gorm:"index;not null" json:"user_id"`
	TestID        uint      `gorm:"index;not null" json:"test_id"`
	ViolationType string    `gorm:"size:50;not null" json:"violation_type"`
	Timestamp     time.Time `gorm:"autoCreateTime" json:"timestamp"`
}

func (ProctorLog) TableName() string {
	return "proctor_logs"
}
