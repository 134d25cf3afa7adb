package model

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case Easy:
		return Easy
	case Hard:
		return Hard
	default:
		return Medium
	}
}

// 选项字母
var AnswerKeys = []string{"A", "B", "C", "D"}

// HiddenAnswer 非管理员查看题目时替换正确答案
const HiddenAnswer = "***"

// swagger:model Test
type Test struct {
	BaseModel
	AdminID          uint   `gorm:"index;not null" json:"admin_id"`
	TestName         string `gorm:"size:200;not null" json:"test_name"`
	Topic            string `gorm:"size:200;not null" json:"topic"`
	Description      string `gorm:"type:text" json:"description"`
	IsActive         bool   `gorm:"default:true" json:"is_active"`
	TimeLimitMinutes int    `gorm:"default:60" json:"time_limit_minutes"`

	Questions []Question `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	Results   []Result   `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Test) TableName() string {
	return "tests"
}

// swagger:model Question
type Question struct {
	BaseModel
	TestID        uint           `gorm:"index;not null" json:"test_id"`
	QuestionText  string         `gorm:"type:text;not null" json:"question_text"`
	CorrectAnswer string         `gorm:"size:10;not null" json:"correct_answer"`
	Options       datatypes.JSON `gorm:"not null" json:"options"`
	Explanation   string         `gorm:"type:text" json:"explanation"`
	Difficulty    Difficulty     `gorm:"size:20;default:medium" json:"difficulty"`
}

func (Question) TableName() string {
	return "questions"
}

func (q *Question) OptionMap() map[string]string {
	opts := map[string]string{}
	if len(q.Options) == 0 {
		return opts
	}
	_ = json.Unmarshal(q.Options, &opts)
	return opts
}

func (q *Question) SetOptions(opts map[string]string) error {
	if opts == nil {
		opts = map[string]string{}
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	q.Options = datatypes.JSON(b)
	return nil
}

// IsCorrect 忽略大小写和首尾空白
func (q *Question) IsCorrect(answer string) bool {
	answer = strings.ToUpper(strings.TrimSpace(answer))
	return answer != "" && answer == strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))
}
