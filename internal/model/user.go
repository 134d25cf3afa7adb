package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == Student || r == Admin
}

// TestHistoryEntry 每次提交测试后追加到用户的 test_history
type TestHistoryEntry struct {
	TestID      uint      `json:"test_id"`
	ResultID    uint      `json:"result_id"`
	Score       float64   `json:"score"`
	CompletedAt time.Time `json:"completed_at"`
}

// swagger:model User
type User struct {
	BaseModel
	Username     string         `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	Role         UserRole       `gorm:"size:20;not null;default:student" json:"role"`
	TestHistory  datatypes.JSON `json:"test_history"`

	Tests          []Test     `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
	Documents      []Document `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AdminDocuments []Document `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
	Results        []Result   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) History() []TestHistoryEntry {
	entries := []TestHistoryEntry{}
	if len(u.TestHistory) == 0 {
		return entries
	}
	if err := json.Unmarshal(u.TestHistory, &entries); err != nil {
		return []TestHistoryEntry{}
	}
	return entries
}

func (u *User) AppendHistory(entry TestHistoryEntry) error {
	entries := append(u.History(), entry)
	b, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	u.TestHistory = datatypes.JSON(b)
	return nil
}
