package repository

import (
	"smartqa_backend/internal/model"

	"gorm.io/gorm"
)

type QAHistoryRepository struct {
	DB *gorm.DB
}

func NewQAHistoryRepository(db *gorm.DB) *QAHistoryRepository {
	return &QAHistoryRepository{DB: db}
}

func (r *QAHistoryRepository) Create(history *model.AIQAHistory) error {
	return r.DB.Create(history).Error
}

func (r *QAHistoryRepository) ListByUser(userID uint, limit int) ([]model.AIQAHistory, error) {
	var items []model.AIQAHistory
	query := r.DB.Where("user_id = ?", userID).Order("created_at desc, id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&items).Error
	return items, err
}

func (r *QAHistoryRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.AIQAHistory{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
