package repository

import (
	"smartqa_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResultRepository struct {
	DB *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{DB: db}
}

type ResultWithTest struct {
	model.Result
	TestName         string `json:"test_name"`
	Topic            string `json:"topic"`
	TimeLimitMinutes int    `json:"time_limit_minutes"`
}

type UserScoreStats struct {
	Completed    int64
	AverageScore float64
}

// CreateWithHistory 保存成绩并追加到用户的 test_history
func (r *ResultRepository) CreateWithHistory(result *model.Result) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(result).Error; err != nil {
			return err
		}

		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, result.UserID).Error; err != nil {
			return err
		}
		if err := user.AppendHistory(model.TestHistoryEntry{
			TestID:      result.TestID,
			ResultID:    result.ID,
			Score:       result.Score,
			CompletedAt: result.CompletedAt,
		}); err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("id = ?", user.ID).Update("test_history", user.TestHistory).Error
	})
}

func (r *ResultRepository) FindByID(id uint) (*model.Result, error) {
	var result model.Result
	err := r.DB.First(&result, id).Error
	return &result, err
}

func (r *ResultRepository) ListAll() ([]model.Result, error) {
	var results []model.Result
	err := r.DB.Order("completed_at desc").Find(&results).Error
	return results, err
}

func (r *ResultRepository) ListByUser(userID uint) ([]model.Result, error) {
	var results []model.Result
	err := r.DB.Where("user_id = ?", userID).Order("completed_at desc").Find(&results).Error
	return results, err
}

func (r *ResultRepository) ListByUserWithTest(userID uint) ([]ResultWithTest, error) {
	var rows []ResultWithTest
	err := r.DB.Table("results r").
		Select("r.*, t.test_name, t.topic, t.time_limit_minutes").
		Joins("JOIN tests t ON t.id = r.test_id").
		Where("r.user_id = ?", userID).
		Order("r.completed_at desc").
		Scan(&rows).Error
	return rows, err
}

func (r *ResultRepository) UserStats(userID uint) (*UserScoreStats, error) {
	var stats UserScoreStats
	err := r.DB.Model(&model.Result{}).
		Select("COUNT(*) as completed, COALESCE(AVG(score), 0) as average_score").
		Where("user_id = ?", userID).
		Scan(&stats).Error
	return &stats, err
}

func (r *ResultRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Result{}).Count(&count).Error
	return count, err
}

func (r *ResultRepository) AverageScore() (float64, error) {
	var avg float64
	err := r.DB.Model(&model.Result{}).Select("COALESCE(AVG(score), 0)").Scan(&avg).Error
	return avg, err
}

func (r *ResultRepository) CountFlagged() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Result{}).Where("is_flagged = ?", true).Count(&count).Error
	return count, err
}
