package repository

import (
	"smartqa_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProctorRepository struct {
	DB *gorm.DB
}

func NewProctorRepository(db *gorm.DB) *ProctorRepository {
	return &ProctorRepository{DB: db}
}

// LogViolation 写入监考日志并累加成绩上的违规计数，达到阈值即标记
func (r *ProctorRepository) LogViolation(log *model.ProctorLog) (*model.Result, error) {
	var result model.Result
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&result, log.ResultID).Error; err != nil {
			return err
		}
		if err := tx.Create(log).Error; err != nil {
			return err
		}

		result.ProctoringViolations++
		if result.ProctoringViolations >= model.FlagViolationThreshold {
			result.IsFlagged = true
		}
		return tx.Model(&model.Result{}).Where("id = ?", result.ID).Updates(map[string]interface{}{
			"proctoring_violations": result.ProctoringViolations,
			"is_flagged":            result.IsFlagged,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ProctorRepository) ListByTest(testID uint) ([]model.ProctorLog, error) {
	var logs []model.ProctorLog
	err := r.DB.Where("test_id = ?", testID).Order("timestamp desc").Find(&logs).Error
	return logs, err
}
