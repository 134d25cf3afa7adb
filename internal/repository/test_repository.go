package repository

import (
	"smartqa_backend/internal/model"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

type TestListRow struct {
	model.Test
	QuestionCount int `json:"question_count"`
}

// Create 测试与题目一起写入
func (r *TestRepository) Create(test *model.Test) error {
	return r.DB.Create(test).Error
}

func (r *TestRepository) FindByID(id uint) (*model.Test, error) {
	var test model.Test
	err := r.DB.First(&test, id).Error
	return &test, err
}

func (r *TestRepository) FindWithQuestions(id uint) (*model.Test, error) {
	var test model.Test
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	}).First(&test, id).Error
	return &test, err
}

// FindOwned 管理员只能管理自己创建的测试
func (r *TestRepository) FindOwned(id, adminID uint) (*model.Test, error) {
	var test model.Test
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	}).Where("admin_id = ?", adminID).First(&test, id).Error
	return &test, err
}

func (r *TestRepository) Questions(testID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Where("test_id = ?", testID).Order("id asc").Find(&questions).Error
	return questions, err
}

func (r *TestRepository) CountQuestions(testID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).Where("test_id = ?", testID).Count(&count).Error
	return count, err
}

func (r *TestRepository) listRows(query *gorm.DB) ([]TestListRow, error) {
	var tests []model.Test
	if err := query.Order("created_at desc").Find(&tests).Error; err != nil {
		return nil, err
	}
	if len(tests) == 0 {
		return []TestListRow{}, nil
	}

	ids := make([]uint, len(tests))
	for i, t := range tests {
		ids[i] = t.ID
	}
	type countRow struct {
		TestID uint
		Total  int
	}
	var counts []countRow
	if err := r.DB.Model(&model.Question{}).
		Select("test_id, COUNT(*) as total").
		Where("test_id IN ?", ids).
		Group("test_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byTest := make(map[uint]int, len(counts))
	for _, c := range counts {
		byTest[c.TestID] = c.Total
	}

	rows := make([]TestListRow, len(tests))
	for i, t := range tests {
		rows[i] = TestListRow{Test: t, QuestionCount: byTest[t.ID]}
	}
	return rows, nil
}

func (r *TestRepository) ListActive() ([]TestListRow, error) {
	return r.listRows(r.DB.Where("is_active = ?", true))
}

func (r *TestRepository) ListByAdmin(adminID uint) ([]TestListRow, error) {
	return r.listRows(r.DB.Where("admin_id = ?", adminID))
}

func (r *TestRepository) ListActiveWithQuestions() ([]model.Test, error) {
	var tests []model.Test
	err := r.DB.Where("is_active = ?", true).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		}).
		Order("created_at desc").
		Find(&tests).Error
	return tests, err
}

// Update 只更新传入的字段
func (r *TestRepository) Update(id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.DB.Model(&model.Test{}).Where("id = ?", id).Updates(fields).Error
}

func (r *TestRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return deleteTestsCascade(tx, []uint{id})
	})
}

func (r *TestRepository) CountActive() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Test{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

func (r *TestRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Test{}).Count(&count).Error
	return count, err
}

func (r *TestRepository) CountQuestionsTotal() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).Count(&count).Error
	return count, err
}

func deleteTestsCascade(tx *gorm.DB, testIDs []uint) error {
	var resultIDs []uint
	if err := tx.Model(&model.Result{}).Where("test_id IN ?", testIDs).Pluck("id", &resultIDs).Error; err != nil {
		return err
	}
	if err := deleteProctorLogs(tx, "test_id IN ?", testIDs, resultIDs); err != nil {
		return err
	}
	if err := tx.Where("test_id IN ?", testIDs).Delete(&model.Result{}).Error; err != nil {
		return err
	}
	if err := tx.Where("test_id IN ?", testIDs).Delete(&model.Question{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", testIDs).Delete(&model.Test{}).Error
}

// deleteProctorLogs 按条件及所属成绩删除监考日志
func deleteProctorLogs(tx *gorm.DB, cond string, arg interface{}, resultIDs []uint) error {
	if len(resultIDs) > 0 {
		if err := tx.Where("result_id IN ?", resultIDs).Delete(&model.ProctorLog{}).Error; err != nil {
			return err
		}
	}
	return tx.Where(cond, arg).Delete(&model.ProctorLog{}).Error
}
