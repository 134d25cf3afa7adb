package repository

import (
	"smartqa_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) ExistsByUsername(username string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

func (r *UserRepository) List() ([]model.User, error) {
	var users []model.User
	err := r.DB.Order("created_at desc").Find(&users).Error
	return users, err
}

func (r *UserRepository) CountByRole(role model.UserRole) (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

// Delete 级联删除用户拥有的全部数据；文件与向量由调用方清理
func (r *UserRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		// 管理员创建的测试及其下属数据
		var testIDs []uint
		if err := tx.Model(&model.Test{}).Where("admin_id = ?", id).Pluck("id", &testIDs).Error; err != nil {
			return err
		}
		if len(testIDs) > 0 {
			if err := deleteTestsCascade(tx, testIDs); err != nil {
				return err
			}
		}

		var resultIDs []uint
		if err := tx.Model(&model.Result{}).Where("user_id = ?", id).Pluck("id", &resultIDs).Error; err != nil {
			return err
		}
		if err := deleteProctorLogs(tx, "user_id = ?", id, resultIDs); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Result{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR admin_id = ?", id, id).Delete(&model.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.AIQAHistory{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&model.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *UserRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Count(&count).Error
	return count, err
}

func (r *UserRepository) CountCreatedSince(since time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

// CountActiveSince 指定时间后提交过测试的用户数
func (r *UserRepository) CountActiveSince(since time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Result{}).
		Where("completed_at >= ?", since).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}
