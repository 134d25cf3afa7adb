package service

import (
	"context"
	"errors"
	"smartqa_backend/internal/model"
	"smartqa_backend/internal/repository"
	"smartqa_backend/internal/util"
	"smartqa_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService struct {
	UserRepo  *repository.UserRepository
	DocRepo   *repository.DocumentRepository
	Documents *DocumentService
}

func NewUserService(userRepo *repository.UserRepository, docRepo *repository.DocumentRepository, documents *DocumentService) *UserService {
	return &UserService{UserRepo: userRepo, DocRepo: docRepo, Documents: documents}
}

func (s *UserService) List() ([]model.User, error) {
	return s.UserRepo.List()
}

func (s *UserService) Get(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Delete 级联删除数据库记录后清理其文档文件与向量
func (s *UserService) Delete(ctx context.Context, id uint) error {
	docs, err := s.DocRepo.ListOwnedBy(id)
	if err != nil {
		return err
	}
	if err := s.UserRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		return err
	}
	s.Documents.PurgeFiles(ctx, docs)
	logger.Log.Info("user deleted", zap.Uint("user_id", id), zap.Int("documents", len(docs)))
	return nil
}
