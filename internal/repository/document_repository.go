package repository

import (
	"smartqa_backend/internal/model"

	"gorm.io/gorm"
)

type DocumentRepository struct {
	DB *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

type DocumentStats struct {
	TotalDocuments int64
	TotalSize      int64
	PDFFiles       int64
}

// ownerScope 学生文档按 user_id，管理员文档按 admin_id
func ownerScope(ownerID uint, isAdmin bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if isAdmin {
			return db.Where("admin_id = ?", ownerID)
		}
		return db.Where("user_id = ?", ownerID)
	}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	return r.DB.Create(doc).Error
}

func (r *DocumentRepository) FindByID(id uint) (*model.Document, error) {
	var doc model.Document
	err := r.DB.First(&doc, id).Error
	return &doc, err
}

func (r *DocumentRepository) FindByIDs(ids []uint) ([]model.Document, error) {
	var docs []model.Document
	if len(ids) == 0 {
		return docs, nil
	}
	err := r.DB.Where("id IN ?", ids).Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) ExistsByName(ownerID uint, isAdmin bool, name string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Document{}).
		Scopes(ownerScope(ownerID, isAdmin)).
		Where("doc_name = ?", name).
		Count(&count).Error
	return count > 0, err
}

func (r *DocumentRepository) ListByOwner(ownerID uint, isAdmin bool) ([]model.Document, error) {
	var docs []model.Document
	err := r.DB.Scopes(ownerScope(ownerID, isAdmin)).Order("created_at desc").Find(&docs).Error
	return docs, err
}

// ListOwnedBy 用户作为学生或管理员拥有的全部文档
func (r *DocumentRepository) ListOwnedBy(userID uint) ([]model.Document, error) {
	var docs []model.Document
	err := r.DB.Where("user_id = ? OR admin_id = ?", userID, userID).Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) ListAll() ([]model.Document, error) {
	var docs []model.Document
	err := r.DB.Order("created_at desc").Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) Update(doc *model.Document) error {
	return r.DB.Save(doc).Error
}

func (r *DocumentRepository) UpdateProcessing(id uint, words, pages int, processed bool) error {
	return r.DB.Model(&model.Document{}).Where("id = ?", id).Updates(map[string]interface{}{
		"total_words":  words,
		"total_pages":  pages,
		"is_processed": processed,
	}).Error
}

func (r *DocumentRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Document{}, id).Error
}

func (r *DocumentRepository) Stats(ownerID uint, isAdmin bool) (*DocumentStats, error) {
	var stats DocumentStats
	if err := r.DB.Model(&model.Document{}).
		Scopes(ownerScope(ownerID, isAdmin)).
		Select("COUNT(*) as total_documents, COALESCE(SUM(file_size), 0) as total_size").
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&model.Document{}).
		Scopes(ownerScope(ownerID, isAdmin)).
		Where("file_type = ?", "pdf").
		Count(&stats.PDFFiles).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *DocumentRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Document{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *DocumentRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Document{}).Count(&count).Error
	return count, err
}

func (r *DocumentRepository) CountProcessed() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Document{}).Where("is_processed = ?", true).Count(&count).Error
	return count, err
}

func (r *DocumentRepository) TotalWords() (int64, error) {
	var total int64
	err := r.DB.Model(&model.Document{}).Select("COALESCE(SUM(total_words), 0)").Scan(&total).Error
	return total, err
}

func (r *DocumentRepository) CountByType() (map[string]int64, error) {
	type row struct {
		FileType string
		Total    int64
	}
	var rows []row
	if err := r.DB.Model(&model.Document{}).
		Select("file_type, COUNT(*) as total").
		Group("file_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, rw := range rows {
		out[rw.FileType] = rw.Total
	}
	return out, nil
}
