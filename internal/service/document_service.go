package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"smartqa_backend/internal/config"
	"smartqa_backend/internal/model"
	"smartqa_backend/internal/repository"
	"smartqa_backend/internal/util"
	"smartqa_backend/pkg/extractor"
	"smartqa_backend/pkg/logger"
	"smartqa_backend/pkg/monitoring"
	"smartqa_backend/pkg/tracing"
	"smartqa_backend/pkg/vectordb"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VectorIndex 文档文本块的向量索引
type VectorIndex interface {
	Upsert(ctx context.Context, docID uint, chunks []vectordb.Chunk) error
	Search(ctx context.Context, query []float32, docIDs []uint, k int) ([]vectordb.Match, error)
	DeleteDocument(ctx context.Context, docID uint) error
}

// Owner 上传者身份：管理员上传记在 admin_id 下
type Owner struct {
	ID    uint
	Admin bool
}

func OwnerFromClaims(claims *util.Claims) Owner {
	return Owner{ID: claims.UserID, Admin: claims.Role == model.Admin}
}

type DocumentStatsResponse struct {
	TotalDocuments int64  `json:"totalDocuments"`
	TotalSize      string `json:"totalSize"`
	PDFFiles       int64  `json:"pdfFiles"`
	OtherFiles     int64  `json:"otherFiles"`
}

type DocumentContent struct {
	ID         uint   `json:"id"`
	DocName    string `json:"doc_name"`
	FileType   string `json:"file_type"`
	Content    string `json:"content"`
	TotalWords int    `json:"total_words"`
	TotalPages int    `json:"total_pages"`
}

type DocumentService struct {
	DocRepo  *repository.DocumentRepository
	Storage  *StorageService
	Embedder Embedder
	Index    VectorIndex
	Vector   config.VectorConfig
	Upload   config.UploadConfig
}

func NewDocumentService(docRepo *repository.DocumentRepository, storage *StorageService, embedder Embedder, index VectorIndex, cfg *config.Config) *DocumentService {
	return &DocumentService{
		DocRepo:  docRepo,
		Storage:  storage,
		Embedder: embedder,
		Index:    index,
		Vector:   cfg.Vector,
		Upload:   cfg.Upload,
	}
}

// CanRead 管理员可读全部；学生可读自己的和管理员共享的文档
func CanRead(doc *model.Document, claims *util.Claims) bool {
	if claims.Role == model.Admin {
		return true
	}
	if doc.UserID != nil && *doc.UserID == claims.UserID {
		return true
	}
	return doc.IsAdminDocument()
}

// CanModify 只有上传者本人或管理员
func CanModify(doc *model.Document, claims *util.Claims) bool {
	if claims.Role == model.Admin {
		return true
	}
	return doc.UserID != nil && *doc.UserID == claims.UserID
}

// UploadDocument 保存文件、写入记录并立即处理；处理失败只记录日志，文档保持未处理
func (s *DocumentService) UploadDocument(ctx context.Context, owner Owner, filename string, size int64, r io.Reader) (*model.Document, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" || !util.IsAllowedDocument(filename) {
		return nil, util.ErrUnsupportedFileType
	}
	maxBytes := s.Upload.MaxBytes()
	if size > maxBytes {
		return nil, util.ErrFileTooLarge
	}

	exists, err := s.DocRepo.ExistsByName(owner.ID, owner.Admin, filename)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrDuplicateDocument
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, util.ErrFileTooLarge
	}

	fileType := strings.TrimPrefix(util.FileExtension(filename), ".")
	key := DocumentKey(owner.ID, filename)
	if err := s.Storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), util.DocumentContentType(fileType)); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	doc := &model.Document{
		DocName:  filename,
		FilePath: key,
		FileType: fileType,
		FileSize: int64(len(data)),
	}
	ownerID := owner.ID
	if owner.Admin {
		doc.AdminID = &ownerID
	} else {
		doc.UserID = &ownerID
	}
	if err := s.DocRepo.Create(doc); err != nil {
		if delErr := s.Storage.Delete(ctx, key); delErr != nil {
			logger.Log.Warn("failed to remove orphan upload", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	if err := s.processData(ctx, doc, data); err != nil {
		logger.Log.Warn("document processing failed",
			zap.Uint("document_id", doc.ID),
			zap.String("doc_name", doc.DocName),
			zap.Error(err))
	}
	return doc, nil
}

// Process 从存储重新读取并处理
func (s *DocumentService) Process(ctx context.Context, doc *model.Document) error {
	data, err := s.Storage.ReadAll(ctx, doc.FilePath)
	if err != nil {
		return fmt.Errorf("read stored document: %w", err)
	}
	return s.processData(ctx, doc, data)
}

// processData 提取 → 切块 → 向量化 → 入库，成功后才标记 is_processed
func (s *DocumentService) processData(ctx context.Context, doc *model.Document, data []byte) (err error) {
	ctx, span := tracing.StartSpan(ctx, "document.process",
		attribute.Int64("document.id", int64(doc.ID)),
		attribute.String("document.type", doc.FileType))
	defer func() {
		monitoring.DocumentsProcessed.WithLabelValues(monitoring.StatusLabel(err)).Inc()
		tracing.EndSpan(span, err)
	}()

	result, err := extractor.Extract(doc.FileType, data)
	if err != nil {
		s.markUnprocessed(doc)
		return err
	}
	doc.TotalWords = result.TotalWords
	doc.TotalPages = result.TotalPages
	doc.IsProcessed = false
	if err := s.DocRepo.UpdateProcessing(doc.ID, doc.TotalWords, doc.TotalPages, false); err != nil {
		return err
	}

	chunks := extractor.Split(result.Pages, s.Vector.ChunkSize, s.Vector.ChunkOverlap)
	if len(chunks) == 0 {
		return util.ErrDocumentEmpty
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := s.Embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	records := make([]vectordb.Chunk, len(chunks))
	for i, c := range chunks {
		records[i] = vectordb.Chunk{
			DocumentID: doc.ID,
			Index:      c.Index,
			PageNumber: c.PageNumber,
			Text:       c.Text,
			Embedding:  embeddings[i],
		}
	}
	if err := s.Index.Upsert(ctx, doc.ID, records); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}

	doc.IsProcessed = true
	if err := s.DocRepo.UpdateProcessing(doc.ID, doc.TotalWords, doc.TotalPages, true); err != nil {
		return err
	}
	logger.Log.Info("document processed",
		zap.Uint("document_id", doc.ID),
		zap.Int("chunks", len(records)),
		zap.Int("words", doc.TotalWords))
	return nil
}

func (s *DocumentService) markUnprocessed(doc *model.Document) {
	if !doc.IsProcessed {
		return
	}
	doc.IsProcessed = false
	if err := s.DocRepo.UpdateProcessing(doc.ID, doc.TotalWords, doc.TotalPages, false); err != nil {
		logger.Log.Warn("failed to reset processing flag", zap.Uint("document_id", doc.ID), zap.Error(err))
	}
}

func (s *DocumentService) find(id uint) (*model.Document, error) {
	doc, err := s.DocRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Get 无权访问时同样返回 ErrDocumentNotFound
func (s *DocumentService) Get(claims *util.Claims, id uint) (*model.Document, error) {
	doc, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if !CanRead(doc, claims) {
		return nil, util.ErrDocumentNotFound
	}
	return doc, nil
}

func (s *DocumentService) GetForModify(claims *util.Claims, id uint) (*model.Document, error) {
	doc, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if !CanModify(doc, claims) {
		return nil, util.ErrDocumentNotFound
	}
	return doc, nil
}

func (s *DocumentService) ListOwned(owner Owner) ([]model.Document, error) {
	return s.DocRepo.ListByOwner(owner.ID, owner.Admin)
}

func (s *DocumentService) ListAll() ([]model.Document, error) {
	return s.DocRepo.ListAll()
}

// Accessible 返回调用者可读且已处理的文档
func (s *DocumentService) Accessible(claims *util.Claims, ids []uint) ([]model.Document, error) {
	docs, err := s.DocRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.Document, 0, len(docs))
	for i := range docs {
		if docs[i].IsProcessed && CanRead(&docs[i], claims) {
			out = append(out, docs[i])
		}
	}
	return out, nil
}

func (s *DocumentService) Extract(ctx context.Context, doc *model.Document) (*extractor.Result, error) {
	data, err := s.Storage.ReadAll(ctx, doc.FilePath)
	if err != nil {
		return nil, fmt.Errorf("read stored document: %w", err)
	}
	return extractor.Extract(doc.FileType, data)
}

func (s *DocumentService) Content(ctx context.Context, doc *model.Document) (*DocumentContent, error) {
	res, err := s.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &DocumentContent{
		ID:         doc.ID,
		DocName:    doc.DocName,
		FileType:   doc.FileType,
		Content:    res.Text(),
		TotalWords: res.TotalWords,
		TotalPages: res.TotalPages,
	}, nil
}

func (s *DocumentService) Open(ctx context.Context, doc *model.Document) (io.ReadCloser, error) {
	return s.Storage.Open(ctx, doc.FilePath)
}

// Delete 先删记录，再尽力清理文件与向量
func (s *DocumentService) Delete(ctx context.Context, doc *model.Document) error {
	if err := s.DocRepo.Delete(doc.ID); err != nil {
		return err
	}
	s.PurgeFiles(ctx, []model.Document{*doc})
	return nil
}

// PurgeFiles 清理存储文件和向量块，失败只记日志
func (s *DocumentService) PurgeFiles(ctx context.Context, docs []model.Document) {
	for _, d := range docs {
		if err := s.Storage.Delete(ctx, d.FilePath); err != nil {
			logger.Log.Warn("failed to delete document file", zap.String("key", d.FilePath), zap.Error(err))
		}
		if err := s.Index.DeleteDocument(ctx, d.ID); err != nil {
			logger.Log.Warn("failed to delete document chunks", zap.Uint("document_id", d.ID), zap.Error(err))
		}
	}
}

func (s *DocumentService) Stats(owner Owner) (*DocumentStatsResponse, error) {
	stats, err := s.DocRepo.Stats(owner.ID, owner.Admin)
	if err != nil {
		return nil, err
	}
	return &DocumentStatsResponse{
		TotalDocuments: stats.TotalDocuments,
		TotalSize:      util.FormatFileSize(stats.TotalSize),
		PDFFiles:       stats.PDFFiles,
		OtherFiles:     stats.TotalDocuments - stats.PDFFiles,
	}, nil
}
