package controller

import (
	"fmt"
	"net/http"
	"net/url"
	"smartqa_backend/internal/service"
	"smartqa_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DocumentController struct {
	DocumentService *service.DocumentService
	QAService       *service.QAService
}

func NewDocumentController(documentService *service.DocumentService, qaService *service.QAService) *DocumentController {
	return &DocumentController{DocumentService: documentService, QAService: qaService}
}

// ListMine godoc
// @Summary 我的文档
// @Tags 文档
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Document}
// @Router /api/documents/all [get]
func (c *DocumentController) ListMine(ctx *gin.Context) {
	docs, err := c.DocumentService.ListOwned(service.OwnerFromClaims(util.GetUserFromContext(ctx)))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, docs)
}

// ListAll godoc
// @Summary 全部文档
// @Tags 管理员
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Document}
// @Router /api/admin/documents [get]
func (c *DocumentController) ListAll(ctx *gin.Context) {
	docs, err := c.DocumentService.ListAll()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, docs)
}

// Upload godoc
// @Summary 上传文档
// @Description 支持 pdf/docx/doc/txt，上传后立即提取文本并建立向量索引
// @Tags 文档
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "文档文件"
// @Success 201 {object} util.Response{data=model.Document}
// @Failure 400 {object} util.Response "文件类型不支持或重名"
// @Failure 413 {object} util.Response "文件过大"
// @Router /api/documents/upload [post]
func (c *DocumentController) Upload(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "No file uploaded")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	claims := util.GetUserFromContext(ctx)
	doc, err := c.DocumentService.UploadDocument(ctx.Request.Context(), service.OwnerFromClaims(claims), fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Created(ctx, doc)
}

// Process godoc
// @Summary 重新处理文档
// @Tags 文档
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "文档ID"
// @Success 200 {object} util.Response{data=model.Document}
// @Router /api/user/documents/{id}/process [post]
func (c *DocumentController) Process(ctx *gin.Context) {
	id, ok := parseID(ctx, "id", "document")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	doc, err := c.DocumentService.GetForModify(claims, id)
	if err != nil {
		handleError(ctx, err)
		return
	}
	if err := c.DocumentService.Process(ctx.Request.Context(), doc); err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, doc)
}

// Content godoc
// @Summary 文档文本内容
// @Tags 文档
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "文档ID"
// @Success 200 {object} util.Response{data=service.DocumentContent}
// @Router /api/documents/{id}/content [get]
func (c *DocumentController) Content(ctx *gin.Context) {
	id, ok := parseID(ctx, "id", "document")
	if !ok {
		return
	}
	doc, err := c.DocumentService.Get(util.GetUserFromContext(ctx), id)
	if err != nil {
		handleError(ctx, err)
		return
	}
	content, err := c.DocumentService.Content(ctx.Request.Context(), doc)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, content)
}

// Ask godoc
// @Summary 针对单个文档提问
// @Tags 文档
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.DocumentAskInput true "问题"
// @Success 200 {object} util.Response{data=service.DocumentAskResult}
// @Router /api/documents/ask [post]
func (c *DocumentController) Ask(ctx *gin.Context) {
	var req service.DocumentAskInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	res, err := c.QAService.AskDocument(ctx.Request.Context(), util.GetUserFromContext(ctx), req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// Download godoc
// @Summary 下载原文件
// @Tags 文档
// @Produce octet-stream
// @Security ApiKeyAuth
// @Param id path int true "文档ID"
// @Success 200 {file} file
// @Router /api/documents/{id}/download [get]
func (c *DocumentController) Download(ctx *gin.Context) {
	id, ok := parseID(ctx, "id", "document")
	if !ok {
		return
	}
	doc, err := c.DocumentService.Get(util.GetUserFromContext(ctx), id)
	if err != nil {
		handleError(ctx, err)
		return
	}
	rc, err := c.DocumentService.Open(ctx.Request.Context(), doc)
	if err != nil {
		util.NotFound(ctx, "File not found")
		return
	}
	defer rc.Close()

	ctx.DataFromReader(http.StatusOK, doc.FileSize, util.DocumentContentType(doc.FileType), rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(doc.DocName)),
	})
}

// Delete godoc
// @Summary 删除文档
// @Tags 文档
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "文档ID"
// @Success 200 {object} util.Response
// @Router /api/documents/{id} [delete]
func (c *DocumentController) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx, "id", "document")
	if !ok {
		return
	}
	doc, err := c.DocumentService.GetForModify(util.GetUserFromContext(ctx), id)
	if err != nil {
		handleError(ctx, err)
		return
	}
	if err := c.DocumentService.Delete(ctx.Request.Context(), doc); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Document deleted successfully"})
}

// Stats godoc
// @Summary 文档统计
// @Tags 文档
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.DocumentStatsResponse}
// @Router /api/documents/stats [get]
func (c *DocumentController) Stats(ctx *gin.Context) {
	stats, err := c.DocumentService.Stats(service.OwnerFromClaims(util.GetUserFromContext(ctx)))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
