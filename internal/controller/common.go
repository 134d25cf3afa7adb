package controller

import (
	"errors"
	"net/http"
	"smartqa_backend/internal/util"
	"smartqa_backend/pkg/extractor"
	"strconv"

	"github.com/gin-gonic/gin"
)

// parseID 解析路径参数，失败时直接写 400
func parseID(ctx *gin.Context, name, label string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "Invalid "+label+" ID")
		return 0, false
	}
	return uint(id), true
}

// handleError 将业务错误映射为 HTTP 响应
func handleError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrInvalidCredentials):
		util.BadRequest(ctx, "Incorrect email or password")
	case errors.Is(err, util.ErrEmailRegistered):
		util.Conflict(ctx, "Email already registered")
	case errors.Is(err, util.ErrUsernameTaken):
		util.Conflict(ctx, "Username already registered")
	case errors.Is(err, util.ErrInvalidRole),
		errors.Is(err, util.ErrInvalidInput),
		errors.Is(err, util.ErrTestNotActive),
		errors.Is(err, util.ErrDuplicateDocument),
		errors.Is(err, util.ErrUnsupportedFileType),
		errors.Is(err, util.ErrDocumentEmpty),
		errors.Is(err, util.ErrDocumentUnprocessed),
		errors.Is(err, extractor.ErrUnsupported):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrFileTooLarge):
		util.Error(ctx, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx, "User not found")
	case errors.Is(err, util.ErrTestNotFound):
		util.NotFound(ctx, "Test not found")
	case errors.Is(err, util.ErrResultNotFound):
		util.NotFound(ctx, "Result not found")
	case errors.Is(err, util.ErrDocumentNotFound):
		util.NotFound(ctx, "Document not found")
	case errors.Is(err, util.ErrAIUnavailable):
		util.Error(ctx, http.StatusServiceUnavailable, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
