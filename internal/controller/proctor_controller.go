package controller

import (
	"smartqa_backend/internal/service"
	"smartqa_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProctorController struct {
	ProctorService *service.ProctorService
}

func NewProctorController(proctorService *service.ProctorService) *ProctorController {
	return &ProctorController{ProctorService: proctorService}
}

// Log godoc
// @Summary 记录监考违规
// @Description 累计 10 次违规后成绩被标记
// @Tags 监考
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ProctorLogInput true "违规信息"
// @Success 201 {object} util.Response{data=service.ViolationSummary}
// @Router /api/proctor/log [post]
func (c *ProctorController) Log(ctx *gin.Context) {
	var req service.ProctorLogInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	summary, err := c.ProctorService.Log(util.GetUserFromContext(ctx), req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Created(ctx, summary)
}

// Reports godoc
// @Summary 测试的监考记录
// @Tags 监考
// @Produce json
// @Security ApiKeyAuth
// @Param testId path int true "测试ID"
// @Success 200 {object} util.Response{data=[]model.ProctorLog}
// @Router /api/proctor/reports/{testId} [get]
func (c *ProctorController) Reports(ctx *gin.Context) {
	testID, ok := parseID(ctx, "testId", "test")
	if !ok {
		return
	}
	logs, err := c.ProctorService.Reports(testID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, logs)
}

// @Summary 作答的违规次数
// @Tags 监考
// @Produce json
// @Security ApiKeyAuth
// @Param resultId path int true "成绩ID"
// @Success 200 {object} util.Response{data=service.ViolationSummary}
// @Router /api/proctor/violations/{resultId} [get]
func (c *ProctorController) Violations(ctx *gin.Context) {
	resultID, ok := parseID(ctx, "resultId", "result")
	if !ok {
		return
	}
	summary, err := c.ProctorService.Violations(util.GetUserFromContext(ctx), resultID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}
