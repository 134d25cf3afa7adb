package controller

import (
	"smartqa_backend/internal/service"
	"smartqa_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ScoreController struct {
	ResultService *service.ResultService
}

func NewScoreController(resultService *service.ResultService) *ScoreController {
	return &ScoreController{ResultService: resultService}
}

// ListAll godoc
// @Summary 所有成绩
// @Tags 成绩
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Result}
// @Router /api/scores/all [get]
func (c *ScoreController) ListAll(ctx *gin.Context) {
	results, err := c.ResultService.ListAll()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, results)
}

// MyScores godoc
// @Summary 我的成绩
// @Tags 成绩
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Result}
// @Router /api/scores/my-scores [get]
func (c *ScoreController) MyScores(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	results, err := c.ResultService.ListByUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, results)
}

// MyResults godoc
// @Summary 我的成绩（含测试信息）
// @Tags 成绩
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]repository.ResultWithTest}
// @Router /api/scores/my [get]
func (c *ScoreController) MyResults(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	results, err := c.ResultService.ListByUserWithTest(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, results)
}

// GetResult godoc
// @Summary 查看单个成绩
// @Tags 学生
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "成绩ID"
// @Success 200 {object} util.Response{data=model.Result}
// @Router /api/user/results/{id} [get]
func (c *ScoreController) GetResult(ctx *gin.Context) {
	id, ok := parseID(ctx, "id", "result")
	if !ok {
		return
	}
	result, err := c.ResultService.Get(util.GetUserFromContext(ctx), id)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Submit godoc
// @Summary 提交成绩
// @Tags 成绩
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ScoreSubmitInput true "答案列表"
// @Success 200 {object} util.Response{data=model.Result}
// @Router /api/scores/submit [post]
func (c *ScoreController) Submit(ctx *gin.Context) {
	var req service.ScoreSubmitInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	claims := util.GetUserFromContext(ctx)
	result, err := c.ResultService.Submit(claims.UserID, req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
