package controller

import (
	"smartqa_backend/internal/model"
	"smartqa_backend/internal/service"
	"smartqa_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TestController struct {
	TestService   *service.TestService
	ResultService *service.ResultService
}

func NewTestController(testService *service.TestService, resultService *service.ResultService) *TestController {
	return &TestController{TestService: testService, ResultService: resultService}
}

// ListActive godoc
// @Summary 获取所有激活的测试
// @Tags 测试
// @Produce json
// @Success 200 {object} util.Response{data=[]repository.TestListRow}
// @Router /api/tests/all [get]
func (c *TestController) ListActive(ctx *gin.Context) {
	tests, err := c.TestService.ListActive()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, tests)
}

// GetActive godoc
// @Summary 获取测试概要
// @Tags 测试
// @Produce json
// @Param id path int true "测试ID"
// @Success 200 {object} util.Response{data=repository.TestListRow}
// @Failure 404 {object} util.Response
// @Router /api/tests/{id} [get]
func (c *TestController) GetActive(ctx *gin.Context) {
	id, ok := parseID(ctx, "id", "test")
	if !ok {
		return
	}
	test, err := c.TestService.GetActive(id)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, test)
}

// Questions godoc
// @Summary 获取测试题目
// @Description 非管理员看到的正确答案为 ***
// @Tags 测试
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测试ID"
// @Success 200 {object} util.Response{data=[]model.Question}
// @Router /api/tests/{id}/questions [get]
func (c *TestController) Questions(ctx *gin.Context) {
	id, ok := parseID(ctx, "id", "test")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	questions, err := c.TestService.Questions(id, claims.Role == model.Admin)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// Submit godoc
// @Summary 提交测试答案
// @Description answers 为 题目ID → 选项字母
// @Tags 测试
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.SubmitInput true "答案"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Router /api/tests/submit [post]
func (c *TestController) Submit(ctx *gin.Context) {
	var req service.SubmitInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	result, err := c.TestService.Submit(claims.UserID, req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, service.SubmitResult{
		Message:  "Test submitted successfully",
		Score:    result.Score,
		Correct:  result.CorrectAnswers,
		Total:    result.TotalQuestions,
		ResultID: result.ID,
	})
}

// StudentTests godoc
// @Summary 学生可参加的测试（含题目）
// @Tags 学生
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Test}
// @Router /api/user/tests [get]
func (c *TestController) StudentTests(ctx *gin.Context) {
	tests, err := c.TestService.StudentTests()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, tests)
}

// @Summary 学生查看单个测试
// @Tags 学生
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测试ID"
// @Success 200 {object} util.Response{data=model.Test}
// @Router /api/user/tests/{id} [get]
func (c *TestController) StudentTest(ctx *gin.Context) {
	id, ok := parseID(ctx, "id", "test")
	if !ok {
		return
	}
	test, err := c.TestService.StudentTest(id)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, test)
}

type TestAnswersRequest struct {
	Answers          []service.AnswerItem `json:"answers"`
	TimeTakenMinutes float64              `json:"time_taken_minutes"`
}

// SubmitForTest godoc
// @Summary 学生提交指定测试
// @Tags 学生
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测试ID"
// @Param body body TestAnswersRequest true "答案列表"
// @Success 200 {object} util.Response{data=model.Result}
// @Router /api/user/tests/{id}/submit [post]
func (c *TestController) SubmitForTest(ctx *gin.Context) {
	id, ok := parseID(ctx, "id", "test")
	if !ok {
		return
	}
	var req TestAnswersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	result, err := c.ResultService.Submit(claims.UserID, service.ScoreSubmitInput{
		TestID:           id,
		Answers:          req.Answers,
		TimeTakenMinutes: req.TimeTakenMinutes,
	})
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
