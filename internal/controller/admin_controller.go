package controller

import (
	"smartqa_backend/internal/service"
	"smartqa_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AdminController 管理员的测试管理
type AdminController struct {
	TestService *service.TestService
}

func NewAdminController(testService *service.TestService) *AdminController {
	return &AdminController{TestService: testService}
}

// GenerateTest godoc
// @Summary AI 生成测试
// @Description 模型输出无法解析时使用内置题目，响应中 fallback 为 true
// @Tags 管理员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.GenerateTestInput true "生成参数"
// @Success 201 {object} util.Response{data=service.GenerateTestResult}
// @Router /api/admin/tests/generate [post]
func (c *AdminController) GenerateTest(ctx *gin.Context) {
	var req service.GenerateTestInput
	if err := ctx.ShouldBind(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	res, err := c.TestService.Generate(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Created(ctx, res)
}

// CreateTest godoc
// @Summary 手动创建测试
// @Tags 管理员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CreateTestInput true "测试内容"
// @Success 201 {object} util.Response{data=model.Test}
// @Router /api/admin/tests [post]
func (c *AdminController) CreateTest(ctx *gin.Context) {
	var req service.CreateTestInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	test, err := c.TestService.Create(claims.UserID, req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Created(ctx, test)
}

// ListTests godoc
// @Summary 我创建的测试
// @Tags 管理员
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]repository.TestListRow}
// @Router /api/admin/tests [get]
func (c *AdminController) ListTests(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	tests, err := c.TestService.ListOwned(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, tests)
}

// @Summary 查看测试（含答案）
// @Tags 管理员
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测试ID"
// @Success 200 {object} util.Response{data=model.Test}
// @Router /api/admin/tests/{id} [get]
func (c *AdminController) GetTest(ctx *gin.Context) {
	id, ok := parseID(ctx, "id", "test")
	if !ok {
		return
	}
	test, err := c.TestService.GetOwned(id, util.GetUserFromContext(ctx).UserID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, test)
}

// UpdateTest godoc
// @Summary 更新测试
// @Description 只更新请求中出现的字段
// @Tags 管理员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测试ID"
// @Param body body service.UpdateTestInput true "更新内容"
// @Success 200 {object} util.Response{data=model.Test}
// @Router /api/admin/tests/{id} [put]
func (c *AdminController) UpdateTest(ctx *gin.Context) {
	id, ok := parseID(ctx, "id", "test")
	if !ok {
		return
	}
	var req service.UpdateTestInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	test, err := c.TestService.Update(id, util.GetUserFromContext(ctx).UserID, req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, test)
}

// DeleteTest godoc
// @Summary 删除测试
// @Description 同时删除题目、成绩和监考记录
// @Tags 管理员
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测试ID"
// @Success 200 {object} util.Response
// @Router /api/admin/tests/{id} [delete]
func (c *AdminController) DeleteTest(ctx *gin.Context) {
	id, ok := parseID(ctx, "id", "test")
	if !ok {
		return
	}
	if err := c.TestService.Delete(id, util.GetUserFromContext(ctx).UserID); err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Test deleted successfully"})
}
