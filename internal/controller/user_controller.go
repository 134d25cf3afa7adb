package controller

import (
	"smartqa_backend/internal/middleware"
	"smartqa_backend/internal/service"
	"smartqa_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService   *service.UserService
	StatsService  *service.StatsService
	ResultService *service.ResultService
}

func NewUserController(userService *service.UserService, statsService *service.StatsService, resultService *service.ResultService) *UserController {
	return &UserController{UserService: userService, StatsService: statsService, ResultService: resultService}
}

// Stats godoc
// @Summary 用户统计
// @Tags 用户
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.UserStats}
// @Router /api/user/stats [get]
func (c *UserController) Stats(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	stats, err := c.StatsService.UserStats(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// Profile godoc
// @Summary 个人资料
// @Tags 用户
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User}
// @Router /api/user/profile [get]
func (c *UserController) Profile(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	util.Success(ctx, user)
}

// Results godoc
// @Summary 我的测试结果
// @Tags 学生
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Result}
// @Router /api/user/results [get]
func (c *UserController) Results(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	results, err := c.ResultService.ListByUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, results)
}

// ListUsers godoc
// @Summary 用户列表
// @Tags 管理员
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.User}
// @Router /api/admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	users, err := c.UserService.List()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

// @Summary 查看用户
// @Tags 管理员
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "用户ID"
// @Success 200 {object} util.Response{data=model.User}
// @Router /api/admin/user/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := parseID(ctx, "id", "user")
	if !ok {
		return
	}
	user, err := c.UserService.Get(id)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// DeleteUser godoc
// @Summary 删除用户
// @Description 级联删除其文档、成绩、问答记录以及创建的测试
// @Tags 管理员
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "用户ID"
// @Success 200 {object} util.Response
// @Router /api/admin/user/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := parseID(ctx, "id", "user")
	if !ok {
		return
	}
	if claims := util.GetUserFromContext(ctx); claims.UserID == id {
		util.BadRequest(ctx, "Cannot delete your own account")
		return
	}
	if err := c.UserService.Delete(ctx.Request.Context(), id); err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "User deleted successfully"})
}

// DashboardStats godoc
// @Summary 管理后台统计
// @Tags 管理员
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.DashboardStats}
// @Router /api/admin/dashboard/stats [get]
func (c *UserController) DashboardStats(ctx *gin.Context) {
	stats, err := c.StatsService.Dashboard()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// PersonalStats godoc
// @Summary 个人仪表盘
// @Tags 系统
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.PersonalDashboard}
// @Router /api/stats [get]
func (c *UserController) PersonalStats(ctx *gin.Context) {
	stats, err := c.StatsService.Personal(service.OwnerFromClaims(util.GetUserFromContext(ctx)))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
