package app

import (
	"smartqa_backend/docs"
	"smartqa_backend/internal/config"
	"smartqa_backend/internal/middleware"
	"smartqa_backend/internal/model"
	"smartqa_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	auth := middleware.AuthMiddleware(cfg, a.services.auth)
	student := middleware.RoleMiddleware(model.Student)
	admin := middleware.RoleMiddleware(model.Admin)

	api := router.Group("/api")

	// 1. 公共路由(无需登录)
	api.GET("/health", c.health.HealthCheck)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", c.auth.Register)
		authGroup.POST("/login", c.auth.Login)
		authGroup.GET("/me", auth, c.auth.Me)
		authGroup.POST("/logout", auth, c.auth.Logout)
	}
	tests := api.Group("/tests")
	{
		tests.GET("/all", c.test.ListActive)
		tests.GET("/:id", c.test.GetActive)
		tests.GET("/:id/questions", auth, c.test.Questions)
		tests.POST("/submit", auth, student, c.test.Submit)
	}

	// 2. 需要登录的路由
	api.GET("/stats", auth, c.user.PersonalStats)
	a.registerUserRoutes(api.Group("/user", auth), c, student)
	a.registerScoreRoutes(api.Group("/scores", auth), c, student, admin)
	a.registerDocumentRoutes(api.Group("/documents", auth), c)
	a.registerAIRoutes(api.Group("/ai", auth), c)
	a.registerProctorRoutes(api.Group("/proctor", auth), c, student, admin)

	// 3. 管理员
	a.registerAdminRoutes(api.Group("/admin", auth, admin), c)
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers, student gin.HandlerFunc) {
	rg.GET("/stats", c.user.Stats)
	rg.GET("/profile", student, c.user.Profile)
	rg.GET("/tests", student, c.test.StudentTests)
	rg.GET("/tests/:id", student, c.test.StudentTest)
	rg.POST("/tests/:id/submit", student, c.test.SubmitForTest)
	rg.GET("/results", student, c.user.Results)
	rg.GET("/results/:id", student, c.score.GetResult)

	rg.GET("/documents", c.document.ListMine)
	rg.POST("/documents", c.document.Upload)
	rg.POST("/documents/:id/process", c.document.Process)
	rg.DELETE("/documents/:id", c.document.Delete)
}

func (a *App) registerScoreRoutes(rg *gin.RouterGroup, c *controllers, student, admin gin.HandlerFunc) {
	rg.GET("/all", admin, c.score.ListAll)
	rg.GET("/my-scores", c.score.MyScores)
	rg.GET("/my", c.score.MyResults)
	rg.POST("/submit", student, c.score.Submit)
}

func (a *App) registerDocumentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/all", c.document.ListMine)
	rg.GET("/stats", c.document.Stats)
	rg.POST("/upload", c.document.Upload)
	rg.POST("/ask", c.document.Ask)
	rg.GET("/:id/content", c.document.Content)
	rg.GET("/:id/download", c.document.Download)
	rg.DELETE("/:id", c.document.Delete)
}

func (a *App) registerAIRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/ask", c.ai.Ask)
	rg.POST("/ask/stream", c.ai.AskStream)
	rg.GET("/history", c.ai.History)
	rg.POST("/generate-questions", c.ai.GenerateQuestions)
	rg.POST("/summarize-document", c.ai.Summarize)
}

func (a *App) registerProctorRoutes(rg *gin.RouterGroup, c *controllers, student, admin gin.HandlerFunc) {
	rg.POST("/log", student, c.proctor.Log)
	rg.GET("/reports/:testId", admin, c.proctor.Reports)
	rg.GET("/violations/:resultId", c.proctor.Violations)
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.user.Profile)
	rg.GET("/users", c.user.ListUsers)
	rg.GET("/user/:id", c.user.GetUser)
	rg.DELETE("/user/:id", c.user.DeleteUser)

	rg.POST("/tests/generate", c.admin.GenerateTest)
	rg.POST("/tests", c.admin.CreateTest)
	rg.GET("/tests", c.admin.ListTests)
	rg.GET("/tests/:id", c.admin.GetTest)
	rg.PUT("/tests/:id", c.admin.UpdateTest)
	rg.DELETE("/tests/:id", c.admin.DeleteTest)

	rg.GET("/documents", c.document.ListAll)
	rg.POST("/documents", c.document.Upload)
	rg.POST("/documents/:id/process", c.document.Process)
	rg.DELETE("/documents/:id", c.document.Delete)

	rg.GET("/dashboard/stats", c.user.DashboardStats)
}
