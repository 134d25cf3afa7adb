package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"smartqa_backend/internal/config"
	"smartqa_backend/internal/controller"
	"smartqa_backend/internal/middleware"
	"smartqa_backend/internal/repository"
	"smartqa_backend/internal/service"
	"smartqa_backend/pkg/configwatcher"
	"smartqa_backend/pkg/database"
	"smartqa_backend/pkg/logger"
	"smartqa_backend/pkg/monitoring"
	"smartqa_backend/pkg/security"
	"smartqa_backend/pkg/tracing"
	"smartqa_backend/pkg/vectordb"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	origins         *security.Origins
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user      *repository.UserRepository
	test      *repository.TestRepository
	result    *repository.ResultRepository
	document  *repository.DocumentRepository
	proctor   *repository.ProctorRepository
	qaHistory *repository.QAHistoryRepository
}

type services struct {
	ai       *service.AIService
	auth     *service.AuthService
	storage  *service.StorageService
	document *service.DocumentService
	test     *service.TestService
	result   *service.ResultService
	qa       *service.QAService
	user     *service.UserService
	stats    *service.StatsService
	proctor  *service.ProctorService
}

type controllers struct {
	auth     *controller.AuthController
	user     *controller.UserController
	test     *controller.TestController
	score    *controller.ScoreController
	admin    *controller.AdminController
	document *controller.DocumentController
	ai       *controller.AIController
	proctor  *controller.ProctorController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		test:      repository.NewTestRepository(db),
		result:    repository.NewResultRepository(db),
		document:  repository.NewDocumentRepository(db),
		proctor:   repository.NewProctorRepository(db),
		qaHistory: repository.NewQAHistoryRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.ai = service.NewAIService(cfg.AI)
	s.storage = service.NewStorageService(cfg)
	index := vectordb.NewStore(rdb, cfg.Vector.Collection)

	s.auth = service.NewAuthService(repos.user, rdb, cfg)
	s.document = service.NewDocumentService(repos.document, s.storage, s.ai, index, cfg)
	s.test = service.NewTestService(repos.test, repos.result, s.ai)
	s.result = service.NewResultService(repos.result, s.test)
	s.qa = service.NewQAService(s.document, s.ai, s.ai, index, repos.qaHistory, cfg.Vector.TopK)
	s.user = service.NewUserService(repos.user, repos.document, s.document)
	s.stats = service.NewStatsService(repos.user, repos.test, repos.result, repos.document)
	s.proctor = service.NewProctorService(repos.proctor, s.result)

	// AI 模型与密钥支持热更新
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.ai.UpdateConfig(newCfg.AI)
	})
	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		user:     controller.NewUserController(s.user, s.stats, s.result),
		test:     controller.NewTestController(s.test, s.result),
		score:    controller.NewScoreController(s.result),
		admin:    controller.NewAdminController(s.test),
		document: controller.NewDocumentController(s.document, s.qa),
		ai:       controller.NewAIController(s.qa),
		proctor:  controller.NewProctorController(s.proctor),
		health:   controller.NewHealthController(a.DB, a.Redis, s.ai.Configured),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	a.origins = security.NewOrigins(cfg.CORS.AllowedOrigins)
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		a.origins.Update(newCfg.CORS.AllowedOrigins)
	})
	router.Use(security.CORS(a.origins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if cfg.RateLimit.MaxRequests > 0 && window > 0 {
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))
	}

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 基于已建立的数据库与 Redis 连接组装路由
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(app.services)

	monitoring.Init()

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)
	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")
	if cfg.JWT.Ephemeral {
		logger.Log.Warn("jwt.secret not set, using a random secret; tokens are invalidated on restart")
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err = tracing.InitTracer("smartqa-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing, continuing without it", zap.Error(err))
			cfg.Tracing.Enabled = false
		}
	}

	app := New(cfg, db, rdb)
	app.tracer = tp
	return app
}

func (a *App) reload(newCfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(newCfg)
	}
	logger.Log.Info("Configuration reloaded")
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		if err := configwatcher.Watch(watchCtx, filepath.Join("configs", "config.yaml"), a.reload); err != nil {
			logger.Log.Warn("Config watcher stopped", zap.Error(err))
		}
	}()

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
