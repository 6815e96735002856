package router

import (
	"time"

	"filevault/internal/config"
	"filevault/internal/handler"
	"filevault/internal/middleware"
	"filevault/internal/repository"
	"filevault/internal/service"
	"filevault/internal/storage"
	"filevault/internal/utils"
	"filevault/pkg/redis_limiter"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SetupRouter 设置路由
func SetupRouter(
	cfg *config.Config,
	jwtManager *utils.JWTManager,
	logger *logrus.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
	contentStore *storage.ContentStore,
) *gin.Engine {
	// 设置Gin模式
	if cfg.Server.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg))

	// 健康检查
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "文件存储服务 API",
			"version": "1.0.0",
		})
	})

	// 初始化Repository
	userRepo := repository.NewUserRepository(db)
	fileRepo := repository.NewUploadedFileRepository(db)

	// 初始化Service
	authService := service.NewAuthService(userRepo, jwtManager, cfg)
	fileService := service.NewFileService(fileRepo, contentStore, cfg, logger)

	// 上传并发限制器
	uploadLimiter := redis_limiter.NewRedisLimiter(
		redisClient,
		cfg.Redis.MaxConcurrentUploads,
		"filevault:upload:",
		5*time.Minute,
		logger,
	)

	// 初始化Handler
	authHandler := handler.NewAuthHandler(authService)
	fileHandler := handler.NewFileHandler(fileService)
	adminHandler := handler.NewAdminHandler(userRepo, fileRepo, fileService)

	// API路由组
	api := r.Group("/api")
	{
		// 公开路由
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 认证路由
		authorized := api.Group("")
		authorized.Use(middleware.AuthMiddleware(jwtManager))
		{
			// 用户信息
			authorized.GET("/me", authHandler.GetMe)
			authorized.POST("/logout", authHandler.Logout)

			// 文件管理
			authorized.POST("/files/upload", middleware.UploadLimiter(uploadLimiter), fileHandler.Upload)
			authorized.GET("/files", fileHandler.List)
			authorized.GET("/files/mine", fileHandler.ListMine)
			authorized.GET("/files/recent", fileHandler.Recent)
			authorized.GET("/files/search", fileHandler.Search)
			authorized.GET("/files/stats", fileHandler.Stats)
			authorized.GET("/files/:file_id", fileHandler.GetInfo)
			authorized.GET("/files/:file_id/serve", fileHandler.Serve)
			authorized.GET("/files/:file_id/download", fileHandler.Download)
			authorized.DELETE("/files/:file_id", fileHandler.Delete)

			// 管理员接口
			adminGroup := authorized.Group("/admin")
			adminGroup.Use(middleware.AdminMiddleware())
			{
				adminGroup.GET("/users", adminHandler.ListUsers)
				adminGroup.GET("/files", adminHandler.ListAllFiles)
				adminGroup.DELETE("/files/:file_id", adminHandler.HardDeleteFile)
			}
		}
	}

	return r
}
