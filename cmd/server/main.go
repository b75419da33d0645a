package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/edupress/school-portal-api/api/swagger"
	"github.com/edupress/school-portal-api/internal/handler"
	"github.com/edupress/school-portal-api/internal/middleware"
	"github.com/edupress/school-portal-api/internal/models"
	"github.com/edupress/school-portal-api/internal/repository"
	"github.com/edupress/school-portal-api/internal/service"
	"github.com/edupress/school-portal-api/pkg/cache"
	"github.com/edupress/school-portal-api/pkg/config"
	"github.com/edupress/school-portal-api/pkg/database"
	"github.com/edupress/school-portal-api/pkg/logger"
	corsmiddleware "github.com/edupress/school-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edupress/school-portal-api/pkg/middleware/requestid"
	"github.com/edupress/school-portal-api/pkg/storage"
)

// @title School Portal API
// @version 1.0.0
// @description Backend for the school web portal: notices, rosters, attendance, forms
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	blobs, err := storage.NewLocalBlobStore(cfg.Attachments.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare attachment storage", zap.Error(err))
	}
	urls := storage.NewPublicURLResolver(cfg.Attachments.PublicBaseURL)

	metrics := service.NewMetricsService()

	// Redis is optional: without it the API serves uncached.
	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		cacheSvc = service.NewCacheService(nil, metrics, cfg.Dashboard.CacheTTL, logr, false)
	} else {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, true)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	formRepo := repository.NewFormRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	noticeSvc := service.NewNoticeService(noticeRepo, blobs, urls, cacheSvc, metrics, validate, logr, service.NoticeServiceConfig{
		MaxAttachmentSize: cfg.Attachments.MaxSizeBytes,
		MarqueeCacheTTL:   cfg.Marquee.CacheTTL,
		CleanupMaxAge:     cfg.Attachments.CleanupMaxAge,
	})
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, validate, logr)
	formSvc := service.NewFormService(formRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(studentRepo, teacherRepo, noticeRepo, formRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	exportSvc := service.NewExportService(noticeRepo, studentRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	noticeHandler := handler.NewNoticeHandler(noticeSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	formHandler := handler.NewFormHandler(formSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.Static("/files", cfg.Attachments.StorageDir)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)
		api.GET("/auth/me", middleware.JWT(authSvc), authHandler.Me)

		// Public read surface: the home page shows notices without a
		// session, but a presented token still attributes the request.
		public := api.Group("", middleware.OptionalJWT(authSvc))
		{
			public.GET("/notices", noticeHandler.List)
			public.GET("/notices/marquee", noticeHandler.Marquee)
			public.GET("/notices/:id", noticeHandler.Get)
			public.GET("/forms/types", formHandler.ListTypes)
		}

		staff := api.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher))
		{
			staff.POST("/notices", noticeHandler.Create)
			staff.PUT("/notices/:id", noticeHandler.Update)

			staff.GET("/students", studentHandler.List)
			staff.GET("/students/:id", studentHandler.Get)

			staff.POST("/attendance", attendanceHandler.Mark)
			staff.GET("/attendance", attendanceHandler.ListByDate)
			staff.GET("/attendance/students/:id", attendanceHandler.StudentHistory)

			staff.GET("/teachers", teacherHandler.List)
			staff.GET("/teachers/:id", teacherHandler.Get)
		}

		admin := api.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
		{
			admin.POST("/students", studentHandler.Create)
			admin.PUT("/students/:id", studentHandler.Update)
			admin.POST("/teachers", teacherHandler.Create)

			admin.GET("/forms/submissions", formHandler.ListSubmissions)
			admin.GET("/forms/submissions/:id", formHandler.GetSubmission)
			admin.PUT("/forms/submissions/:id/status", formHandler.Process)

			admin.GET("/dashboard/stats", dashboardHandler.Stats)

			admin.POST("/maintenance/attachments/cleanup", noticeHandler.CleanupAttachments)

			if cfg.Exports.Enabled {
				admin.GET("/exports/notices", exportHandler.Notices)
				admin.GET("/exports/students", exportHandler.Students)
			}
		}

		api.POST("/forms/submissions", middleware.JWT(authSvc), formHandler.Submit)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
