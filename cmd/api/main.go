package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campus-suite/attendance-api/api/swagger"
	"github.com/campus-suite/attendance-api/internal/facerec"
	"github.com/campus-suite/attendance-api/internal/handler"
	"github.com/campus-suite/attendance-api/internal/middleware"
	"github.com/campus-suite/attendance-api/internal/models"
	"github.com/campus-suite/attendance-api/internal/repository"
	"github.com/campus-suite/attendance-api/internal/roster"
	"github.com/campus-suite/attendance-api/internal/service"
	"github.com/campus-suite/attendance-api/pkg/cache"
	"github.com/campus-suite/attendance-api/pkg/config"
	"github.com/campus-suite/attendance-api/pkg/database"
	"github.com/campus-suite/attendance-api/pkg/jobs"
	"github.com/campus-suite/attendance-api/pkg/logger"
	"github.com/campus-suite/attendance-api/pkg/mailer"
	corsmiddleware "github.com/campus-suite/attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campus-suite/attendance-api/pkg/middleware/requestid"
	"github.com/campus-suite/attendance-api/pkg/storage"
)

// @title Attendance API
// @version 1.0.0
// @description Face-recognition attendance pipeline for study groups
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}

	photos, err := storage.NewPhotoStorage(cfg.Photos.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init photo storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Photos.SignedURLSecret, cfg.Photos.SignedURLTTL)

	validate := validator.New()
	metrics := service.NewMetricsService()
	detector := facerec.NewHTTPEngine(cfg.Face.EngineURL, cfg.Face.Timeout)
	rosterStore := roster.NewStore()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	assignmentRepo := repository.NewTeacherAssignmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Outbound mail.
	var mail mailer.Mailer
	if cfg.Mail.Host != "" {
		mail = mailer.NewSMTP(cfg.Mail)
	} else {
		logr.Warn("mail host not configured, absence notices go to the log")
		mail = mailer.NewConsole(logr)
	}

	// Services.
	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	notificationService := service.NewNotificationService(mail, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	}, cfg.Notifications.SendTimeout, logr, metrics)
	recognitionService := service.NewRecognitionService(studentRepo, groupRepo, rosterStore, detector, cfg.Face.Tolerance, logr, metrics)
	attendanceService := service.NewAttendanceService(attendanceRepo, assignmentRepo, groupRepo, studentRepo, subjectRepo, userRepo, cacheRepo, notificationService, logr, metrics)
	reportService := service.NewReportService(attendanceRepo, cacheRepo, service.ReportConfig{
		CacheEnabled: cfg.Reports.CacheEnabled && redisClient != nil,
		CacheTTL:     cfg.Reports.CacheTTL,
	}, logr)
	studentService := service.NewStudentService(studentRepo, groupRepo, detector, photos, signer, validate, logr)
	userService := service.NewUserService(userRepo, validate, logr)
	groupService := service.NewGroupService(groupRepo, logr)
	subjectService := service.NewSubjectService(subjectRepo, logr)
	assignmentService := service.NewTeacherAssignmentService(assignmentRepo, userRepo, subjectRepo, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	notificationService.Start(rootCtx)
	defer notificationService.Stop()

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	recognitionHandler := handler.NewRecognitionHandler(recognitionService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService)
	reportHandler := handler.NewReportHandler(reportService)
	studentHandler := handler.NewStudentHandler(studentService)
	userHandler := handler.NewUserHandler(userService)
	groupHandler := handler.NewGroupHandler(groupService)
	subjectHandler := handler.NewSubjectHandler(subjectService)
	assignmentHandler := handler.NewTeacherAssignmentHandler(assignmentService)
	metricsHandler := handler.NewMetricsHandler(metrics, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/photos/:token", studentHandler.Photo)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))
	authed.PUT("/auth/password", authHandler.ChangePassword)

	teacher := authed.Group("")
	teacher.Use(middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin))
	teacher.POST("/recognition/faces/load", recognitionHandler.LoadFaces)
	teacher.POST("/recognition/recognize", recognitionHandler.Recognize)
	teacher.POST("/attendance", attendanceHandler.Submit)
	teacher.GET("/assignments/my", assignmentHandler.ListOwn)
	teacher.GET("/reports/attendance", reportHandler.Matrix)
	teacher.GET("/reports/attendance/export/csv", reportHandler.ExportCSV)
	teacher.GET("/reports/attendance/export/pdf", reportHandler.ExportPDF)

	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/students", studentHandler.List)
	admin.POST("/students", studentHandler.Enroll)
	admin.GET("/students/:id", studentHandler.Get)
	admin.DELETE("/students/:id", studentHandler.Delete)
	admin.GET("/users", userHandler.List)
	admin.POST("/users", userHandler.Register)
	admin.DELETE("/users/:id", userHandler.Delete)
	admin.GET("/groups", groupHandler.List)
	admin.POST("/groups", groupHandler.Create)
	admin.DELETE("/groups/:id", groupHandler.Delete)
	admin.GET("/subjects", subjectHandler.List)
	admin.POST("/subjects", subjectHandler.Create)
	admin.DELETE("/subjects/:id", subjectHandler.Delete)
	admin.GET("/assignments", assignmentHandler.List)
	admin.POST("/assignments", assignmentHandler.Create)
	admin.DELETE("/assignments/:id", assignmentHandler.Delete)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
