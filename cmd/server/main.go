package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"actc_portal_go/internal/config"
	"actc_portal_go/internal/handler"
	"actc_portal_go/internal/model"
	"actc_portal_go/internal/repository"
	"actc_portal_go/internal/router"
	"actc_portal_go/internal/search"
	"actc_portal_go/internal/service"
	"actc_portal_go/pkg/analytics"
	"actc_portal_go/pkg/database"
	"actc_portal_go/pkg/hash"
	"actc_portal_go/pkg/log"
	"actc_portal_go/pkg/token"
	"actc_portal_go/pkg/upload"

	"gorm.io/gorm"
)

func main() {
	config.Init("configs/config.yaml")
	cfg := config.Conf

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()

	log.Info("Server starting")

	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.RunMigrate(); err != nil {
		log.Fatal("Failed to run migrations", err)
		return
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)

	// 仓储层
	userRepo := repository.NewUserRepository(database.DB)
	newsRepo := repository.NewNewsRepository(database.DB)
	eventRepo := repository.NewEventRepository(database.DB)
	memberRepo := repository.NewMemberRepository(database.DB)

	if err := seedAdmin(userRepo); err != nil {
		log.Fatal("Failed to seed admin user", err)
		return
	}

	// 上传管理器：images/ 与 files/ 子目录在 BaseDir 下创建
	uploads, err := upload.NewManager(cfg.Upload.BaseDir)
	if err != nil {
		log.Fatal("Failed to init upload manager", err)
		return
	}

	// 可选的新闻全文检索
	var indexer *search.NewsIndexer
	if cfg.Search.Enabled {
		indexer, err = search.NewNewsIndexer(cfg.Search.Addresses, cfg.Search.NewsIndex)
		if err != nil {
			log.Fatal("Failed to init search indexer", err)
			return
		}
		log.Info("News search indexer enabled")
	}

	// 外部分析客户端：未配置时退回模拟数据
	var analyticsClient analytics.Client
	if cfg.Analytics.Enabled && cfg.Analytics.PropertyID != "" {
		analyticsClient = analytics.NewGA4Client(cfg.Analytics.BaseURL, cfg.Analytics.PropertyID, cfg.Analytics.APIKey)
		log.Info("Analytics client enabled")
	} else {
		analyticsClient = analytics.MockClient{}
		log.Info("Analytics not configured, using mock data")
	}

	jwtManager := token.NewJWTManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpireHours)*time.Hour,
	)
	authOpts := service.AuthOptions{
		DefaultPassword:   cfg.Auth.DefaultPassword,
		MinPasswordLength: cfg.Auth.MinPasswordLength,
	}

	// 服务层
	authService := service.NewAuthService(userRepo, jwtManager, authOpts)
	userService := service.NewUserService(userRepo, authOpts)
	analyticsService := service.NewAnalyticsService(
		analyticsClient,
		newsRepo,
		database.RDB,
		time.Duration(cfg.Analytics.TrendingCacheTTLSeconds)*time.Second,
		cfg.Analytics.RefreshCron,
	)
	newsService := service.NewNewsService(newsRepo, uploads, indexer)
	eventService := service.NewEventService(eventRepo, uploads)
	memberService := service.NewMemberService(memberRepo, uploads)

	if err := analyticsService.Start(); err != nil {
		log.Fatal("Failed to start analytics scheduler", err)
		return
	}
	defer analyticsService.Stop()

	r := router.SetupRouter(&cfg, router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		User:   handler.NewUserHandler(userService),
		News:   handler.NewNewsHandler(newsService, analyticsService, uploads),
		Event:  handler.NewEventHandler(eventService, uploads),
		Member: handler.NewMemberHandler(memberService, uploads),
	}, jwtManager, authService, uploads)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP server shutdown failed: %v", err)
	}

	log.Info("Server stopped gracefully")
}

// seedAdmin 在系统里还没有 admin 账号时创建初始管理员 admin/admin，
// 并标记首登强制改密。重启时幂等。
func seedAdmin(userRepo repository.UserRepository) error {
	_, err := userRepo.FindByUsername("admin")
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := hash.HashPassword("admin")
	if err != nil {
		return err
	}
	admin := &model.User{
		Username:     "admin",
		Password:     hashed,
		Role:         model.RoleAdmin,
		IsActive:     true,
		IsFirstLogin: true,
	}
	if err := userRepo.Create(admin); err != nil {
		return err
	}
	log.Info("Seeded initial admin user")
	return nil
}
